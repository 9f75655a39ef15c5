// Package surreal implements the storage contract on a SurrealDB
// document keyspace. Records live in per-type tables (note:3,
// category:1, ...); set lookups go through SurrealQL over the
// websocket RPC connection.
//
// The client API predates context support, so the context arguments
// required by the contract are accepted but not propagated.
package surreal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"

	"github.com/ErkanEron/melonotes/internal/store"
)

// Config carries the connection parameters for a SurrealDB cluster.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store is the document backend. It satisfies store.Store.
type Store struct {
	db  *surrealdb.DB
	log zerolog.Logger
}

// Open connects and authenticates against SurrealDB.
func Open(cfg Config, log zerolog.Logger) (*Store, error) {
	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}
	if _, err := db.Signin(map[string]any{"user": cfg.Username, "pass": cfg.Password}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to sign in to surrealdb: %w", err)
	}
	if _, err := db.Use(cfg.Namespace, cfg.Database); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to select namespace: %w", err)
	}
	return &Store{db: db, log: log.With().Str("component", "surreal").Logger()}, nil
}

// Close shuts down the websocket connection.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// decode round-trips a wire value through JSON into dest.
func decode(src, dest any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

type statement struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

// queryRows runs a SurrealQL statement and unmarshals the first
// statement's result set into dest (a slice pointer).
func (s *Store) queryRows(sql string, vars map[string]any, dest any) error {
	res, err := s.db.Query(sql, vars)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	var stmts []statement
	if err := decode(res, &stmts); err != nil {
		return fmt.Errorf("failed to decode query result: %w", err)
	}
	if len(stmts) == 0 {
		return nil
	}
	first := stmts[0]
	if first.Status != "" && first.Status != "OK" {
		return fmt.Errorf("query returned status %s", first.Status)
	}
	if dest == nil || len(first.Result) == 0 {
		return nil
	}
	return json.Unmarshal(first.Result, dest)
}

// selectRecord fetches one record by thing ("note:3") into dest,
// translating a missing record into store.ErrNotFound.
func (s *Store) selectRecord(thing string, dest any) error {
	res, err := s.db.Select(thing)
	if err != nil {
		var pe surrealdb.PermissionError
		if errors.As(err, &pe) {
			return store.ErrNotFound
		}
		return fmt.Errorf("select %s failed: %w", thing, err)
	}
	if res == nil {
		return store.ErrNotFound
	}
	return decode(res, dest)
}

// exists reports whether a record is present.
func (s *Store) exists(thing string) (bool, error) {
	var doc map[string]any
	err := s.selectRecord(thing, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// nextID allocates the next integer id for a table with a single
// atomic counter statement. Two concurrent creates can never observe
// the same value, unlike a read-then-increment counter.
func (s *Store) nextID(table string) (int64, error) {
	var rows []struct {
		N int64 `json:"n"`
	}
	sql := fmt.Sprintf("UPDATE counter:%s SET n = (n ?? 0) + 1 RETURN AFTER", table)
	if err := s.queryRows(sql, nil, &rows); err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", table, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("failed to allocate %s id: empty counter result", table)
	}
	return rows[0].N, nil
}

// thing builds a record id like "note:3".
func thing(table string, id int64) string {
	return table + ":" + strconv.FormatInt(id, 10)
}

// parseID extracts the integer part of a record id ("note:3" -> 3).
func parseID(recordID string) int64 {
	_, raw, ok := strings.Cut(recordID, ":")
	if !ok {
		return 0
	}
	raw = strings.Trim(raw, "⟨⟩`")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// deleteRecord removes a record, failing with store.ErrNotFound when
// it was never there. The delete RPC itself reports nothing, so
// existence is checked first.
func (s *Store) deleteRecord(table string, id int64) error {
	t := thing(table, id)
	ok, err := s.exists(t)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	if _, err := s.db.Delete(t); err != nil {
		return fmt.Errorf("delete %s failed: %w", t, err)
	}
	return nil
}

// mergeRecord merges fields into an existing record. The change RPC
// would create a missing record, so existence is checked first.
func (s *Store) mergeRecord(table string, id int64, fields map[string]any) error {
	t := thing(table, id)
	ok, err := s.exists(t)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	if _, err := s.db.Change(t, fields); err != nil {
		return fmt.Errorf("change %s failed: %w", t, err)
	}
	return nil
}

// createRecord writes a new record under an allocated id.
func (s *Store) createRecord(table string, id int64, fields map[string]any) error {
	t := thing(table, id)
	if _, err := s.db.Create(t, fields); err != nil {
		return fmt.Errorf("create %s failed: %w", t, err)
	}
	return nil
}
