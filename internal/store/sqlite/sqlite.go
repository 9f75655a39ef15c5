// Package sqlite implements the storage contract on a relational
// SQLite schema with cascading foreign keys.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store is the relational backend. It satisfies store.Store.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// Open opens or creates the database at path and initializes the schema.
// Pass ":memory:" for an ephemeral database (used by tests).
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}
	if dsn != ":memory:" {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dsn == ":memory:" {
		// A pooled second connection would see a different empty
		// database, so pin the pool to one connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, log: log.With().Str("component", "sqlite").Logger()}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			color TEXT NOT NULL DEFAULT '#FF69B4',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			problem TEXT NOT NULL DEFAULT '',
			problem_definition TEXT NOT NULL DEFAULT '',
			analysis TEXT NOT NULL DEFAULT '',
			why_solution_a TEXT NOT NULL DEFAULT '',
			why_switch_to_b TEXT NOT NULL DEFAULT '',
			category_id INTEGER,
			priority INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (category_id) REFERENCES categories (id) ON DELETE SET NULL
		);

		CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			color TEXT NOT NULL DEFAULT '#FF69B4',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS note_tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			tag_id INTEGER NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes (id) ON DELETE CASCADE,
			FOREIGN KEY (tag_id) REFERENCES tags (id) ON DELETE CASCADE,
			UNIQUE(note_id, tag_id)
		);

		CREATE TABLE IF NOT EXISTS solutions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			plan_type TEXT NOT NULL,
			description TEXT NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes (id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			solution_id INTEGER NOT NULL,
			step_number INTEGER NOT NULL,
			description TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			FOREIGN KEY (solution_id) REFERENCES solutions (id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS code_snippets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			solution_id INTEGER,
			title TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'sql',
			code TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			execution_order INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes (id) ON DELETE CASCADE,
			FOREIGN KEY (solution_id) REFERENCES solutions (id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS scripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			solution_id INTEGER,
			title TEXT NOT NULL,
			script_type TEXT NOT NULL DEFAULT 'bash',
			content TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			execution_order INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes (id) ON DELETE CASCADE,
			FOREIGN KEY (solution_id) REFERENCES solutions (id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			filename TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes (id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category_id);
		CREATE INDEX IF NOT EXISTS idx_notes_status ON notes(status);
		CREATE INDEX IF NOT EXISTS idx_note_tags_note ON note_tags(note_id);
		CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id);
		CREATE INDEX IF NOT EXISTS idx_solutions_note ON solutions(note_id);
		CREATE INDEX IF NOT EXISTS idx_steps_solution ON steps(solution_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_note ON code_snippets(note_id);
		CREATE INDEX IF NOT EXISTS idx_scripts_note ON scripts(note_id);
		CREATE INDEX IF NOT EXISTS idx_images_note ON images(note_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return nil
}

// qb is a statement builder using SQLite's ? placeholders.
var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
