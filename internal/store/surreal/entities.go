package surreal

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/store"
)

// Wire documents. SurrealDB owns the id field (it holds the record id,
// e.g. "tag:3"), so the numeric id is recovered from it on read.

type userDoc struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	CreatedAt string `json:"created_at"`
}

type namedDoc struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
}

func (d userDoc) toModel() model.User {
	return model.User{ID: parseID(d.ID), Username: d.Username, PasswordHash: d.Password, CreatedAt: d.CreatedAt}
}

// UserByUsername looks up a user by its unique username.
func (s *Store) UserByUsername(_ context.Context, username string) (model.User, error) {
	var rows []userDoc
	err := s.queryRows(`SELECT * FROM user WHERE username = $username LIMIT 1`,
		map[string]any{"username": username}, &rows)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if len(rows) == 0 {
		return model.User{}, store.ErrNotFound
	}
	return rows[0].toModel(), nil
}

// CreateUser inserts a user with an already-hashed password.
func (s *Store) CreateUser(_ context.Context, username, passwordHash string) (model.User, error) {
	var rows []userDoc
	err := s.queryRows(`SELECT * FROM user WHERE username = $username LIMIT 1`,
		map[string]any{"username": username}, &rows)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if len(rows) > 0 {
		return model.User{}, store.ErrDuplicate
	}

	id, err := s.nextID("user")
	if err != nil {
		return model.User{}, err
	}
	now := model.Now()
	if err := s.createRecord("user", id, map[string]any{
		"username":   username,
		"password":   passwordHash,
		"created_at": now,
	}); err != nil {
		return model.User{}, err
	}
	return model.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (s *Store) namedList(table string) ([]namedDoc, error) {
	var rows []namedDoc
	if err := s.queryRows(fmt.Sprintf("SELECT * FROM %s ORDER BY name", table), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to query %s list: %w", table, err)
	}
	return rows, nil
}

func (s *Store) namedExists(table, name string) (bool, error) {
	var rows []namedDoc
	err := s.queryRows(fmt.Sprintf("SELECT * FROM %s WHERE name = $name LIMIT 1", table),
		map[string]any{"name": name}, &rows)
	if err != nil {
		return false, fmt.Errorf("failed to query %s by name: %w", table, err)
	}
	return len(rows) > 0, nil
}

func (s *Store) createNamed(table, name, color string) (int64, string, error) {
	dup, err := s.namedExists(table, name)
	if err != nil {
		return 0, "", err
	}
	if dup {
		return 0, "", store.ErrDuplicate
	}
	id, err := s.nextID(table)
	if err != nil {
		return 0, "", err
	}
	now := model.Now()
	if err := s.createRecord(table, id, map[string]any{
		"name":       name,
		"color":      color,
		"created_at": now,
	}); err != nil {
		return 0, "", err
	}
	return id, now, nil
}

// Categories returns all categories ordered by name.
func (s *Store) Categories(_ context.Context) ([]model.Category, error) {
	rows, err := s.namedList("category")
	if err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(rows))
	for _, d := range rows {
		out = append(out, model.Category{ID: parseID(d.ID), Name: d.Name, Color: d.Color, CreatedAt: d.CreatedAt})
	}
	return out, nil
}

// CategoryByID fetches one category.
func (s *Store) CategoryByID(_ context.Context, id int64) (model.Category, error) {
	var d namedDoc
	if err := s.selectRecord(thing("category", id), &d); err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: id, Name: d.Name, Color: d.Color, CreatedAt: d.CreatedAt}, nil
}

// CreateCategory inserts a category. Duplicate names return ErrDuplicate.
func (s *Store) CreateCategory(_ context.Context, name, color string) (model.Category, error) {
	id, now, err := s.createNamed("category", name, color)
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: id, Name: name, Color: color, CreatedAt: now}, nil
}

// UpdateCategory replaces name and color. Renaming onto another
// category's name returns ErrDuplicate.
func (s *Store) UpdateCategory(_ context.Context, id int64, name, color string) error {
	var rows []namedDoc
	err := s.queryRows(`SELECT * FROM category WHERE name = $name LIMIT 1`,
		map[string]any{"name": name}, &rows)
	if err != nil {
		return fmt.Errorf("failed to query category by name: %w", err)
	}
	if len(rows) > 0 && parseID(rows[0].ID) != id {
		return store.ErrDuplicate
	}
	return s.mergeRecord("category", id, map[string]any{
		"name":  name,
		"color": color,
	})
}

// DeleteCategory removes a category; notes referencing it are left
// intact with a dangling reference.
func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	return s.deleteRecord("category", id)
}

// Tags returns all tags ordered by name.
func (s *Store) Tags(_ context.Context) ([]model.Tag, error) {
	rows, err := s.namedList("tag")
	if err != nil {
		return nil, err
	}
	out := make([]model.Tag, 0, len(rows))
	for _, d := range rows {
		out = append(out, model.Tag{ID: parseID(d.ID), Name: d.Name, Color: d.Color, CreatedAt: d.CreatedAt})
	}
	return out, nil
}

// TagsByIDs resolves tag ids in argument order, silently dropping ids
// that no longer exist.
func (s *Store) TagsByIDs(_ context.Context, ids []int64) ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		var d namedDoc
		err := s.selectRecord(thing("tag", id), &d)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, model.Tag{ID: id, Name: d.Name, Color: d.Color, CreatedAt: d.CreatedAt})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// CreateTag inserts a tag. Duplicate names return ErrDuplicate.
func (s *Store) CreateTag(_ context.Context, name, color string) (model.Tag, error) {
	id, now, err := s.createNamed("tag", name, color)
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: id, Name: name, Color: color, CreatedAt: now}, nil
}

// DeleteTag removes a tag; note tag arrays keep the id, which then
// silently stops resolving.
func (s *Store) DeleteTag(_ context.Context, id int64) error {
	return s.deleteRecord("tag", id)
}
