package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/store"
)

type userRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Password  string `db:"password"`
	CreatedAt string `db:"created_at"`
}

// UserByUsername looks up a user by its unique username.
func (s *Store) UserByUsername(ctx context.Context, username string) (model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return model.User{ID: row.ID, Username: row.Username, PasswordHash: row.Password, CreatedAt: row.CreatedAt}, nil
}

// CreateUser inserts a user with an already-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (model.User, error) {
	now := model.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now)
	if isUniqueViolation(err) {
		return model.User{}, store.ErrDuplicate
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// Categories returns all categories ordered by name.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryByID fetches one category.
func (s *Store) CategoryByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, store.ErrNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a category. Duplicate names return ErrDuplicate.
func (s *Store) CreateCategory(ctx context.Context, name, color string) (model.Category, error) {
	now := model.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, color, created_at) VALUES (?, ?, ?)`, name, color, now)
	if isUniqueViolation(err) {
		return model.Category{}, store.ErrDuplicate
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("failed to create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: id, Name: name, Color: color, CreatedAt: now}, nil
}

// UpdateCategory replaces name and color.
func (s *Store) UpdateCategory(ctx context.Context, id int64, name, color string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ? WHERE id = ?`, name, color, id)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireChanged(res)
}

// DeleteCategory removes a category. Notes referencing it keep existing
// with a reference that no longer resolves.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireChanged(res)
}

// Tags returns all tags ordered by name.
func (s *Store) Tags(ctx context.Context) ([]model.Tag, error) {
	var out []model.Tag
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TagsByIDs resolves tag ids in argument order, silently dropping ids
// that no longer exist.
func (s *Store) TagsByIDs(ctx context.Context, ids []int64) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select("id", "name", "color", "created_at").
		From("tags").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]model.Tag, len(ids))
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTag inserts a tag. Duplicate names return ErrDuplicate.
func (s *Store) CreateTag(ctx context.Context, name, color string) (model.Tag, error) {
	now := model.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (name, color, created_at) VALUES (?, ?, ?)`, name, color, now)
	if isUniqueViolation(err) {
		return model.Tag{}, store.ErrDuplicate
	}
	if err != nil {
		return model.Tag{}, fmt.Errorf("failed to create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: id, Name: name, Color: color, CreatedAt: now}, nil
}

// DeleteTag removes a tag and its note associations, never the notes.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return requireChanged(res)
}

// requireChanged maps a zero-row update or delete to ErrNotFound.
func requireChanged(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
