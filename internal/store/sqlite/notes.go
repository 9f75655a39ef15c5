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

type noteRow struct {
	ID                int64          `db:"id"`
	Title             string         `db:"title"`
	Problem           string         `db:"problem"`
	ProblemDefinition string         `db:"problem_definition"`
	Analysis          string         `db:"analysis"`
	WhySolutionA      string         `db:"why_solution_a"`
	WhySwitchToB      string         `db:"why_switch_to_b"`
	CategoryID        sql.NullInt64  `db:"category_id"`
	Priority          int            `db:"priority"`
	Status            string         `db:"status"`
	CreatedAt         string         `db:"created_at"`
	UpdatedAt         string         `db:"updated_at"`
}

func (r noteRow) toModel() model.Note {
	n := model.Note{
		ID:                r.ID,
		Title:             r.Title,
		Problem:           r.Problem,
		ProblemDefinition: r.ProblemDefinition,
		Analysis:          r.Analysis,
		WhySolutionA:      r.WhySolutionA,
		WhySwitchToB:      r.WhySwitchToB,
		Priority:          r.Priority,
		Status:            model.Status(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.CategoryID.Valid {
		id := r.CategoryID.Int64
		n.CategoryID = &id
	}
	return n
}

// Notes lists notes matching the filter, newest update first, with
// their tag references attached.
func (s *Store) Notes(ctx context.Context, filter store.NoteFilter) ([]model.Note, error) {
	b := qb.Select("id", "title", "problem", "problem_definition", "analysis",
		"why_solution_a", "why_switch_to_b", "category_id", "priority", "status",
		"created_at", "updated_at").
		From("notes").
		OrderBy("updated_at DESC", "id DESC")

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		b = b.Where(squirrel.Or{
			squirrel.Like{"title": like},
			squirrel.Like{"problem": like},
			squirrel.Like{"analysis": like},
			squirrel.Like{"problem_definition": like},
		})
	}
	if filter.CategoryID != nil {
		b = b.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}
	if filter.Status != "" {
		b = b.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if len(filter.TagIDs) > 0 {
		sub, subArgs, err := qb.Select("note_id").
			From("note_tags").
			Where(squirrel.Eq{"tag_id": filter.TagIDs}).
			ToSql()
		if err != nil {
			return nil, err
		}
		b = b.Where("id IN ("+sub+")", subArgs...)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}

	notes := make([]model.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toModel())
	}
	if err := s.attachTagIDs(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// NoteByID fetches one note with its tag references.
func (s *Store) NoteByID(ctx context.Context, id int64) (model.Note, error) {
	var row noteRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM notes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, store.ErrNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("failed to query note: %w", err)
	}
	notes := []model.Note{row.toModel()}
	if err := s.attachTagIDs(ctx, notes); err != nil {
		return model.Note{}, err
	}
	return notes[0], nil
}

func (s *Store) attachTagIDs(ctx context.Context, notes []model.Note) error {
	if len(notes) == 0 {
		return nil
	}
	ids := make([]int64, len(notes))
	index := make(map[int64]int, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
		index[n.ID] = i
	}
	query, args, err := qb.Select("note_id", "tag_id").
		From("note_tags").
		Where(squirrel.Eq{"note_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query note tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var noteID, tagID int64
		if err := rows.Scan(&noteID, &tagID); err != nil {
			return err
		}
		i := index[noteID]
		notes[i].TagIDs = append(notes[i].TagIDs, tagID)
	}
	return rows.Err()
}

// CreateNote inserts the note and its tag associations in one
// transaction.
func (s *Store) CreateNote(ctx context.Context, note model.Note) (model.Note, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Note{}, err
	}
	defer tx.Rollback()

	now := model.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Status == "" {
		note.Status = model.StatusActive
	}
	if note.Priority == 0 {
		note.Priority = 1
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO notes (
			title, problem, problem_definition, analysis, why_solution_a,
			why_switch_to_b, category_id, priority, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.Title, note.Problem, note.ProblemDefinition, note.Analysis,
		note.WhySolutionA, note.WhySwitchToB, note.CategoryID, note.Priority,
		string(note.Status), note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return model.Note{}, fmt.Errorf("failed to create note: %w", err)
	}
	note.ID, err = res.LastInsertId()
	if err != nil {
		return model.Note{}, err
	}

	// Unknown tag ids are skipped rather than failing the create; the
	// reference would be dropped at read time anyway.
	for _, tagID := range note.TagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO note_tags (note_id, tag_id)
			 SELECT ?, id FROM tags WHERE id = ?`,
			note.ID, tagID); err != nil {
			return model.Note{}, fmt.Errorf("failed to attach tag %d: %w", tagID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

// UpdateNote merges the patch into the stored note and bumps
// updated_at. Unset patch fields keep their previous values.
func (s *Store) UpdateNote(ctx context.Context, id int64, patch model.NotePatch) error {
	var status *string
	if patch.Status != nil {
		v := string(*patch.Status)
		status = &v
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET
			title = COALESCE(?, title),
			problem = COALESCE(?, problem),
			problem_definition = COALESCE(?, problem_definition),
			analysis = COALESCE(?, analysis),
			why_solution_a = COALESCE(?, why_solution_a),
			why_switch_to_b = COALESCE(?, why_switch_to_b),
			category_id = COALESCE(?, category_id),
			priority = COALESCE(?, priority),
			status = COALESCE(?, status),
			updated_at = ?
		WHERE id = ?`,
		patch.Title, patch.Problem, patch.ProblemDefinition, patch.Analysis,
		patch.WhySolutionA, patch.WhySwitchToB, patch.CategoryID, patch.Priority,
		status, model.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return requireChanged(res)
}

// DeleteNote removes the note; foreign keys cascade to solutions,
// steps, snippets, scripts, images and tag associations.
func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return requireChanged(res)
}

// CountNotes reports how many notes exist, used by the seed guard.
func (s *Store) CountNotes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notes`); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}
