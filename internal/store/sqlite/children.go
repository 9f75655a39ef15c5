package sqlite

import (
	"context"
	"fmt"

	"github.com/ErkanEron/melonotes/internal/model"
)

// SolutionsByNote lists a note's solutions ordered by priority.
func (s *Store) SolutionsByNote(ctx context.Context, noteID int64) ([]model.Solution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_id, plan_type, description, reasoning, priority, created_at
		FROM solutions WHERE note_id = ? ORDER BY priority, id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query solutions: %w", err)
	}
	defer rows.Close()

	var out []model.Solution
	for rows.Next() {
		var sol model.Solution
		if err := rows.Scan(&sol.ID, &sol.NoteID, &sol.PlanType, &sol.Description,
			&sol.Reasoning, &sol.Priority, &sol.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, rows.Err()
}

// CreateSolution inserts a solution for a note.
func (s *Store) CreateSolution(ctx context.Context, sol model.Solution) (model.Solution, error) {
	sol.CreatedAt = model.Now()
	if sol.Priority == 0 {
		sol.Priority = 1
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO solutions (note_id, plan_type, description, reasoning, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sol.NoteID, sol.PlanType, sol.Description, sol.Reasoning, sol.Priority, sol.CreatedAt)
	if err != nil {
		return model.Solution{}, fmt.Errorf("failed to create solution: %w", err)
	}
	sol.ID, err = res.LastInsertId()
	if err != nil {
		return model.Solution{}, err
	}
	return sol, nil
}

// StepsBySolution lists a solution's steps ordered by step_number.
func (s *Store) StepsBySolution(ctx context.Context, solutionID int64) ([]model.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, solution_id, step_number, description, completed, created_at
		FROM steps WHERE solution_id = ? ORDER BY step_number, id`, solutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var out []model.Step
	for rows.Next() {
		var st model.Step
		if err := rows.Scan(&st.ID, &st.SolutionID, &st.StepNumber, &st.Description,
			&st.Completed, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CreateStep inserts a step for a solution.
func (s *Store) CreateStep(ctx context.Context, st model.Step) (model.Step, error) {
	st.CreatedAt = model.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO steps (solution_id, step_number, description, completed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		st.SolutionID, st.StepNumber, st.Description, st.Completed, st.CreatedAt)
	if err != nil {
		return model.Step{}, fmt.Errorf("failed to create step: %w", err)
	}
	st.ID, err = res.LastInsertId()
	if err != nil {
		return model.Step{}, err
	}
	return st, nil
}

// SetStepCompleted flips a single step's completed flag, leaving its
// siblings untouched.
func (s *Store) SetStepCompleted(ctx context.Context, id int64, completed bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE steps SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return fmt.Errorf("failed to update step: %w", err)
	}
	return requireChanged(res)
}

// SnippetsByNote lists a note's code snippets ordered by execution_order.
func (s *Store) SnippetsByNote(ctx context.Context, noteID int64) ([]model.CodeSnippet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_id, solution_id, title, language, code, description, execution_order, created_at
		FROM code_snippets WHERE note_id = ? ORDER BY execution_order, id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query code snippets: %w", err)
	}
	defer rows.Close()

	var out []model.CodeSnippet
	for rows.Next() {
		var cs model.CodeSnippet
		if err := rows.Scan(&cs.ID, &cs.NoteID, &cs.SolutionID, &cs.Title, &cs.Language,
			&cs.Code, &cs.Description, &cs.ExecutionOrder, &cs.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// CreateSnippet inserts a code snippet.
func (s *Store) CreateSnippet(ctx context.Context, cs model.CodeSnippet) (model.CodeSnippet, error) {
	cs.CreatedAt = model.Now()
	if cs.ExecutionOrder == 0 {
		cs.ExecutionOrder = 1
	}
	if cs.Language == "" {
		cs.Language = "sql"
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO code_snippets (note_id, solution_id, title, language, code, description, execution_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cs.NoteID, cs.SolutionID, cs.Title, cs.Language, cs.Code, cs.Description,
		cs.ExecutionOrder, cs.CreatedAt)
	if err != nil {
		return model.CodeSnippet{}, fmt.Errorf("failed to create code snippet: %w", err)
	}
	cs.ID, err = res.LastInsertId()
	if err != nil {
		return model.CodeSnippet{}, err
	}
	return cs, nil
}

// ScriptsByNote lists a note's scripts ordered by execution_order.
func (s *Store) ScriptsByNote(ctx context.Context, noteID int64) ([]model.Script, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_id, solution_id, title, script_type, content, description, execution_order, created_at
		FROM scripts WHERE note_id = ? ORDER BY execution_order, id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scripts: %w", err)
	}
	defer rows.Close()

	var out []model.Script
	for rows.Next() {
		var sc model.Script
		if err := rows.Scan(&sc.ID, &sc.NoteID, &sc.SolutionID, &sc.Title, &sc.ScriptType,
			&sc.Content, &sc.Description, &sc.ExecutionOrder, &sc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CreateScript inserts a script.
func (s *Store) CreateScript(ctx context.Context, sc model.Script) (model.Script, error) {
	sc.CreatedAt = model.Now()
	if sc.ExecutionOrder == 0 {
		sc.ExecutionOrder = 1
	}
	if sc.ScriptType == "" {
		sc.ScriptType = "bash"
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scripts (note_id, solution_id, title, script_type, content, description, execution_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.NoteID, sc.SolutionID, sc.Title, sc.ScriptType, sc.Content, sc.Description,
		sc.ExecutionOrder, sc.CreatedAt)
	if err != nil {
		return model.Script{}, fmt.Errorf("failed to create script: %w", err)
	}
	sc.ID, err = res.LastInsertId()
	if err != nil {
		return model.Script{}, err
	}
	return sc, nil
}

// ImagesByNote lists a note's images in upload order.
func (s *Store) ImagesByNote(ctx context.Context, noteID int64) ([]model.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_id, filename, description, created_at
		FROM images WHERE note_id = ? ORDER BY created_at, id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var out []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.NoteID, &img.Filename, &img.Description, &img.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// CreateImage records an uploaded file against a note.
func (s *Store) CreateImage(ctx context.Context, img model.Image) (model.Image, error) {
	img.CreatedAt = model.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO images (note_id, filename, description, created_at)
		VALUES (?, ?, ?, ?)`,
		img.NoteID, img.Filename, img.Description, img.CreatedAt)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to create image: %w", err)
	}
	img.ID, err = res.LastInsertId()
	if err != nil {
		return model.Image{}, err
	}
	return img, nil
}
