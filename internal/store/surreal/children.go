package surreal

import (
	"context"
	"fmt"

	"github.com/ErkanEron/melonotes/internal/model"
)

type solutionDoc struct {
	ID          string `json:"id,omitempty"`
	NoteID      int64  `json:"note_id"`
	PlanType    string `json:"plan_type"`
	Description string `json:"description"`
	Reasoning   string `json:"reasoning"`
	Priority    int    `json:"priority"`
	CreatedAt   string `json:"created_at"`
}

type stepDoc struct {
	ID          string `json:"id,omitempty"`
	SolutionID  int64  `json:"solution_id"`
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
}

type snippetDoc struct {
	ID             string `json:"id,omitempty"`
	NoteID         int64  `json:"note_id"`
	SolutionID     *int64 `json:"solution_id"`
	Title          string `json:"title"`
	Language       string `json:"language"`
	Code           string `json:"code"`
	Description    string `json:"description"`
	ExecutionOrder int    `json:"execution_order"`
	CreatedAt      string `json:"created_at"`
}

type scriptDoc struct {
	ID             string `json:"id,omitempty"`
	NoteID         int64  `json:"note_id"`
	SolutionID     *int64 `json:"solution_id"`
	Title          string `json:"title"`
	ScriptType     string `json:"script_type"`
	Content        string `json:"content"`
	Description    string `json:"description"`
	ExecutionOrder int    `json:"execution_order"`
	CreatedAt      string `json:"created_at"`
}

type imageDoc struct {
	ID          string `json:"id,omitempty"`
	NoteID      int64  `json:"note_id"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// SolutionsByNote lists a note's solutions ordered by priority.
func (s *Store) SolutionsByNote(_ context.Context, noteID int64) ([]model.Solution, error) {
	var rows []solutionDoc
	err := s.queryRows(`SELECT * FROM solution WHERE note_id = $note_id ORDER BY priority, id`,
		map[string]any{"note_id": noteID}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query solutions: %w", err)
	}
	out := make([]model.Solution, 0, len(rows))
	for _, d := range rows {
		out = append(out, model.Solution{
			ID: parseID(d.ID), NoteID: d.NoteID, PlanType: d.PlanType,
			Description: d.Description, Reasoning: d.Reasoning,
			Priority: d.Priority, CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// CreateSolution inserts a solution for a note.
func (s *Store) CreateSolution(_ context.Context, sol model.Solution) (model.Solution, error) {
	id, err := s.nextID("solution")
	if err != nil {
		return model.Solution{}, err
	}
	sol.ID = id
	sol.CreatedAt = model.Now()
	if sol.Priority == 0 {
		sol.Priority = 1
	}
	if err := s.createRecord("solution", id, map[string]any{
		"note_id":     sol.NoteID,
		"plan_type":   sol.PlanType,
		"description": sol.Description,
		"reasoning":   sol.Reasoning,
		"priority":    sol.Priority,
		"created_at":  sol.CreatedAt,
	}); err != nil {
		return model.Solution{}, err
	}
	return sol, nil
}

// StepsBySolution lists a solution's steps ordered by step_number.
func (s *Store) StepsBySolution(_ context.Context, solutionID int64) ([]model.Step, error) {
	var rows []stepDoc
	err := s.queryRows(`SELECT * FROM step WHERE solution_id = $solution_id ORDER BY step_number, id`,
		map[string]any{"solution_id": solutionID}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	out := make([]model.Step, 0, len(rows))
	for _, d := range rows {
		out = append(out, model.Step{
			ID: parseID(d.ID), SolutionID: d.SolutionID, StepNumber: d.StepNumber,
			Description: d.Description, Completed: d.Completed, CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// CreateStep inserts a step for a solution.
func (s *Store) CreateStep(_ context.Context, st model.Step) (model.Step, error) {
	id, err := s.nextID("step")
	if err != nil {
		return model.Step{}, err
	}
	st.ID = id
	st.CreatedAt = model.Now()
	if err := s.createRecord("step", id, map[string]any{
		"solution_id": st.SolutionID,
		"step_number": st.StepNumber,
		"description": st.Description,
		"completed":   st.Completed,
		"created_at":  st.CreatedAt,
	}); err != nil {
		return model.Step{}, err
	}
	return st, nil
}

// SetStepCompleted flips a single step's completed flag.
func (s *Store) SetStepCompleted(_ context.Context, id int64, completed bool) error {
	return s.mergeRecord("step", id, map[string]any{"completed": completed})
}

// SnippetsByNote lists a note's code snippets ordered by execution_order.
func (s *Store) SnippetsByNote(_ context.Context, noteID int64) ([]model.CodeSnippet, error) {
	var rows []snippetDoc
	err := s.queryRows(`SELECT * FROM code_snippet WHERE note_id = $note_id ORDER BY execution_order, id`,
		map[string]any{"note_id": noteID}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query code snippets: %w", err)
	}
	out := make([]model.CodeSnippet, 0, len(rows))
	for _, d := range rows {
		out = append(out, model.CodeSnippet{
			ID: parseID(d.ID), NoteID: d.NoteID, SolutionID: d.SolutionID,
			Title: d.Title, Language: d.Language, Code: d.Code,
			Description: d.Description, ExecutionOrder: d.ExecutionOrder, CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// CreateSnippet inserts a code snippet.
func (s *Store) CreateSnippet(_ context.Context, cs model.CodeSnippet) (model.CodeSnippet, error) {
	id, err := s.nextID("code_snippet")
	if err != nil {
		return model.CodeSnippet{}, err
	}
	cs.ID = id
	cs.CreatedAt = model.Now()
	if cs.ExecutionOrder == 0 {
		cs.ExecutionOrder = 1
	}
	if cs.Language == "" {
		cs.Language = "sql"
	}
	if err := s.createRecord("code_snippet", id, map[string]any{
		"note_id":         cs.NoteID,
		"solution_id":     cs.SolutionID,
		"title":           cs.Title,
		"language":        cs.Language,
		"code":            cs.Code,
		"description":     cs.Description,
		"execution_order": cs.ExecutionOrder,
		"created_at":      cs.CreatedAt,
	}); err != nil {
		return model.CodeSnippet{}, err
	}
	return cs, nil
}

// ScriptsByNote lists a note's scripts ordered by execution_order.
func (s *Store) ScriptsByNote(_ context.Context, noteID int64) ([]model.Script, error) {
	var rows []scriptDoc
	err := s.queryRows(`SELECT * FROM script WHERE note_id = $note_id ORDER BY execution_order, id`,
		map[string]any{"note_id": noteID}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query scripts: %w", err)
	}
	out := make([]model.Script, 0, len(rows))
	for _, d := range rows {
		out = append(out, model.Script{
			ID: parseID(d.ID), NoteID: d.NoteID, SolutionID: d.SolutionID,
			Title: d.Title, ScriptType: d.ScriptType, Content: d.Content,
			Description: d.Description, ExecutionOrder: d.ExecutionOrder, CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// CreateScript inserts a script.
func (s *Store) CreateScript(_ context.Context, sc model.Script) (model.Script, error) {
	id, err := s.nextID("script")
	if err != nil {
		return model.Script{}, err
	}
	sc.ID = id
	sc.CreatedAt = model.Now()
	if sc.ExecutionOrder == 0 {
		sc.ExecutionOrder = 1
	}
	if sc.ScriptType == "" {
		sc.ScriptType = "bash"
	}
	if err := s.createRecord("script", id, map[string]any{
		"note_id":         sc.NoteID,
		"solution_id":     sc.SolutionID,
		"title":           sc.Title,
		"script_type":     sc.ScriptType,
		"content":         sc.Content,
		"description":     sc.Description,
		"execution_order": sc.ExecutionOrder,
		"created_at":      sc.CreatedAt,
	}); err != nil {
		return model.Script{}, err
	}
	return sc, nil
}

// ImagesByNote lists a note's images in upload order.
func (s *Store) ImagesByNote(_ context.Context, noteID int64) ([]model.Image, error) {
	var rows []imageDoc
	err := s.queryRows(`SELECT * FROM image WHERE note_id = $note_id ORDER BY created_at, id`,
		map[string]any{"note_id": noteID}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	out := make([]model.Image, 0, len(rows))
	for _, d := range rows {
		out = append(out, model.Image{
			ID: parseID(d.ID), NoteID: d.NoteID, Filename: d.Filename,
			Description: d.Description, CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// CreateImage records an uploaded file against a note.
func (s *Store) CreateImage(_ context.Context, img model.Image) (model.Image, error) {
	id, err := s.nextID("image")
	if err != nil {
		return model.Image{}, err
	}
	img.ID = id
	img.CreatedAt = model.Now()
	if err := s.createRecord("image", id, map[string]any{
		"note_id":     img.NoteID,
		"filename":    img.Filename,
		"description": img.Description,
		"created_at":  img.CreatedAt,
	}); err != nil {
		return model.Image{}, err
	}
	return img, nil
}
