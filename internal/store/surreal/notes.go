package surreal

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/store"
)

type noteDoc struct {
	ID                string  `json:"id,omitempty"`
	Title             string  `json:"title"`
	Problem           string  `json:"problem"`
	ProblemDefinition string  `json:"problem_definition"`
	Analysis          string  `json:"analysis"`
	WhySolutionA      string  `json:"why_solution_a"`
	WhySwitchToB      string  `json:"why_switch_to_b"`
	CategoryID        *int64  `json:"category_id"`
	Priority          int     `json:"priority"`
	Status            string  `json:"status"`
	Tags              []int64 `json:"tags"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func (d noteDoc) toModel() model.Note {
	return model.Note{
		ID:                parseID(d.ID),
		Title:             d.Title,
		Problem:           d.Problem,
		ProblemDefinition: d.ProblemDefinition,
		Analysis:          d.Analysis,
		WhySolutionA:      d.WhySolutionA,
		WhySwitchToB:      d.WhySwitchToB,
		CategoryID:        d.CategoryID,
		Priority:          d.Priority,
		Status:            model.Status(d.Status),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		TagIDs:            d.Tags,
	}
}

// Notes lists notes matching the filter, newest update first.
// Substring matching lowercases both sides so the behavior lines up
// with the relational backend's LIKE collation for ASCII input.
func (s *Store) Notes(_ context.Context, filter store.NoteFilter) ([]model.Note, error) {
	var conds []string
	vars := map[string]any{}

	if filter.Search != "" {
		conds = append(conds, `(string::lowercase(title) CONTAINS string::lowercase($search)
			OR string::lowercase(problem) CONTAINS string::lowercase($search)
			OR string::lowercase(analysis) CONTAINS string::lowercase($search)
			OR string::lowercase(problem_definition) CONTAINS string::lowercase($search))`)
		vars["search"] = filter.Search
	}
	if filter.CategoryID != nil {
		conds = append(conds, "category_id = $category")
		vars["category"] = *filter.CategoryID
	}
	if filter.Status != "" {
		conds = append(conds, "status = $status")
		vars["status"] = string(filter.Status)
	}
	if len(filter.TagIDs) > 0 {
		conds = append(conds, "tags CONTAINSANY $tag_ids")
		vars["tag_ids"] = filter.TagIDs
	}

	sql := "SELECT * FROM note"
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY updated_at DESC, id DESC"

	var rows []noteDoc
	if err := s.queryRows(sql, vars, &rows); err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	out := make([]model.Note, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.toModel())
	}
	return out, nil
}

// NoteByID fetches one note.
func (s *Store) NoteByID(_ context.Context, id int64) (model.Note, error) {
	var d noteDoc
	if err := s.selectRecord(thing("note", id), &d); err != nil {
		return model.Note{}, err
	}
	n := d.toModel()
	n.ID = id
	return n, nil
}

// CreateNote writes the note document with its embedded tag id array.
func (s *Store) CreateNote(_ context.Context, note model.Note) (model.Note, error) {
	id, err := s.nextID("note")
	if err != nil {
		return model.Note{}, err
	}
	now := model.Now()
	note.ID = id
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Status == "" {
		note.Status = model.StatusActive
	}
	if note.Priority == 0 {
		note.Priority = 1
	}
	tags := note.TagIDs
	if tags == nil {
		tags = []int64{}
	}
	if err := s.createRecord("note", id, map[string]any{
		"title":              note.Title,
		"problem":            note.Problem,
		"problem_definition": note.ProblemDefinition,
		"analysis":           note.Analysis,
		"why_solution_a":     note.WhySolutionA,
		"why_switch_to_b":    note.WhySwitchToB,
		"category_id":        note.CategoryID,
		"priority":           note.Priority,
		"status":             string(note.Status),
		"tags":               tags,
		"created_at":         now,
		"updated_at":         now,
	}); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

// UpdateNote merges set patch fields into the document and bumps
// updated_at.
func (s *Store) UpdateNote(_ context.Context, id int64, patch model.NotePatch) error {
	fields := map[string]any{"updated_at": model.Now()}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Problem != nil {
		fields["problem"] = *patch.Problem
	}
	if patch.ProblemDefinition != nil {
		fields["problem_definition"] = *patch.ProblemDefinition
	}
	if patch.Analysis != nil {
		fields["analysis"] = *patch.Analysis
	}
	if patch.WhySolutionA != nil {
		fields["why_solution_a"] = *patch.WhySolutionA
	}
	if patch.WhySwitchToB != nil {
		fields["why_switch_to_b"] = *patch.WhySwitchToB
	}
	if patch.CategoryID != nil {
		fields["category_id"] = *patch.CategoryID
	}
	if patch.Priority != nil {
		fields["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		fields["status"] = string(*patch.Status)
	}
	return s.mergeRecord("note", id, fields)
}

// DeleteNote removes the note document and every dependent child:
// solutions, their steps, code snippets, scripts and images.
func (s *Store) DeleteNote(_ context.Context, id int64) error {
	if err := s.deleteRecord("note", id); err != nil {
		return err
	}

	var sols []struct {
		ID string `json:"id"`
	}
	if err := s.queryRows(`SELECT id FROM solution WHERE note_id = $note_id`,
		map[string]any{"note_id": id}, &sols); err != nil {
		return fmt.Errorf("failed to query solutions for cascade: %w", err)
	}
	solIDs := make([]int64, 0, len(sols))
	for _, sol := range sols {
		solIDs = append(solIDs, parseID(sol.ID))
	}
	if len(solIDs) > 0 {
		if err := s.queryRows(`DELETE step WHERE solution_id INSIDE $solution_ids`,
			map[string]any{"solution_ids": solIDs}, nil); err != nil {
			return fmt.Errorf("failed to cascade steps: %w", err)
		}
	}

	vars := map[string]any{"note_id": id}
	for _, sql := range []string{
		`DELETE solution WHERE note_id = $note_id`,
		`DELETE code_snippet WHERE note_id = $note_id`,
		`DELETE script WHERE note_id = $note_id`,
		`DELETE image WHERE note_id = $note_id`,
	} {
		if err := s.queryRows(sql, vars, nil); err != nil {
			return fmt.Errorf("failed to cascade note children: %w", err)
		}
	}
	return nil
}

// CountNotes reports how many notes exist, used by the seed guard.
func (s *Store) CountNotes(_ context.Context) (int64, error) {
	var rows []struct {
		Count int64 `json:"count"`
	}
	if err := s.queryRows(`SELECT count() AS count FROM note GROUP ALL`, nil, &rows); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Count, nil
}
