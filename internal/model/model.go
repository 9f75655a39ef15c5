// Package model defines the MELONOTES domain entities.
package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a note. Notes move freely between
// states; there are no transition guards.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusCompleted, StatusArchived:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q (must be active, completed, or archived)", s)
}

// Now returns the canonical timestamp representation used across both
// storage backends.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// User is the single seeded account. There is no self-service signup.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Category groups notes. Deleting a category never cascades to notes;
// the note's reference simply stops resolving.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Tag is attached to notes many-to-many. Names are unique.
type Tag struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Note is the root entity of the domain.
type Note struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Problem           string `json:"problem,omitempty"`
	ProblemDefinition string `json:"problem_definition,omitempty"`
	Analysis          string `json:"analysis,omitempty"`
	WhySolutionA      string `json:"why_solution_a,omitempty"`
	WhySwitchToB      string `json:"why_switch_to_b,omitempty"`
	CategoryID        *int64 `json:"category_id"`
	Priority          int    `json:"priority"`
	Status            Status `json:"status"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`

	// TagIDs are the note's tag references as stored. Unresolvable ids
	// are dropped at read time, never errored.
	TagIDs []int64 `json:"-"`
}

// Solution is a remediation plan attached to exactly one note.
// Solutions are ordered by priority ascending.
type Solution struct {
	ID          int64  `json:"id"`
	NoteID      int64  `json:"note_id"`
	PlanType    string `json:"plan_type"`
	Description string `json:"description"`
	Reasoning   string `json:"reasoning,omitempty"`
	Priority    int    `json:"priority"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Step is an ordered, independently completable task within a solution.
// StepNumber orders steps but is not enforced unique.
type Step struct {
	ID          int64  `json:"id"`
	SolutionID  int64  `json:"solution_id"`
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CodeSnippet is an illustrative code artifact tied to a note and
// optionally a solution, ordered by ExecutionOrder.
type CodeSnippet struct {
	ID             int64  `json:"id"`
	NoteID         int64  `json:"note_id"`
	SolutionID     *int64 `json:"solution_id"`
	Title          string `json:"title,omitempty"`
	Language       string `json:"language"`
	Code           string `json:"code"`
	Description    string `json:"description,omitempty"`
	ExecutionOrder int    `json:"execution_order"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// Script has the same shape as CodeSnippet with script_type/content
// instead of language/code.
type Script struct {
	ID             int64  `json:"id"`
	NoteID         int64  `json:"note_id"`
	SolutionID     *int64 `json:"solution_id"`
	Title          string `json:"title"`
	ScriptType     string `json:"script_type"`
	Content        string `json:"content"`
	Description    string `json:"description,omitempty"`
	ExecutionOrder int    `json:"execution_order"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// Image is an uploaded file attached to a note, served statically.
type Image struct {
	ID          int64  `json:"id"`
	NoteID      int64  `json:"note_id"`
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// NoteSummary is the list-view shape: the note plus best-effort category
// fields and resolved tag objects.
type NoteSummary struct {
	Note
	CategoryName  *string `json:"category_name"`
	CategoryColor *string `json:"category_color"`
	Tags          []Tag   `json:"tags"`
}

// SolutionDetail is a solution with its steps expanded in order.
type SolutionDetail struct {
	Solution
	Steps []Step `json:"steps"`
}

// NoteDetail is the single-note shape with every owned child expanded.
type NoteDetail struct {
	Note
	CategoryName  *string          `json:"category_name"`
	CategoryColor *string          `json:"category_color"`
	Tags          []Tag            `json:"tags"`
	Solutions     []SolutionDetail `json:"solutions"`
	CodeSnippets  []CodeSnippet    `json:"codeSnippets"`
	Scripts       []Script         `json:"scripts"`
	Images        []Image          `json:"images"`
}

// NotePatch is a partial note update. Nil fields keep their previous
// values (merge, not replace).
type NotePatch struct {
	Title             *string `json:"title"`
	Problem           *string `json:"problem"`
	ProblemDefinition *string `json:"problem_definition"`
	Analysis          *string `json:"analysis"`
	WhySolutionA      *string `json:"why_solution_a"`
	WhySwitchToB      *string `json:"why_switch_to_b"`
	CategoryID        *int64  `json:"category_id"`
	Priority          *int    `json:"priority"`
	Status            *Status `json:"status"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Problem == nil && p.ProblemDefinition == nil &&
		p.Analysis == nil && p.WhySolutionA == nil && p.WhySwitchToB == nil &&
		p.CategoryID == nil && p.Priority == nil && p.Status == nil
}
