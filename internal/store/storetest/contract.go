// Package storetest runs the shared behavioral suite every storage
// backend must pass. Backends register a factory that returns a fresh,
// empty store for each subtest.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the full contract suite against the factory.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"Users", testUsers},
		{"Categories", testCategories},
		{"Tags", testTags},
		{"NoteCRUD", testNoteCRUD},
		{"NoteListOrder", testNoteListOrder},
		{"NoteSearch", testNoteSearch},
		{"NoteFilters", testNoteFilters},
		{"NotePartialUpdate", testNotePartialUpdate},
		{"NoteDeleteCascades", testNoteDeleteCascades},
		{"DanglingTagRefs", testDanglingTagRefs},
		{"UnknownTagRefs", testUnknownTagRefs},
		{"Solutions", testSolutions},
		{"Snippets", testSnippets},
		{"Scripts", testScripts},
		{"Images", testImages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := open(t)
			defer st.Close()
			tt.fn(t, st)
		})
	}
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()

	_, err := st.UserByUsername(ctx, "frieren")
	assert.ErrorIs(t, err, store.ErrNotFound)

	created, err := st.CreateUser(ctx, "frieren", "$2a$10$fakehash")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := st.UserByUsername(ctx, "frieren")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "frieren", got.Username)
	assert.Equal(t, "$2a$10$fakehash", got.PasswordHash)

	_, err = st.CreateUser(ctx, "frieren", "other")
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func testCategories(t *testing.T, st store.Store) {
	ctx := context.Background()

	db, err := st.CreateCategory(ctx, "Database", "#336791")
	require.NoError(t, err)
	backup, err := st.CreateCategory(ctx, "Backup", "#FF6B6B")
	require.NoError(t, err)

	// Listed alphabetically regardless of insertion order.
	cats, err := st.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Backup", cats[0].Name)
	assert.Equal(t, "Database", cats[1].Name)

	got, err := st.CategoryByID(ctx, db.ID)
	require.NoError(t, err)
	assert.Equal(t, "Database", got.Name)
	assert.Equal(t, "#336791", got.Color)

	_, err = st.CreateCategory(ctx, "Database", "#000000")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, st.UpdateCategory(ctx, db.ID, "Databases", "#446791"))
	got, err = st.CategoryByID(ctx, db.ID)
	require.NoError(t, err)
	assert.Equal(t, "Databases", got.Name)
	assert.Equal(t, "#446791", got.Color)

	err = st.UpdateCategory(ctx, backup.ID, "Databases", "#FF6B6B")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	assert.ErrorIs(t, st.UpdateCategory(ctx, 9999, "X", "#000000"), store.ErrNotFound)

	require.NoError(t, st.DeleteCategory(ctx, backup.ID))
	_, err = st.CategoryByID(ctx, backup.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteCategory(ctx, backup.ID), store.ErrNotFound)
}

func testTags(t *testing.T, st store.Store) {
	ctx := context.Background()

	perf, err := st.CreateTag(ctx, "Performance", "#E74C3C")
	require.NoError(t, err)
	idx, err := st.CreateTag(ctx, "Indexing", "#3498DB")
	require.NoError(t, err)

	tags, err := st.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Indexing", tags[0].Name)
	assert.Equal(t, "Performance", tags[1].Name)

	_, err = st.CreateTag(ctx, "Performance", "#000000")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// Lookup preserves the requested order, not name order.
	byIDs, err := st.TagsByIDs(ctx, []int64{perf.ID, idx.ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "Performance", byIDs[0].Name)
	assert.Equal(t, "Indexing", byIDs[1].Name)

	// Unknown ids are dropped, never errored.
	byIDs, err = st.TagsByIDs(ctx, []int64{idx.ID, 9999})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	assert.Equal(t, "Indexing", byIDs[0].Name)

	byIDs, err = st.TagsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, byIDs)

	require.NoError(t, st.DeleteTag(ctx, perf.ID))
	assert.ErrorIs(t, st.DeleteTag(ctx, perf.ID), store.ErrNotFound)
}

func testNoteCRUD(t *testing.T, st store.Store) {
	ctx := context.Background()

	cat, err := st.CreateCategory(ctx, "Database", "#336791")
	require.NoError(t, err)
	tag, err := st.CreateTag(ctx, "Performance", "#E74C3C")
	require.NoError(t, err)

	note, err := st.CreateNote(ctx, model.Note{
		Title:             "Slow query",
		Problem:           "Dashboard takes 30 seconds",
		ProblemDefinition: "Full table scan on orders",
		Analysis:          "Missing composite index",
		WhySolutionA:      "Low risk",
		WhySwitchToB:      "If writes degrade",
		CategoryID:        &cat.ID,
		Priority:          3,
		Status:            model.StatusActive,
		TagIDs:            []int64{tag.ID},
	})
	require.NoError(t, err)
	require.NotZero(t, note.ID)
	assert.NotEmpty(t, note.CreatedAt)
	assert.NotEmpty(t, note.UpdatedAt)

	got, err := st.NoteByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Slow query", got.Title)
	assert.Equal(t, "Missing composite index", got.Analysis)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
	assert.Equal(t, 3, got.Priority)
	assert.Equal(t, model.StatusActive, got.Status)
	assert.Equal(t, []int64{tag.ID}, got.TagIDs)

	count, err := st.CountNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = st.NoteByID(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.DeleteNote(ctx, note.ID))
	_, err = st.NoteByID(ctx, note.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteNote(ctx, note.ID), store.ErrNotFound)

	count, err = st.CountNotes(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testNoteListOrder(t *testing.T, st store.Store) {
	ctx := context.Background()

	first, err := st.CreateNote(ctx, model.Note{Title: "first", Status: model.StatusActive, Priority: 1})
	require.NoError(t, err)
	second, err := st.CreateNote(ctx, model.Note{Title: "second", Status: model.StatusActive, Priority: 1})
	require.NoError(t, err)

	// Most recently touched first; equal timestamps fall back to
	// newest id first.
	list, err := st.Notes(ctx, store.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func testNoteSearch(t *testing.T, st store.Store) {
	ctx := context.Background()

	mk := func(n model.Note) model.Note {
		n.Status = model.StatusActive
		n.Priority = 1
		created, err := st.CreateNote(ctx, n)
		require.NoError(t, err)
		return created
	}
	byTitle := mk(model.Note{Title: "SQL Performance Problemi"})
	byProblem := mk(model.Note{Title: "other", Problem: "performance regression after upgrade"})
	byDefinition := mk(model.Note{Title: "another", ProblemDefinition: "slow PERFORMANCE counters"})
	byAnalysis := mk(model.Note{Title: "third", Analysis: "io performance bound"})
	mk(model.Note{Title: "unrelated", Problem: "disk full"})

	list, err := st.Notes(ctx, store.NoteFilter{Search: "performance"})
	require.NoError(t, err)
	ids := noteIDs(list)
	assert.ElementsMatch(t, []int64{byTitle.ID, byProblem.ID, byDefinition.ID, byAnalysis.ID}, ids)

	// Matching is case-insensitive in both directions.
	list, err = st.Notes(ctx, store.NoteFilter{Search: "PERFORMANCE"})
	require.NoError(t, err)
	assert.Len(t, list, 4)

	list, err = st.Notes(ctx, store.NoteFilter{Search: "no such thing"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testNoteFilters(t *testing.T, st store.Store) {
	ctx := context.Background()

	dbCat, err := st.CreateCategory(ctx, "Database", "#336791")
	require.NoError(t, err)
	netCat, err := st.CreateCategory(ctx, "Network", "#2ECC71")
	require.NoError(t, err)
	perf, err := st.CreateTag(ctx, "Performance", "#E74C3C")
	require.NoError(t, err)
	backup, err := st.CreateTag(ctx, "Backup", "#F39C12")
	require.NoError(t, err)

	slow, err := st.CreateNote(ctx, model.Note{
		Title: "slow db", CategoryID: &dbCat.ID, Priority: 1,
		Status: model.StatusActive, TagIDs: []int64{perf.ID},
	})
	require.NoError(t, err)
	dump, err := st.CreateNote(ctx, model.Note{
		Title: "dump failed", CategoryID: &dbCat.ID, Priority: 1,
		Status: model.StatusCompleted, TagIDs: []int64{backup.ID},
	})
	require.NoError(t, err)
	lag, err := st.CreateNote(ctx, model.Note{
		Title: "lag spikes", CategoryID: &netCat.ID, Priority: 1,
		Status: model.StatusActive, TagIDs: []int64{perf.ID, backup.ID},
	})
	require.NoError(t, err)

	list, err := st.Notes(ctx, store.NoteFilter{CategoryID: &dbCat.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{slow.ID, dump.ID}, noteIDs(list))

	list, err = st.Notes(ctx, store.NoteFilter{Status: model.StatusActive})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{slow.ID, lag.ID}, noteIDs(list))

	// Tag filter matches notes carrying any of the requested tags.
	list, err = st.Notes(ctx, store.NoteFilter{TagIDs: []int64{backup.ID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{dump.ID, lag.ID}, noteIDs(list))

	list, err = st.Notes(ctx, store.NoteFilter{
		CategoryID: &dbCat.ID,
		Status:     model.StatusActive,
		TagIDs:     []int64{perf.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{slow.ID}, noteIDs(list))
}

func testNotePartialUpdate(t *testing.T, st store.Store) {
	ctx := context.Background()

	note, err := st.CreateNote(ctx, model.Note{
		Title:    "original title",
		Problem:  "original problem",
		Analysis: "original analysis",
		Priority: 2,
		Status:   model.StatusActive,
	})
	require.NoError(t, err)

	title := "new title"
	status := model.StatusCompleted
	require.NoError(t, st.UpdateNote(ctx, note.ID, model.NotePatch{
		Title:  &title,
		Status: &status,
	}))

	got, err := st.NoteByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, model.StatusCompleted, got.Status)
	// Untouched fields keep their values.
	assert.Equal(t, "original problem", got.Problem)
	assert.Equal(t, "original analysis", got.Analysis)
	assert.Equal(t, 2, got.Priority)

	assert.ErrorIs(t, st.UpdateNote(ctx, 9999, model.NotePatch{Title: &title}), store.ErrNotFound)

	// An empty patch still succeeds against an existing note.
	require.NoError(t, st.UpdateNote(ctx, note.ID, model.NotePatch{}))
}

func testNoteDeleteCascades(t *testing.T, st store.Store) {
	ctx := context.Background()

	note, err := st.CreateNote(ctx, model.Note{Title: "doomed", Priority: 1, Status: model.StatusActive})
	require.NoError(t, err)

	sol, err := st.CreateSolution(ctx, model.Solution{NoteID: note.ID, PlanType: "Plan A", Description: "fix", Priority: 1})
	require.NoError(t, err)
	_, err = st.CreateStep(ctx, model.Step{SolutionID: sol.ID, StepNumber: 1, Description: "do it"})
	require.NoError(t, err)
	_, err = st.CreateSnippet(ctx, model.CodeSnippet{NoteID: note.ID, Language: "sql", Code: "SELECT 1", ExecutionOrder: 1})
	require.NoError(t, err)
	_, err = st.CreateScript(ctx, model.Script{NoteID: note.ID, Title: "check", ScriptType: "bash", Content: "true", ExecutionOrder: 1})
	require.NoError(t, err)
	_, err = st.CreateImage(ctx, model.Image{NoteID: note.ID, Filename: "shot.png"})
	require.NoError(t, err)

	require.NoError(t, st.DeleteNote(ctx, note.ID))

	sols, err := st.SolutionsByNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, sols)
	steps, err := st.StepsBySolution(ctx, sol.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)
	snippets, err := st.SnippetsByNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, snippets)
	scripts, err := st.ScriptsByNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, scripts)
	images, err := st.ImagesByNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

// Deleting a tag leaves notes referencing it intact; the reference just
// stops resolving.
func testDanglingTagRefs(t *testing.T, st store.Store) {
	ctx := context.Background()

	keep, err := st.CreateTag(ctx, "Keep", "#111111")
	require.NoError(t, err)
	gone, err := st.CreateTag(ctx, "Gone", "#222222")
	require.NoError(t, err)

	note, err := st.CreateNote(ctx, model.Note{
		Title: "tagged", Priority: 1, Status: model.StatusActive,
		TagIDs: []int64{keep.ID, gone.ID},
	})
	require.NoError(t, err)

	require.NoError(t, st.DeleteTag(ctx, gone.ID))

	got, err := st.NoteByID(ctx, note.ID)
	require.NoError(t, err)
	tags, err := st.TagsByIDs(ctx, got.TagIDs)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Keep", tags[0].Name)
}

// Creating a note that references a tag id which never existed must
// succeed; the bogus reference resolves to nothing, same as a deleted
// tag.
func testUnknownTagRefs(t *testing.T, st store.Store) {
	ctx := context.Background()

	tag, err := st.CreateTag(ctx, "Real", "#123456")
	require.NoError(t, err)

	note, err := st.CreateNote(ctx, model.Note{
		Title: "loose refs", Priority: 1, Status: model.StatusActive,
		TagIDs: []int64{tag.ID, 9999},
	})
	require.NoError(t, err)

	got, err := st.NoteByID(ctx, note.ID)
	require.NoError(t, err)
	tags, err := st.TagsByIDs(ctx, got.TagIDs)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Real", tags[0].Name)
}

func testSolutions(t *testing.T, st store.Store) {
	ctx := context.Background()

	note, err := st.CreateNote(ctx, model.Note{Title: "n", Priority: 1, Status: model.StatusActive})
	require.NoError(t, err)

	planB, err := st.CreateSolution(ctx, model.Solution{
		NoteID: note.ID, PlanType: "Plan B", Description: "rewrite", Reasoning: "clean slate", Priority: 2,
	})
	require.NoError(t, err)
	planA, err := st.CreateSolution(ctx, model.Solution{
		NoteID: note.ID, PlanType: "Plan A", Description: "add index", Priority: 1,
	})
	require.NoError(t, err)

	sols, err := st.SolutionsByNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, sols, 2)
	assert.Equal(t, planA.ID, sols[0].ID)
	assert.Equal(t, planB.ID, sols[1].ID)
	assert.Equal(t, "clean slate", sols[1].Reasoning)

	s2, err := st.CreateStep(ctx, model.Step{SolutionID: planA.ID, StepNumber: 2, Description: "apply"})
	require.NoError(t, err)
	s1, err := st.CreateStep(ctx, model.Step{SolutionID: planA.ID, StepNumber: 1, Description: "measure"})
	require.NoError(t, err)

	steps, err := st.StepsBySolution(ctx, planA.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, s1.ID, steps[0].ID)
	assert.Equal(t, s2.ID, steps[1].ID)
	assert.False(t, steps[0].Completed)

	require.NoError(t, st.SetStepCompleted(ctx, s1.ID, true))
	steps, err = st.StepsBySolution(ctx, planA.ID)
	require.NoError(t, err)
	assert.True(t, steps[0].Completed)
	assert.False(t, steps[1].Completed)

	require.NoError(t, st.SetStepCompleted(ctx, s1.ID, false))
	steps, err = st.StepsBySolution(ctx, planA.ID)
	require.NoError(t, err)
	assert.False(t, steps[0].Completed)

	assert.ErrorIs(t, st.SetStepCompleted(ctx, 9999, true), store.ErrNotFound)
}

func testSnippets(t *testing.T, st store.Store) {
	ctx := context.Background()

	note, err := st.CreateNote(ctx, model.Note{Title: "n", Priority: 1, Status: model.StatusActive})
	require.NoError(t, err)
	sol, err := st.CreateSolution(ctx, model.Solution{NoteID: note.ID, PlanType: "Plan A", Description: "d", Priority: 1})
	require.NoError(t, err)

	second, err := st.CreateSnippet(ctx, model.CodeSnippet{
		NoteID: note.ID, Title: "verify", Language: "sql", Code: "SELECT 2", ExecutionOrder: 2,
	})
	require.NoError(t, err)
	first, err := st.CreateSnippet(ctx, model.CodeSnippet{
		NoteID: note.ID, SolutionID: &sol.ID, Title: "index", Language: "sql",
		Code: "CREATE INDEX ix ON t(a)", Description: "covering index", ExecutionOrder: 1,
	})
	require.NoError(t, err)

	snippets, err := st.SnippetsByNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, first.ID, snippets[0].ID)
	assert.Equal(t, second.ID, snippets[1].ID)
	require.NotNil(t, snippets[0].SolutionID)
	assert.Equal(t, sol.ID, *snippets[0].SolutionID)
	assert.Nil(t, snippets[1].SolutionID)
	assert.Equal(t, "covering index", snippets[0].Description)
}

func testScripts(t *testing.T, st store.Store) {
	ctx := context.Background()

	note, err := st.CreateNote(ctx, model.Note{Title: "n", Priority: 1, Status: model.StatusActive})
	require.NoError(t, err)

	script, err := st.CreateScript(ctx, model.Script{
		NoteID: note.ID, Title: "backup check", ScriptType: "powershell",
		Content: "Get-ChildItem", ExecutionOrder: 1,
	})
	require.NoError(t, err)

	scripts, err := st.ScriptsByNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, script.ID, scripts[0].ID)
	assert.Equal(t, "powershell", scripts[0].ScriptType)
	assert.Equal(t, "Get-ChildItem", scripts[0].Content)
}

func testImages(t *testing.T, st store.Store) {
	ctx := context.Background()

	note, err := st.CreateNote(ctx, model.Note{Title: "n", Priority: 1, Status: model.StatusActive})
	require.NoError(t, err)

	img, err := st.CreateImage(ctx, model.Image{
		NoteID: note.ID, Filename: "1756000000000-plan.png", Description: "query plan",
	})
	require.NoError(t, err)

	images, err := st.ImagesByNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, img.ID, images[0].ID)
	assert.Equal(t, "1756000000000-plan.png", images[0].Filename)

	other, err := st.ImagesByNote(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func noteIDs(notes []model.Note) []int64 {
	ids := make([]int64, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}
