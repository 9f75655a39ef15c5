// Package seed provisions the default account and sample data on an
// empty store. Fixtures live in an embedded YAML document.
package seed

import (
	"context"
	"errors"
	"fmt"

	_ "embed"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ErkanEron/melonotes/internal/auth"
	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/store"
)

//go:embed data.yaml
var fixtureYAML []byte

type fixtures struct {
	User struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"user"`
	Categories []struct {
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
	} `yaml:"categories"`
	Tags []struct {
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
	} `yaml:"tags"`
	Notes []noteFixture `yaml:"notes"`
}

type noteFixture struct {
	Title             string   `yaml:"title"`
	Problem           string   `yaml:"problem"`
	ProblemDefinition string   `yaml:"problem_definition"`
	Analysis          string   `yaml:"analysis"`
	Category          string   `yaml:"category"`
	Priority          int      `yaml:"priority"`
	Tags              []string `yaml:"tags"`
	Solutions         []struct {
		PlanType    string   `yaml:"plan_type"`
		Description string   `yaml:"description"`
		Reasoning   string   `yaml:"reasoning"`
		Steps       []string `yaml:"steps"`
		Codes       []struct {
			Title       string `yaml:"title"`
			Language    string `yaml:"language"`
			Code        string `yaml:"code"`
			Description string `yaml:"description"`
		} `yaml:"codes"`
		Scripts []struct {
			Title       string `yaml:"title"`
			ScriptType  string `yaml:"script_type"`
			Content     string `yaml:"content"`
			Description string `yaml:"description"`
		} `yaml:"scripts"`
	} `yaml:"solutions"`
}

// Apply ensures the default user exists and, when the store holds no
// notes (or force is set), loads the sample data.
func Apply(ctx context.Context, st store.Store, log zerolog.Logger, force bool) error {
	log = log.With().Str("component", "seed").Logger()

	var fx fixtures
	if err := yaml.Unmarshal(fixtureYAML, &fx); err != nil {
		return fmt.Errorf("failed to parse seed fixtures: %w", err)
	}

	if err := ensureUser(ctx, st, log, fx); err != nil {
		return err
	}

	count, err := st.CountNotes(ctx)
	if err != nil {
		return err
	}
	if count > 0 && !force {
		log.Debug().Int64("notes", count).Msg("seed data already present")
		return nil
	}

	categoryIDs, err := ensureCategories(ctx, st, fx)
	if err != nil {
		return err
	}
	tagIDs, err := ensureTags(ctx, st, fx)
	if err != nil {
		return err
	}

	for _, nf := range fx.Notes {
		if err := createNote(ctx, st, nf, categoryIDs, tagIDs); err != nil {
			return err
		}
	}
	log.Info().Int("notes", len(fx.Notes)).Msg("seed data created")
	return nil
}

func ensureUser(ctx context.Context, st store.Store, log zerolog.Logger, fx fixtures) error {
	_, err := st.UserByUsername(ctx, fx.User.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(fx.User.Password)
	if err != nil {
		return err
	}
	if _, err := st.CreateUser(ctx, fx.User.Username, hash); err != nil {
		return fmt.Errorf("failed to create default user: %w", err)
	}
	log.Info().Str("username", fx.User.Username).Msg("default user created")
	return nil
}

func ensureCategories(ctx context.Context, st store.Store, fx fixtures) (map[string]int64, error) {
	ids := map[string]int64{}
	existing, err := st.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		ids[c.Name] = c.ID
	}
	for _, cf := range fx.Categories {
		if _, ok := ids[cf.Name]; ok {
			continue
		}
		c, err := st.CreateCategory(ctx, cf.Name, cf.Color)
		if err != nil {
			return nil, fmt.Errorf("failed to seed category %q: %w", cf.Name, err)
		}
		ids[c.Name] = c.ID
	}
	return ids, nil
}

func ensureTags(ctx context.Context, st store.Store, fx fixtures) (map[string]int64, error) {
	ids := map[string]int64{}
	existing, err := st.Tags(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		ids[t.Name] = t.ID
	}
	for _, tf := range fx.Tags {
		if _, ok := ids[tf.Name]; ok {
			continue
		}
		t, err := st.CreateTag(ctx, tf.Name, tf.Color)
		if err != nil {
			return nil, fmt.Errorf("failed to seed tag %q: %w", tf.Name, err)
		}
		ids[t.Name] = t.ID
	}
	return ids, nil
}

func createNote(ctx context.Context, st store.Store, nf noteFixture, categories, tags map[string]int64) error {
	note := model.Note{
		Title:             nf.Title,
		Problem:           nf.Problem,
		ProblemDefinition: nf.ProblemDefinition,
		Analysis:          nf.Analysis,
		Priority:          nf.Priority,
		Status:            model.StatusActive,
	}
	if id, ok := categories[nf.Category]; ok {
		note.CategoryID = &id
	}
	for _, name := range nf.Tags {
		if id, ok := tags[name]; ok {
			note.TagIDs = append(note.TagIDs, id)
		}
	}

	created, err := st.CreateNote(ctx, note)
	if err != nil {
		return fmt.Errorf("failed to seed note %q: %w", nf.Title, err)
	}

	for si, sf := range nf.Solutions {
		sol, err := st.CreateSolution(ctx, model.Solution{
			NoteID:      created.ID,
			PlanType:    sf.PlanType,
			Description: sf.Description,
			Reasoning:   sf.Reasoning,
			Priority:    si + 1,
		})
		if err != nil {
			return fmt.Errorf("failed to seed solution: %w", err)
		}
		for i, desc := range sf.Steps {
			// The sample data ships with the first two steps done.
			if _, err := st.CreateStep(ctx, model.Step{
				SolutionID:  sol.ID,
				StepNumber:  i + 1,
				Description: desc,
				Completed:   i < 2,
			}); err != nil {
				return fmt.Errorf("failed to seed step: %w", err)
			}
		}
		for i, cf := range sf.Codes {
			solID := sol.ID
			if _, err := st.CreateSnippet(ctx, model.CodeSnippet{
				NoteID:         created.ID,
				SolutionID:     &solID,
				Title:          cf.Title,
				Language:       cf.Language,
				Code:           cf.Code,
				Description:    cf.Description,
				ExecutionOrder: i + 1,
			}); err != nil {
				return fmt.Errorf("failed to seed code snippet: %w", err)
			}
		}
		for i, scf := range sf.Scripts {
			solID := sol.ID
			if _, err := st.CreateScript(ctx, model.Script{
				NoteID:         created.ID,
				SolutionID:     &solID,
				Title:          scf.Title,
				ScriptType:     scf.ScriptType,
				Content:        scf.Content,
				Description:    scf.Description,
				ExecutionOrder: i + 1,
			}); err != nil {
				return fmt.Errorf("failed to seed script: %w", err)
			}
		}
	}
	return nil
}
