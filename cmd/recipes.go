package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/recipebox/internal/formatter"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/prefs"
	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/desertthunder/recipebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// load fetches the collection for commands that read it.
func (r *Runner) load(ctx context.Context) ([]models.Recipe, error) {
	result, err := r.repo.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	r.logger.Debug("collection loaded", "count", len(result.Recipes))
	return result.Recipes, nil
}

// lookup loads the collection and returns the record with id.
func (r *Runner) lookup(ctx context.Context, id int) (models.Recipe, error) {
	if id <= 0 {
		return models.Recipe{}, fmt.Errorf("%w: recipe id is required", shared.ErrMissingArgument)
	}
	if _, err := r.load(ctx); err != nil {
		return models.Recipe{}, err
	}

	rec, ok := r.repo.Get(id)
	if !ok {
		return models.Recipe{}, fmt.Errorf("%w: recipe %d", shared.ErrNotFound, id)
	}
	return rec, nil
}

// RecipesList prints the collection in server order.
func (r *Runner) RecipesList(ctx context.Context, cmd *cli.Command) error {
	list, err := r.load(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	view := cmd.String("view")
	if view == "" {
		view = r.prefs.Get(ctx, prefs.View)
	} else if !prefs.View.Valid(view) {
		return fmt.Errorf("%w: view must be list or grid", shared.ErrInvalidArgument)
	}

	return r.writePlain("%s", formatter.RecipeList(list, view, 100))
}

// RecipesShow prints one recipe as text, Markdown or JSON.
func (r *Runner) RecipesShow(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.lookup(ctx, cmd.IntArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		if rec.SourceURL == "" {
			return fmt.Errorf("%w: recipe %d has no source page", shared.ErrInvalidArgument, rec.ID)
		}
		if err := shared.OpenBrowser(rec.SourceURL); err != nil {
			return err
		}
		r.logger.Info("opened source page", "url", rec.SourceURL)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(rec, true)
	case cmd.Bool("markdown"):
		return r.writePlain("%s", formatter.RecipeMarkdown(rec, ""))
	default:
		return r.writePlain("%s", formatter.RecipeText(rec))
	}
}

// RecipesAdd submits each URL for extraction, one after another, printing progress as it goes.
func (r *Runner) RecipesAdd(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one URL is required", shared.ErrMissingArgument)
	}

	progress := make(chan tasks.ProgressUpdate, len(urls)*2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	results := r.workflow.SubmitAll(ctx, urls, progress)
	close(progress)
	wg.Wait()

	var failed int
	var last error
	for _, res := range results {
		if res.Err != nil {
			failed++
			last = res.Err
			if errors.Is(res.Err, shared.ErrInvalidInput) {
				r.writePlain("✗ %s: %s\n", res.URL, shared.Reason(res.Err))
			}
		}
	}

	r.writePlainln("Added %d of %d", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs could not be added: %w", failed, len(results), last)
	}
	return nil
}

// RecipesEdit sends the changed fields of one recipe and prints the server's copy.
func (r *Runner) RecipesEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.IntArg("id")
	if id <= 0 {
		return fmt.Errorf("%w: recipe id is required", shared.ErrMissingArgument)
	}

	patch := patchFromFlags(cmd)
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to change (see --help for fields)", shared.ErrMissingArgument)
	}

	rec, err := r.repo.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update recipe %d: %w", id, err)
	}

	r.writePlain("✓ Updated %s (ID: %d)\n\n", formatter.Clean(rec.Name), rec.ID)
	return r.writePlain("%s", formatter.RecipeText(rec))
}

func patchFromFlags(cmd *cli.Command) models.RecipePatch {
	var patch models.RecipePatch

	str := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}

	patch.Name = str("name")
	patch.Description = str("description")
	patch.PrepTime = str("prep")
	patch.CookTime = str("cook")
	patch.Servings = str("servings")
	patch.Notes = str("notes")
	patch.ImageURL = str("image")
	patch.SourceURL = str("source")

	if cmd.IsSet("ingredient") {
		v := cmd.StringSlice("ingredient")
		patch.Ingredients = &v
	}
	if cmd.IsSet("instruction") {
		v := cmd.StringSlice("instruction")
		if len(v) == 1 {
			v = models.SplitInstructions(v[0])
		}
		patch.Instructions = &v
	}
	return patch
}

// RecipesDelete removes a recipe after confirmation. The record stays in place unless the server confirms.
func (r *Runner) RecipesDelete(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.lookup(ctx, cmd.IntArg("id"))
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete '%s' (ID: %d)?", formatter.Clean(rec.Name), rec.ID)) {
		return r.writePlain("Cancelled\n")
	}

	message, err := r.repo.Remove(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", rec.ID, err)
	}

	if message == "" {
		message = fmt.Sprintf("Deleted %s", formatter.Clean(rec.Name))
	}
	return r.writePlain("✓ %s\n", message)
}

// RecipesExport writes the collection to disk with a manifest.
func (r *Runner) RecipesExport(ctx context.Context, cmd *cli.Command) error {
	list, err := r.load(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, len(list)+1)
	result, err := tasks.ExportCollection(ctx, list, tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	}, progress)
	close(progress)
	for update := range progress {
		r.writePlain("%s\n", update.Message)
	}
	if err != nil {
		return err
	}

	r.writePlainHeader("Export complete")
	r.writePlain("Format:     %s\n", result.Format)
	r.writePlain("Exported:   %d/%d\n", result.Successful, result.Total)
	r.writePlain("Directory:  %s\n", result.OutputDirectory)
	r.writePlain("Manifest:   %s\n", result.ManifestPath)
	if result.Failed > 0 {
		return fmt.Errorf("%d recipes failed to export", result.Failed)
	}
	return nil
}
