package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/recipebox/internal/formatter"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/shared"
)

// ExportOpts contains configuration for exporting recipes to disk.
type ExportOpts struct {
	Format     string // json, markdown, txt or csv
	OutputDir  string // Base output directory (default: recipebox_export_{epoch})
	NumWorkers int    // Concurrent writers (default: 4, max: 8)
}

// RecipeExportResult is the outcome of exporting one recipe.
type RecipeExportResult struct {
	RecipeID int      `json:"recipe_id"`
	Name     string   `json:"name"`
	Success  bool     `json:"success"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ExportResult summarizes an export run.
type ExportResult struct {
	Format          string               `json:"format"`
	ExportedAt      time.Time            `json:"exported_at"`
	Total           int                  `json:"total"`
	Successful      int                  `json:"successful"`
	Failed          int                  `json:"failed"`
	OutputDirectory string               `json:"output_directory"`
	ManifestPath    string               `json:"-"`
	Results         []RecipeExportResult `json:"results"`
}

// ExportCollection writes each recipe to OutputDir in the chosen format and writes
// export_manifest.json describing every file.
//
// Individual failures are recorded in the result; only setup and manifest failures are returned.
func ExportCollection(ctx context.Context, recipes []models.Recipe, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error) {
	switch opts.Format {
	case "":
		opts.Format = "json"
	case "json", "markdown", "txt", "csv":
	default:
		return nil, fmt.Errorf("%w: unknown export format %q (want json, markdown, txt or csv)", shared.ErrInvalidArgument, opts.Format)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("recipebox_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Format:          opts.Format,
		ExportedAt:      time.Now().UTC(),
		Total:           len(recipes),
		OutputDirectory: opts.OutputDir,
		Results:         make([]RecipeExportResult, 0, len(recipes)),
	}

	if opts.Format == "csv" {
		exportCSV(recipes, opts, result, progress)
	} else {
		exportEach(ctx, recipes, opts, result, progress)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(progress, manifestUpdate(manifestPath))
	return result, nil
}

func exportCSV(recipes []models.Recipe, opts ExportOpts, result *ExportResult, progress chan<- ProgressUpdate) {
	path, err := formatter.WriteCSVExport(recipes, filepath.Join(opts.OutputDir, "recipes.csv"))
	for i, r := range recipes {
		res := RecipeExportResult{RecipeID: r.ID, Name: r.Name, Success: err == nil}
		if err != nil {
			res.Error = err.Error()
			result.Failed++
			sendProgress(progress, exportFailedUpdate(i+1, len(recipes), r.Name, err))
		} else {
			res.Files = []string{path}
			result.Successful++
			sendProgress(progress, exportCompletedUpdate(i+1, len(recipes), r.Name, 1))
		}
		result.Results = append(result.Results, res)
	}
}

// exportEach fans recipes out to a pool of writers and collects results in completion order.
func exportEach(ctx context.Context, recipes []models.Recipe, opts ExportOpts, result *ExportResult, progress chan<- ProgressUpdate) {
	jobs := make(chan models.Recipe, len(recipes))
	results := make(chan RecipeExportResult, len(recipes))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	for _, r := range recipes {
		jobs <- r
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			sendProgress(progress, exportCompletedUpdate(completed, len(recipes), res.Name, len(res.Files)))
		} else {
			result.Failed++
			sendProgress(progress, exportFailedUpdate(completed, len(recipes), res.Name, fmt.Errorf("%s", res.Error)))
		}
	}
}

// exportWorker writes recipes from the jobs channel until it closes or ctx ends.
func exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan models.Recipe, results chan<- RecipeExportResult, opts ExportOpts) {
	defer wg.Done()

	for r := range jobs {
		if err := ctx.Err(); err != nil {
			results <- RecipeExportResult{RecipeID: r.ID, Name: r.Name, Error: err.Error()}
			continue
		}
		results <- exportRecipe(r, opts)
	}
}

func exportRecipe(r models.Recipe, opts ExportOpts) RecipeExportResult {
	result := RecipeExportResult{RecipeID: r.ID, Name: r.Name}
	base := filepath.Join(opts.OutputDir, formatter.Slug(r))

	switch opts.Format {
	case "markdown":
		md, err := formatter.WriteMarkdownExport(r, base)
		if err != nil {
			result.Error = fmt.Sprintf("markdown export failed: %v", err)
			return result
		}
		result.Files = md.Files
	case "txt":
		path, err := formatter.WriteTextExport(r, base+".txt")
		if err != nil {
			result.Error = fmt.Sprintf("text export failed: %v", err)
			return result
		}
		result.Files = []string{path}
	default:
		path, err := formatter.WriteJSONExport(r, base+".json")
		if err != nil {
			result.Error = fmt.Sprintf("JSON export failed: %v", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}
