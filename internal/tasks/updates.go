package tasks

import (
	"fmt"

	"github.com/desertthunder/recipebox/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SubmitURL Phase = iota
	InsertRecipe
	AddFailed
	ExportRecipes
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case SubmitURL:
		return "submit_url"
	case InsertRecipe:
		return "insert_recipe"
	case AddFailed:
		return "add_failed"
	case ExportRecipes:
		return "export_recipes"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func submitURLUpdate(step, total int, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitURL,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Extracting recipe from %s...", step, total, url),
	}
}

func insertRecipeUpdate(step, total int, r *models.Recipe) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertRecipe,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ Added %s (ID: %d)", step, total, r.Name, r.ID),
		Data:    r,
	}
}

func addFailedUpdate(step, total int, url, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, url, reason),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRecipes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRecipes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote manifest %s", path),
	}
}
