package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/metrics"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/recipes"
	"github.com/desertthunder/recipebox/internal/shared"
)

// Status is the state of the add-by-URL slot.
type Status int

const (
	Idle Status = iota
	Submitting
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// AddState is a snapshot of the add-by-URL slot.
//
// Recipe is set only when Succeeded; Reason and Err only when Failed.
type AddState struct {
	Status      Status
	OperationID string
	URL         string
	Recipe      *models.Recipe
	Reason      string
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Obtainer asks the server to extract a recipe from a page.
type Obtainer interface {
	Obtain(ctx context.Context, token, url string) (*models.Recipe, error)
}

// Inserter receives newly created records.
type Inserter interface {
	InsertFront(r models.Recipe) error
}

// Workflow submits URLs for extraction, one at a time.
type Workflow struct {
	api      Obtainer
	repo     Inserter
	session  recipes.Session
	logger   *log.Logger
	recorder metrics.Recorder

	mu    sync.Mutex
	state AddState
}

// WorkflowOpts contains configuration options for creating a [Workflow].
type WorkflowOpts struct {
	API      Obtainer
	Repo     Inserter
	Session  recipes.Session
	Logger   *log.Logger
	Recorder metrics.Recorder
}

// NewWorkflow creates an Idle [Workflow].
func NewWorkflow(opts WorkflowOpts) *Workflow {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Workflow{
		api:      opts.API,
		repo:     opts.Repo,
		session:  opts.Session,
		logger:   opts.Logger,
		recorder: metrics.OrNop(opts.Recorder),
	}
}

// State returns a copy of the current slot state.
func (w *Workflow) State() AddState {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.state
	if s.Recipe != nil {
		r := s.Recipe.Clone()
		s.Recipe = &r
	}
	return s
}

// ValidateURL checks that raw is a non-empty absolute http(s) URL and returns it trimmed.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: URL is required", shared.ErrInvalidInput)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an http(s) URL", shared.ErrInvalidInput, raw)
	}
	return raw, nil
}

// Submit extracts a recipe from rawURL and inserts it at the front of the collection.
//
// It blocks until the server responds. Concurrent callers get [shared.ErrAlreadyInProgress]
// while a submission is pending.
func (w *Workflow) Submit(ctx context.Context, rawURL string, progress chan<- ProgressUpdate) (models.Recipe, error) {
	return w.submit(ctx, rawURL, progress, 1, 1)
}

func (w *Workflow) submit(ctx context.Context, rawURL string, progress chan<- ProgressUpdate, step, total int) (models.Recipe, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		w.mu.Lock()
		if w.state.Status == Succeeded || w.state.Status == Failed {
			w.state = AddState{Status: Idle}
		}
		w.mu.Unlock()
		return models.Recipe{}, err
	}

	w.mu.Lock()
	if w.state.Status == Submitting {
		pending := w.state.URL
		w.mu.Unlock()
		w.recorder.RecordOperation("add", metrics.OutcomeConflict)
		return models.Recipe{}, fmt.Errorf("%w: still extracting %s", shared.ErrAlreadyInProgress, pending)
	}
	opID := shared.GenerateID()
	w.state = AddState{Status: Submitting, OperationID: opID, URL: target, StartedAt: time.Now()}
	w.mu.Unlock()

	logger := shared.WithLogger(w.logger, "operation_id", opID, "url", target)

	token, err := w.session.Token(ctx)
	if err != nil {
		return models.Recipe{}, w.fail(logger, progress, step, total, err)
	}

	sendProgress(progress, submitURLUpdate(step, total, target))
	logger.Debug("submitting url for extraction")

	start := time.Now()
	rec, err := w.api.Obtain(ctx, token, target)
	w.recorder.RecordLatency("add", time.Since(start))
	if err != nil {
		return models.Recipe{}, w.fail(logger, progress, step, total, w.session.Check(ctx, err))
	}

	if rec == nil || rec.Validate() != nil {
		return models.Recipe{}, w.fail(logger, progress, step, total, shared.ErrMalformedResponse)
	}

	if err := w.repo.InsertFront(*rec); err != nil {
		return models.Recipe{}, w.fail(logger, progress, step, total, err)
	}

	w.mu.Lock()
	stored := rec.Clone()
	w.state.Status = Succeeded
	w.state.Recipe = &stored
	w.state.FinishedAt = time.Now()
	w.mu.Unlock()

	w.recorder.RecordOperation("add", metrics.OutcomeSuccess)
	logger.Info("recipe added", "id", rec.ID, "name", rec.Name)
	sendProgress(progress, insertRecipeUpdate(step, total, rec))
	return rec.Clone(), nil
}

// fail moves the slot to Failed and returns err.
func (w *Workflow) fail(logger *log.Logger, progress chan<- ProgressUpdate, step, total int, err error) error {
	reason := shared.Reason(err)

	w.mu.Lock()
	target := w.state.URL
	w.state.Status = Failed
	w.state.Reason = reason
	w.state.Err = err
	w.state.FinishedAt = time.Now()
	w.mu.Unlock()

	w.recorder.RecordOperation("add", metrics.Outcome(err))
	logger.Warn("add failed", "reason", reason)
	sendProgress(progress, addFailedUpdate(step, total, target, reason))
	return err
}

// AddResult is the outcome of one URL in [Workflow.SubmitAll].
type AddResult struct {
	URL    string
	Recipe *models.Recipe
	Err    error
}

// SubmitAll submits urls one after another through the slot.
//
// It stops early once the session is gone; URLs not attempted are reported with that error.
func (w *Workflow) SubmitAll(ctx context.Context, urls []string, progress chan<- ProgressUpdate) []AddResult {
	results := make([]AddResult, 0, len(urls))

	var stop error
	for i, u := range urls {
		if stop == nil {
			if err := ctx.Err(); err != nil {
				stop = err
			}
		}
		if stop != nil {
			results = append(results, AddResult{URL: u, Err: stop})
			continue
		}

		rec, err := w.submit(ctx, u, progress, i+1, len(urls))
		res := AddResult{URL: u, Err: err}
		if err == nil {
			res.Recipe = &rec
		}
		results = append(results, res)

		if errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrNotAuthenticated) {
			stop = err
		}
	}
	return results
}
