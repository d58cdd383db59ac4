package recipes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/metrics"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/shared"
)

// Session supplies the bearer credential and receives authorization rejections.
type Session interface {
	Token(ctx context.Context) (string, error)
	Check(ctx context.Context, err error) error
}

// API is the remote side of the collection.
type API interface {
	List(ctx context.Context, token string) ([]models.Recipe, error)
	Update(ctx context.Context, token string, id int, patch models.RecipePatch) (*models.Recipe, error)
	Delete(ctx context.Context, token string, id int) (string, error)
}

// FetchResult is the outcome of a successful [Repository.FetchAll].
type FetchResult struct {
	Recipes []models.Recipe
	// Applied is false when the response was superseded and discarded; Recipes then holds the
	// collection as it currently stands.
	Applied bool
}

// Repository owns the local collection and every remote recipe call.
type Repository struct {
	api      API
	session  Session
	logger   *log.Logger
	recorder metrics.Recorder

	mu         sync.Mutex
	coll       *Collection
	issued     uint64
	applied    uint64
	generation uint64
	inflight   map[int]struct{}

	subMu  sync.Mutex
	subs   map[int]func([]models.Recipe)
	nextID int
}

// RepositoryOpts contains configuration options for creating a [Repository].
type RepositoryOpts struct {
	API      API
	Session  Session
	Logger   *log.Logger
	Recorder metrics.Recorder
}

// NewRepository creates an empty [Repository].
func NewRepository(opts RepositoryOpts) *Repository {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Repository{
		api:      opts.API,
		session:  opts.Session,
		logger:   opts.Logger,
		recorder: metrics.OrNop(opts.Recorder),
		coll:     NewCollection(),
		inflight: make(map[int]struct{}),
		subs:     make(map[int]func([]models.Recipe)),
	}
}

// FetchAll reads the whole collection from the server and replaces the local one.
//
// On any error the local collection is left exactly as it was.
func (r *Repository) FetchAll(ctx context.Context) (FetchResult, error) {
	token, err := r.session.Token(ctx)
	if err != nil {
		r.recorder.RecordOperation("fetch_all", metrics.Outcome(err))
		return FetchResult{}, err
	}

	r.mu.Lock()
	r.issued++
	seq, gen := r.issued, r.generation
	r.mu.Unlock()

	start := time.Now()
	list, err := r.api.List(ctx, token)
	r.recorder.RecordLatency("fetch_all", time.Since(start))
	if err != nil {
		err = r.session.Check(ctx, err)
		r.recorder.RecordOperation("fetch_all", metrics.Outcome(err))
		r.logger.Debug("fetch failed", "seq", seq, "error", err)
		return FetchResult{}, err
	}

	r.mu.Lock()
	if seq < r.applied || gen != r.generation {
		applied := r.applied
		snapshot := r.coll.Snapshot()
		r.mu.Unlock()

		r.recorder.RecordOperation("fetch_all", metrics.OutcomeDiscarded)
		r.logger.Debug("discarded stale fetch", "seq", seq, "applied", applied)
		return FetchResult{Recipes: snapshot}, nil
	}

	if err := r.coll.Replace(list); err != nil {
		r.mu.Unlock()
		r.recorder.RecordOperation("fetch_all", metrics.OutcomeFailure)
		return FetchResult{}, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	r.applied = seq
	snapshot := r.coll.Snapshot()
	r.mu.Unlock()

	r.recorder.RecordOperation("fetch_all", metrics.OutcomeSuccess)
	r.recorder.RecordCollectionSize(len(snapshot))
	r.logger.Debug("fetch applied", "seq", seq, "records", len(snapshot))
	r.notify(snapshot)
	return FetchResult{Recipes: snapshot, Applied: true}, nil
}

// InsertFront adds rec at the front of the collection without contacting the server.
//
// A record whose id is already present replaces the existing one in place.
func (r *Repository) InsertFront(rec models.Recipe) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	r.mu.Lock()
	if !r.coll.InsertFront(rec) {
		r.logger.Warn("insert of existing id replaced it in place", "id", rec.ID)
	}
	r.generation++
	snapshot := r.coll.Snapshot()
	r.mu.Unlock()

	r.recorder.RecordCollectionSize(len(snapshot))
	r.notify(snapshot)
	return nil
}

// Update sends a partial update for id and, once confirmed, replaces the local record in place
// with the server's canonical copy.
func (r *Repository) Update(ctx context.Context, id int, patch models.RecipePatch) (models.Recipe, error) {
	if err := patch.Validate(); err != nil {
		return models.Recipe{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	rec, err := r.mutate(ctx, "update", id, func(token string) (*models.Recipe, error) {
		return r.api.Update(ctx, token, id, patch)
	})
	if err != nil {
		return models.Recipe{}, err
	}
	return *rec, nil
}

// Remove deletes id on the server and, once confirmed, drops it locally.
//
// A 404 means the record is already gone server-side; it is removed locally and reported as
// success. Returns the server's optional confirmation message.
func (r *Repository) Remove(ctx context.Context, id int) (string, error) {
	var message string

	_, err := r.mutate(ctx, "remove", id, func(token string) (*models.Recipe, error) {
		msg, err := r.api.Delete(ctx, token, id)
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Info("recipe already gone on server", "id", id)
			return nil, nil
		}
		message = msg
		return nil, err
	})
	return message, err
}

// mutate runs one record-level operation under the per-id in-flight guard and applies its
// result. call returns the canonical record for updates and nil for removals.
func (r *Repository) mutate(ctx context.Context, op string, id int, call func(token string) (*models.Recipe, error)) (*models.Recipe, error) {
	token, err := r.session.Token(ctx)
	if err != nil {
		r.recorder.RecordOperation(op, metrics.Outcome(err))
		return nil, err
	}

	if err := r.begin(id); err != nil {
		r.recorder.RecordOperation(op, metrics.OutcomeConflict)
		return nil, err
	}
	defer r.end(id)

	start := time.Now()
	rec, err := call(token)
	r.recorder.RecordLatency(op, time.Since(start))
	if err != nil {
		err = r.session.Check(ctx, err)
		r.recorder.RecordOperation(op, metrics.Outcome(err))
		return nil, err
	}

	if rec != nil && (rec.ID != id || rec.Validate() != nil) {
		r.recorder.RecordOperation(op, metrics.OutcomeFailure)
		return nil, fmt.Errorf("%w: server returned record %d for %d", shared.ErrMalformedResponse, rec.ID, id)
	}

	r.mu.Lock()
	var changed bool
	if rec != nil {
		changed = r.coll.ReplaceByID(*rec)
	} else {
		changed = r.coll.RemoveByID(id)
	}
	if changed {
		r.generation++
	}
	snapshot := r.coll.Snapshot()
	r.mu.Unlock()

	r.recorder.RecordOperation(op, metrics.OutcomeSuccess)
	if changed {
		r.recorder.RecordCollectionSize(len(snapshot))
		r.notify(snapshot)
	}
	return rec, nil
}

func (r *Repository) begin(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.inflight[id]; busy {
		return fmt.Errorf("%w: recipe %d", shared.ErrRecordConflict, id)
	}
	r.inflight[id] = struct{}{}
	return nil
}

func (r *Repository) end(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
}

// Get returns a copy of the local record with id.
func (r *Repository) Get(id int) (models.Recipe, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coll.Get(id)
}

// Len returns the number of local records.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coll.Len()
}

// Snapshot returns a deep copy of the local collection.
func (r *Repository) Snapshot() []models.Recipe {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coll.Snapshot()
}

// Clear drops every local record. Used on logout; failed calls never clear.
//
// Fetches in flight when Clear runs are discarded.
func (r *Repository) Clear() {
	r.mu.Lock()
	r.coll.Reset()
	r.generation++
	r.mu.Unlock()

	r.recorder.RecordCollectionSize(0)
	r.notify([]models.Recipe{})
}

// Subscribe registers fn to receive a snapshot after every applied change.
//
// The returned func removes the subscription.
func (r *Repository) Subscribe(fn func([]models.Recipe)) func() {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.nextID
	r.nextID++
	r.subs[id] = fn

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Repository) notify(snapshot []models.Recipe) {
	r.subMu.Lock()
	fns := make([]func([]models.Recipe), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
