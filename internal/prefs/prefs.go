// Package prefs persists the two UI preferences: color theme and collection view mode.
package prefs

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/repositories"
	"github.com/desertthunder/recipebox/internal/shared"
)

// Kind names one preference.
type Kind string

const (
	Theme Kind = "theme"
	View  Kind = "view"
)

// Preference values. The first value listed for each kind is its default.
const (
	Light = "light"
	Dark  = "dark"
	Grid  = "grid"
	List  = "list"
)

var (
	values = map[Kind][]string{
		Theme: {Light, Dark},
		View:  {Grid, List},
	}
	keys = map[Kind]string{
		Theme: repositories.ThemeKey,
		View:  repositories.ViewKey,
	}
)

// Kinds returns every known preference kind.
func Kinds() []Kind {
	return []Kind{Theme, View}
}

// ParseKind resolves a kind name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := values[k]; !ok {
		return "", fmt.Errorf("%w: unknown preference %q (want theme or view)", shared.ErrInvalidInput, name)
	}
	return k, nil
}

// Values returns the allowed values of k, default first.
func (k Kind) Values() []string {
	return slices.Clone(values[k])
}

// Default returns the value used when k is unset.
func (k Kind) Default() string {
	return values[k][0]
}

// Valid reports whether v is an allowed value for k.
func (k Kind) Valid(v string) bool {
	return slices.Contains(values[k], v)
}

// Store reads and writes preferences. Each kind is stored in its own slot.
type Store struct {
	kv     repositories.KeyValueStore
	logger *log.Logger
}

// NewStore creates a [Store] backed by kv.
func NewStore(kv repositories.KeyValueStore, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{kv: kv, logger: logger}
}

// Get returns the stored value for k.
//
// Unset, unreadable and out-of-range values all resolve to the default.
func (s *Store) Get(ctx context.Context, k Kind) string {
	if _, ok := values[k]; !ok {
		return ""
	}

	v, ok, err := s.kv.Get(ctx, keys[k])
	if err != nil {
		s.logger.Warn("failed to read preference", "kind", k, "error", err)
		return k.Default()
	}
	if !ok || !k.Valid(v) {
		return k.Default()
	}
	return v
}

// Set persists v for k immediately.
func (s *Store) Set(ctx context.Context, k Kind, v string) error {
	if _, ok := values[k]; !ok {
		return fmt.Errorf("%w: unknown preference %q", shared.ErrInvalidInput, k)
	}

	v = strings.ToLower(strings.TrimSpace(v))
	if !k.Valid(v) {
		return fmt.Errorf("%w: %q is not a valid %s (want one of %s)",
			shared.ErrInvalidInput, v, k, strings.Join(values[k], ", "))
	}

	if err := s.kv.Set(ctx, keys[k], v); err != nil {
		return fmt.Errorf("failed to save %s preference: %w", k, err)
	}
	return nil
}

// Toggle flips k to its other value, persists it and returns it.
func (s *Store) Toggle(ctx context.Context, k Kind) (string, error) {
	current := s.Get(ctx, k)
	next := k.Default()
	for _, v := range values[k] {
		if v != current {
			next = v
			break
		}
	}

	if err := s.Set(ctx, k, next); err != nil {
		return current, err
	}
	return next, nil
}
