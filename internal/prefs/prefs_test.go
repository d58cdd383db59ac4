package prefs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/desertthunder/recipebox/internal/repositories"
	"github.com/desertthunder/recipebox/internal/shared"
)

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}
func (brokenKV) Set(context.Context, string, string) error { return errors.New("disk unavailable") }
func (brokenKV) Delete(context.Context, string) error      { return errors.New("disk unavailable") }

func TestStore(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("Defaults", func(t *testing.T) {
		s := NewStore(repositories.NewMemoryKV(), logger)

		if got := s.Get(ctx, Theme); got != Light {
			t.Errorf("expected default theme light, got %s", got)
		}
		if got := s.Get(ctx, View); got != Grid {
			t.Errorf("expected default view grid, got %s", got)
		}
	})

	t.Run("Independent Kinds", func(t *testing.T) {
		s := NewStore(repositories.NewMemoryKV(), logger)

		if err := s.Set(ctx, Theme, Dark); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := s.Get(ctx, Theme); got != Dark {
			t.Errorf("expected dark, got %s", got)
		}
		if got := s.Get(ctx, View); got != Grid {
			t.Errorf("expected view untouched, got %s", got)
		}
	})

	t.Run("Normalizes Input", func(t *testing.T) {
		s := NewStore(repositories.NewMemoryKV(), logger)
		if err := s.Set(ctx, View, "  LIST "); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := s.Get(ctx, View); got != List {
			t.Errorf("expected list, got %s", got)
		}
	})

	t.Run("Rejects Out Of Enum", func(t *testing.T) {
		kv := repositories.NewMemoryKV()
		s := NewStore(kv, logger)

		if err := s.Set(ctx, Theme, "sepia"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := s.Set(ctx, Kind("font"), "x"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown kind, got %v", err)
		}
		if _, ok, _ := kv.Get(ctx, repositories.ThemeKey); ok {
			t.Error("expected nothing persisted")
		}
	})

	t.Run("Stored Garbage Falls Back", func(t *testing.T) {
		kv := repositories.NewMemoryKV()
		kv.Set(ctx, repositories.ThemeKey, "sepia")
		s := NewStore(kv, logger)

		if got := s.Get(ctx, Theme); got != Light {
			t.Errorf("expected default for out-of-enum value, got %s", got)
		}
	})

	t.Run("Storage Failure", func(t *testing.T) {
		s := NewStore(brokenKV{}, logger)

		if got := s.Get(ctx, View); got != Grid {
			t.Errorf("expected default on read failure, got %s", got)
		}
		if err := s.Set(ctx, View, List); err == nil {
			t.Error("expected write failure")
		}
		if got, err := s.Toggle(ctx, View); err == nil || got != Grid {
			t.Errorf("expected failed toggle to report current value, got %s, %v", got, err)
		}
	})

	t.Run("Toggle", func(t *testing.T) {
		kv := repositories.NewMemoryKV()
		s := NewStore(kv, logger)

		got, err := s.Toggle(ctx, Theme)
		if err != nil || got != Dark {
			t.Fatalf("expected dark, got %s, %v", got, err)
		}
		got, _ = s.Toggle(ctx, Theme)
		if got != Light {
			t.Errorf("expected light, got %s", got)
		}

		if v, _, _ := kv.Get(ctx, repositories.ThemeKey); v != Light {
			t.Errorf("expected persisted light, got %s", v)
		}
	})

	t.Run("Persists Across Stores", func(t *testing.T) {
		kv := repositories.NewMemoryKV()
		NewStore(kv, logger).Set(ctx, View, List)

		if got := NewStore(kv, logger).Get(ctx, View); got != List {
			t.Errorf("expected list restored, got %s", got)
		}
	})
}

func TestKind(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		k, err := ParseKind(" Theme ")
		if err != nil || k != Theme {
			t.Errorf("expected theme, got %v, %v", k, err)
		}
		if _, err := ParseKind("font"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Values Are Copies", func(t *testing.T) {
		v := Theme.Values()
		v[0] = "mutated"
		if Theme.Default() != Light {
			t.Error("expected Values to return a copy")
		}
	})

	t.Run("Kinds", func(t *testing.T) {
		if len(Kinds()) != 2 {
			t.Errorf("expected 2 kinds, got %d", len(Kinds()))
		}
	})
}
