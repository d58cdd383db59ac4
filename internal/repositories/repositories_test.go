package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/recipebox/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestKeyValueStores(t *testing.T) {
	stores := map[string]func(t *testing.T) KeyValueStore{
		"SQLiteKV": func(t *testing.T) KeyValueStore {
			db := setupTestDB(t)
			t.Cleanup(func() { db.Close() })
			return NewSQLiteKV(db)
		},
		"MemoryKV": func(t *testing.T) KeyValueStore {
			return NewMemoryKV()
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("Get missing", func(t *testing.T) {
				store := newStore(t)
				v, ok, err := store.Get(ctx, TokenKey)
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if ok || v != "" {
					t.Errorf("expected absent slot, got %q (present=%v)", v, ok)
				}
			})

			t.Run("Set overwrites", func(t *testing.T) {
				store := newStore(t)
				if err := store.Set(ctx, TokenKey, "first"); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
				if err := store.Set(ctx, TokenKey, "second"); err != nil {
					t.Fatalf("Set() error = %v", err)
				}

				v, ok, err := store.Get(ctx, TokenKey)
				if err != nil || !ok || v != "second" {
					t.Errorf("Get() = %q, %v, %v; want second, true, nil", v, ok, err)
				}
			})

			t.Run("slots are independent", func(t *testing.T) {
				store := newStore(t)
				store.Set(ctx, ThemeKey, "dark")
				store.Set(ctx, ViewKey, "list")

				if err := store.Delete(ctx, ThemeKey); err != nil {
					t.Fatalf("Delete() error = %v", err)
				}

				if _, ok, _ := store.Get(ctx, ThemeKey); ok {
					t.Error("theme should be gone")
				}
				if v, ok, _ := store.Get(ctx, ViewKey); !ok || v != "list" {
					t.Errorf("view should be untouched, got %q", v)
				}
			})

			t.Run("Delete is idempotent", func(t *testing.T) {
				store := newStore(t)
				for i := 0; i < 2; i++ {
					if err := store.Delete(ctx, TokenKey); err != nil {
						t.Errorf("Delete() pass %d error = %v", i+1, err)
					}
				}
			})
		})
	}
}

func TestSQLiteKVUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	store := NewSQLiteKV(db)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	if _, ok, err := store.UpdatedAt(ctx, ThemeKey); err != nil || ok {
		t.Fatalf("UpdatedAt() on missing key = %v, %v", ok, err)
	}

	if err := store.Set(ctx, ThemeKey, "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	at, ok, err := store.UpdatedAt(ctx, ThemeKey)
	if err != nil || !ok {
		t.Fatalf("UpdatedAt() = %v, %v", ok, err)
	}
	if !at.Equal(fixed) {
		t.Errorf("UpdatedAt() = %v, want %v", at, fixed)
	}
}

func TestSQLiteKVClosedDatabase(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLiteKV(db)
	db.Close()

	ctx := context.Background()
	if _, _, err := store.Get(ctx, TokenKey); err == nil {
		t.Error("expected Get() error on closed database")
	}
	if err := store.Set(ctx, TokenKey, "x"); err == nil {
		t.Error("expected Set() error on closed database")
	}
	if err := store.Delete(ctx, TokenKey); err == nil {
		t.Error("expected Delete() error on closed database")
	}
}
