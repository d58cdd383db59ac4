package repositories

import "context"

// Slot keys shared by the session and preference stores.
const (
	TokenKey = "recipebox.token"
	ThemeKey = "recipebox.theme"
	ViewKey  = "recipebox.view"
)

// KeyValueStore persists keyed string slots.
type KeyValueStore interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	_ KeyValueStore = (*SQLiteKV)(nil)
	_ KeyValueStore = (*MemoryKV)(nil)
)
