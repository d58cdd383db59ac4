// Package repositories implements local persistence for the client's keyed string slots.
//
// The client keeps exactly three slots: the session credential, the theme, and the view mode.
// Each survives restarts and is read and written independently.
//
// Key Implementations:
//   - [SQLiteKV] : slots stored in the kv_store table created by the embedded migrations
//   - [MemoryKV] : process-local slots for tests and --ephemeral runs
package repositories
