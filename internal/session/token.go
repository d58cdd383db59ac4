package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/repositories"
	"github.com/desertthunder/recipebox/internal/shared"
)

// UnknownIdentity is returned when a token's payload cannot be decoded.
const UnknownIdentity = "unknown"

// TokenStore persists the bearer credential in a single key-value slot.
//
// A token whose removal failed is remembered as discarded and reads as absent until it is
// replaced or a later removal succeeds.
type TokenStore struct {
	kv     repositories.KeyValueStore
	logger *log.Logger

	mu        sync.Mutex
	discarded string
}

// NewTokenStore creates a [TokenStore] backed by kv.
func NewTokenStore(kv repositories.KeyValueStore, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenStore{kv: kv, logger: logger}
}

// Save persists token, overwriting any prior value. The token's shape is not checked.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, repositories.TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	s.mu.Lock()
	s.discarded = ""
	s.mu.Unlock()
	return nil
}

// Get returns the persisted token and whether one is present.
//
// Storage failures are logged and reported as absent.
func (s *TokenStore) Get(ctx context.Context) (string, bool) {
	token, ok, err := s.kv.Get(ctx, repositories.TokenKey)
	if err != nil {
		s.logger.Warn("failed to read token", "error", err)
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded != "" && token == s.discarded {
		if err := s.kv.Delete(ctx, repositories.TokenKey); err == nil {
			s.discarded = ""
		}
		return "", false
	}
	return token, true
}

// Clear removes the persisted token. Clearing an absent token is a no-op.
//
// When removal fails the stored token is still treated as absent from then on, and the
// error is returned so callers can report it.
func (s *TokenStore) Clear(ctx context.Context) error {
	token, _, _ := s.kv.Get(ctx, repositories.TokenKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, repositories.TokenKey); err != nil {
		if token != "" {
			s.discarded = token
		}
		return fmt.Errorf("failed to clear token: %w", err)
	}
	s.discarded = ""
	return nil
}

// IdentityClaim extracts a display identity from a JWT-shaped token.
//
// The payload segment is decoded without verification; "sub" is preferred, then "email".
// Any malformed input yields [UnknownIdentity].
func IdentityClaim(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return UnknownIdentity
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return UnknownIdentity
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return UnknownIdentity
	}

	for _, key := range []string{"sub", "email"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return UnknownIdentity
}
