package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
)

// Session is the single source of truth for the current bearer token.
//
// The token is cached in memory and written through to the TokenStore. Writes
// are serialised and complete before Set returns, so a Get that follows a Set
// in the same flow always observes it.
type Session struct {
	mu    sync.Mutex
	token string
	// loaded is set once the store has been consulted or the token was
	// explicitly set. After that memory is authoritative, so a token whose
	// deletion failed is never reloaded.
	loaded bool
	store  ports.TokenStore
	log    zerolog.Logger
}

// NewSession creates an empty session backed by store. A nil store keeps the
// token in memory only.
func NewSession(store ports.TokenStore, log zerolog.Logger) *Session {
	return &Session{store: store, log: log}
}

// Get returns the current token, loading it from the store on first use.
// An empty string means there is no session. A failed load is retried on the
// next call unless the token has been set in the meantime.
func (s *Session) Get(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded || s.store == nil {
		return s.token
	}

	token, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrTokenNotFound) {
		s.loaded = true
		return ""
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load persisted token")
		return ""
	}
	s.token = token
	s.loaded = true
	return s.token
}

// Set replaces the token. An empty token clears the session and removes the
// persisted value. The in-memory value is updated even when persistence
// fails, and it wins over whatever the store still holds; the persistence
// error is returned.
func (s *Session) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.loaded = true
	if s.store == nil {
		return nil
	}

	if token == "" {
		if err := s.store.Delete(ctx); err != nil {
			s.log.Error().Err(err).Msg("failed to remove persisted token")
			return err
		}
		return nil
	}

	if err := s.store.Save(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("failed to persist token")
		return err
	}
	return nil
}

// Clear drops the session.
func (s *Session) Clear(ctx context.Context) error {
	return s.Set(ctx, "")
}

// Holds reports whether id was derived from the token currently held. Any
// identity decoded before the session was cleared or replaced is void.
func (s *Session) Holds(ctx context.Context, id *domain.Identity) bool {
	if id == nil || id.Token() == "" {
		return false
	}
	return s.Get(ctx) == id.Token()
}
