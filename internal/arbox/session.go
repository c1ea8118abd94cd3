package arbox

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
)

// Session keeps the current token pair next to an API so callers do not have
// to thread it through every call. It adds no caching or token refresh.
type Session struct {
	api API

	mu     sync.RWMutex
	tokens TokenPair
}

// NewSession wraps api. The session starts unauthenticated.
func NewSession(api API) *Session {
	return &Session{api: api}
}

// Login authenticates and replaces the held tokens on success.
func (s *Session) Login(ctx context.Context, creds Credentials) (TokenPair, error) {
	tokens, err := s.api.Login(ctx, creds)
	if err != nil {
		return TokenPair{}, err
	}
	s.SetTokens(tokens)
	return tokens, nil
}

// Tokens returns the current token pair.
func (s *Session) Tokens() TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// SetTokens installs a token pair obtained elsewhere, e.g. from a secret store.
func (s *Session) SetTokens(tokens TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

// Authenticated reports whether an access token is held.
func (s *Session) Authenticated() bool {
	return !s.Tokens().Empty()
}

func (s *Session) Profile(ctx context.Context) (json.RawMessage, error) {
	return s.api.Profile(ctx, s.Tokens())
}

func (s *Session) Schedule(ctx context.Context, query ScheduleQuery) (json.RawMessage, error) {
	return s.api.ScheduleBetweenDates(ctx, s.Tokens(), query)
}

func (s *Session) Book(ctx context.Context, req BookingRequest) (json.RawMessage, error) {
	return s.api.BookLesson(ctx, s.Tokens(), req)
}

func (s *Session) Cancel(ctx context.Context, req CancelRequest) (json.RawMessage, error) {
	return s.api.CancelBooking(ctx, s.Tokens(), req)
}
