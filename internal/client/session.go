package client

import "sync"

// Session holds the bearer token of one signed-in user. It is the only
// place the token lives; every request reads it from here.
type Session struct {
	mu    sync.RWMutex
	token string
}

// Token returns the current token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set stores a freshly issued token.
func (s *Session) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear signs the session out.
func (s *Session) Clear() {
	s.Set("")
}
