package grokit

import (
	"sync"
)

// SecureString holds a session secret (auth_token or ct0 cookie value) and
// zeroes it when closed. Its String method is redacted so the value does not
// leak through fmt or structured loggers.
type SecureString struct {
	mu    sync.RWMutex
	value []byte
}

// NewSecureString creates a new SecureString from the given value.
func NewSecureString(value string) *SecureString {
	return &SecureString{value: []byte(value)}
}

// Value returns the secret. Returns empty string if nil or closed.
func (s *SecureString) Value() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return string(s.value)
}

// Close zeroes the memory. Safe to call multiple times.
func (s *SecureString) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.value {
		s.value[i] = 0
	}
	s.value = nil
}

// IsZero returns true if the SecureString is nil, empty or closed.
func (s *SecureString) IsZero() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.value) == 0
}

// Redacted shows the first and last 4 characters with asterisks in between.
func (s *SecureString) Redacted() string {
	if s == nil {
		return "****"
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.value) < 12 {
		return "****"
	}
	return string(s.value[:4]) + "****" + string(s.value[len(s.value)-4:])
}

// String implements fmt.Stringer with the redacted form.
func (s *SecureString) String() string {
	return s.Redacted()
}
