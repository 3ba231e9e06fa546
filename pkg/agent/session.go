package agent

import "sync"

// Session holds the customer details collected during one call. One
// instance per call, discarded at hangup; nothing persists across calls.
type Session struct {
	mu           sync.Mutex
	customerName string
	email        string
	phoneNumber  string
	phoneSet     bool
}

// NewSession creates an empty call session.
func NewSession() *Session {
	return &Session{}
}

// SetPhoneNumber seeds the caller's number from call metadata. The number
// is write-once: later calls are ignored so booking always carries the
// number the caller dialed in with.
func (s *Session) SetPhoneNumber(number string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phoneSet {
		return
	}
	s.phoneNumber = number
	s.phoneSet = true
}

// PhoneNumber returns the caller's number, or "" if the platform never
// supplied one.
func (s *Session) PhoneNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phoneNumber
}

// SetCustomerName records the caller's name once collected.
func (s *Session) SetCustomerName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerName = name
}

// CustomerName returns the collected name, or "".
func (s *Session) CustomerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerName
}

// SetEmail records the caller's email once collected.
func (s *Session) SetEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
}

// Email returns the collected email, or "".
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}
