package answers

import (
	"context"
	"time"
)

// Session is the authenticated identity attached to the client.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoggedIn reports whether s is present and carries an identity.
func (s *Session) LoggedIn() bool {
	return s != nil && s.UserID != ""
}

// SessionProvider returns the current session, or nil when anonymous.
type SessionProvider interface {
	Session(ctx context.Context) *Session
}

type SessionFunc func(ctx context.Context) *Session

func (f SessionFunc) Session(ctx context.Context) *Session { return f(ctx) }

// StaticSession always returns the same session (nil means anonymous).
func StaticSession(s *Session) SessionProvider {
	return SessionFunc(func(context.Context) *Session { return s })
}
