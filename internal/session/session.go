// Package session carries the signed-in user's identity and grant through
// call chains as an immutable value attached to a context.
package session

import (
	"context"
	"errors"
	"slices"

	"github.com/cleared-dev/tally/internal/access"
)

// ErrNoSession is returned when a context carries no session.
var ErrNoSession = errors.New("no session in context")

// Session is the identity and permissions of the current user.
// It is never mutated after construction.
type Session struct {
	userID       string
	userName     string
	token        string
	grant        access.Grant
	allLocations []string
}

// New creates a Session.
func New(userID, userName, token string, grant access.Grant, allLocations []string) Session {
	return Session{
		userID:       userID,
		userName:     userName,
		token:        token,
		grant:        grant,
		allLocations: slices.Clone(allLocations),
	}
}

func (s Session) UserID() string         { return s.userID }
func (s Session) UserName() string       { return s.userName }
func (s Session) Token() string          { return s.token }
func (s Session) Grant() access.Grant    { return s.grant }
func (s Session) AllLocations() []string { return slices.Clone(s.allLocations) }

// Valid reports whether the session has a token.
func (s Session) Valid() bool {
	return s.token != ""
}

// WithGrant returns a copy of s with a different grant.
func (s Session) WithGrant(g access.Grant) Session {
	out := s
	out.grant = g
	return out
}

type contextKey struct{}

// WithContext returns a child context carrying s.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext extracts the Session stored by WithContext.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Token returns the session token carried by ctx, or "".
func Token(ctx context.Context) string {
	s, err := FromContext(ctx)
	if err != nil {
		return ""
	}
	return s.token
}

// Invalidator tears down a session after the remote service rejects it.
type Invalidator interface {
	Invalidate(reason string)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(reason string)

// Invalidate calls f.
func (f InvalidatorFunc) Invalidate(reason string) { f(reason) }
