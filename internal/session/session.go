// Package session holds the per-user state kept between requests: the signed
// in user, flash messages for post/redirect/get and the documents of the
// records being edited.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
)

// ErrNotFound is returned by stores for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// Flash is shown once, on the request after it was set
type Flash struct {
	Errors    form.FieldErrors `json:"errors,omitempty"`
	UserInput form.Answers     `json:"userInput,omitempty"`
	Success   string           `json:"success,omitempty"`
}

// Session is the state of one browser session
type Session struct {
	ID        string                   `json:"id"`
	User      *models.User             `json:"user,omitempty"`
	UserToken string                   `json:"userToken,omitempty"`
	Flash     *Flash                   `json:"flash,omitempty"`
	Documents map[string]form.Document `json:"documents,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`

	dirty bool
}

// New creates an empty session with a random ID
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		dirty:     true,
	}
}

// Dirty reports whether the session changed since it was loaded
func (s *Session) Dirty() bool {
	return s.dirty
}

// SetUser caches the profile of the signed in user, keyed to the token it was fetched with
func (s *Session) SetUser(u *models.User, token string) {
	s.User = u
	s.UserToken = token
	s.dirty = true
}

// UserFor returns the cached profile when it was fetched with token
func (s *Session) UserFor(token string) *models.User {
	if s.User == nil || s.UserToken != token {
		return nil
	}
	return s.User
}

// SetFlash replaces the pending flash
func (s *Session) SetFlash(f Flash) {
	s.Flash = &f
	s.dirty = true
}

// PopFlash returns the pending flash and clears it
func (s *Session) PopFlash() Flash {
	if s.Flash == nil {
		return Flash{}
	}
	f := *s.Flash
	s.Flash = nil
	s.dirty = true
	return f
}

func documentKey(kind, id string) string {
	return kind + ":" + id
}

// SetDocument keeps the latest answers of a record being edited
func (s *Session) SetDocument(kind, id string, doc form.Document) {
	if s.Documents == nil {
		s.Documents = make(map[string]form.Document)
	}
	s.Documents[documentKey(kind, id)] = doc
	s.dirty = true
}

// Document returns the answers kept for a record
func (s *Session) Document(kind, id string) (form.Document, bool) {
	doc, ok := s.Documents[documentKey(kind, id)]
	return doc, ok
}

// ClearDocument forgets the answers kept for a record
func (s *Session) ClearDocument(kind, id string) {
	key := documentKey(kind, id)
	if _, ok := s.Documents[key]; ok {
		delete(s.Documents, key)
		s.dirty = true
	}
}

// Store persists sessions
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Close() error
}

type ctxKey struct{}

// WithSession attaches s to ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the manager middleware
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
