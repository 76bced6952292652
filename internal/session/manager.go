package session

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Manager loads the session named by the request cookie, creating one when
// there is none, and saves it after the handler when it changed
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewManager creates a session manager
func NewManager(store Store, cookieName string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Middleware attaches the session to the request context
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := m.load(r)

		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(m.ttl.Seconds()),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))

		if !sess.Dirty() {
			return
		}
		if err := m.store.Save(ctx, sess, m.ttl); err != nil {
			slog.Error("failed to save session", "error", err)
		}
	})
}

func (m *Manager) load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return New()
	}

	sess, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("failed to load session", "error", err)
		}
		return New()
	}
	return sess
}

// Destroy removes the session of the request and expires its cookie
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	if sess := FromContext(r.Context()); sess != nil {
		if err := m.store.Delete(r.Context(), sess.ID); err != nil {
			return err
		}
		sess.dirty = false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
	})
	return nil
}
