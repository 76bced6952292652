package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
)

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFlashIsReadOnce(t *testing.T) {
	s := New()
	s.SetFlash(Flash{
		Errors:    form.FieldErrors{{Field: "releaseType", Message: "You must choose a release type"}},
		UserInput: form.Answers{"releaseType": ""},
	})

	f := s.PopFlash()
	assert.Equal(t, "You must choose a release type", f.Errors.Get("releaseType"))
	assert.Empty(t, s.PopFlash().Errors)
}

func TestDocuments(t *testing.T) {
	s := New()
	doc := form.Document{}
	doc.Set("basic-information", "release-type", form.Answers{"releaseType": "licence"})

	s.SetDocument("applications", "a1", doc)
	got, ok := s.Document("applications", "a1")
	require.True(t, ok)
	assert.Equal(t, doc, got)

	_, ok = s.Document("assessments", "a1")
	assert.False(t, ok)

	s.ClearDocument("applications", "a1")
	_, ok = s.Document("applications", "a1")
	assert.False(t, ok)
}

func TestUserFor(t *testing.T) {
	s := New()
	s.SetUser(&models.User{ID: "u1"}, "token-a")

	assert.NotNil(t, s.UserFor("token-a"))
	assert.Nil(t, s.UserFor("token-b"))
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := New()
	s.SetUser(&models.User{ID: "u1", Name: "Jane Smith"}, "token")
	s.SetFlash(Flash{Success: "Application withdrawn"})
	require.NoError(t, store.Save(ctx, s, time.Hour))
	assert.False(t, s.Dirty())

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.User.Name)
	assert.Equal(t, "Application withdrawn", got.PopFlash().Success)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.CollectGarbage(ctx))
}

func TestManagerMiddleware(t *testing.T) {
	store := newBadgerStore(t)
	m := NewManager(store, "ap.session", time.Hour, false)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		require.NotNil(t, sess)
		switch r.Method {
		case http.MethodPost:
			sess.SetFlash(Flash{Success: "Saved"})
			http.Redirect(w, r, "/", http.StatusSeeOther)
		default:
			_, _ = w.Write([]byte(sess.PopFlash().Success))
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "ap.session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	get := func() string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	assert.Equal(t, "Saved", get())
	assert.Equal(t, "", get())
}

func TestManagerReplacesUnknownSession(t *testing.T) {
	store := newBadgerStore(t)
	m := NewManager(store, "ap.session", time.Hour, false)

	var id string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = FromContext(r.Context()).ID
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "ap.session", Value: "expired"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEqual(t, "expired", id)
	_, err := store.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, RedisConfig{Address: addr})
	require.NoError(t, err)
	store := NewRedisStore(client)
	defer store.Close()

	s := New()
	s.SetFlash(Flash{Success: "Booked"})
	require.NoError(t, store.Save(ctx, s, time.Minute))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Booked", got.Flash.Success)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
