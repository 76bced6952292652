package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/approved-premises/internal/apiclient"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(time.Second)
	r.Register(Func("ok", func(context.Context) error { return nil }))
	r.Register(Func("broken", func(context.Context) error { return errors.New("down") }))

	assert.Equal(t, []string{"broken", "ok"}, r.List())

	results := r.HealthCheckAll(context.Background())
	assert.NoError(t, results["ok"])
	assert.EqualError(t, results["broken"], "down")
	assert.False(t, Healthy(results))

	r.Unregister("broken")
	assert.True(t, Healthy(r.HealthCheckAll(context.Background())))
}

func TestRegistryTimesOutSlowChecks(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	r.Register(Func("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := r.HealthCheckAll(context.Background())
	assert.ErrorIs(t, results["slow"], context.DeadlineExceeded)
}

func TestAPIChecker(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := NewAPIChecker(apiclient.New(srv.URL))
	assert.Equal(t, "api", c.Name())
	require.NoError(t, c.HealthCheck(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestRedisChecker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	assert.NoError(t, NewRedisChecker(client).HealthCheck(context.Background()))
}

func TestPostgresChecker(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	c, err := NewPostgresChecker(dsn)
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.HealthCheck(context.Background()))
}
