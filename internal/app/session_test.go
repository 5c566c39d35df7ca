package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixbrock/dockflow/internal/config"
	"github.com/felixbrock/dockflow/internal/domain"
)

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(nil, time.Minute)

	sess := store.Create(now)
	require.Equal(t, 1, store.Len())

	got, err := store.Get(sess.Id, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.Same(t, sess, got)

	// the previous Get refreshed lastSeen
	_, err = store.Get(sess.Id, now.Add(80*time.Second))
	assert.NoError(t, err)

	_, err = store.Get(sess.Id, now.Add(5*time.Minute))
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.Equal(t, 0, store.Len())

	_, err = store.Get("unknown", now)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSessionStoreSweepCancelsPending(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(nil, time.Minute)

	idle := store.Create(now)
	ctx, cancel := context.WithCancel(context.Background())
	idle.cancel = cancel
	fresh := store.Create(now.Add(2 * time.Minute))

	n := store.Sweep(now.Add(2 * time.Minute))

	assert.Equal(t, 1, n)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	_, err := store.Get(fresh.Id, now.Add(2*time.Minute))
	assert.NoError(t, err)
}

func TestSessionStoreWithoutTTLKeepsSessions(t *testing.T) {
	now := time.Now()
	store := NewSessionStore(nil, 0)
	sess := store.Create(now)

	assert.Equal(t, 0, store.Sweep(now.Add(24*time.Hour)))
	_, err := store.Get(sess.Id, now.Add(24*time.Hour))
	assert.NoError(t, err)
}

func TestSessionStartsAtInput(t *testing.T) {
	sess := NewSessionStore(nil, time.Minute).Create(time.Now())

	assert.Equal(t, domain.StageInput, sess.Stage())
	assert.NoError(t, sess.Await(context.Background()))
}

func fromHost(addr string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/sequence", nil)
	r.RemoteAddr = addr
	return r
}

func TestSubmitLimiter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewSubmitLimiter(config.SessionConfig{SubmitRPS: 1, SubmitBurst: 2, TTL: time.Minute})

	assert.True(t, l.Allow(fromHost("10.0.0.1:1000"), now))
	// a new port is the same client
	assert.True(t, l.Allow(fromHost("10.0.0.1:2000"), now))
	assert.False(t, l.Allow(fromHost("10.0.0.1:3000"), now))
	assert.True(t, l.Allow(fromHost("10.0.0.2:1000"), now))
	assert.True(t, l.Allow(fromHost("10.0.0.1:1000"), now.Add(time.Second)))
}

func TestSubmitLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewSubmitLimiter(config.SessionConfig{SubmitRPS: 1, SubmitBurst: 1, TTL: time.Minute})

	l.Allow(fromHost("10.0.0.1:1000"), now)
	l.Allow(fromHost("10.0.0.2:1000"), now.Add(50*time.Second))
	require.Equal(t, 2, l.Len())

	assert.Equal(t, 1, l.Sweep(now.Add(90*time.Second)))
	assert.Equal(t, 1, l.Len())
	// a forgotten client starts with a full bucket
	assert.True(t, l.Allow(fromHost("10.0.0.1:1000"), now.Add(90*time.Second)))
}

func TestSubmitLimiterDisabled(t *testing.T) {
	for _, cfg := range []config.SessionConfig{
		{SubmitRPS: 0, SubmitBurst: 5},
		{SubmitRPS: 1, SubmitBurst: 0},
	} {
		l := NewSubmitLimiter(cfg)

		assert.Nil(t, l)
		assert.Equal(t, 0, l.Sweep(time.Now()))
		for i := 0; i < 100; i++ {
			assert.True(t, l.Allow(fromHost("10.0.0.1:1000"), time.Now()))
		}
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/sequence", nil)
	r.RemoteAddr = "192.0.2.7:54321"
	assert.Equal(t, "ip:192.0.2.7", clientKey(r))

	r.RemoteAddr = "192.0.2.7"
	assert.Equal(t, "ip:192.0.2.7", clientKey(r))

	r.RemoteAddr = ""
	assert.Equal(t, "ip:unknown", clientKey(r))
}
