package idempotency

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	rec, claimed, err := s.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Nil(t, rec)

	_, _, err = s.Begin(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrInFlight)

	require.NoError(t, s.Complete(ctx, "k", Record{Status: 201, Body: []byte("ok")}, time.Minute))
	rec, claimed, err = s.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, 201, rec.Status)

	now = now.Add(2 * time.Minute)
	_, claimed, err = s.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed, "expired key can be claimed again")

	require.NoError(t, s.Release(ctx, "k"))
	_, claimed, err = s.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestMiddleware(t *testing.T) {
	var calls atomic.Int32
	status := http.StatusCreated
	handler := Middleware(NewMemoryStore(), time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))

	do := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
		if key != "" {
			req.Header.Set(Header, key)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	t.Run("no key always executes", func(t *testing.T) {
		calls.Store(0)
		do("", `{}`)
		do("", `{}`)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("same key replays", func(t *testing.T) {
		calls.Store(0)
		first := do("abc", `{"a":1}`)
		second := do("abc", `{"a":1}`)

		assert.EqualValues(t, 1, calls.Load())
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
		assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	})

	t.Run("same key with different body is rejected", func(t *testing.T) {
		calls.Store(0)
		do("xyz", `{"a":1}`)
		rr := do("xyz", `{"a":2}`)
		assert.EqualValues(t, 1, calls.Load())
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("server errors are not stored", func(t *testing.T) {
		calls.Store(0)
		status = http.StatusInternalServerError
		do("boom", `{}`)
		status = http.StatusCreated
		rr := do("boom", `{}`)
		assert.EqualValues(t, 2, calls.Load())
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("SPLITLEDGER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SPLITLEDGER_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	s := NewRedisStore(client)
	key := "test-" + time.Now().Format(time.RFC3339Nano)
	defer s.Release(ctx, key)

	_, claimed, err := s.Begin(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	_, _, err = s.Begin(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrInFlight)

	require.NoError(t, s.Complete(ctx, key, Record{Status: 200, Body: []byte(`{}`), Fingerprint: "f"}, time.Minute))
	rec, claimed, err := s.Begin(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "f", rec.Fingerprint)
}

func TestMiddleware_PanicReleasesKey(t *testing.T) {
	var calls atomic.Int32
	handler := Middleware(NewMemoryStore(), time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			panic("handler blew up")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/settlements", strings.NewReader(`{}`))
		req.Header.Set(Header, "retry-me")
		return req
	}

	assert.PanicsWithValue(t, "handler blew up", func() {
		handler.ServeHTTP(httptest.NewRecorder(), newReq())
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.EqualValues(t, 2, calls.Load())
}

func TestMemoryStore_SweepsPeriodically(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	_, _, err := s.Begin(ctx, "stale", time.Minute)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	for i := 2; i < sweepEvery; i++ {
		_, _, err := s.Begin(ctx, fmt.Sprintf("k%d", i), time.Hour)
		require.NoError(t, err)
	}
	assert.Contains(t, s.entries, "stale", "no scan before the sweep interval")

	_, _, err = s.Begin(ctx, "last", time.Hour)
	require.NoError(t, err)
	assert.NotContains(t, s.entries, "stale")
	assert.Len(t, s.entries, sweepEvery-1)
}
