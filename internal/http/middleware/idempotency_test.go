package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = []byte(pendingMarker)
	return true, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Save(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *memStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func newIdemServer(store Store, status int, calls *int) *echo.Echo {
	e := echo.New()
	e.POST("/make-call", func(c echo.Context) error {
		*calls++
		return c.JSON(status, map[string]any{"n": *calls})
	}, IdempotencyMiddleware(IdempotencyConfig{Store: store}))
	return e
}

func do(e *echo.Echo, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/make-call", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplay(t *testing.T) {
	calls := 0
	e := newIdemServer(newMemStore(), http.StatusOK, &calls)

	first := do(e, "abc")
	second := do(e, "abc")

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusOK || second.Body.String() != first.Body.String() {
		t.Errorf("expected replay of %q, got %d %q", first.Body.String(), second.Code, second.Body.String())
	}
	if second.Header().Get(HeaderReplayed) != "true" {
		t.Error("expected replay header")
	}

	do(e, "other")
	if calls != 2 {
		t.Errorf("a new key must reach the handler, calls=%d", calls)
	}
}

func TestIdempotencyWithoutKey(t *testing.T) {
	calls := 0
	e := newIdemServer(newMemStore(), http.StatusOK, &calls)
	do(e, "")
	do(e, "")
	if calls != 2 {
		t.Errorf("expected pass-through without key, calls=%d", calls)
	}

	calls = 0
	e = newIdemServer(nil, http.StatusOK, &calls)
	do(e, "abc")
	do(e, "abc")
	if calls != 2 {
		t.Errorf("expected pass-through without store, calls=%d", calls)
	}
}

func TestIdempotencyInFlight(t *testing.T) {
	store := newMemStore()
	store.data["/make-call:abc"] = []byte(pendingMarker)

	calls := 0
	rec := do(newIdemServer(store, http.StatusOK, &calls), "abc")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if calls != 0 {
		t.Error("handler must not run for an in-flight key")
	}
}

func TestIdempotencyServerErrorNotKept(t *testing.T) {
	calls := 0
	e := newIdemServer(newMemStore(), http.StatusBadGateway, &calls)
	do(e, "abc")
	do(e, "abc")
	if calls != 2 {
		t.Errorf("5xx must not be replayed, calls=%d", calls)
	}
}

func TestIdempotencyReleasesKeyOnPanic(t *testing.T) {
	store := newMemStore()
	calls := 0

	e := echo.New()
	e.Use(echoMid.Recover())
	e.POST("/make-call", func(c echo.Context) error {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return c.JSON(http.StatusOK, map[string]any{"n": calls})
	}, IdempotencyMiddleware(IdempotencyConfig{Store: store}))

	if rec := do(e, "abc"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from recovered panic, got %d", rec.Code)
	}
	if _, ok := store.data["/make-call:abc"]; ok {
		t.Fatal("key must be released after a panic")
	}

	rec := do(e, "abc")
	if rec.Code != http.StatusOK || calls != 2 {
		t.Errorf("retry after panic must reach the handler, got %d calls=%d", rec.Code, calls)
	}
}
