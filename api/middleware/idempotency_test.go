package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/00goop/lets-link/api/responses"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "ll:idempotency:" + scope + ":" + id
}

func countingHandler(calls *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"result": "ok"})
	}
}

func postVoteRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls/abc/votes", strings.NewReader(body))
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	req.Header.Set("Idempotency-Key", "key-1")
	return req
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	handler := Idempotency(store, testLogg())(countingHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postVoteRequest(`{"option":"Park"}`))
	if first.Code != http.StatusCreated {
		t.Fatalf("first call returned %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postVoteRequest(`{"option":"Park"}`))
	if second.Code != http.StatusCreated {
		t.Fatalf("replay returned %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsReusedKeyWithNewBody(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	handler := Idempotency(store, testLogg())(countingHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postVoteRequest(`{"option":"Park"}`))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postVoteRequest(`{"option":"Zoo"}`))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
}

func TestIdempotencyRequiresKeyOnGuardedRoutes(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	handler := Idempotency(store, testLogg())(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls/abc/votes", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatal("handler should not run without a key")
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	handler := Idempotency(store, testLogg())(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parties", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if calls != 1 {
		t.Fatal("unguarded route should pass through")
	}
}
