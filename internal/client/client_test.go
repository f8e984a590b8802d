package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tawa-dev/TalentVerify/internal/token"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, token.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := token.NewMemoryStore()
	return New(server.URL, store), store
}

func TestConcurrentRefreshCoalesced(t *testing.T) {
	const n = 5
	var refreshCalls, rejected, retriedWithB int64
	allRejected := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		// Hold the exchange open until every request has seen its 401, so
		// all of them are forced onto the same in-flight refresh.
		<-allRejected
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "token-B"})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-B" {
			if atomic.AddInt64(&rejected, 1) == n {
				close(allRejected)
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddInt64(&retriedWithB, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})

	c, store := newTestClient(t, mux)
	if err := store.SetTokens(context.Background(), "token-A", "refresh-A"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out map[string]bool
			errs[i] = c.Get(context.Background(), "/data", &out)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if got := atomic.LoadInt64(&refreshCalls); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
	if got := atomic.LoadInt64(&retriedWithB); got != n {
		t.Fatalf("expected %d retries with the new token, got %d", n, got)
	}

	access, _ := store.AccessToken(context.Background())
	if access != "token-B" {
		t.Fatalf("expected refreshed token persisted, got %q", access)
	}
}

func TestRequestRetriedExactlyOnce(t *testing.T) {
	var dataCalls, refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "token-B"})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&dataCalls, 1)
		// Always reject: the client must give up after one retry.
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store := newTestClient(t, mux)
	_ = store.SetTokens(context.Background(), "token-A", "refresh-A")

	err := c.Get(context.Background(), "/data", nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if got := atomic.LoadInt64(&dataCalls); got != 2 {
		t.Fatalf("expected 2 data calls (original + one retry), got %d", got)
	}
	if got := atomic.LoadInt64(&refreshCalls); got != 1 {
		t.Fatalf("expected 1 refresh call, got %d", got)
	}
}

func TestAuthEndpointNeverRefreshed(t *testing.T) {
	var refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/users/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found with the given credentials"})
	})

	c, store := newTestClient(t, mux)
	_ = store.SetTokens(context.Background(), "stale", "refresh-A")

	_, err := c.Login(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if !strings.Contains(err.Error(), "No active account") {
		t.Fatalf("expected server detail in error, got %v", err)
	}
	if got := atomic.LoadInt64(&refreshCalls); got != 0 {
		t.Fatalf("a rejected login must not trigger a refresh, got %d calls", got)
	}
}

func TestRefreshFailurePropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Token is invalid or expired"})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store := newTestClient(t, mux)
	_ = store.SetTokens(context.Background(), "stale", "bad-refresh")

	err := c.Get(context.Background(), "/data", nil)
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected refresh failure, got %v", err)
	}

	var hookErr error
	c.SetRefreshHooks(nil, func(err error) { hookErr = err })
	_, err = c.RefreshAccess(context.Background())
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected refresh failure, got %v", err)
	}
	if !errors.Is(hookErr, ErrRefreshFailed) {
		t.Fatalf("expected failure hook invoked, got %v", hookErr)
	}
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store := newTestClient(t, mux)
	_ = store.SetAccessToken(context.Background(), "stale")

	err := c.Get(context.Background(), "/data", nil)
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected no-refresh-token error, got %v", err)
	}
}

func TestLogoutDuringRefreshDiscardsResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "late-token"})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store := newTestClient(t, mux)
	ctx := context.Background()
	_ = store.SetTokens(ctx, "stale", "refresh-A")

	done := make(chan error, 1)
	go func() {
		done <- c.Get(ctx, "/data", nil)
	}()

	// Wait for the refresh exchange to be in flight, then log out.
	<-started
	_ = store.Clear(ctx)
	close(release)

	err := <-done
	if !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected session-ended error, got %v", err)
	}

	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	if access != "" || refresh != "" {
		t.Fatalf("late refresh must not repopulate the store, got %q %q", access, refresh)
	}
}

func TestErrorDetailExtraction(t *testing.T) {
	cases := []struct {
		body   string
		status int
		want   string
	}{
		{`{"detail": "Not found."}`, 404, "Not found."},
		{`{"error": "No file provided"}`, 400, "No file provided"},
		{`{"name": ["This field is required."], "address": ["This field is required."]}`, 400, "address: This field is required.; name: This field is required."},
		{`not json`, 500, "Internal Server Error"},
	}
	for _, tc := range cases {
		apiErr := newAPIError(tc.status, []byte(tc.body))
		if apiErr.Detail != tc.want {
			t.Fatalf("detail for %q: got %q, want %q", tc.body, apiErr.Detail, tc.want)
		}
	}
}

func TestRequestTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c := New(server.URL, token.NewMemoryStore(),
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))

	err := c.Get(context.Background(), "/slow", nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
