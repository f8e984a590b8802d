package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

func mintAccess(t *testing.T, userID int64, email, role string, companyID int64, exp time.Time) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"user_id":    userID,
		"email":      email,
		"role":       role,
		"company_id": companyID,
		"exp":        exp.Unix(),
	})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return "h." + base64.RawURLEncoding.EncodeToString(payload) + ".s"
}

func newTestSession(t *testing.T, handler http.Handler) (*Session, token.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := token.NewMemoryStore()
	api := client.New(server.URL, store)
	s := New(api, store, NewClock(time.Minute))
	t.Cleanup(s.Logout)
	return s, store
}

func TestLoginPersistsTokensAndSchedulesRefresh(t *testing.T) {
	access := mintAccess(t, 7, "hr@acme.example", "company_user", 3, time.Now().Add(30*time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != "hr@acme.example" || creds["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":    map[string]any{"id": 7, "email": "hr@acme.example", "role": "company_user", "company": 3},
			"access":  access,
			"refresh": "refresh-1",
		})
	})

	s, store := newTestSession(t, mux)

	user, err := s.Login(context.Background(), "hr@acme.example", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "hr@acme.example" {
		t.Fatalf("unexpected user: %+v", user)
	}
	// Legacy role names are normalized on the way in.
	if user.Role != string(token.RoleCompanyStaff) {
		t.Fatalf("expected normalized role %q, got %q", token.RoleCompanyStaff, user.Role)
	}

	gotAccess, _ := store.AccessToken(context.Background())
	gotRefresh, _ := store.RefreshToken(context.Background())
	if gotAccess != access || gotRefresh != "refresh-1" {
		t.Fatalf("tokens not persisted: %q %q", gotAccess, gotRefresh)
	}

	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %q", s.State())
	}
	if !s.clock.Pending() {
		t.Fatal("expected a scheduled refresh after login")
	}
	if s.Loading() || s.Err() != nil {
		t.Fatalf("expected settled session, loading=%v err=%v", s.Loading(), s.Err())
	}
	if !s.HasRole(token.RoleCompanyStaff) || s.HasRole(token.RoleTalentVerifyStaff) {
		t.Fatal("role check mismatch")
	}
}

func TestLoginFailureLeavesSessionSignedOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found with the given credentials"})
	})

	s, store := newTestSession(t, mux)

	_, err := s.Login(context.Background(), "hr@acme.example", "wrong")
	if !errors.Is(err, client.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("expected signed-out session")
	}
	if !errors.Is(s.Err(), client.ErrInvalidCredentials) {
		t.Fatalf("expected recorded error, got %v", s.Err())
	}

	access, _ := store.AccessToken(context.Background())
	if access != "" {
		t.Fatalf("no tokens should be stored after a failed login, got %q", access)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	access := mintAccess(t, 7, "hr@acme.example", "company_staff", 3, time.Now().Add(30*time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":    map[string]any{"id": 7, "email": "hr@acme.example", "role": "company_staff", "company": 3},
			"access":  access,
			"refresh": "refresh-1",
		})
	})

	s, store := newTestSession(t, mux)
	if _, err := s.Login(context.Background(), "hr@acme.example", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	s.Logout()

	if s.CurrentUser() != nil || s.State() != StateUnauthenticated {
		t.Fatalf("expected signed-out session, state %q", s.State())
	}
	if s.clock.Pending() {
		t.Fatal("expected no pending refresh after logout")
	}
	gotAccess, _ := store.AccessToken(context.Background())
	gotRefresh, _ := store.RefreshToken(context.Background())
	if gotAccess != "" || gotRefresh != "" {
		t.Fatalf("expected cleared store, got %q %q", gotAccess, gotRefresh)
	}
	if s.Err() != nil {
		t.Fatalf("logout must clear the recorded error, got %v", s.Err())
	}
}

func TestInitializeRestoresProvisionalUser(t *testing.T) {
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/", func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "email": "hr+verified@acme.example", "role": "company_staff", "company": 3,
		})
	})

	s, store := newTestSession(t, mux)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})
	access := mintAccess(t, 7, "hr@acme.example", "talent_verify", 0, time.Now().Add(30*time.Minute))
	_ = store.SetTokens(context.Background(), access, "refresh-1")

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// The provisional user is available before the profile fetch resolves.
	user := s.CurrentUser()
	if user == nil || user.Email != "hr@acme.example" {
		t.Fatalf("expected provisional user from token claims, got %+v", user)
	}
	if user.Role != string(token.RoleTalentVerifyStaff) {
		t.Fatalf("expected normalized role %q, got %q", token.RoleTalentVerifyStaff, user.Role)
	}
	if s.State() != StateAuthenticated || !s.clock.Pending() {
		t.Fatalf("expected authenticated session with scheduled refresh, state %q", s.State())
	}

	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if u := s.CurrentUser(); u != nil && u.Email == "hr+verified@acme.example" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("authoritative profile never merged in")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInitializeExpiredTokenClearsStore(t *testing.T) {
	s, store := newTestSession(t, http.NewServeMux())

	expired := mintAccess(t, 7, "hr@acme.example", "company_staff", 3, time.Now().Add(-time.Minute))
	_ = store.SetTokens(context.Background(), expired, "refresh-1")

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if s.CurrentUser() != nil || s.State() != StateUnauthenticated {
		t.Fatalf("expected signed-out session, state %q", s.State())
	}
	if s.clock.Pending() {
		t.Fatal("expected no scheduled refresh")
	}
	gotRefresh, _ := store.RefreshToken(context.Background())
	if gotRefresh != "" {
		t.Fatalf("expected cleared store, got refresh %q", gotRefresh)
	}
}

func TestRefreshRacingLogoutDoesNotResurrectSession(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "late-token"})
	})
	mux.HandleFunc("/users/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	s, store := newTestSession(t, mux)
	access := mintAccess(t, 7, "hr@acme.example", "company_staff", 3, time.Now().Add(30*time.Minute))
	_ = store.SetTokens(context.Background(), access, "refresh-1")
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()

	<-started
	s.Logout()
	close(release)

	if err := <-done; !errors.Is(err, client.ErrSessionEnded) {
		t.Fatalf("expected session-ended error, got %v", err)
	}

	if s.CurrentUser() != nil {
		t.Fatal("late refresh must not resurrect the user")
	}
	if s.State() != StateUnauthenticated {
		t.Fatalf("a lost race with logout is not a refresh failure, state %q", s.State())
	}
	gotAccess, _ := store.AccessToken(context.Background())
	gotRefresh, _ := store.RefreshToken(context.Background())
	if gotAccess != "" || gotRefresh != "" {
		t.Fatalf("expected cleared store, got %q %q", gotAccess, gotRefresh)
	}
	if s.clock.Pending() {
		t.Fatal("expected no scheduled refresh")
	}
}

func TestRefreshFailureTearsSessionDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Token is invalid or expired"})
	})
	mux.HandleFunc("/users/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	s, store := newTestSession(t, mux)
	access := mintAccess(t, 7, "hr@acme.example", "company_staff", 3, time.Now().Add(30*time.Minute))
	_ = store.SetTokens(context.Background(), access, "refresh-1")
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := s.Refresh(context.Background()); !errors.Is(err, client.ErrRefreshFailed) {
		t.Fatalf("expected refresh failure, got %v", err)
	}

	if s.State() != StateRefreshFailed {
		t.Fatalf("expected refresh-failed state, got %q", s.State())
	}
	if s.CurrentUser() != nil {
		t.Fatal("expected no user after refresh failure")
	}
	if !errors.Is(s.Err(), client.ErrRefreshFailed) {
		t.Fatalf("expected recorded refresh error, got %v", s.Err())
	}
	gotAccess, _ := store.AccessToken(context.Background())
	if gotAccess != "" {
		t.Fatalf("expected cleared store, got %q", gotAccess)
	}
	if s.clock.Pending() {
		t.Fatal("expected no scheduled refresh")
	}
}
