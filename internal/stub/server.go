// Package stub is an in-memory Talent Verify backend speaking the same
// wire contract as the real API. It backs local development and the
// integration tests; nothing in it persists.
package stub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

// Config controls token minting.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultConfig returns stub defaults. The short access TTL keeps the
// refresh paths exercised during development.
func DefaultConfig() Config {
	return Config{
		Secret:     "stub-secret",
		Issuer:     "talentverify-stub",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// Server is the stub API.
type Server struct {
	cfg    Config
	data   *dataset
	logger *slog.Logger
}

// NewServer creates a seeded stub.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if cfg.Secret == "" {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	data := newDataset()
	data.seed()
	return &Server{cfg: cfg, data: data, logger: logger}
}

// Router builds the HTTP API under the same paths the real backend
// serves.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/users/token/", s.handleLogin)
	r.Post("/users/token/refresh/", s.handleRefresh)
	r.Post("/users/register/", s.handleRegister)
	r.With(s.authMiddleware).Get("/users/me/", s.handleMe)
	r.With(s.authMiddleware, s.requireVerifyStaff).Post("/users/create_company_user/", s.handleCreateCompanyUser)

	r.Route("/companies", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListCompanies)
		r.With(s.requireVerifyStaff).Post("/", s.handleCreateCompany)
		r.With(s.requireVerifyStaff).Post("/create_user_and_company/", s.handleCreateCompanyWithUser)
		r.With(s.requireVerifyStaff).Post("/bulk_upload/", s.handleBulkUpload)
		r.With(s.requireVerifyStaff).Post("/bulk_edit/", s.handleBulkEdit)
		r.Get("/departments/", s.handleListDepartments)
		r.With(s.requireVerifyStaff).Post("/departments/", s.handleCreateDepartment)
		r.Get("/{companyID}/", s.handleGetCompany)
		r.With(s.requireVerifyStaff).Put("/{companyID}/", s.handleUpdateCompany)
		r.With(s.requireVerifyStaff).Put("/{companyID}/update_with_departments/", s.handleUpdateWithDepartments)
		r.With(s.requireVerifyStaff).Patch("/{companyID}/", s.handlePatchCompany)
		r.With(s.requireVerifyStaff).Delete("/{companyID}/", s.handleDeleteCompany)
	})

	r.Route("/employees", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListEmployees)
		r.With(s.requireCompanyWriter).Post("/", s.handleCreateEmployee)
		r.With(s.requireCompanyWriter).Post("/bulk_upload/", s.handleEmployeeBulkUpload)
		r.Get("/roles/", s.handleListRoles)
		r.Get("/{employeeID}/", s.handleGetEmployee)
		r.With(s.requireCompanyWriter).Put("/{employeeID}/", s.handleUpdateEmployee)
		r.With(s.requireCompanyWriter).Patch("/{employeeID}/", s.handlePatchEmployee)
		r.With(s.requireCompanyWriter).Delete("/{employeeID}/", s.handleDeleteEmployee)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/admin-stats/", s.handleAdminStats)
		r.Get("/company-stats/", s.handleCompanyStats)
	})

	return r
}

// --- auth endpoints ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	s.data.mu.Lock()
	user := s.data.userByEmail(req.Email)
	s.data.mu.Unlock()

	if user == nil || user.Password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	s.writeAuthResponse(w, user)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		writeDetail(w, http.StatusBadRequest, "refresh token required")
		return
	}

	claims, err := s.parseToken(req.Refresh)
	if err != nil || claims.TokenType != "refresh" {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	s.data.mu.Lock()
	user := s.data.users[claims.UserID]
	s.data.mu.Unlock()
	if user == nil {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	access, err := s.mintToken(user, "access", s.cfg.AccessTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token minting failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = string(token.RoleGeneralUser)
	}

	s.data.mu.Lock()
	if s.data.userByEmail(req.Email) != nil {
		s.data.mu.Unlock()
		writeError(w, http.StatusBadRequest, "user with this email already exists")
		return
	}
	user := &userRecord{
		ID:       s.data.id(),
		Email:    req.Email,
		Password: req.Password,
		Role:     string(token.NormalizeRole(req.Role)),
	}
	s.data.users[user.ID] = user
	s.data.mu.Unlock()

	s.writeAuthResponse(w, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	writeJSON(w, http.StatusOK, userSummary(user))
}

func (s *Server) handleCreateCompanyUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Company  int64  `json:"company"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.companies[req.Company]; !ok {
		writeError(w, http.StatusBadRequest, "company not found")
		return
	}
	if s.data.userByEmail(req.Email) != nil {
		writeError(w, http.StatusBadRequest, "user with this email already exists")
		return
	}
	user := &userRecord{
		ID:        s.data.id(),
		Email:     strings.ToLower(req.Email),
		Password:  req.Password,
		Role:      string(token.NormalizeRole(req.Role)),
		CompanyID: req.Company,
	}
	s.data.users[user.ID] = user
	writeJSON(w, http.StatusCreated, userSummary(user))
}

func (s *Server) writeAuthResponse(w http.ResponseWriter, user *userRecord) {
	access, err := s.mintToken(user, "access", s.cfg.AccessTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token minting failed")
		return
	}
	refresh, err := s.mintToken(user, "refresh", s.cfg.RefreshTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token minting failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    userSummary(user),
		"access":  access,
		"refresh": refresh,
	})
}

func userSummary(user *userRecord) client.User {
	return client.User{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
}

// --- middleware ---

type userKey struct{}

func requestUser(r *http.Request) *userRecord {
	user, _ := r.Context().Value(userKey{}).(*userRecord)
	return user
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r.Header.Get("Authorization"))
		if tok == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := s.parseToken(tok)
		if err != nil || claims.TokenType != "access" {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		s.data.mu.Lock()
		user := s.data.users[claims.UserID]
		s.data.mu.Unlock()
		if user == nil {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireVerifyStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := requestUser(r)
		if token.NormalizeRole(user.Role) != token.RoleTalentVerifyStaff {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCompanyWriter admits verification staff and company admins.
// Company-scoped checks happen in the handlers.
func (s *Server) requireCompanyWriter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := token.NormalizeRole(requestUser(r).Role)
		if !role.CanManageCompanyData() {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func jwtSubject(id int64) string {
	return strconv.FormatInt(id, 10)
}

// --- JSON helpers ---

func decodeJSON(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeDetail mirrors the backend's auth errors: {"detail": ...}.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError mirrors the backend's action errors: {"error": ...}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
