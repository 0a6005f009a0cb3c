package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/auth"
	"github.com/kitasuro/kitasuro/internal/domain"
)

// =============================================================================
// Mock UserService Implementation
// =============================================================================

// mockUserService implements the service.UserService interface for testing.
type mockUserService struct {
	RegisterFunc          func(ctx context.Context, params domain.RegisterParams) (*domain.User, *domain.Organization, error)
	LoginFunc             func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	LogoutFunc            func(ctx context.Context, token string) error
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetBySessionTokenFunc func(ctx context.Context, token string) (*domain.User, error)
}

func (m *mockUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, *domain.Organization, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return nil, nil, errors.New("RegisterFunc not implemented")
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, errors.New("LoginFunc not implemented")
}

func (m *mockUserService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented")
}

func (m *mockUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetBySessionTokenFunc != nil {
		return m.GetBySessionTokenFunc(ctx, token)
	}
	return nil, errors.New("GetBySessionTokenFunc not implemented")
}

func (m *mockUserService) DeleteExpiredSessions(ctx context.Context) error {
	return nil
}

// mockLoginLimiter records rate limiter calls for assertions.
type mockLoginLimiter struct {
	failedIPs []string
	resetIPs  []string
}

func (m *mockLoginLimiter) RecordFailedLogin(ip string) {
	m.failedIPs = append(m.failedIPs, ip)
}

func (m *mockLoginLimiter) ResetLogin(ip string) {
	m.resetIPs = append(m.resetIPs, ip)
}

func newTestAuthHandler(mock *mockUserService, limiter LoginRateLimiter) *AuthHandler {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return NewAuthHandler(mock, limiter, logger, false)
}

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     "agent@example.com",
		Name:      "Test Agent",
		CreatedAt: time.Now().UTC(),
	}
}

// =============================================================================
// Login Tests
// =============================================================================

func TestLogin_Success_SetsSessionCookie(t *testing.T) {
	user := testUser()
	limiter := &mockLoginLimiter{}

	mock := &mockUserService{
		LoginFunc: func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
			if email != "agent@example.com" {
				t.Errorf("Login called with email = %q", email)
			}
			return &domain.LoginResult{User: user, Token: "session-token-abc"}, nil
		},
	}

	h := newTestAuthHandler(mock, limiter)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"agent@example.com","password":"correct-horse"}`))
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("session cookie not set")
	}
	if sessionCookie.Value != "session-token-abc" {
		t.Errorf("cookie value = %q, want session token", sessionCookie.Value)
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	if !strings.Contains(rec.Body.String(), user.Email) {
		t.Errorf("body should contain user email, got: %s", rec.Body.String())
	}

	// Successful login clears the failure window for the IP.
	if len(limiter.resetIPs) != 1 || limiter.resetIPs[0] != "192.168.1.1" {
		t.Errorf("ResetLogin calls = %v, want [192.168.1.1]", limiter.resetIPs)
	}
	if len(limiter.failedIPs) != 0 {
		t.Errorf("RecordFailedLogin calls = %v, want none", limiter.failedIPs)
	}
}

func TestLogin_InvalidCredentials_RecordsFailure(t *testing.T) {
	limiter := &mockLoginLimiter{}

	mock := &mockUserService{
		LoginFunc: func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
			return nil, domain.Unauthorized("UserService.Login", "Invalid email or password")
		},
	}

	h := newTestAuthHandler(mock, limiter)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"agent@example.com","password":"wrong"}`))
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	if len(limiter.failedIPs) != 1 || limiter.failedIPs[0] != "192.168.1.1" {
		t.Errorf("RecordFailedLogin calls = %v, want [192.168.1.1]", limiter.failedIPs)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			t.Error("session cookie should not be set on failed login")
		}
	}
}

func TestLogin_MalformedJSON_Returns400(t *testing.T) {
	h := newTestAuthHandler(&mockUserService{}, nil)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// =============================================================================
// Register Tests
// =============================================================================

func TestRegister_Success_CreatesOrgAndSession(t *testing.T) {
	user := testUser()
	org := &domain.Organization{
		ID:   uuid.New(),
		Name: "Sunset Travel",
	}

	mock := &mockUserService{
		RegisterFunc: func(ctx context.Context, params domain.RegisterParams) (*domain.User, *domain.Organization, error) {
			if params.OrgName != "Sunset Travel" {
				t.Errorf("Register called with org name = %q", params.OrgName)
			}
			return user, org, nil
		},
		LoginFunc: func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
			return &domain.LoginResult{User: user, Token: "fresh-session"}, nil
		},
	}

	h := newTestAuthHandler(mock, nil)

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email":"agent@example.com","password":"correct-horse","name":"Test Agent","org_name":"Sunset Travel"}`))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status code = %d, want %d, body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	body := rec.Body.String()
	if !strings.Contains(body, org.ID.String()) {
		t.Errorf("body should contain organization id, got: %s", body)
	}
	if !strings.Contains(body, "Sunset Travel") {
		t.Errorf("body should contain organization name, got: %s", body)
	}

	cookieSet := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value == "fresh-session" {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Error("registration should start a session")
	}
}

func TestRegister_ValidationError_ReturnsFieldErrors(t *testing.T) {
	mock := &mockUserService{
		RegisterFunc: func(ctx context.Context, params domain.RegisterParams) (*domain.User, *domain.Organization, error) {
			ve := domain.NewValidationError("UserService.Register", "email", "Email is required")
			ve = domain.AddFieldError(ve, "password", "Password must be at least 8 characters")
			return nil, nil, ve
		},
	}

	h := newTestAuthHandler(mock, nil)

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email":"","password":"short","name":"Test","org_name":"Org"}`))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Email is required") {
		t.Errorf("body should contain email field error, got: %s", body)
	}
	if !strings.Contains(body, "Password must be at least 8 characters") {
		t.Errorf("body should contain password field error, got: %s", body)
	}
}

func TestRegister_DuplicateEmail_Returns409(t *testing.T) {
	mock := &mockUserService{
		RegisterFunc: func(ctx context.Context, params domain.RegisterParams) (*domain.User, *domain.Organization, error) {
			return nil, nil, domain.Conflict("UserService.Register", "An account with this email already exists")
		},
	}

	h := newTestAuthHandler(mock, nil)

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email":"taken@example.com","password":"correct-horse","name":"Test","org_name":"Org"}`))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusConflict)
	}
}

// =============================================================================
// Logout Tests
// =============================================================================

func TestLogout_InvalidatesSessionAndClearsCookie(t *testing.T) {
	var loggedOutToken string
	mock := &mockUserService{
		LogoutFunc: func(ctx context.Context, token string) error {
			loggedOutToken = token
			return nil
		},
	}

	h := newTestAuthHandler(mock, nil)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-token-abc"})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusNoContent)
	}

	if loggedOutToken != "session-token-abc" {
		t.Errorf("Logout called with token = %q, want session-token-abc", loggedOutToken)
	}

	cookieCleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge == -1 {
			cookieCleared = true
		}
	}
	if !cookieCleared {
		t.Error("session cookie was not cleared")
	}
}

func TestLogout_NoCookie_StillSucceeds(t *testing.T) {
	h := newTestAuthHandler(&mockUserService{}, nil)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

// =============================================================================
// Me Tests
// =============================================================================

func TestMe_ReturnsAuthenticatedUser(t *testing.T) {
	user := testUser()
	h := newTestAuthHandler(&mockUserService{}, nil)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}

	if !strings.Contains(rec.Body.String(), user.Email) {
		t.Errorf("body should contain user email, got: %s", rec.Body.String())
	}
}

func TestMe_Unauthenticated_Returns401(t *testing.T) {
	h := newTestAuthHandler(&mockUserService{}, nil)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
