package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kitasuro/kitasuro/internal/domain"
)

// mockDatabaseError simulates a low-level error with sensitive details.
type mockDatabaseError struct {
	message string
}

func (e *mockDatabaseError) Error() string {
	return e.message
}

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func TestValidationErrorResponse_DoesNotExposeOperationName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ve := domain.NewValidationError("UserService.Register", "email", "Email is required")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ValidationErrorResponse(w, r, logger, ve)
	})

	req := httptest.NewRequest("POST", "/api/auth/register", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Internal operation names must never leak to clients.
	if strings.Contains(body, "UserService") {
		t.Errorf("response exposes internal operation name: %s", body)
	}
	if strings.Contains(body, "Register") {
		t.Errorf("response exposes internal method name: %s", body)
	}

	if !strings.Contains(body, "Validation failed") {
		t.Errorf("response should contain user-friendly message, got: %s", body)
	}

	// The field error itself is safe to expose.
	if !strings.Contains(body, "email") {
		t.Errorf("response should contain field name: %s", body)
	}
	if !strings.Contains(body, "Email is required") {
		t.Errorf("response should contain field message: %s", body)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dbErr := &mockDatabaseError{message: "pq: relation \"proposals\" does not exist"}
	internalErr := domain.Internal(dbErr, "ProposalService.GetByID", "Database query failed")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, internalErr)
	})

	req := httptest.NewRequest("GET", "/api/orgs/123/proposals/456", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	if strings.Contains(body, "pq:") {
		t.Errorf("response exposes database error: %s", body)
	}
	if strings.Contains(body, "relation") {
		t.Errorf("response exposes database schema: %s", body)
	}
	if strings.Contains(body, "ProposalService") {
		t.Errorf("response exposes internal operation: %s", body)
	}

	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic internal error message, got: %s", body)
	}

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestErrorResponse_ClientErrorKeepsMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	err := domain.Invalid("ProposalService.Create", "Title is required")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, err)
	})

	req := httptest.NewRequest("POST", "/api/orgs/123/proposals", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Client error messages are written for users and pass through unchanged.
	if !strings.Contains(body, "Title is required") {
		t.Errorf("response should contain the error message, got: %s", body)
	}
	if strings.Contains(body, "ProposalService") {
		t.Errorf("response exposes internal operation: %s", body)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// =============================================================================
// Status Code Mapping Tests
// =============================================================================

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EPLANLIMIT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := ErrorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorResponse_PlanLimitReturns402(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	err := domain.PlanLimit("ProposalService.Create", "Active proposal limit reached. Upgrade to create more proposals.")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, err)
	})

	req := httptest.NewRequest("POST", "/api/orgs/123/proposals", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "plan_limit") {
		t.Errorf("body should contain plan_limit code, got: %s", body)
	}
	if !strings.Contains(body, "Upgrade") {
		t.Errorf("body should keep the upgrade guidance, got: %s", body)
	}
}

// =============================================================================
// Convenience Wrapper Tests
// =============================================================================

func TestConvenienceResponses(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	tests := []struct {
		name     string
		respond  func(w http.ResponseWriter, r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name: "not found",
			respond: func(w http.ResponseWriter, r *http.Request) {
				NotFoundResponse(w, r, logger)
			},
			wantCode: http.StatusNotFound,
			wantBody: "not_found",
		},
		{
			name: "unauthorized",
			respond: func(w http.ResponseWriter, r *http.Request) {
				UnauthorizedResponse(w, r, logger)
			},
			wantCode: http.StatusUnauthorized,
			wantBody: "unauthorized",
		},
		{
			name: "forbidden",
			respond: func(w http.ResponseWriter, r *http.Request) {
				ForbiddenResponse(w, r, logger)
			},
			wantCode: http.StatusForbidden,
			wantBody: "forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/test", nil)
			rec := httptest.NewRecorder()

			http.HandlerFunc(tt.respond).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if body := rec.Body.String(); !strings.Contains(body, tt.wantBody) {
				t.Errorf("body should contain %q, got: %s", tt.wantBody, body)
			}
		})
	}
}
