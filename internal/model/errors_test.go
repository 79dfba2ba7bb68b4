package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusNotFound,
		Title:  "Not Found",
		Detail: "leaderboard not found",
	}

	errMsg := pd.Error()

	for _, want := range []string{"404", "Not Found", "leaderboard not found"} {
		if !strings.Contains(errMsg, want) {
			t.Errorf("error message should contain %q, got: %s", want, errMsg)
		}
	}
}

func TestProblemDetails_WriteJSON(t *testing.T) {
	t.Parallel()

	pd := NewBadRequestError("invalid limit")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected Content-Type 'application/problem+json', got %q", ct)
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	var result ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if result.Detail != "invalid limit" {
		t.Errorf("expected detail 'invalid limit', got %q", result.Detail)
	}
	if result.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %d, got %d", ErrCodeInvalidInput, result.Code)
	}
}

func TestProblemConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		code   ErrorCode
		typ    string
	}{
		{"not found", NewNotFoundError("leaderboard"), http.StatusNotFound, ErrCodeNotFound, "not-found"},
		{"conflict", NewConflictError("progress changed concurrently"), http.StatusConflict, ErrCodeConflict, "conflict"},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError, ErrCodeInternal, "internal"},
		{"unavailable", NewUnavailableError("database unreachable"), http.StatusServiceUnavailable, ErrCodeUnavailable, "unavailable"},
		{"bad request", NewBadRequestError("bad"), http.StatusBadRequest, ErrCodeInvalidInput, "bad-request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.pd.Status)
			}
			if tt.pd.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, tt.pd.Code)
			}
			if !strings.HasSuffix(tt.pd.Type, tt.typ) {
				t.Errorf("expected type to end with %q, got %q", tt.typ, tt.pd.Type)
			}
		})
	}
}

func TestNewNotFoundError_FormatsResourceName(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("leaderboard")

	if pd.Detail != "leaderboard not found" {
		t.Errorf("expected detail 'leaderboard not found', got %q", pd.Detail)
	}
}

func TestNewValidationError_MultipleFields_SummarizesCount(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{
		{Field: "limit", Message: "must be positive"},
		{Field: "user_id", Message: "required"},
		{Field: "amount", Message: "must be finite"},
	})

	if len(pd.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d", len(pd.Errors))
	}
	if !strings.Contains(pd.Detail, "limit: must be positive") {
		t.Errorf("detail should lead with the first field error, got %q", pd.Detail)
	}
	if !strings.Contains(pd.Detail, "2 more errors") {
		t.Errorf("detail should mention count of additional errors, got %q", pd.Detail)
	}
}

func TestNewValidationError_EmptyErrors_ReturnsDefaultMessage(t *testing.T) {
	t.Parallel()

	pd := NewValidationError(nil)

	if pd.Detail != "One or more fields failed validation" {
		t.Errorf("expected default detail message, got %q", pd.Detail)
	}
}

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	if pd := NewInternalError(""); pd.Detail != "An unexpected error occurred" {
		t.Errorf("expected default detail message, got %q", pd.Detail)
	}
}
