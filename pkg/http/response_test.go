package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "keja/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", apperrors.Validation("weeks must be at least 1", nil), http.StatusUnprocessableEntity, apperrors.CodeValidation, "weeks must be at least 1"},
		{"not found", apperrors.NotFoundWithID("Listing", "x"), http.StatusNotFound, apperrors.CodeNotFound, "Listing not found"},
		{"invalid state", apperrors.InvalidState("already decided", "approved"), http.StatusConflict, apperrors.CodeInvalidState, "already decided"},
		{"storage", apperrors.Storage("search failed", errors.New("io")), http.StatusServiceUnavailable, apperrors.CodeStorage, "search failed"},
		{"plain error hides message", errors.New("secret"), http.StatusInternalServerError, apperrors.CodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteError(w, tt.err); err != nil {
				t.Fatalf("WriteError returned %v", err)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
			if resp.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantMsg)
			}
		})
	}
}

func TestWritePage(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WritePage(w, []string{"a"}, 2, 12, 13, 2); err != nil {
		t.Fatal(err)
	}

	var resp struct {
		Data       []string `json:"data"`
		Page       int      `json:"page"`
		TotalPages int      `json:"total_pages"`
		TotalCount int      `json:"total_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Page != 2 || resp.TotalPages != 2 || resp.TotalCount != 13 || len(resp.Data) != 1 {
		t.Errorf("unexpected page envelope: %+v", resp)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
