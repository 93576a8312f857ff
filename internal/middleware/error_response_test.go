package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/taskhub/internal/model"
)

func TestWriteErrorResponse_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, 404, model.NewTaskNotFoundError("task-1"))

	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != model.ErrCodeNotFound {
		t.Errorf("error code = %q, want %q", resp.Error.Code, model.ErrCodeNotFound)
	}
	if resp.Error.Message == "" {
		t.Error("expected non-empty error message")
	}
}

func TestWriteInternalServerError_DoesNotLeakDetails(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	if w.Code != 500 {
		t.Errorf("status = %d, want 500", w.Code)
	}

	var resp ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != model.ErrCodeInternal {
		t.Errorf("error code = %q, want %q", resp.Error.Code, model.ErrCodeInternal)
	}
}
