package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCSRFMiddleware_SafeMethod_SkipsValidation(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("handler should be called for GET")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	// GETリクエストでCSRFトークンCookieが配布されること
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName && c.Value != "" {
			found = true
			if c.HttpOnly {
				t.Error("CSRF cookie must be readable by frontend (not httpOnly)")
			}
		}
	}
	if !found {
		t.Error("expected CSRF cookie to be set on safe method")
	}
}

func TestCSRFMiddleware_POSTWithMatchingTokens_Allows(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/rpc/task.create", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-abc"})
	req.Header.Set(csrfHeaderName, "token-abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("handler should be called for matching tokens")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCSRFMiddleware_POSTWithoutToken_Returns403(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/rpc/task.create", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestCSRFMiddleware_POSTWithMismatchedTokens_Returns403(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/rpc/task.create", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-abc"})
	req.Header.Set(csrfHeaderName, "token-xyz")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestCSRFTokenHandler_IssuesNewToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	token := resp["token"]
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}

	// レスポンスのCookieとボディのトークンが一致すること
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName && c.Value != token {
			t.Errorf("cookie token = %q, body token = %q, want equal", c.Value, token)
		}
	}
}

func TestCSRFTokenHandler_ReusesExistingToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["token"] != "existing-token" {
		t.Errorf("token = %q, want %q", resp["token"], "existing-token")
	}
}
