package middleware

import (
	"civicpulse/models"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondWithError_ProducesValidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithError(rec, http.StatusUnauthorized, "Unauthorized", `token "abc" rejected`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not valid JSON: %v (%s)", err, rec.Body.String())
	}
	if resp.Error != "Unauthorized" || resp.Code != http.StatusUnauthorized {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Message != `token "abc" rejected` {
		t.Errorf("message mangled: %q", resp.Message)
	}
}

func TestRequireCitizen_MissingHeader(t *testing.T) {
	m := NewAuthMiddleware("test-secret")
	called := false
	h := m.RequireCitizen(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/complaints", nil))

	if called {
		t.Error("handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
}
