package tokens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAPIKeyIssuer_Issue(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"name": "auth_tokens/abc123"})
	}))
	defer server.Close()

	issuer := &APIKeyIssuer{
		APIKey:     "secret-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	}

	cred, err := issuer.Issue(context.Background(), "You are a patient tutor.")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if cred.Token != "auth_tokens/abc123" {
		t.Errorf("unexpected token %q", cred.Token)
	}
	if cred.Model != DefaultModel {
		t.Errorf("unexpected model %q", cred.Model)
	}
	if !cred.ExpiresAt.After(time.Now()) {
		t.Error("credential already expired")
	}

	if gotPath != "/auth_tokens" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("API key not sent as query parameter, got %q", gotKey)
	}

	setup, _ := gotBody["bidiGenerateContentSetup"].(map[string]any)
	if setup == nil {
		t.Fatal("request body missing bidiGenerateContentSetup")
	}
	raw, _ := json.Marshal(setup)
	if !strings.Contains(string(raw), "You are a patient tutor.") {
		t.Errorf("system instruction not pinned in request: %s", raw)
	}
	if uses, _ := gotBody["uses"].(float64); uses != 1 {
		t.Errorf("expected single-use token, got uses=%v", gotBody["uses"])
	}
}

func TestAPIKeyIssuer_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusForbidden)
	}))
	defer server.Close()

	issuer := &APIKeyIssuer{
		APIKey:     "secret-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	}

	_, err := issuer.Issue(context.Background(), "instruction")
	if err == nil {
		t.Fatal("expected error for HTTP 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestAPIKeyIssuer_MissingKey(t *testing.T) {
	issuer := &APIKeyIssuer{}
	if _, err := issuer.Issue(context.Background(), "instruction"); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestAPIKeyIssuer_EmptyTokenName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	issuer := &APIKeyIssuer{
		APIKey:     "secret-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	}

	if _, err := issuer.Issue(context.Background(), "instruction"); err == nil {
		t.Fatal("expected error for empty token name")
	}
}
