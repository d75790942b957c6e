package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func lookupServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Query().Get("key") == "" {
			t.Errorf("expected key query parameter")
		}
		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestLookupVerifierSuccess(t *testing.T) {
	srv := lookupServer(t, http.StatusOK, map[string]any{
		"users": []map[string]any{{
			"localId":       "u-42",
			"email":         "jane@example.com",
			"displayName":   "Jane Doe",
			"emailVerified": true,
		}},
	})
	defer srv.Close()

	v := NewLookupVerifier("test-key").WithEndpoint(srv.URL)
	user, err := v.Verify(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.UID != "u-42" {
		t.Fatalf("expected UID u-42, got %q", user.UID)
	}
	if user.Email != "jane@example.com" || user.Name != "Jane Doe" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.EmailVerified {
		t.Fatalf("expected email verified")
	}
}

func TestLookupVerifierNameFallsBackToEmail(t *testing.T) {
	srv := lookupServer(t, http.StatusOK, map[string]any{
		"users": []map[string]any{{
			"localId": "u-43",
			"email":   "noname@example.com",
		}},
	})
	defer srv.Close()

	v := NewLookupVerifier("test-key").WithEndpoint(srv.URL)
	user, err := v.Verify(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Name != "noname@example.com" {
		t.Fatalf("expected name fallback to email, got %q", user.Name)
	}
}

func TestLookupVerifierRejectsExpiredToken(t *testing.T) {
	srv := lookupServer(t, http.StatusBadRequest, map[string]any{
		"error": map[string]any{"code": 400, "message": "INVALID_ID_TOKEN"},
	})
	defer srv.Close()

	v := NewLookupVerifier("test-key").WithEndpoint(srv.URL)
	if _, err := v.Verify(context.Background(), "expired"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLookupVerifierNoUsers(t *testing.T) {
	srv := lookupServer(t, http.StatusOK, map[string]any{"users": []any{}})
	defer srv.Close()

	v := NewLookupVerifier("test-key").WithEndpoint(srv.URL)
	if _, err := v.Verify(context.Background(), "orphan-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLookupVerifierEmptyToken(t *testing.T) {
	v := NewLookupVerifier("test-key")
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLookupVerifierNotConfigured(t *testing.T) {
	v := NewLookupVerifier("")
	if _, err := v.Verify(context.Background(), "token"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestStaticVerifier(t *testing.T) {
	v := StaticVerifier{}
	user, err := v.Verify(context.Background(), "anything")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.UID != "dev-user" {
		t.Fatalf("expected dev-user, got %q", user.UID)
	}

	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}
