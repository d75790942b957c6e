package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultLookupURL = "https://identitytoolkit.googleapis.com/v1/accounts:lookup"

var (
	// ErrInvalidToken covers expired, revoked and malformed tokens.
	ErrInvalidToken = errors.New("invalid authentication token")
	// ErrNotConfigured is returned when no identity credentials are set.
	ErrNotConfigured = errors.New("identity verification not configured")
)

// User is the identity extracted from a verified token.
type User struct {
	UID           string
	Email         string
	Name          string
	EmailVerified bool
}

// Verifier validates an opaque bearer token against an identity provider.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (User, error)
}

// LookupVerifier verifies ID tokens through the Identity Toolkit
// accounts:lookup endpoint.
type LookupVerifier struct {
	apiKey     string
	lookupURL  string
	httpClient *http.Client
}

// NewLookupVerifier builds a LookupVerifier for the given API key.
func NewLookupVerifier(apiKey string) *LookupVerifier {
	return &LookupVerifier{
		apiKey:    apiKey,
		lookupURL: defaultLookupURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithEndpoint overrides the lookup endpoint. Used in tests.
func (v *LookupVerifier) WithEndpoint(rawURL string) *LookupVerifier {
	v.lookupURL = rawURL
	return v
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Verify posts the token to the lookup endpoint and extracts the user.
func (v *LookupVerifier) Verify(ctx context.Context, idToken string) (User, error) {
	if strings.TrimSpace(v.apiKey) == "" {
		return User{}, ErrNotConfigured
	}
	if strings.TrimSpace(idToken) == "" {
		return User{}, ErrInvalidToken
	}

	payload, err := json.Marshal(lookupRequest{IDToken: idToken})
	if err != nil {
		return User{}, err
	}

	url := v.lookupURL + "?key=" + v.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return User{}, fmt.Errorf("identity lookup: read: %w", err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return User{}, fmt.Errorf("identity lookup: parse: %w", err)
	}

	// The endpoint reports invalid/expired tokens as 400 with an error body.
	if parsed.Error != nil || resp.StatusCode == http.StatusBadRequest {
		return User{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("identity lookup: status %d", resp.StatusCode)
	}
	if len(parsed.Users) == 0 {
		return User{}, ErrInvalidToken
	}

	u := parsed.Users[0]
	if u.LocalID == "" {
		return User{}, ErrInvalidToken
	}

	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	return User{
		UID:           u.LocalID,
		Email:         u.Email,
		Name:          name,
		EmailVerified: u.EmailVerified,
	}, nil
}

// StaticVerifier accepts any non-empty token and returns a fixed identity.
// Dev-only escape hatch enabled by AUTH_DISABLED.
type StaticVerifier struct {
	User User
}

// Verify returns the fixed identity for any non-empty token.
func (v StaticVerifier) Verify(ctx context.Context, idToken string) (User, error) {
	_ = ctx
	if strings.TrimSpace(idToken) == "" {
		return User{}, ErrInvalidToken
	}
	u := v.User
	if u.UID == "" {
		u = User{UID: "dev-user", Email: "dev@localhost", Name: "Dev User", EmailVerified: true}
	}
	return u, nil
}

var _ Verifier = (*LookupVerifier)(nil)
var _ Verifier = StaticVerifier{}
