// Package tokens exchanges long-lived credentials for short-lived
// session tokens the browser-facing duplex channel can hold safely.
package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/altalearn/voicetutor/internal/httpc"
)

// DefaultBaseURL is the Gemini Live token endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1alpha"

// DefaultModel is the realtime model requested when none is configured.
const DefaultModel = "models/gemini-2.0-flash-live-001"

// Credential is a short-lived token bound to one session.
type Credential struct {
	// Token authenticates the duplex channel.
	Token string

	// Model is the realtime model the token was minted for.
	Model string

	// ExpiresAt is when the token stops working.
	ExpiresAt time.Time
}

// Issuer mints session credentials. The request carries the desired
// system instruction so the issuer can pin it server-side.
type Issuer interface {
	Issue(ctx context.Context, systemInstruction string) (Credential, error)
}

// APIKeyIssuer mints ephemeral tokens from a long-lived API key via
// the auth-token REST endpoint. The key never reaches the client.
type APIKeyIssuer struct {
	// APIKey is the long-lived Gemini API key.
	APIKey string

	// Model overrides DefaultModel when set.
	Model string

	// BaseURL overrides DefaultBaseURL; used by tests.
	BaseURL string

	// TTL is the requested token lifetime. Default: 30 minutes.
	TTL time.Duration

	// HTTPClient overrides the shared client; used by tests.
	HTTPClient *http.Client
}

type authTokenRequest struct {
	ExpireTime string `json:"expireTime"`
	Uses       int    `json:"uses"`

	BidiGenerateContentSetup struct {
		Model             string `json:"model"`
		SystemInstruction struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"system_instruction"`
	} `json:"bidiGenerateContentSetup"`
}

type authTokenResponse struct {
	Name string `json:"name"`
}

// Issue requests one single-use token pinned to the given system
// instruction.
func (i *APIKeyIssuer) Issue(ctx context.Context, systemInstruction string) (Credential, error) {
	if i.APIKey == "" {
		return Credential{}, fmt.Errorf("tokens: API key not configured")
	}

	model := i.Model
	if model == "" {
		model = DefaultModel
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	base := i.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	expires := time.Now().Add(ttl)

	var body authTokenRequest
	body.ExpireTime = expires.UTC().Format(time.RFC3339)
	body.Uses = 1
	body.BidiGenerateContentSetup.Model = model
	body.BidiGenerateContentSetup.SystemInstruction.Parts = []struct {
		Text string `json:"text"`
	}{{Text: systemInstruction}}

	payload, err := json.Marshal(body)
	if err != nil {
		return Credential{}, fmt.Errorf("tokens: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/auth_tokens?key=%s", base, i.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Credential{}, fmt.Errorf("tokens: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := i.HTTPClient
	if client == nil {
		client = httpc.Client
	}

	resp, err := client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("tokens: token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Credential{}, fmt.Errorf("tokens: token endpoint returned %d: %s", resp.StatusCode, detail)
	}

	var parsed authTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Credential{}, fmt.Errorf("tokens: decode response: %w", err)
	}
	if parsed.Name == "" {
		return Credential{}, fmt.Errorf("tokens: token endpoint returned no token name")
	}

	return Credential{
		Token:     parsed.Name,
		Model:     model,
		ExpiresAt: expires,
	}, nil
}

// ADCIssuer mints OAuth access tokens from Application Default
// Credentials, for deployments on GCP where no API key exists.
type ADCIssuer struct {
	// Model overrides DefaultModel when set.
	Model string

	// Scopes override the default cloud-platform scope.
	Scopes []string
}

// Issue fetches an access token from the ambient credential chain.
// The system instruction is unused here; ADC tokens are not pinned,
// so the setup frame carries the instruction instead.
func (i *ADCIssuer) Issue(ctx context.Context, _ string) (Credential, error) {
	scopes := i.Scopes
	if len(scopes) == 0 {
		scopes = []string{"https://www.googleapis.com/auth/cloud-platform"}
	}

	src, err := google.DefaultTokenSource(ctx, scopes...)
	if err != nil {
		return Credential{}, fmt.Errorf("tokens: no default credentials: %w", err)
	}

	tok, err := src.Token()
	if err != nil {
		return Credential{}, fmt.Errorf("tokens: token exchange failed: %w", err)
	}

	model := i.Model
	if model == "" {
		model = DefaultModel
	}

	return Credential{
		Token:     tok.AccessToken,
		Model:     model,
		ExpiresAt: tok.Expiry,
	}, nil
}

var (
	_ Issuer = (*APIKeyIssuer)(nil)
	_ Issuer = (*ADCIssuer)(nil)
)
