package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenClient mints ephemeral credentials for the upstream realtime
// handshake. Each upstream session gets its own short-lived bearer token.
type TokenClient struct {
	apiKey      string
	sessionsURL string
	httpClient  *http.Client
}

type SessionTokenRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Instructions string `json:"instructions"`
}

// SessionToken is the upstream session-issuing response. Raw preserves the
// full payload so the token endpoint can hand it to browser clients as-is.
type SessionToken struct {
	Value string
	Raw   json.RawMessage
}

func NewTokenClient(apiKey, sessionsURL string) *TokenClient {
	if sessionsURL == "" {
		sessionsURL = DefaultSessionsURL
	}
	return &TokenClient{
		apiKey:      apiKey,
		sessionsURL: sessionsURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *TokenClient) Mint(ctx context.Context, req SessionTokenRequest) (*SessionToken, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sessionsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch ephemeral credential: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read credential response: %v", ErrConnectionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: credential endpoint returned %d: %s", ErrConnectionFailed, resp.StatusCode, payload)
	}

	var parsed struct {
		ClientSecret struct {
			Value string `json:"value"`
		} `json:"client_secret"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode credential response: %v", ErrConnectionFailed, err)
	}
	if parsed.ClientSecret.Value == "" {
		return nil, fmt.Errorf("%w: credential response missing client_secret.value", ErrConnectionFailed)
	}

	return &SessionToken{
		Value: parsed.ClientSecret.Value,
		Raw:   json.RawMessage(payload),
	}, nil
}
