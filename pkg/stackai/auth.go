package stackai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// passwordGrantRequest is the body of the identity provider's password-grant
// token endpoint. The empty gotrue_meta_security object is required by the
// provider.
type passwordGrantRequest struct {
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	GotrueMetaSecurity struct{} `json:"gotrue_meta_security"`
}

type passwordGrantResponse struct {
	AccessToken string `json:"access_token"`
}

// acquireToken performs a password-grant token request against the identity
// provider. Tokens are never cached; every gateway operation fetches a fresh
// one.
func (c *Client) acquireToken(ctx context.Context) (string, error) {
	grant := passwordGrantRequest{
		Email:    c.config.Email,
		Password: c.config.Password,
	}

	bodyBytes, err := json.Marshal(grant)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	url := c.config.AuthBaseURL + "/auth/v1/token?grant_type=password"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Apikey", c.config.APIKey)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		return "", newAuthError(resp.StatusCode, "token acquisition failed", string(respBody))
	}

	var grantResp passwordGrantResponse
	if err := json.Unmarshal(respBody, &grantResp); err != nil {
		return "", newAuthError(resp.StatusCode, "malformed token response", string(respBody))
	}

	if grantResp.AccessToken == "" {
		return "", newAuthError(resp.StatusCode, "token response missing access_token", string(respBody))
	}

	return grantResp.AccessToken, nil
}
