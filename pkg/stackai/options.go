package stackai

import (
	"net/http"
	"time"
)

// ClientOption represents an option for configuring the Stack AI client
type ClientOption func(*ClientConfig)

// ClientConfig holds the configuration for the Stack AI client
type ClientConfig struct {
	BaseURL     string
	AuthBaseURL string
	APIKey      string // Anon API key sent on the password-grant token request
	Email       string // Service account email
	Password    string // Service account password
	Timeout     time.Duration
	HTTPClient  *http.Client
	UserAgent   string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:     "https://api.stack-ai.com",
		AuthBaseURL: "https://sb.stack-ai.com",
		Timeout:     30 * time.Second,
		UserAgent:   "stackpick-go-sdk/1.0.0",
	}
}

// WithBaseURL sets the base URL for the Stack AI API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithAuthBaseURL sets the base URL for the identity provider
func WithAuthBaseURL(authBaseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.AuthBaseURL = authBaseURL
	}
}

// WithAPIKey sets the anon API key used during token acquisition
func WithAPIKey(apiKey string) ClientOption {
	return func(c *ClientConfig) {
		c.APIKey = apiKey
	}
}

// WithCredentials sets the service account credentials
func WithCredentials(email, password string) ClientOption {
	return func(c *ClientConfig) {
		c.Email = email
		c.Password = password
	}
}

// WithTimeout sets the HTTP timeout for API calls
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header for API calls
func WithUserAgent(userAgent string) ClientOption {
	return func(c *ClientConfig) {
		c.UserAgent = userAgent
	}
}
