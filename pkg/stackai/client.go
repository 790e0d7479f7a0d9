package stackai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// ClientInterface defines the gateway operations against the Stack AI API.
// Every call acquires a fresh bearer token, performs exactly one query or
// mutation, and surfaces failures without retrying.
type ClientInterface interface {
	// Connection operations
	ListConnections(ctx context.Context, provider string, limit int) ([]Connection, error)
	ListChildren(ctx context.Context, connectionID, resourceID string) ([]Resource, error)

	// Knowledge base operations
	ListKnowledgeBases(ctx context.Context, connectionID string) ([]KnowledgeBase, error)
	ListIndexedResources(ctx context.Context, knowledgeBaseID, resourcePath string) ([]Resource, error)
	CreateKnowledgeBase(ctx context.Context, params CreateKnowledgeBaseParams) (*KnowledgeBase, error)
	TriggerSync(ctx context.Context, knowledgeBaseID string) (bool, error)
	DeleteResource(ctx context.Context, knowledgeBaseID, resourcePath string) error

	// Organization operations
	CurrentOrganization(ctx context.Context) (*Organization, error)
}

// Client provides a high-level interface for interacting with the Stack AI API
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Stack AI client with the given options
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// ListConnections retrieves connections, optionally filtered by provider.
// The picker session uses the first connection of the gdrive provider.
func (c *Client) ListConnections(ctx context.Context, provider string, limit int) ([]Connection, error) {
	query := url.Values{}
	if provider != "" {
		query.Set("connection_provider", provider)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}

	path := "/connections"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	var result []Connection
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process list connections response: %w", err)
	}

	return result, nil
}

// childrenEnvelope is the response schema of the connection children endpoint.
// The listing is wrapped under a data key; anything else is an upstream error.
type childrenEnvelope struct {
	Data *json.RawMessage `json:"data"`
}

// ListChildren lists the immediate children of a folder under a connection.
// An empty resourceID lists the connection root.
func (c *Client) ListChildren(ctx context.Context, connectionID, resourceID string) ([]Resource, error) {
	if connectionID == "" {
		return nil, NewValidationError("connection ID is required")
	}

	path := fmt.Sprintf("/connections/%s/resources/children", connectionID)
	if resourceID != "" {
		path += "?resource_id=" + url.QueryEscape(resourceID)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	var envelope childrenEnvelope
	if err := c.handleResponse(resp, &envelope); err != nil {
		return nil, fmt.Errorf("failed to process list children response: %w", err)
	}

	if envelope.Data == nil {
		return nil, newUpstreamError(0, "children response missing data field", "")
	}

	var resources []Resource
	if err := json.Unmarshal(*envelope.Data, &resources); err != nil {
		return nil, newUpstreamError(0, "children response data is not a resource list", string(*envelope.Data))
	}

	return resources, nil
}

// ListKnowledgeBases retrieves the knowledge bases built from a connection.
func (c *Client) ListKnowledgeBases(ctx context.Context, connectionID string) ([]KnowledgeBase, error) {
	if connectionID == "" {
		return nil, NewValidationError("connection ID is required")
	}

	path := "/knowledge_bases?connection_id=" + url.QueryEscape(connectionID)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge bases: %w", err)
	}

	var result []KnowledgeBase
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process list knowledge bases response: %w", err)
	}

	return result, nil
}

// ListIndexedResources lists the resources a knowledge base tracks under a
// path prefix. resourcePath defaults to the root.
func (c *Client) ListIndexedResources(ctx context.Context, knowledgeBaseID, resourcePath string) ([]Resource, error) {
	if knowledgeBaseID == "" {
		return nil, NewValidationError("knowledge base ID is required")
	}
	if resourcePath == "" {
		resourcePath = "/"
	}

	path := fmt.Sprintf("/knowledge_bases/%s/resources/children?resource_path=%s",
		knowledgeBaseID, url.QueryEscape(resourcePath))

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed resources: %w", err)
	}

	var result []Resource
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process list indexed resources response: %w", err)
	}

	return result, nil
}

// createKnowledgeBaseRequest is the upstream create payload. The null
// org_level_role and cron_job_id fields are expected by the API.
type createKnowledgeBaseRequest struct {
	ConnectionID        string         `json:"connection_id"`
	ConnectionSourceIDs []string       `json:"connection_source_ids"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	IndexingParams      IndexingParams `json:"indexing_params"`
	OrgLevelRole        *string        `json:"org_level_role"`
	CronJobID           *string        `json:"cron_job_id"`
}

// CreateKnowledgeBase creates a knowledge base from the given source
// resources. Empty name, description and indexing parameters fall back to
// defaults.
func (c *Client) CreateKnowledgeBase(ctx context.Context, params CreateKnowledgeBaseParams) (*KnowledgeBase, error) {
	if params.ConnectionID == "" {
		return nil, NewValidationError("connection ID is required")
	}
	if len(params.ConnectionSourceIDs) == 0 {
		return nil, NewValidationError("at least one source resource ID is required")
	}

	req := createKnowledgeBaseRequest{
		ConnectionID:        params.ConnectionID,
		ConnectionSourceIDs: params.ConnectionSourceIDs,
		Name:                params.Name,
		Description:         params.Description,
		IndexingParams:      DefaultIndexingParams(),
	}
	if req.Name == "" {
		req.Name = "New Knowledge Base"
	}
	if req.Description == "" {
		req.Description = "Created from File Picker"
	}
	if params.IndexingParams != nil {
		req.IndexingParams = *params.IndexingParams
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/knowledge_bases", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge base: %w", err)
	}

	var result KnowledgeBase
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process create knowledge base response: %w", err)
	}

	return &result, nil
}

// TriggerSync starts an asynchronous sync of a knowledge base. The
// organization context is resolved internally before the trigger call.
// Returns whether the upstream accepted the trigger; completion is only
// observable later through ListIndexedResources.
func (c *Client) TriggerSync(ctx context.Context, knowledgeBaseID string) (bool, error) {
	if knowledgeBaseID == "" {
		return false, NewValidationError("knowledge base ID is required")
	}

	org, err := c.CurrentOrganization(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to resolve organization for sync: %w", err)
	}

	path := fmt.Sprintf("/knowledge_bases/sync/trigger/%s/%s", knowledgeBaseID, org.OrgID)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to trigger sync: %w", err)
	}

	statusCode := resp.StatusCode
	if err := c.handleResponse(resp, nil); err != nil {
		return false, fmt.Errorf("failed to process sync trigger response: %w", err)
	}

	return statusCode == http.StatusOK || statusCode == http.StatusAccepted, nil
}

// DeleteResource removes a resource from a knowledge base's index. The
// remote file itself is untouched.
func (c *Client) DeleteResource(ctx context.Context, knowledgeBaseID, resourcePath string) error {
	if knowledgeBaseID == "" {
		return NewValidationError("knowledge base ID is required")
	}
	if resourcePath == "" {
		return NewValidationError("resource path is required")
	}

	path := fmt.Sprintf("/knowledge_bases/%s/resources?resource_path=%s",
		knowledgeBaseID, url.QueryEscape(resourcePath))

	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}

	if err := c.handleResponse(resp, nil); err != nil {
		return fmt.Errorf("failed to process delete resource response: %w", err)
	}

	return nil
}

// CurrentOrganization resolves the organization of the service account.
func (c *Client) CurrentOrganization(ctx context.Context) (*Organization, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/organizations/me/current", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get current organization: %w", err)
	}

	var result Organization
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process current organization response: %w", err)
	}

	if result.OrgID == "" {
		return nil, newUpstreamError(0, "organization response missing org_id", "")
	}

	return &result, nil
}

// doRequest acquires a fresh token and performs one authenticated request.
// The bearer token rides on an oauth2 static token source over the client's
// HTTP transport.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return nil, err
	}

	var requestBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		requestBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	authCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	authedClient := oauth2.NewClient(authCtx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	resp, err := authedClient.Do(req)
	if err != nil {
		return nil, newNetworkError(err)
	}

	return resp, nil
}

// handleResponse processes the HTTP response and unmarshals JSON if successful
func (c *Client) handleResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		var errorResponse struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}

		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if json.Unmarshal(body, &errorResponse) == nil {
			if errorResponse.Error != "" {
				message = errorResponse.Error
			} else if errorResponse.Message != "" {
				message = errorResponse.Message
			}
		}

		return newUpstreamError(resp.StatusCode, message, string(body))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return newUpstreamError(resp.StatusCode, "unexpected response shape", string(body))
		}
	}

	return nil
}
