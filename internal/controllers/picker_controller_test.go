package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpick/stackpick/pkg/stackai"
)

type stubClient struct {
	connections []stackai.Connection

	children    []stackai.Resource
	childrenErr error

	lastConnectionID string
	lastResourceID   string

	knowledgeBases []stackai.KnowledgeBase

	indexed      []stackai.Resource
	lastKBID     string
	lastPath     string
	indexedErr   error
	createdKB    *stackai.KnowledgeBase
	createErr    error
	createParams stackai.CreateKnowledgeBaseParams

	syncAccepted bool
	syncErr      error

	deleteErr      error
	deletedPath    string
	deleteCalls    int
	upstreamCalled bool
}

func (s *stubClient) ListConnections(_ context.Context, _ string, _ int) ([]stackai.Connection, error) {
	s.upstreamCalled = true
	return s.connections, nil
}

func (s *stubClient) ListChildren(_ context.Context, connectionID, resourceID string) ([]stackai.Resource, error) {
	s.upstreamCalled = true
	s.lastConnectionID = connectionID
	s.lastResourceID = resourceID
	return s.children, s.childrenErr
}

func (s *stubClient) ListKnowledgeBases(_ context.Context, _ string) ([]stackai.KnowledgeBase, error) {
	s.upstreamCalled = true
	return s.knowledgeBases, nil
}

func (s *stubClient) ListIndexedResources(_ context.Context, kbID, path string) ([]stackai.Resource, error) {
	s.upstreamCalled = true
	s.lastKBID = kbID
	s.lastPath = path
	return s.indexed, s.indexedErr
}

func (s *stubClient) CreateKnowledgeBase(_ context.Context, params stackai.CreateKnowledgeBaseParams) (*stackai.KnowledgeBase, error) {
	s.upstreamCalled = true
	s.createParams = params
	return s.createdKB, s.createErr
}

func (s *stubClient) TriggerSync(_ context.Context, _ string) (bool, error) {
	s.upstreamCalled = true
	return s.syncAccepted, s.syncErr
}

func (s *stubClient) DeleteResource(_ context.Context, kbID, resourcePath string) error {
	s.upstreamCalled = true
	s.deleteCalls++
	s.lastKBID = kbID
	s.deletedPath = resourcePath
	return s.deleteErr
}

func (s *stubClient) CurrentOrganization(_ context.Context) (*stackai.Organization, error) {
	s.upstreamCalled = true
	return &stackai.Organization{OrgID: "org-1"}, nil
}

func newTestApp(client *stubClient) *fiber.App {
	controller := NewPickerController(PickerControllerDependencies{
		Client:             client,
		ConnectionProvider: "gdrive",
	})

	app := fiber.New()
	api := app.Group("/api")

	connections := api.Group("/connections")
	connections.Get("/", controller.ListConnections)
	connections.Get("/:connectionID/resources/children", controller.ListConnectionChildren)

	knowledgeBases := api.Group("/knowledge-bases")
	knowledgeBases.Get("/", controller.ListKnowledgeBases)
	knowledgeBases.Post("/", controller.CreateKnowledgeBase)
	knowledgeBases.Post("/sync", controller.TriggerSync)
	knowledgeBases.Delete("/resources", controller.DeleteResource)
	knowledgeBases.Get("/:knowledgeBaseID/resources/children", controller.ListKnowledgeBaseChildren)

	return app
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestListConnectionChildren(t *testing.T) {
	client := &stubClient{
		children: []stackai.Resource{
			{ResourceID: "r-1", InodeType: stackai.InodeTypeFile, InodePath: stackai.InodePath{Path: "/a.txt"}},
		},
	}
	app := newTestApp(client)

	req := httptest.NewRequest(http.MethodGet, "/api/connections/conn-1/resources/children?resource_id=dir-9", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "conn-1", client.lastConnectionID)
	assert.Equal(t, "dir-9", client.lastResourceID)

	var resources []stackai.Resource
	decodeBody(t, resp, &resources)
	require.Len(t, resources, 1)
	assert.Equal(t, "r-1", resources[0].ResourceID)
}

func TestListConnectionChildren_UpstreamFailure(t *testing.T) {
	client := &stubClient{childrenErr: errors.New("upstream down")}
	app := newTestApp(client)

	req := httptest.NewRequest(http.MethodGet, "/api/connections/conn-1/resources/children", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "upstream down")
}

func TestListKnowledgeBases_MissingConnectionID(t *testing.T) {
	client := &stubClient{}
	app := newTestApp(client)

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge-bases/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "connection_id")
	assert.False(t, client.upstreamCalled, "validation failure must not reach the upstream")
}

func TestCreateKnowledgeBase(t *testing.T) {
	client := &stubClient{createdKB: &stackai.KnowledgeBase{KnowledgeBaseID: "kb-1"}}
	app := newTestApp(client)

	payload := `{"connection_id":"conn-1","connection_source_ids":["a","b"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/knowledge-bases/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "conn-1", client.createParams.ConnectionID)
	assert.Equal(t, []string{"a", "b"}, client.createParams.ConnectionSourceIDs)

	var kb stackai.KnowledgeBase
	decodeBody(t, resp, &kb)
	assert.Equal(t, "kb-1", kb.KnowledgeBaseID)
}

func TestCreateKnowledgeBase_UpstreamFailure(t *testing.T) {
	client := &stubClient{createErr: errors.New("create rejected")}
	app := newTestApp(client)

	payload := `{"connection_id":"conn-1","connection_source_ids":["a"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/knowledge-bases/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "create rejected")
}

func TestListKnowledgeBaseChildren_DefaultsPath(t *testing.T) {
	client := &stubClient{}
	app := newTestApp(client)

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge-bases/kb-1/resources/children", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "kb-1", client.lastKBID)
	assert.Equal(t, "/", client.lastPath)
}

func TestTriggerSync(t *testing.T) {
	client := &stubClient{syncAccepted: true}
	app := newTestApp(client)

	req := httptest.NewRequest(http.MethodPost, "/api/knowledge-bases/sync", strings.NewReader(`{"kb_id":"kb-1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	decodeBody(t, resp, &body)
	assert.True(t, body["accepted"])
}

func TestDeleteResource(t *testing.T) {
	client := &stubClient{}
	app := newTestApp(client)

	req := httptest.NewRequest(http.MethodDelete, "/api/knowledge-bases/resources?kb_id=kb-1&resource_path=%2Fdocs%2Fa.txt", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, client.deleteCalls)
	assert.Equal(t, "kb-1", client.lastKBID)
	assert.Equal(t, "/docs/a.txt", client.deletedPath)
}

func TestDeleteResource_Failure(t *testing.T) {
	client := &stubClient{deleteErr: stackai.NewValidationError("knowledge base ID is required")}
	app := newTestApp(client)

	req := httptest.NewRequest(http.MethodDelete, "/api/knowledge-bases/resources?resource_path=%2Fa.txt", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "knowledge base ID")
}
