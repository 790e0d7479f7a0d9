package stackai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthServer serves the password-grant token endpoint and records the
// headers and body of the last grant request.
func newAuthServer(t *testing.T, token string) (*httptest.Server, *http.Request, *map[string]any) {
	t.Helper()

	var lastRequest http.Request
	lastBody := map[string]any{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastRequest = *r

		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))

		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}))
	t.Cleanup(srv.Close)

	return srv, &lastRequest, &lastBody
}

func newTestClient(t *testing.T, apiHandler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	authSrv, _, _ := newAuthServer(t, "test-token")

	apiSrv := httptest.NewServer(apiHandler)
	t.Cleanup(apiSrv.Close)

	client := NewClient(
		WithBaseURL(apiSrv.URL),
		WithAuthBaseURL(authSrv.URL),
		WithAPIKey("anon-key"),
		WithCredentials("svc@example.com", "secret"),
	)

	return client, apiSrv
}

func TestAcquireToken(t *testing.T) {
	authSrv, lastReq, lastBody := newAuthServer(t, "tok-123")

	client := NewClient(
		WithAuthBaseURL(authSrv.URL),
		WithAPIKey("anon-key"),
		WithCredentials("svc@example.com", "secret"),
	)

	token, err := client.acquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	assert.Equal(t, "anon-key", lastReq.Header.Get("Apikey"))
	assert.Equal(t, "/auth/v1/token", lastReq.URL.Path)
	assert.Equal(t, "password", lastReq.URL.Query().Get("grant_type"))
	assert.Equal(t, "svc@example.com", (*lastBody)["email"])
	assert.Equal(t, "secret", (*lastBody)["password"])
	assert.Contains(t, *lastBody, "gotrue_meta_security")
}

func TestAcquireToken_Failure(t *testing.T) {
	authSrv, _, _ := newAuthServer(t, "")

	client := NewClient(
		WithAuthBaseURL(authSrv.URL),
		WithCredentials("svc@example.com", "wrong"),
	)

	_, err := client.acquireToken(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

func TestListChildren(t *testing.T) {
	var gotAuth, gotPath, gotQuery string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("resource_id")

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"resource_id": "res-1", "inode_type": "file", "inode_path": map[string]string{"path": "/a.txt"}},
				{"resource_id": "res-2", "inode_type": "directory", "inode_path": map[string]string{"path": "/docs"}},
			},
		})
	}))

	resources, err := client.ListChildren(context.Background(), "conn-1", "folder-9")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "/connections/conn-1/resources/children", gotPath)
	assert.Equal(t, "folder-9", gotQuery)

	require.Len(t, resources, 2)
	assert.Equal(t, "res-1", resources[0].ResourceID)
	assert.True(t, resources[1].IsDirectory())
}

func TestListChildren_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare array instead of envelope", body: `[{"resource_id":"x"}]`},
		{name: "missing data field", body: `{"items":[]}`},
		{name: "data is not a list", body: `{"data":{"resource_id":"x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))

			_, err := client.ListChildren(context.Background(), "conn-1", "")
			require.Error(t, err)
			assert.True(t, IsUpstream(err), "expected upstream error, got %v", err)
		})
	}
}

func TestListChildren_Validation(t *testing.T) {
	var calls atomic.Int64

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.ListChildren(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Zero(t, calls.Load(), "validation failures must not reach the network")
}

func TestListKnowledgeBases_StrictArray(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A wrapped object is a schema violation for this endpoint.
		json.NewEncoder(w).Encode(map[string]any{"admin": []any{}})
	}))

	_, err := client.ListKnowledgeBases(context.Background(), "conn-1")
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
}

func TestCreateKnowledgeBase_Defaults(t *testing.T) {
	var gotBody map[string]any

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"knowledge_base_id": "kb-1",
			"name":              gotBody["name"],
			"connection_id":     gotBody["connection_id"],
		})
	}))

	kb, err := client.CreateKnowledgeBase(context.Background(), CreateKnowledgeBaseParams{
		ConnectionID:        "conn-1",
		ConnectionSourceIDs: []string{"res-1", "res-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "kb-1", kb.KnowledgeBaseID)

	assert.Equal(t, "New Knowledge Base", gotBody["name"])
	assert.Equal(t, "Created from File Picker", gotBody["description"])

	indexing, ok := gotBody["indexing_params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, indexing["ocr"])
	assert.Equal(t, true, indexing["unstructured"])

	embedding := indexing["embedding_params"].(map[string]any)
	assert.Equal(t, "text-embedding-ada-002", embedding["embedding_model"])

	chunker := indexing["chunker_params"].(map[string]any)
	assert.Equal(t, float64(1500), chunker["chunk_size"])
	assert.Equal(t, float64(500), chunker["chunk_overlap"])
	assert.Equal(t, "sentence", chunker["chunker"])
}

func TestCreateKnowledgeBase_Validation(t *testing.T) {
	var calls atomic.Int64

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	tests := []struct {
		name   string
		params CreateKnowledgeBaseParams
	}{
		{name: "missing connection ID", params: CreateKnowledgeBaseParams{ConnectionSourceIDs: []string{"res-1"}}},
		{name: "empty source IDs", params: CreateKnowledgeBaseParams{ConnectionID: "conn-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateKnowledgeBase(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}

	assert.Zero(t, calls.Load())
}

func TestTriggerSync_ResolvesOrgFirst(t *testing.T) {
	var paths []string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		switch r.URL.Path {
		case "/organizations/me/current":
			json.NewEncoder(w).Encode(map[string]string{"org_id": "org-7"})
		case "/knowledge_bases/sync/trigger/kb-1/org-7":
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	accepted, err := client.TriggerSync(context.Background(), "kb-1")
	require.NoError(t, err)
	assert.True(t, accepted)

	require.Equal(t, []string{"/organizations/me/current", "/knowledge_bases/sync/trigger/kb-1/org-7"}, paths)
}

func TestTriggerSync_UpstreamFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/organizations/me/current" {
			json.NewEncoder(w).Encode(map[string]string{"org_id": "org-7"})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "sync backend unavailable"})
	}))

	accepted, err := client.TriggerSync(context.Background(), "kb-1")
	require.Error(t, err)
	assert.False(t, accepted)
	assert.True(t, IsUpstream(err))
	assert.Contains(t, err.Error(), "sync backend unavailable")
}

func TestDeleteResource(t *testing.T) {
	var gotMethod, gotPath, gotResourcePath string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotResourcePath = r.URL.Query().Get("resource_path")
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	err := client.DeleteResource(context.Background(), "kb-1", "/Reports/Q1 Final.pdf")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/knowledge_bases/kb-1/resources", gotPath)
	assert.Equal(t, "/Reports/Q1 Final.pdf", gotResourcePath)
}

func TestDeleteResource_Validation(t *testing.T) {
	var calls atomic.Int64

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	assert.True(t, IsValidation(client.DeleteResource(context.Background(), "", "/a.txt")))
	assert.True(t, IsValidation(client.DeleteResource(context.Background(), "kb-1", "")))
	assert.Zero(t, calls.Load())
}

func TestListIndexedResources_DefaultsPathToRoot(t *testing.T) {
	var gotPath string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Query().Get("resource_path")
		json.NewEncoder(w).Encode([]map[string]any{
			{"resource_id": "res-1", "inode_type": "file", "inode_path": map[string]string{"path": "/a.txt"}, "status": "indexed"},
		})
	}))

	resources, err := client.ListIndexedResources(context.Background(), "kb-1", "")
	require.NoError(t, err)

	assert.Equal(t, "/", gotPath)
	require.Len(t, resources, 1)
	assert.Equal(t, StatusIndexed, resources[0].Status)
}

func TestUpstreamErrorMessageExtraction(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "insufficient permissions"})
	}))

	_, err := client.ListConnections(context.Background(), "gdrive", 1)
	require.Error(t, err)

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, e.Kind)
	assert.Equal(t, http.StatusForbidden, e.StatusCode)
	assert.Equal(t, "insufficient permissions", e.Message)
}
