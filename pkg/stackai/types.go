package stackai

import "time"

// ResourceStatus is the indexing status of a resource as tracked by a
// knowledge base. The zero value means the resource is not part of any
// knowledge base yet.
type ResourceStatus string

const (
	StatusUnindexed ResourceStatus = ""
	StatusPending   ResourceStatus = "pending"
	StatusIndexed   ResourceStatus = "indexed"
	StatusFailed    ResourceStatus = "failed"
	StatusDeleted   ResourceStatus = "deleted"

	// RawStatusResource is an upstream quirk: the API reports "resource" for
	// items that are present in a knowledge base but not specially tagged.
	// Callers should treat it as indexed; see picker.MergeStatuses.
	RawStatusResource ResourceStatus = "resource"
)

type InodeType string

const (
	InodeTypeDirectory InodeType = "directory"
	InodeTypeFile      InodeType = "file"
)

// InodePath is the slash-delimited logical path of a resource.
type InodePath struct {
	Path string `json:"path"`
}

// Resource is a node in a connection's remote file tree, optionally decorated
// with the indexing status from a knowledge base.
type Resource struct {
	ResourceID      string         `json:"resource_id"`
	InodeType       InodeType      `json:"inode_type"`
	InodePath       InodePath      `json:"inode_path"`
	Status          ResourceStatus `json:"status,omitempty"`
	KnowledgeBaseID string         `json:"knowledge_base_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ModifiedAt      time.Time      `json:"modified_at"`
}

// IsDirectory reports whether the resource is a folder.
func (r Resource) IsDirectory() bool {
	return r.InodeType == InodeTypeDirectory
}

// Name returns the leaf name of the resource path.
func (r Resource) Name() string {
	p := r.InodePath.Path
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

// Connection is a credential link to one external data source, e.g. one
// Google Drive account.
type Connection struct {
	ConnectionID       string    `json:"connection_id"`
	Name               string    `json:"name"`
	ConnectionProvider string    `json:"connection_provider"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// KnowledgeBase is a named index built from a subset of a connection's
// resources.
type KnowledgeBase struct {
	KnowledgeBaseID     string          `json:"knowledge_base_id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	ConnectionID        string          `json:"connection_id"`
	ConnectionSourceIDs []string        `json:"connection_source_ids"`
	IndexingParams      *IndexingParams `json:"indexing_params,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IndexingParams control how the upstream service chunks and embeds the
// selected resources.
type IndexingParams struct {
	OCR             bool            `json:"ocr"`
	Unstructured    bool            `json:"unstructured"`
	EmbeddingParams EmbeddingParams `json:"embedding_params"`
	ChunkerParams   ChunkerParams   `json:"chunker_params"`
}

type EmbeddingParams struct {
	EmbeddingModel string  `json:"embedding_model"`
	APIKey         *string `json:"api_key"`
}

type ChunkerParams struct {
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Chunker      string `json:"chunker"`
}

// DefaultIndexingParams returns the indexing parameters used when the caller
// does not supply overrides.
func DefaultIndexingParams() IndexingParams {
	return IndexingParams{
		OCR:          false,
		Unstructured: true,
		EmbeddingParams: EmbeddingParams{
			EmbeddingModel: "text-embedding-ada-002",
		},
		ChunkerParams: ChunkerParams{
			ChunkSize:    1500,
			ChunkOverlap: 500,
			Chunker:      "sentence",
		},
	}
}

// CreateKnowledgeBaseParams is the input for CreateKnowledgeBase. Name,
// Description and IndexingParams fall back to defaults when left empty.
type CreateKnowledgeBaseParams struct {
	ConnectionID        string
	ConnectionSourceIDs []string
	Name                string
	Description         string
	IndexingParams      *IndexingParams
}

// Organization identifies the upstream organization the service account
// belongs to; sync triggers are scoped to it.
type Organization struct {
	OrgID string `json:"org_id"`
	Name  string `json:"org_name,omitempty"`
}
