package picker

import (
	"context"

	"github.com/stackpick/stackpick/pkg/stackai"
)

// Gateway is the subset of the Stack AI client the picker depends on. It is
// a stateless request/response mediator; all session state lives in the
// Browser and Loader.
type Gateway interface {
	ListChildren(ctx context.Context, connectionID, resourceID string) ([]stackai.Resource, error)
	ListKnowledgeBases(ctx context.Context, connectionID string) ([]stackai.KnowledgeBase, error)
	ListIndexedResources(ctx context.Context, knowledgeBaseID, resourcePath string) ([]stackai.Resource, error)
	CreateKnowledgeBase(ctx context.Context, params stackai.CreateKnowledgeBaseParams) (*stackai.KnowledgeBase, error)
	TriggerSync(ctx context.Context, knowledgeBaseID string) (bool, error)
	DeleteResource(ctx context.Context, knowledgeBaseID, resourcePath string) error
}
