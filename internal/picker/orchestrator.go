package picker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stackpick/stackpick/pkg/stackai"
)

// Orchestrator sequences the multi-step mutations of the picker: indexing a
// selection (create knowledge base, then trigger sync) and removing a
// resource from its index. It performs no rollback; a sync failure after a
// successful create leaves the knowledge base in place and is reported as an
// accepted inconsistency window.
type Orchestrator struct {
	gateway Gateway
}

func NewOrchestrator(gateway Gateway) *Orchestrator {
	return &Orchestrator{gateway: gateway}
}

// IndexOutcome is the result of IndexSelected. Resources carries the
// selected items optimistically marked pending and stamped with the new
// knowledge base ID. SyncErr is set when the knowledge base was created but
// the sync trigger failed.
type IndexOutcome struct {
	KnowledgeBaseID string
	Resources       []stackai.Resource
	SyncAccepted    bool
	SyncErr         error
}

// IndexSelected creates a knowledge base from the selected resources and
// triggers its first sync. Create must succeed before sync starts; the two
// never run in parallel. Returns a validation error without any network call
// when the selection is empty.
func (o *Orchestrator) IndexSelected(ctx context.Context, connectionID string, selected []stackai.Resource, params *stackai.IndexingParams) (*IndexOutcome, error) {
	if len(selected) == 0 {
		return nil, stackai.NewValidationError("no files selected")
	}

	sourceIDs := make([]string, len(selected))
	for i, r := range selected {
		sourceIDs[i] = r.ResourceID
	}

	kb, err := o.gateway.CreateKnowledgeBase(ctx, stackai.CreateKnowledgeBaseParams{
		ConnectionID:        connectionID,
		ConnectionSourceIDs: sourceIDs,
		IndexingParams:      params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge base: %w", err)
	}

	log.Info().
		Str("knowledge_base_id", kb.KnowledgeBaseID).
		Int("resource_count", len(selected)).
		Msg("Knowledge base created, starting indexing")

	pending := make([]stackai.Resource, len(selected))
	for i, r := range selected {
		r.Status = stackai.StatusPending
		r.KnowledgeBaseID = kb.KnowledgeBaseID
		pending[i] = r
	}

	outcome := &IndexOutcome{
		KnowledgeBaseID: kb.KnowledgeBaseID,
		Resources:       pending,
	}

	// Sync is fire-and-forget upstream; true completion is only observable
	// by re-fetching the indexed listing later.
	accepted, err := o.gateway.TriggerSync(ctx, kb.KnowledgeBaseID)
	if err != nil {
		log.Error().Err(err).Str("knowledge_base_id", kb.KnowledgeBaseID).Msg("Sync trigger failed")
		outcome.SyncErr = err
		return outcome, nil
	}

	outcome.SyncAccepted = accepted
	return outcome, nil
}

// DeleteResource removes a resource from its knowledge base's index and
// returns the resource with its status flipped to deleted. On failure the
// resource is returned unchanged.
func (o *Orchestrator) DeleteResource(ctx context.Context, res stackai.Resource) (stackai.Resource, error) {
	if res.KnowledgeBaseID == "" {
		return res, stackai.NewValidationError("resource %q is not part of a knowledge base", res.InodePath.Path)
	}

	if err := o.gateway.DeleteResource(ctx, res.KnowledgeBaseID, res.InodePath.Path); err != nil {
		return res, fmt.Errorf("failed to de-index resource: %w", err)
	}

	log.Info().
		Str("knowledge_base_id", res.KnowledgeBaseID).
		Str("resource_path", res.InodePath.Path).
		Msg("Resource removed from index")

	res.Status = stackai.StatusDeleted
	return res, nil
}
