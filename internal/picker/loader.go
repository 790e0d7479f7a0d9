package picker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/stackpick/stackpick/pkg/stackai"
)

// Loader fetches and merges the two remote views of a folder: the raw
// connection children and the knowledge base's indexed statuses. The two
// fetches are independent and an unavailable indexed listing degrades to an
// all-unindexed view instead of blocking the listing.
//
// Merged listings are cached per folder so back-navigation renders
// instantly; mutations invalidate the cache and a reload fetches
// authoritative state.
type Loader struct {
	gateway      Gateway
	connectionID string

	mu              sync.Mutex
	knowledgeBaseID string
	kbResolved      bool
	cache           map[string][]stackai.Resource
}

func NewLoader(gateway Gateway, connectionID string) *Loader {
	return &Loader{
		gateway:      gateway,
		connectionID: connectionID,
		cache:        make(map[string][]stackai.Resource),
	}
}

// Load returns the decorated listing for a folder; an empty folderID means
// the connection root. Cached listings are returned as-is; pass fresh=true
// to bypass and refetch.
func (l *Loader) Load(ctx context.Context, folderID string, fresh bool) ([]stackai.Resource, error) {
	if !fresh {
		l.mu.Lock()
		cached, ok := l.cache[folderID]
		l.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	kbID := l.resolveKnowledgeBase(ctx)

	var (
		wg       sync.WaitGroup
		raw      []stackai.Resource
		rawErr   error
		indexed  []stackai.Resource
		idxErr   error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		raw, rawErr = l.gateway.ListChildren(ctx, l.connectionID, folderID)
	}()

	if kbID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			indexed, idxErr = l.gateway.ListIndexedResources(ctx, kbID, "/")
		}()
	}

	wg.Wait()

	if rawErr != nil {
		return nil, fmt.Errorf("failed to load folder listing: %w", rawErr)
	}
	if idxErr != nil {
		// Indexed statuses are decoration; render the listing unindexed.
		log.Warn().Err(idxErr).Str("knowledge_base_id", kbID).Msg("Indexed-status listing unavailable")
		indexed = nil
	}

	merged := MergeStatuses(raw, indexed, kbID)

	l.mu.Lock()
	l.cache[folderID] = merged
	l.mu.Unlock()

	return merged, nil
}

// SetKnowledgeBaseID pins the knowledge base used for status decoration;
// called after a create so later loads pick up the new index.
func (l *Loader) SetKnowledgeBaseID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.knowledgeBaseID = id
	l.kbResolved = true
}

// KnowledgeBaseID returns the resolved knowledge base ID, if any.
func (l *Loader) KnowledgeBaseID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.knowledgeBaseID
}

// Invalidate drops all cached listings; the next Load per folder refetches.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string][]stackai.Resource)
}

// resolveKnowledgeBase looks up the first knowledge base for the connection,
// once. A lookup failure degrades to no status decoration.
func (l *Loader) resolveKnowledgeBase(ctx context.Context) string {
	l.mu.Lock()
	if l.kbResolved {
		id := l.knowledgeBaseID
		l.mu.Unlock()
		return id
	}
	l.mu.Unlock()

	var id string
	kbs, err := l.gateway.ListKnowledgeBases(ctx, l.connectionID)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("connection_id", l.connectionID).Msg("Knowledge base lookup failed")
	case len(kbs) > 0:
		id = kbs[0].KnowledgeBaseID
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.kbResolved {
		l.knowledgeBaseID = id
		// Only a successful lookup is final; keep retrying on later loads
		// after a failed one.
		l.kbResolved = err == nil
	}
	return l.knowledgeBaseID
}
