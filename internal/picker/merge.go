package picker

import "github.com/stackpick/stackpick/pkg/stackai"

// MergeStatuses combines a raw folder listing with the indexed-status listing
// for the same resource set, producing one decorated list. The result has the
// same length and order as raw; items present in indexed carry that record's
// status, everything else stays unindexed. The upstream "resource" status is
// normalized to indexed here so downstream code never sees the raw quirk.
//
// An unavailable indexed listing is passed as nil or empty and simply leaves
// every item unindexed; the raw listing is never blocked on it.
func MergeStatuses(raw, indexed []stackai.Resource, knowledgeBaseID string) []stackai.Resource {
	indexedByID := make(map[string]stackai.Resource, len(indexed))
	for _, r := range indexed {
		indexedByID[r.ResourceID] = r
	}

	merged := make([]stackai.Resource, len(raw))
	for i, r := range raw {
		if record, ok := indexedByID[r.ResourceID]; ok {
			r.Status = normalizeStatus(record.Status)
		} else {
			r.Status = stackai.StatusUnindexed
		}
		if knowledgeBaseID != "" {
			r.KnowledgeBaseID = knowledgeBaseID
		}
		merged[i] = r
	}

	return merged
}

func normalizeStatus(s stackai.ResourceStatus) stackai.ResourceStatus {
	if s == stackai.RawStatusResource {
		return stackai.StatusIndexed
	}
	return s
}
