package knowledge

import (
	"context"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// Store is a pluggable, independently queryable source of legal reference
// material. Implementations must keep RelevanceScore comparable within a
// single Search call only.
type Store interface {
	// Name identifies the store in logs and in KnowledgeItem.SourceStore.
	Name() string

	// Priority is a static ordering hint used for duplicate resolution and
	// cache key stability. Higher wins ties. It is not a correctness knob.
	Priority() int

	// IsAvailable reports whether the store can serve queries right now.
	// Unavailable stores are skipped by the aggregator without error.
	IsAvailable() bool

	// Search returns up to limit items ranked by the store's own relevance.
	Search(ctx context.Context, query, domain string, limit int) ([]store.KnowledgeItem, error)
}
