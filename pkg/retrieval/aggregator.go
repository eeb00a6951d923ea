package retrieval

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/cache"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

const (
	// overallTimeout is the hard ceiling for one aggregation call,
	// independent of per-store timeouts.
	overallTimeout = 30 * time.Second

	// cacheTTL for final result sets.
	cacheTTL = time.Hour

	minCandidatesPerStore = 10
)

// Aggregator fans a query out to every enabled knowledge store, merges and
// deduplicates the candidates, re-ranks when over limit, and caches the
// final result set.
type Aggregator struct {
	stores   []knowledge.Store
	reranker Reranker
	cache    cache.Cache
	logger   *log.Logger
}

func NewAggregator(stores []knowledge.Store, reranker Reranker, resultCache cache.Cache, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Aggregator{
		stores:   stores,
		reranker: reranker,
		cache:    resultCache,
		logger:   logger,
	}
}

// Search runs one aggregation call. enabledStores filters by store name; an
// empty list enables every registered store. A single store failing or
// timing out is dropped silently; only the total absence of stores is an
// error.
func (a *Aggregator) Search(ctx context.Context, query, domain string, limit int, enabledStores []string) ([]store.KnowledgeItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	active := a.selectStores(enabledStores)
	if len(active) == 0 {
		return nil, fmt.Errorf("no knowledge store enabled and available")
	}

	key := cacheKey(query, domain, limit, active)
	if a.cache != nil {
		var cached []store.KnowledgeItem
		if found, err := a.cache.Get(ctx, key, &cached); err == nil && found {
			a.logger.Printf("[AGGREGATOR] Cache hit for %s", truncate(query, 50))
			return cached, nil
		}
	}

	intent := ResolveIntent(query, domain)
	a.logger.Printf("[AGGREGATOR] Intent resolved: query=%q domains=%v stores=%d",
		truncate(intent.Query, 50), intent.Domains, len(active))

	candidates := a.fanOut(ctx, active, intent, limit)
	if len(candidates) == 0 {
		a.logger.Printf("[AGGREGATOR] No candidates from any store")
		return nil, nil
	}

	priorities := make(map[string]int, len(active))
	for _, s := range active {
		priorities[s.Name()] = s.Priority()
	}
	merged := deduplicate(candidates, priorities)

	result := merged
	if len(merged) > limit {
		if a.reranker == nil {
			result = merged[:limit]
		} else if reranked, err := a.reranker.Rerank(ctx, intent.Query, merged, limit); err != nil {
			// Reranking is best-effort: fall back to truncation preserving
			// the original relative order.
			a.logger.Printf("[AGGREGATOR] Rerank failed, truncating: %v", err)
			result = merged[:limit]
		} else {
			result = reranked
		}
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, result, cacheTTL); err != nil {
			a.logger.Printf("[AGGREGATOR] Cache write failed: %v", err)
		}
	}

	return result, nil
}

// selectStores returns the enabled, available stores in priority order.
func (a *Aggregator) selectStores(enabled []string) []knowledge.Store {
	wanted := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		wanted[name] = true
	}

	var active []knowledge.Store
	for _, s := range a.stores {
		if len(enabled) > 0 && !wanted[s.Name()] {
			continue
		}
		if !s.IsAvailable() {
			a.logger.Printf("[AGGREGATOR] Store %s unavailable, skipping", s.Name())
			continue
		}
		active = append(active, s)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority() > active[j].Priority()
	})
	return active
}

// fanOut queries every store concurrently under one shared deadline. Partial
// results are acceptable; a store that errors or overruns the deadline
// contributes nothing.
func (a *Aggregator) fanOut(ctx context.Context, active []knowledge.Store, intent Intent, limit int) []store.KnowledgeItem {
	ctx, cancel := context.WithTimeout(ctx, overallTimeout)
	defer cancel()

	// Each store is over-asked so dedup and rerank have real candidates.
	perStore := 2 * limit
	if perStore < minCandidatesPerStore {
		perStore = minCandidatesPerStore
	}

	var mu sync.Mutex
	results := make(map[string][]store.KnowledgeItem, len(active))

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range active {
		g.Go(func() error {
			items, err := a.searchStore(gctx, s, intent, perStore)
			if err != nil {
				a.logger.Printf("[AGGREGATOR] Store %s failed: %v", s.Name(), err)
				return nil // isolate the failure
			}
			mu.Lock()
			results[s.Name()] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Merge in priority order so truncation fallback has a deterministic,
	// sensible relative order.
	var merged []store.KnowledgeItem
	for _, s := range active {
		merged = append(merged, results[s.Name()]...)
	}
	return merged
}

func (a *Aggregator) searchStore(ctx context.Context, s knowledge.Store, intent Intent, perStore int) ([]store.KnowledgeItem, error) {
	var collected []store.KnowledgeItem
	seen := make(map[string]bool)
	for _, domain := range intent.Domains {
		items, err := s.Search(ctx, intent.Query, domain, perStore)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if item.ID != "" && seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			item.SourceStore = s.Name()
			collected = append(collected, item)
		}
	}
	return collected, nil
}

// cacheKey is the composite key of one aggregation call. The store list is
// part of the key so toggling a store cannot serve stale mixes.
func cacheKey(query, domain string, limit int, active []knowledge.Store) string {
	names := make([]string, len(active))
	for i, s := range active {
		names[i] = s.Name()
	}
	sort.Strings(names)
	return fmt.Sprintf("%s|%s|%d|%s", query, domain, limit, strings.Join(names, ","))
}
