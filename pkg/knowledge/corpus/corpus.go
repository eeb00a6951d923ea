// Package corpus serves the curated statute and case-law collection. It
// searches by embedding similarity and falls back to keyword matching when
// the embedding backend is down, so the primary source stays usable.
package corpus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/embedding"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

const (
	storeName           = "legal_corpus"
	availabilityTimeout = 2 * time.Second
)

// Entry is one scored corpus record as returned by the searcher.
type Entry struct {
	ID         string
	Title      string
	Content    string
	SourceRef  string
	Similarity float64
}

// Searcher is the persistence side of the corpus store. The gorm-backed
// implementation lives in the repository layer.
type Searcher interface {
	SearchByVector(ctx context.Context, vector []float32, domain string, limit int) ([]Entry, error)
	SearchByKeyword(ctx context.Context, query, domain string, limit int) ([]Entry, error)
	Ping(ctx context.Context) error
}

type Store struct {
	searcher Searcher
	embedder embedding.Provider
	priority int
	logger   *log.Logger
}

var _ knowledge.Store = (*Store)(nil)

func NewStore(searcher Searcher, embedder embedding.Provider, priority int, logger *log.Logger) *Store {
	return &Store{
		searcher: searcher,
		embedder: embedder,
		priority: priority,
		logger:   logger,
	}
}

func (s *Store) Name() string  { return storeName }
func (s *Store) Priority() int { return s.priority }

func (s *Store) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), availabilityTimeout)
	defer cancel()
	return s.searcher.Ping(ctx) == nil
}

func (s *Store) Search(ctx context.Context, query, domain string, limit int) ([]store.KnowledgeItem, error) {
	entries, err := s.vectorSearch(ctx, query, domain, limit)
	if err != nil {
		s.logger.Printf("[CORPUS] vector search failed, falling back to keyword: %v", err)
		entries, err = s.searcher.SearchByKeyword(ctx, query, domain, limit)
		if err != nil {
			return nil, fmt.Errorf("corpus search: %w", err)
		}
	}

	items := make([]store.KnowledgeItem, len(entries))
	for i, e := range entries {
		items[i] = store.KnowledgeItem{
			ID:             e.ID,
			Title:          e.Title,
			Content:        e.Content,
			SourceStore:    storeName,
			URL:            e.SourceRef,
			RelevanceScore: e.Similarity,
		}
	}
	return items, nil
}

func (s *Store) vectorSearch(ctx context.Context, query, domain string, limit int) ([]Entry, error) {
	vector, err := s.embedder.Embed(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.searcher.SearchByVector(ctx, vector, domain, limit)
}
