// Package userdocs serves documents the client uploaded for their own case
// (contracts, notices, evidence summaries). Items carry the user's
// annotations so downstream deduplication can prefer them over curated
// material that says the same thing.
package userdocs

import (
	"context"
	"fmt"
	"time"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

const storeName = "user_documents"

// Document is one uploaded document as returned by the searcher.
type Document struct {
	ID          string
	Title       string
	Excerpt     string
	Annotations string
	Score       float64
}

type Searcher interface {
	SearchDocuments(ctx context.Context, query string, limit int) ([]Document, error)
	Ping(ctx context.Context) error
}

type Store struct {
	searcher Searcher
	priority int
}

var _ knowledge.Store = (*Store)(nil)

func NewStore(searcher Searcher, priority int) *Store {
	return &Store{searcher: searcher, priority: priority}
}

func (s *Store) Name() string  { return storeName }
func (s *Store) Priority() int { return s.priority }

func (s *Store) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.searcher.Ping(ctx) == nil
}

func (s *Store) Search(ctx context.Context, query, domain string, limit int) ([]store.KnowledgeItem, error) {
	// Domain filtering does not apply, the user's own documents are always
	// in scope for their consultation.
	_ = domain

	docs, err := s.searcher.SearchDocuments(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("user documents search: %w", err)
	}

	items := make([]store.KnowledgeItem, len(docs))
	for i, d := range docs {
		item := store.KnowledgeItem{
			ID:             d.ID,
			Title:          d.Title,
			Content:        d.Excerpt,
			SourceStore:    storeName,
			RelevanceScore: d.Score,
		}
		if d.Annotations != "" {
			item.Metadata = map[string]interface{}{
				"annotations": d.Annotations,
			}
		}
		items[i] = item
	}
	return items, nil
}
