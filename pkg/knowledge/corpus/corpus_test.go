package corpus

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
)

type fakeSearcher struct {
	vectorEntries  []Entry
	vectorErr      error
	keywordEntries []Entry
	keywordErr     error
	keywordCalled  bool
}

func (f *fakeSearcher) SearchByVector(ctx context.Context, vector []float32, domain string, limit int) ([]Entry, error) {
	return f.vectorEntries, f.vectorErr
}

func (f *fakeSearcher) SearchByKeyword(ctx context.Context, query, domain string, limit int) ([]Entry, error) {
	f.keywordCalled = true
	return f.keywordEntries, f.keywordErr
}

func (f *fakeSearcher) Ping(ctx context.Context) error { return nil }

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func newTestStore(s *fakeSearcher, e *fakeEmbedder) *Store {
	return NewStore(s, e, 10, log.New(io.Discard, "", 0))
}

func TestSearchUsesVectorPath(t *testing.T) {
	searcher := &fakeSearcher{
		vectorEntries: []Entry{{ID: "law-1", Title: "民法典第五百条", Content: "缔约过失责任", Similarity: 0.93}},
	}
	s := newTestStore(searcher, &fakeEmbedder{})

	items, err := s.Search(context.Background(), "缔约过失", "contract_law", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 || items[0].ID != "law-1" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].SourceStore != "legal_corpus" {
		t.Errorf("SourceStore = %q", items[0].SourceStore)
	}
	if items[0].RelevanceScore != 0.93 {
		t.Errorf("RelevanceScore = %f", items[0].RelevanceScore)
	}
	if searcher.keywordCalled {
		t.Error("keyword fallback must not run when vector search succeeds")
	}
}

func TestSearchFallsBackToKeywordOnEmbedderFailure(t *testing.T) {
	searcher := &fakeSearcher{
		keywordEntries: []Entry{{ID: "law-2", Title: "劳动合同法第十条"}},
	}
	s := newTestStore(searcher, &fakeEmbedder{err: errors.New("embedding backend down")})

	items, err := s.Search(context.Background(), "书面劳动合同", "labor_law", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !searcher.keywordCalled {
		t.Fatal("keyword fallback was not used")
	}
	if len(items) != 1 || items[0].ID != "law-2" {
		t.Fatalf("items = %+v", items)
	}
}

func TestSearchFallsBackToKeywordOnVectorFailure(t *testing.T) {
	searcher := &fakeSearcher{
		vectorErr:      errors.New("pgvector index rebuild"),
		keywordEntries: []Entry{{ID: "law-3"}},
	}
	s := newTestStore(searcher, &fakeEmbedder{})

	items, err := s.Search(context.Background(), "股东出资", "corporate_law", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 || items[0].ID != "law-3" {
		t.Fatalf("items = %+v", items)
	}
}

func TestSearchErrorWhenBothPathsFail(t *testing.T) {
	searcher := &fakeSearcher{
		vectorErr:  errors.New("down"),
		keywordErr: errors.New("also down"),
	}
	s := newTestStore(searcher, &fakeEmbedder{})

	if _, err := s.Search(context.Background(), "无效合同", "", 5); err == nil {
		t.Fatal("expected error when both search paths fail")
	}
}
