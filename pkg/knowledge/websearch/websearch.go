// Package websearch exposes a hosted web search API as a knowledge store.
// It is a secondary source for recent regulations and commentary that have
// not yet been ingested into the corpus.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

const storeName = "web_search"

type Store struct {
	apiKey   string
	baseURL  string
	priority int
	client   *http.Client
}

var _ knowledge.Store = (*Store)(nil)

func NewStore(apiKey, baseURL string, priority int) *Store {
	return &Store{
		apiKey:   apiKey,
		baseURL:  baseURL,
		priority: priority,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Store) Name() string  { return storeName }
func (s *Store) Priority() int { return s.priority }

// IsAvailable only checks configuration. Network health is handled by the
// aggregator's failure isolation, a probe request per search round would
// double the API bill for no benefit.
func (s *Store) IsAvailable() bool {
	return s.apiKey != "" && s.baseURL != ""
}

type searchRequest struct {
	Query string `json:"q"`
	Count int    `json:"count"`
	// Restrict to legal verticals. The upstream API treats unknown
	// freshness values as "any".
	Freshness string `json:"freshness,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		Snippet string  `json:"snippet"`
		URL     string  `json:"url"`
		Score   float64 `json:"score"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

func (s *Store) Search(ctx context.Context, query, domain string, limit int) ([]store.KnowledgeItem, error) {
	q := query
	if domain != "" {
		q = fmt.Sprintf("%s %s", query, domainHint(domain))
	}

	reqBody, err := json.Marshal(searchRequest{Query: q, Count: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/search", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search error: status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("web search api error: %s", parsed.Error)
	}

	items := make([]store.KnowledgeItem, 0, len(parsed.Results))
	for i, r := range parsed.Results {
		if i >= limit {
			break
		}
		items = append(items, store.KnowledgeItem{
			ID:             fmt.Sprintf("%s:%s", storeName, r.URL),
			Title:          r.Title,
			Content:        r.Snippet,
			SourceStore:    storeName,
			URL:            r.URL,
			RelevanceScore: r.Score,
		})
	}
	return items, nil
}

// domainHint appends a Chinese search qualifier so generic engines stay on
// the legal topic.
func domainHint(domain string) string {
	switch domain {
	case "contract_law":
		return "合同法 法律规定"
	case "labor_law":
		return "劳动法 法律规定"
	case "corporate_law":
		return "公司法 法律规定"
	default:
		return "法律规定"
	}
}
