package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// Reranker runs a second, more precise relevance pass over a small candidate
// set. A failing reranker is never fatal; the aggregator falls back to simple
// truncation.
type Reranker interface {
	Rerank(ctx context.Context, query string, items []store.KnowledgeItem, limit int) ([]store.KnowledgeItem, error)
}

// LLMReranker scores candidates with the completion model.
type LLMReranker struct {
	provider llm.Provider
	logger   *log.Logger
}

func NewLLMReranker(provider llm.Provider, logger *log.Logger) *LLMReranker {
	return &LLMReranker{provider: provider, logger: logger}
}

const rerankPromptTemplate = `You are a legal relevance scorer. Score each numbered reference for how useful it is to answer the question. Respond ONLY with a JSON array of scores between 0 and 1, one per reference, in order.

Question: %s

References:
%s`

func (r *LLMReranker) Rerank(ctx context.Context, query string, items []store.KnowledgeItem, limit int) ([]store.KnowledgeItem, error) {
	if len(items) <= limit {
		return items, nil
	}

	var refs strings.Builder
	for i, item := range items {
		fmt.Fprintf(&refs, "%d. %s: %s\n", i+1, item.Title, truncate(item.Content, 300))
	}

	raw, err := r.provider.Generate(ctx, fmt.Sprintf(rerankPromptTemplate, query, refs.String()))
	if err != nil {
		return nil, fmt.Errorf("rerank generation failed: %w", err)
	}

	scores, err := parseScores(raw, len(items))
	if err != nil {
		return nil, fmt.Errorf("rerank score parse failed: %w", err)
	}

	ranked := make([]store.KnowledgeItem, len(items))
	copy(ranked, items)
	for i := range ranked {
		ranked[i].RelevanceScore = scores[i]
	}

	// Stable sort keeps the original order for equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	if r.logger != nil {
		r.logger.Printf("[RERANK] Kept %d of %d candidates", limit, len(items))
	}
	return ranked[:limit], nil
}

// parseScores extracts the JSON score array from the model output, tolerating
// surrounding prose.
func parseScores(raw string, want int) ([]float64, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in rerank output")
	}

	var scores []float64
	if err := json.Unmarshal([]byte(raw[start:end+1]), &scores); err != nil {
		return nil, err
	}
	if len(scores) != want {
		return nil, fmt.Errorf("got %d scores, want %d", len(scores), want)
	}
	return scores, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
