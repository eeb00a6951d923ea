package retrieval

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/cache"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

type fakeStore struct {
	name      string
	priority  int
	available bool
	items     []store.KnowledgeItem
	err       error
	delay     time.Duration
	calls     int
}

func (f *fakeStore) Name() string      { return f.name }
func (f *fakeStore) Priority() int     { return f.priority }
func (f *fakeStore) IsAvailable() bool { return f.available }

func (f *fakeStore) Search(ctx context.Context, query, domain string, limit int) ([]store.KnowledgeItem, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

type fakeReranker struct {
	err    error
	called bool
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, items []store.KnowledgeItem, limit int) ([]store.KnowledgeItem, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	// Reverse order to make reranking observable.
	out := make([]store.KnowledgeItem, 0, limit)
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, items[i])
	}
	return out, nil
}

// fixtureTopics are genuinely distinct subjects so synthetic items clear the
// dedup near-duplicate band instead of collapsing into one another.
var fixtureTopics = []struct{ title, content string }{
	{"employment severance", "statutory compensation owed after a wrongful dismissal"},
	{"lease renewal", "tenant options when a fixed rental term expires"},
	{"equity transfer", "shareholder approval rules for selling company stock"},
	{"patent licensing", "royalty arrangements covering third-party inventions"},
	{"consumer refunds", "remedies available for defective goods purchases"},
	{"marital property", "division of assets acquired during the marriage"},
	{"traffic liability", "fault allocation following a vehicle collision"},
	{"debt collection", "limitation periods for recovering unpaid loans"},
}

func items(prefix string, n int) []store.KnowledgeItem {
	out := make([]store.KnowledgeItem, n)
	for i := range out {
		topic := fixtureTopics[i%len(fixtureTopics)]
		out[i] = store.KnowledgeItem{
			ID:      fmt.Sprintf("%s-%d", prefix, i),
			Title:   fmt.Sprintf("%s %s", prefix, topic.title),
			Content: fmt.Sprintf("%s: %s", prefix, topic.content),
		}
	}
	return out
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSearchRespectsLimit(t *testing.T) {
	a := NewAggregator(
		[]knowledge.Store{
			&fakeStore{name: "corpus", priority: 2, available: true, items: items("corpus", 8)},
			&fakeStore{name: "web", priority: 1, available: true, items: items("web", 8)},
		},
		&fakeReranker{},
		cache.NewMemoryCache(time.Hour),
		discardLogger(),
	)

	got, err := a.Search(context.Background(), "劳动合同解除赔偿", "labor_law", 5, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 5)
	assert.NotEmpty(t, got)
}

func TestSearchIsolatesSlowStore(t *testing.T) {
	fast := &fakeStore{name: "corpus", priority: 2, available: true, items: items("corpus", 3)}
	slow := &fakeStore{name: "web", priority: 1, available: true, items: items("web", 3), delay: time.Minute}

	a := NewAggregator([]knowledge.Store{fast, slow}, &fakeReranker{}, nil, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	got, err := a.Search(ctx, "合同违约", "contract_law", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, item := range got {
		assert.Equal(t, "corpus", item.SourceStore, "slow store items must be excluded")
	}
}

func TestSearchIsolatesFailingStore(t *testing.T) {
	ok := &fakeStore{name: "corpus", priority: 2, available: true, items: items("corpus", 2)}
	bad := &fakeStore{name: "web", priority: 1, available: true, err: fmt.Errorf("upstream 500")}

	a := NewAggregator([]knowledge.Store{ok, bad}, &fakeReranker{}, nil, discardLogger())

	got, err := a.Search(context.Background(), "股东权利", "corporate_law", 10, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchSkipsUnavailableStores(t *testing.T) {
	down := &fakeStore{name: "corpus", priority: 2, available: false, items: items("corpus", 2)}
	up := &fakeStore{name: "web", priority: 1, available: true, items: items("web", 2)}

	a := NewAggregator([]knowledge.Store{down, up}, &fakeReranker{}, nil, discardLogger())

	got, err := a.Search(context.Background(), "query", "misc", 10, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Zero(t, down.calls)
}

func TestSearchAllStoresDisabledIsError(t *testing.T) {
	down := &fakeStore{name: "corpus", priority: 1, available: false}
	a := NewAggregator([]knowledge.Store{down}, &fakeReranker{}, nil, discardLogger())

	_, err := a.Search(context.Background(), "query", "misc", 10, nil)
	assert.Error(t, err, "total failure must not be converted into silent success")
}

func TestSearchRerankFallbackPreservesOrder(t *testing.T) {
	s := &fakeStore{name: "corpus", priority: 1, available: true, items: items("corpus", 8)}
	a := NewAggregator([]knowledge.Store{s}, &fakeReranker{err: fmt.Errorf("scorer down")}, nil, discardLogger())

	got, err := a.Search(context.Background(), "query", "misc", 3, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "corpus-0", got[0].ID)
	assert.Equal(t, "corpus-1", got[1].ID)
	assert.Equal(t, "corpus-2", got[2].ID)
}

func TestSearchUsesRerankerWhenOverLimit(t *testing.T) {
	s := &fakeStore{name: "corpus", priority: 1, available: true, items: items("corpus", 8)}
	rr := &fakeReranker{}
	a := NewAggregator([]knowledge.Store{s}, rr, nil, discardLogger())

	got, err := a.Search(context.Background(), "query", "misc", 3, nil)
	require.NoError(t, err)
	assert.True(t, rr.called)
	assert.Len(t, got, 3)
}

func TestSearchCacheHitSkipsStores(t *testing.T) {
	s := &fakeStore{name: "corpus", priority: 1, available: true, items: items("corpus", 2)}
	a := NewAggregator([]knowledge.Store{s}, &fakeReranker{}, cache.NewMemoryCache(time.Hour), discardLogger())

	first, err := a.Search(context.Background(), "cached question", "misc", 5, nil)
	require.NoError(t, err)
	callsAfterFirst := s.calls

	second, err := a.Search(context.Background(), "cached question", "misc", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, s.calls, "cache hit must skip store fan-out")
	assert.Equal(t, len(first), len(second))
}

func TestSearchEnabledStoreFilter(t *testing.T) {
	corpus := &fakeStore{name: "corpus", priority: 2, available: true, items: items("corpus", 2)}
	web := &fakeStore{name: "web", priority: 1, available: true, items: items("web", 2)}
	a := NewAggregator([]knowledge.Store{corpus, web}, &fakeReranker{}, nil, discardLogger())

	got, err := a.Search(context.Background(), "query", "misc", 10, []string{"web"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, item := range got {
		assert.Equal(t, "web", item.SourceStore)
	}
	assert.Zero(t, corpus.calls)
}
