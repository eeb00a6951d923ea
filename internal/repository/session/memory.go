package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// MemoryStore keeps sessions in process memory with a TTL. Sessions expire
// on inactivity; an expired id behaves exactly like an unknown one.
type MemoryStore struct {
	cache *gocache.Cache
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, 10*time.Minute),
		now:   time.Now,
	}
}

func (m *MemoryStore) GetOrCreate(ctx context.Context, sessionID, question string, resetRequested bool) (*store.Session, bool, *store.SpecialistOutput, error) {
	return getOrCreate(ctx, m, sessionID, question, resetRequested, m.now())
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	x, found := m.cache.Get(sessionID)
	if !found {
		return nil, nil
	}
	// Return a copy so callers never mutate the cached value before Save.
	return cloneSession(x.(*store.Session)), nil
}

func (m *MemoryStore) Save(ctx context.Context, sess *store.Session) error {
	m.cache.Set(sess.ID, cloneSession(sess), gocache.DefaultExpiration)
	return nil
}

// cloneSession deep-copies a session, including the nested Classification and
// SpecialistOutput snapshots. A shallow copy would let a caller's later edits
// alias the cached value through the shared pointers and slices.
func cloneSession(sess *store.Session) *store.Session {
	copied := *sess
	if sess.Classification != nil {
		c := *sess.Classification
		c.RelevantLaws = append([]string(nil), sess.Classification.RelevantLaws...)
		c.DirectQuestions = append([]string(nil), sess.Classification.DirectQuestions...)
		c.SuggestedQuestions = append([]string(nil), sess.Classification.SuggestedQuestions...)
		copied.Classification = &c
	}
	if sess.SpecialistOutput != nil {
		o := *sess.SpecialistOutput
		o.ActionSteps = append([]string(nil), sess.SpecialistOutput.ActionSteps...)
		o.RelevantLaws = append([]string(nil), sess.SpecialistOutput.RelevantLaws...)
		o.RagSources = append([]string(nil), sess.SpecialistOutput.RagSources...)
		copied.SpecialistOutput = &o
	}
	return &copied
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.cache.Delete(sessionID)
	return nil
}
