package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/mapper"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

const redisKeyPrefix = "consult:session:"

// RedisStore persists sessions as flat Redis hashes so any node in the
// deployment can serve a poll for any session.
type RedisStore struct {
	client *redis.Client
	mapper *mapper.SessionMapper
	ttl    time.Duration
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		mapper: mapper.NewSessionMapper(),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *RedisStore) key(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (r *RedisStore) GetOrCreate(ctx context.Context, sessionID, question string, resetRequested bool) (*store.Session, bool, *store.SpecialistOutput, error) {
	return getOrCreate(ctx, r, sessionID, question, resetRequested, r.now())
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	flat, err := r.client.HGetAll(ctx, r.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis session get: %w", err)
	}
	if len(flat) == 0 {
		return nil, nil
	}
	return r.mapper.FromFlatMap(flat)
}

func (r *RedisStore) Save(ctx context.Context, sess *store.Session) error {
	flat, err := r.mapper.ToFlatMap(sess)
	if err != nil {
		return err
	}

	key := r.key(sess.ID)
	pipe := r.client.TxPipeline()
	// Delete first so cleared optional fields do not survive from a
	// previous write of the same hash.
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, flat)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis session save: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis session delete: %w", err)
	}
	return nil
}
