package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HashStore persists the per trigger row hash map between polls.
type HashStore interface {
	Load(ctx context.Context, triggerID int64) (map[string]string, error)
	Save(ctx context.Context, triggerID int64, hashes map[string]string, ttl time.Duration) error
}

// RedisHashStore keeps each trigger's row hashes in a redis hash under
// hookloop:trigger:<id>:rowhash with a retention TTL so state for orphaned
// triggers expires on its own.
type RedisHashStore struct {
	client *redis.Client
	prefix string
}

func NewRedisHashStore(client *redis.Client, prefix string) *RedisHashStore {
	if prefix == "" {
		prefix = "hookloop"
	}
	return &RedisHashStore{client: client, prefix: prefix}
}

func (s *RedisHashStore) key(triggerID int64) string {
	return fmt.Sprintf("%s:trigger:%d:rowhash", s.prefix, triggerID)
}

func (s *RedisHashStore) Load(ctx context.Context, triggerID int64) (map[string]string, error) {
	hashes, err := s.client.HGetAll(ctx, s.key(triggerID)).Result()
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

func (s *RedisHashStore) Save(ctx context.Context, triggerID int64, hashes map[string]string, ttl time.Duration) error {
	key := s.key(triggerID)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(hashes) > 0 {
		fields := make(map[string]interface{}, len(hashes))
		for k, v := range hashes {
			fields[k] = v
		}
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
