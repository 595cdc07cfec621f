package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/koconnect/koconnect/internal/config"
	"github.com/koconnect/koconnect/internal/domain"
)

// KeyPrefix namespaces snapshot keys.
const KeyPrefix = "koconnect:history:"

// NewRedisClient creates a client from cfg.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// RedisSnapshotter stores each session as a Redis list of JSON records,
// newest first, with a TTL refreshed on every push.
type RedisSnapshotter struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSnapshotter creates a snapshotter. A zero ttl keeps keys forever.
func NewRedisSnapshotter(client redis.Cmdable, ttl time.Duration) *RedisSnapshotter {
	return &RedisSnapshotter{client: client, ttl: ttl}
}

func key(id string) string {
	return KeyPrefix + id
}

func (s *RedisSnapshotter) entries(ctx context.Context, id string) ([]string, error) {
	vals, err := s.client.LRange(ctx, key(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", key(id), err)
	}
	return vals, nil
}

// Load implements Snapshotter. An empty or missing list is not found.
func (s *RedisSnapshotter) Load(ctx context.Context, id string) ([]domain.HistoryRecord, bool, error) {
	vals, err := s.entries(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if len(vals) == 0 {
		return nil, false, nil
	}

	records := make([]domain.HistoryRecord, 0, len(vals))
	for _, v := range vals {
		var rec domain.HistoryRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, false, fmt.Errorf("decode session %s: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, true, nil
}

// Push implements Snapshotter.
func (s *RedisSnapshotter) Push(ctx context.Context, id string, record domain.HistoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key(id), data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key(id), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis lpush %s: %w", key(id), err)
	}
	return nil
}

// Remove implements Snapshotter. Removing an unknown record is a no-op.
func (s *RedisSnapshotter) Remove(ctx context.Context, id, recordID string) error {
	vals, err := s.entries(ctx, id)
	if err != nil {
		return err
	}
	for _, v := range vals {
		var head struct {
			ID string `json:"id"`
		}
		if json.Unmarshal([]byte(v), &head) != nil || head.ID != recordID {
			continue
		}
		if err := s.client.LRem(ctx, key(id), 1, v).Err(); err != nil {
			return fmt.Errorf("redis lrem %s: %w", key(id), err)
		}
		return nil
	}
	return nil
}

// Delete implements Snapshotter.
func (s *RedisSnapshotter) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key(id), err)
	}
	return nil
}
