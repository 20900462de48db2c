package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/observability"
)

// EventStore is the append-only record of rate events. Writes are durable
// before Record returns; removal of stale events is the store's own concern
// and only has to guarantee they stop being counted.
type EventStore interface {
	Record(ctx context.Context, event domain.RateEvent, retention time.Duration) error
	CountSince(ctx context.Context, clientKey string, cutoff time.Time) (int64, error)
}

type RedisEventStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisEventStore(client redis.UniversalClient, prefix string) *RedisEventStore {
	if prefix == "" {
		prefix = "ratelimit:events"
	}
	return &RedisEventStore{client: client, prefix: prefix}
}

// Record appends the event to the client's sorted set and trims entries older
// than the retention horizon. The key itself expires after retention so idle
// clients cost nothing.
func (s *RedisEventStore) Record(ctx context.Context, event domain.RateEvent, retention time.Duration) error {
	key := s.key(event.ClientKey)
	horizon := event.Timestamp.Add(-retention).UnixNano()
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(event.Timestamp.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(horizon, 10))
	pipe.Expire(ctx, key, retention)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RecordRepositoryOperation(ctx, "rate_event", "record", "error")
		return fmt.Errorf("record rate event: %w", err)
	}
	observability.RecordRepositoryOperation(ctx, "rate_event", "record", "success")
	return nil
}

// CountSince counts events with timestamp strictly after cutoff.
func (s *RedisEventStore) CountSince(ctx context.Context, clientKey string, cutoff time.Time) (int64, error) {
	n, err := s.client.ZCount(ctx, s.key(clientKey), "("+strconv.FormatInt(cutoff.UnixNano(), 10), "+inf").Result()
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "rate_event", "count_since", "error")
		return 0, fmt.Errorf("count rate events: %w", err)
	}
	observability.RecordRepositoryOperation(ctx, "rate_event", "count_since", "success")
	return n, nil
}

func (s *RedisEventStore) key(clientKey string) string {
	return s.prefix + ":" + clientKey
}
