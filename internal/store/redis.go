package store

import (
	"context"
	"encoding/json"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
)

// logKey holds the message log for the single implicit room.
const logKey = "room:messages"

// RedisStore keeps the message log in a Redis sorted set scored by the
// message timestamp in unix milliseconds. Entries at the same score
// sort by member bytes, and ULIDs are lexically time-ordered, so the
// append order is stable. Implements MessageStore.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at redisURL.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying connection for collaborators that
// share it (the rate limiter).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// AppendMessage stores a message in the log, assigning a ULID if unset.
func (s *RedisStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.client.ZAdd(ctx, logKey, redis.Z{
		Score:  float64(msg.Time.UnixMilli()),
		Member: string(data),
	}).Err()
}

// ScanMessages returns the full log, oldest first.
func (s *RedisStore) ScanMessages(ctx context.Context) ([]models.Message, error) {
	results, err := s.client.ZRange(ctx, logKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(results))
	for _, data := range results {
		var m models.Message
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// CountMessages returns the total number of stored messages.
func (s *RedisStore) CountMessages(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, logKey).Result()
}
