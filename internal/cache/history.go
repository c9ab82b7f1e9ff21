// Package cache keeps chat histories close to the orchestrator so a message
// post does not re-read the whole chat from Postgres. Postgres stays the
// source of truth: every write path invalidates, and a miss falls through.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"chatprojects/internal/domain/models"
)

// UnknownGeneration is returned by Get when the generation could not be
// read. Set ignores it, so such a miss is never written back.
const UnknownGeneration int64 = -1

// HistoryCache stores ordered chat histories keyed by chat ID.
// Failures are logged and treated as misses; callers never see cache errors.
//
// Every Invalidate bumps a per-chat generation. A reader that misses passes
// the generation it saw to Set, and Set drops the write when the generation
// has moved since, so a history read before a write cannot land after it.
type HistoryCache interface {
	// Get returns the cached history and whether it was present, along with
	// the chat's current generation
	Get(ctx context.Context, chatID string) ([]models.Message, int64, bool)
	// Set stores a history read at generation gen, unless the chat was
	// invalidated in the meantime
	Set(ctx context.Context, chatID string, gen int64, messages []models.Message)
	// Invalidate drops the cached histories of the given chats and bumps their generations
	Invalidate(ctx context.Context, chatIDs ...string)
}

// NoopHistoryCache is used when no Redis is configured
type NoopHistoryCache struct{}

func (NoopHistoryCache) Get(context.Context, string) ([]models.Message, int64, bool) {
	return nil, UnknownGeneration, false
}

func (NoopHistoryCache) Set(context.Context, string, int64, []models.Message) {}

func (NoopHistoryCache) Invalidate(context.Context, ...string) {}

// RedisHistoryCache stores each history as a Redis list of JSON messages
type RedisHistoryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisHistoryCache wraps a connected client
func NewRedisHistoryCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisHistoryCache {
	return &RedisHistoryCache{client: client, ttl: ttl, logger: logger}
}

// New returns a Redis-backed cache when redisURL is set and reachable,
// otherwise a no-op cache. The returned close func is always safe to call.
func New(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (HistoryCache, func() error) {
	if redisURL == "" {
		logger.Info("history cache disabled", "reason", "REDIS_URL not set")
		return NoopHistoryCache{}, func() error { return nil }
	}

	client, err := Connect(ctx, redisURL)
	if err != nil {
		logger.Warn("history cache disabled, continuing without Redis", "error", err)
		return NoopHistoryCache{}, func() error { return nil }
	}

	logger.Info("history cache enabled", "addr", client.Options().Addr, "ttl", ttl)
	return NewRedisHistoryCache(client, ttl, logger), client.Close
}

// Connect parses a redis:// URL and pings the server
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

var errGenerationMoved = errors.New("history generation moved")

func historyKey(chatID string) string {
	return fmt.Sprintf("chat:%s:messages", chatID)
}

func generationKey(chatID string) string {
	return fmt.Sprintf("chat:%s:generation", chatID)
}

// readGeneration treats a missing counter as generation 0
func readGeneration(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get reads the generation and the list in one transaction.
// An empty or missing list is a miss.
func (c *RedisHistoryCache) Get(ctx context.Context, chatID string) ([]models.Message, int64, bool) {
	var genCmd *redis.StringCmd
	var listCmd *redis.StringSliceCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		genCmd = pipe.Get(ctx, generationKey(chatID))
		listCmd = pipe.LRange(ctx, historyKey(chatID), 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("history cache read failed", "chat_id", chatID, "error", err)
		return nil, UnknownGeneration, false
	}

	gen, err := readGeneration(genCmd)
	if err != nil {
		c.logger.Warn("history cache generation unreadable", "chat_id", chatID, "error", err)
		return nil, UnknownGeneration, false
	}

	raw := listCmd.Val()
	if len(raw) == 0 {
		return nil, gen, false
	}

	messages, err := decodeMessages(raw)
	if err != nil {
		c.logger.Warn("history cache entry corrupt, dropping", "chat_id", chatID, "error", err)
		c.Invalidate(ctx, chatID)
		return nil, UnknownGeneration, false
	}
	return messages, gen, true
}

// Set rewrites the list under WATCH on the generation counter. The write is
// skipped when the counter no longer equals gen or changes before EXEC.
func (c *RedisHistoryCache) Set(ctx context.Context, chatID string, gen int64, messages []models.Message) {
	if gen == UnknownGeneration || len(messages) == 0 {
		return
	}

	values, err := encodeMessages(messages)
	if err != nil {
		c.logger.Warn("history cache encode failed", "chat_id", chatID, "error", err)
		return
	}

	key, genKey := historyKey(chatID), generationKey(chatID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != gen {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errGenerationMoved), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("history cache write skipped, chat changed", "chat_id", chatID, "gen", gen)
	default:
		c.logger.Warn("history cache write failed", "chat_id", chatID, "error", err)
	}
}

// Invalidate bumps the generation and deletes the list of each chat.
// Generation counters outlive the lists they guard.
func (c *RedisHistoryCache) Invalidate(ctx context.Context, chatIDs ...string) {
	if len(chatIDs) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range chatIDs {
			pipe.Incr(ctx, generationKey(id))
			if c.ttl > 0 {
				pipe.Expire(ctx, generationKey(id), 2*c.ttl)
			}
			pipe.Del(ctx, historyKey(id))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("history cache invalidate failed", "chats", len(chatIDs), "error", err)
	}
}

func encodeMessages(messages []models.Message) ([]interface{}, error) {
	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		values = append(values, b)
	}
	return values, nil
}

func decodeMessages(raw []string) ([]models.Message, error) {
	messages := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		var m models.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
