package cache

import (
	"context"
	"sync"

	"chatprojects/internal/domain/models"
)

// MemoryHistoryCache is an in-process HistoryCache with the same generation
// rules as RedisHistoryCache. It suits a single process and tests.
type MemoryHistoryCache struct {
	mu          sync.Mutex
	entries     map[string][]models.Message
	generations map[string]int64
}

// NewMemoryHistoryCache creates an empty cache
func NewMemoryHistoryCache() *MemoryHistoryCache {
	return &MemoryHistoryCache{
		entries:     make(map[string][]models.Message),
		generations: make(map[string]int64),
	}
}

func (c *MemoryHistoryCache) Get(_ context.Context, chatID string) ([]models.Message, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.generations[chatID]
	messages, ok := c.entries[chatID]
	if !ok {
		return nil, gen, false
	}
	return append([]models.Message(nil), messages...), gen, true
}

func (c *MemoryHistoryCache) Set(_ context.Context, chatID string, gen int64, messages []models.Message) {
	if gen == UnknownGeneration || len(messages) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[chatID] != gen {
		return
	}
	c.entries[chatID] = append([]models.Message(nil), messages...)
}

func (c *MemoryHistoryCache) Invalidate(_ context.Context, chatIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range chatIDs {
		c.generations[id]++
		delete(c.entries, id)
	}
}

// Cached reports whether a history is stored for chatID
func (c *MemoryHistoryCache) Cached(chatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[chatID]
	return ok
}
