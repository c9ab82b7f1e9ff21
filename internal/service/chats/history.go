package chats

import (
	"context"

	"chatprojects/internal/cache"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
)

// historyLoader reads chat histories through the cache
type historyLoader struct {
	messageRepo repositories.MessageRepository
	cache       cache.HistoryCache
}

// Load returns the ordered history of a chat. On a miss the repository read
// is written back at the generation seen before it; an Invalidate in between
// discards that write.
func (l *historyLoader) Load(ctx context.Context, chatID string) ([]models.Message, error) {
	messages, gen, ok := l.cache.Get(ctx, chatID)
	if ok {
		return messages, nil
	}

	messages, err := l.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	l.cache.Set(ctx, chatID, gen, messages)
	return messages, nil
}
