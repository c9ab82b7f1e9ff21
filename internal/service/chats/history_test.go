package chats

import (
	"context"
	"sync"
	"testing"

	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
	"chatprojects/internal/domain/services"
)

// pausingMessageRepo holds its first ListByChat after the read, until released
type pausingMessageRepo struct {
	repositories.MessageRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newPausingMessageRepo(r repositories.MessageRepository) *pausingMessageRepo {
	return &pausingMessageRepo{
		MessageRepository: r,
		read:              make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (r *pausingMessageRepo) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	messages, err := r.MessageRepository.ListByChat(ctx, chatID)
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.read)
		<-r.release
	}
	return messages, err
}

func TestEditDuringHistoryReadIsNotServedStale(t *testing.T) {
	var repo *pausingMessageRepo
	f := newFixture(t, "sys", func(r repositories.MessageRepository) repositories.MessageRepository {
		repo = newPausingMessageRepo(r)
		return repo
	})
	ctx := context.Background()

	msg := &models.Message{ChatID: f.chatID, Role: models.RoleUser, Content: "old"}
	if err := f.store.Messages().Create(ctx, msg); err != nil {
		t.Fatalf("create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.messages.ListMessages(ctx, f.ownerID, f.chatID)
		done <- err
	}()

	<-repo.read
	content := "new"
	if _, err := f.messages.UpdateMessage(ctx, f.ownerID, msg.ID, &services.UpdateMessageRequest{Content: &content}); err != nil {
		t.Fatalf("UpdateMessage: %v", err)
	}
	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("ListMessages: %v", err)
	}

	listed, err := f.messages.ListMessages(ctx, f.ownerID, f.chatID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(listed) != 1 || listed[0].Content != "new" {
		t.Errorf("listed = %+v, want content %q", listed, "new")
	}

	chat, err := f.chats.GetChat(ctx, f.ownerID, f.chatID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if len(chat.Messages) != 1 || chat.Messages[0].Content != "new" {
		t.Errorf("chat messages = %+v, want content %q", chat.Messages, "new")
	}
}

func TestPostDuringHistoryReadKeepsNextPromptComplete(t *testing.T) {
	var repo *pausingMessageRepo
	f := newFixture(t, "sys", func(r repositories.MessageRepository) repositories.MessageRepository {
		repo = newPausingMessageRepo(r)
		return repo
	})
	ctx := context.Background()

	seed := &models.Message{ChatID: f.chatID, Role: models.RoleUser, Content: "seed"}
	if err := f.store.Messages().Create(ctx, seed); err != nil {
		t.Fatalf("create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.chats.GetChat(ctx, f.ownerID, f.chatID)
		done <- err
	}()

	<-repo.read
	if _, err := f.post(ctx, "first"); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("GetChat: %v", err)
	}

	if _, err := f.post(ctx, "second"); err != nil {
		t.Fatalf("second PostMessage: %v", err)
	}
	history := f.orch.convs[1].Messages
	if len(history) != 3 || history[1].Content != "first" || history[2].Content != "pong" {
		t.Errorf("history for second prompt = %+v", history)
	}
}

func TestWritesDropCachedHistory(t *testing.T) {
	tests := []struct {
		name  string
		write func(t *testing.T, f *fixture, msg *models.Message)
	}{
		{
			name: "post message",
			write: func(t *testing.T, f *fixture, _ *models.Message) {
				if _, err := f.post(context.Background(), "hi"); err != nil {
					t.Fatalf("PostMessage: %v", err)
				}
			},
		},
		{
			name: "edit message",
			write: func(t *testing.T, f *fixture, msg *models.Message) {
				role := models.RoleAssistant
				req := &services.UpdateMessageRequest{Role: &role}
				if _, err := f.messages.UpdateMessage(context.Background(), f.ownerID, msg.ID, req); err != nil {
					t.Fatalf("UpdateMessage: %v", err)
				}
			},
		},
		{
			name: "delete message",
			write: func(t *testing.T, f *fixture, msg *models.Message) {
				if _, err := f.messages.DeleteMessage(context.Background(), f.ownerID, msg.ID); err != nil {
					t.Fatalf("DeleteMessage: %v", err)
				}
			},
		},
		{
			name: "delete chat",
			write: func(t *testing.T, f *fixture, _ *models.Message) {
				if _, err := f.chats.DeleteChat(context.Background(), f.ownerID, f.chatID); err != nil {
					t.Fatalf("DeleteChat: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "sys", nil)
			ctx := context.Background()

			msg := &models.Message{ChatID: f.chatID, Role: models.RoleUser, Content: "seed"}
			if err := f.store.Messages().Create(ctx, msg); err != nil {
				t.Fatalf("create: %v", err)
			}
			if _, err := f.messages.ListMessages(ctx, f.ownerID, f.chatID); err != nil {
				t.Fatalf("ListMessages: %v", err)
			}
			if !f.history.Cached(f.chatID) {
				t.Fatal("history was not cached by the read")
			}

			tt.write(t, f, msg)

			if f.history.Cached(f.chatID) {
				t.Errorf("history still cached after %s", tt.name)
			}
		})
	}
}
