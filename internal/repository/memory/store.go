// Package memory is an in-process implementation of the repository
// interfaces. It mirrors the Postgres behavior that callers depend on:
// case-insensitive unique email, foreign keys, cascade delete and per-chat
// message sequences. Used by tests and the seed tool's dry run.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
)

// Store holds every entity behind one lock
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]models.User
	projects map[string]models.Project
	chats    map[string]models.Chat
	messages map[string]models.Message
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[string]models.User),
		projects: make(map[string]models.Project),
		chats:    make(map[string]models.Chat),
		messages: make(map[string]models.Message),
	}
}

// Users returns a UserRepository backed by the store
func (s *Store) Users() repositories.UserRepository { return &userRepo{s} }

// Projects returns a ProjectRepository backed by the store
func (s *Store) Projects() repositories.ProjectRepository { return &projectRepo{s} }

// Chats returns a ChatRepository backed by the store
func (s *Store) Chats() repositories.ChatRepository { return &chatRepo{s} }

// Messages returns a MessageRepository backed by the store
func (s *Store) Messages() repositories.MessageRepository { return &messageRepo{s} }

// ExecTx runs fn under no isolation; the store has no rollback.
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func paginate[T any](items []T, page models.Page) []T {
	if page.Skip >= len(items) {
		return []T{}
	}
	items = items[page.Skip:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.findEmail(user.Email, ""); ok {
		return &domain.ConflictError{
			Message:      "The user with this email already exists in the system.",
			ResourceType: "user",
			ResourceID:   existing.ID,
		}
	}

	now := r.s.now()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.findEmail(email, "")
	if !ok {
		return nil, fmt.Errorf("user with email: %w", domain.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	if existing, ok := r.s.findEmail(user.Email, user.ID); ok {
		return &domain.ConflictError{
			Message:      "The user with this email already exists in the system.",
			ResourceType: "user",
			ResourceID:   existing.ID,
		}
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

// findEmail must be called with the lock held
func (s *Store) findEmail(email, exceptID string) (models.User, bool) {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(_ context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[project.OwnerID]; !ok {
		return fmt.Errorf("owner %s: %w", project.OwnerID, domain.ErrNotFound)
	}
	now := r.s.now()
	project.ID = uuid.NewString()
	project.CreatedAt, project.UpdatedAt = now, now
	r.s.projects[project.ID] = *project
	return nil
}

func (r *projectRepo) GetByID(_ context.Context, id string) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	project, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return &project, nil
}

func (r *projectRepo) ListByOwner(_ context.Context, ownerID string, page models.Page) ([]models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := []models.Project{}
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return paginate(projects, page), nil
}

func (r *projectRepo) Update(_ context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[project.ID]; !ok {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}
	project.UpdatedAt = r.s.now()
	r.s.projects[project.ID] = *project
	return nil
}

func (r *projectRepo) Delete(_ context.Context, id string) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	project, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.projects, id)
	for chatID, c := range r.s.chats {
		if c.ProjectID == id {
			r.s.deleteChatLocked(chatID)
		}
	}
	return &project, nil
}

type chatRepo struct{ s *Store }

func (r *chatRepo) Create(_ context.Context, chat *models.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[chat.ProjectID]; !ok {
		return fmt.Errorf("project %s: %w", chat.ProjectID, domain.ErrNotFound)
	}
	now := r.s.now()
	chat.ID = uuid.NewString()
	chat.CreatedAt, chat.UpdatedAt = now, now
	r.s.chats[chat.ID] = *chat
	return nil
}

func (r *chatRepo) GetByID(_ context.Context, id string) (*models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	chat, ok := r.s.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	return &chat, nil
}

func (r *chatRepo) ListByProject(_ context.Context, projectID string, page models.Page) ([]models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return paginate(r.s.filterChats(func(c models.Chat) bool { return c.ProjectID == projectID }), page), nil
}

func (r *chatRepo) ListByOwner(_ context.Context, ownerID string, page models.Page) ([]models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return paginate(r.s.filterChats(func(c models.Chat) bool {
		p, ok := r.s.projects[c.ProjectID]
		return ok && p.OwnerID == ownerID
	}), page), nil
}

func (r *chatRepo) ListIDsByProject(_ context.Context, projectID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := []string{}
	for _, c := range r.s.filterChats(func(c models.Chat) bool { return c.ProjectID == projectID }) {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *chatRepo) Update(_ context.Context, chat *models.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.chats[chat.ID]; !ok {
		return fmt.Errorf("chat %s: %w", chat.ID, domain.ErrNotFound)
	}
	chat.UpdatedAt = r.s.now()
	r.s.chats[chat.ID] = *chat
	return nil
}

func (r *chatRepo) Delete(_ context.Context, id string) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chat, ok := r.s.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	r.s.deleteChatLocked(id)
	return &chat, nil
}

// filterChats must be called with the lock held
func (s *Store) filterChats(keep func(models.Chat) bool) []models.Chat {
	chats := []models.Chat{}
	for _, c := range s.chats {
		if keep(c) {
			chats = append(chats, c)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		if chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].ID < chats[j].ID
		}
		return chats[i].CreatedAt.Before(chats[j].CreatedAt)
	})
	return chats
}

// deleteChatLocked removes a chat and its messages; caller holds the write lock
func (s *Store) deleteChatLocked(chatID string) {
	delete(s.chats, chatID)
	for id, m := range s.messages {
		if m.ChatID == chatID {
			delete(s.messages, id)
		}
	}
}

type messageRepo struct{ s *Store }

func (r *messageRepo) Create(_ context.Context, message *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.chats[message.ChatID]; !ok {
		return fmt.Errorf("chat %s: %w", message.ChatID, domain.ErrNotFound)
	}

	var next int64 = 1
	for _, m := range r.s.messages {
		if m.ChatID == message.ChatID && m.Sequence >= next {
			next = m.Sequence + 1
		}
	}

	now := r.s.now()
	message.ID = uuid.NewString()
	message.Sequence = next
	message.CreatedAt, message.UpdatedAt = now, now
	r.s.messages[message.ID] = *message
	return nil
}

func (r *messageRepo) GetByID(_ context.Context, id string) (*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	message, ok := r.s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	return &message, nil
}

func (r *messageRepo) ListByChat(_ context.Context, chatID string) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	messages := []models.Message{}
	for _, m := range r.s.messages {
		if m.ChatID == chatID {
			messages = append(messages, m)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Sequence < messages[j].Sequence
	})
	return messages, nil
}

func (r *messageRepo) Update(_ context.Context, message *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.messages[message.ID]; !ok {
		return fmt.Errorf("message %s: %w", message.ID, domain.ErrNotFound)
	}
	message.UpdatedAt = r.s.now()
	r.s.messages[message.ID] = *message
	return nil
}

func (r *messageRepo) Delete(_ context.Context, id string) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	message, ok := r.s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.messages, id)
	return &message, nil
}
