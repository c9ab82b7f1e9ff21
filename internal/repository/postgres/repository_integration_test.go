package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
)

const testPrefix = "it_"

var (
	testPool      *pgxpool.Pool
	testContainer testcontainers.Container
)

// TestMain starts a throwaway Postgres for the repository tests.
// Set CHATPROJECTS_INTEGRATION=1 to run them; they need a Docker daemon.
func TestMain(m *testing.M) {
	if os.Getenv("CHATPROJECTS_INTEGRATION") != "1" {
		os.Exit(m.Run())
	}

	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "chat",
				"POSTGRES_PASSWORD": "chat",
				"POSTGRES_DB":       "chat",
			},
			// The init process restarts the server once, so the line shows up twice
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start Postgres container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://chat:chat@%s:%s/chat?sslmode=disable", host, mappedPort.Port())
	testPool, err = CreateConnectionPool(ctx, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := EnsureSchema(ctx, testPool, testPrefix); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	code := m.Run()

	testPool.Close()
	_ = testContainer.Terminate(ctx)
	os.Exit(code)
}

type testRepos struct {
	users    repositories.UserRepository
	projects repositories.ProjectRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
}

func setupRepos(t *testing.T) testRepos {
	t.Helper()
	if testPool == nil {
		t.Skip("set CHATPROJECTS_INTEGRATION=1 to run Postgres integration tests")
	}
	cfg := &RepositoryConfig{
		Pool:   testPool,
		Tables: NewTableNames(testPrefix),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return testRepos{
		users:    NewUserRepository(cfg),
		projects: NewProjectRepository(cfg),
		chats:    NewChatRepository(cfg),
		messages: NewMessageRepository(cfg),
	}
}

func createUser(t *testing.T, r testRepos, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, HashedPassword: "x", IsActive: true}
	if err := r.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestUserEmailIsCaseInsensitive(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	user := createUser(t, r, "Case.Test@Example.com")

	got, err := r.users.GetByEmail(ctx, "case.test@example.COM")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("got user %s, want %s", got.ID, user.ID)
	}

	err = r.users.Create(ctx, &models.User{Email: "CASE.TEST@example.com", HashedPassword: "y", IsActive: true})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ResourceID != user.ID {
		t.Errorf("conflict resource = %s, want %s", conflict.ResourceID, user.ID)
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	owner := createUser(t, r, "cascade@example.com")
	project := &models.Project{OwnerID: owner.ID, Name: "p", BaseInstructions: "be brief"}
	if err := r.projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	chat := &models.Chat{ProjectID: project.ID, Title: "c"}
	if err := r.chats.Create(ctx, chat); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	msg := &models.Message{ChatID: chat.ID, Role: models.RoleUser, Content: "hi"}
	if err := r.messages.Create(ctx, msg); err != nil {
		t.Fatalf("create message: %v", err)
	}

	deleted, err := r.projects.Delete(ctx, project.ID)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if deleted.ID != project.ID {
		t.Errorf("deleted %s, want %s", deleted.ID, project.ID)
	}

	if _, err := r.chats.GetByID(ctx, chat.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("chat after project delete: got %v, want ErrNotFound", err)
	}
	if _, err := r.messages.GetByID(ctx, msg.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("message after project delete: got %v, want ErrNotFound", err)
	}
	if _, err := r.projects.Delete(ctx, project.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestMessagesOrderedBySequence(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	owner := createUser(t, r, "order@example.com")
	project := &models.Project{OwnerID: owner.ID, Name: "p", BaseInstructions: "x"}
	if err := r.projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	chat := &models.Chat{ProjectID: project.ID, Title: "c"}
	if err := r.chats.Create(ctx, chat); err != nil {
		t.Fatalf("create chat: %v", err)
	}

	roles := []string{models.RoleUser, models.RoleAssistant, "system", models.RoleUser}
	for i, role := range roles {
		m := &models.Message{ChatID: chat.ID, Role: role, Content: fmt.Sprintf("m%d", i)}
		if err := r.messages.Create(ctx, m); err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
		if m.Sequence != int64(i+1) {
			t.Errorf("message %d sequence = %d, want %d", i, m.Sequence, i+1)
		}
	}

	got, err := r.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("ListByChat: %v", err)
	}
	if len(got) != len(roles) {
		t.Fatalf("got %d messages, want %d", len(got), len(roles))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) || got[i].Sequence <= got[i-1].Sequence {
			t.Errorf("messages out of order at %d", i)
		}
	}
	if got[2].Role != "system" {
		t.Errorf("unknown role not stored verbatim: %q", got[2].Role)
	}
}

func TestChatListByOwnerScopesToOwnedProjects(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	alice := createUser(t, r, "alice-list@example.com")
	bob := createUser(t, r, "bob-list@example.com")

	for _, owner := range []*models.User{alice, bob} {
		p := &models.Project{OwnerID: owner.ID, Name: "p", BaseInstructions: "x"}
		if err := r.projects.Create(ctx, p); err != nil {
			t.Fatalf("create project: %v", err)
		}
		if err := r.chats.Create(ctx, &models.Chat{ProjectID: p.ID, Title: owner.Email}); err != nil {
			t.Fatalf("create chat: %v", err)
		}
	}

	chats, err := r.chats.ListByOwner(ctx, alice.ID, models.Page{Limit: 100})
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(chats) != 1 || chats[0].Title != alice.Email {
		t.Errorf("alice sees %+v", chats)
	}
}

func TestGetByMalformedIDIsNotFound(t *testing.T) {
	r := setupRepos(t)
	if _, err := r.chats.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	tm := NewTransactionManager(testPool, slog.New(slog.NewTextHandler(io.Discard, nil)))

	boom := errors.New("boom")
	err := tm.ExecTx(ctx, func(txCtx context.Context) error {
		if err := r.users.Create(txCtx, &models.User{Email: "rolled-back@example.com", HashedPassword: "x", IsActive: true}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx error = %v, want boom", err)
	}
	if _, err := r.users.GetByEmail(ctx, "rolled-back@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("user created inside rolled back tx is visible: %v", err)
	}
}
