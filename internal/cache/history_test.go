package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"chatprojects/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNoopHistoryCacheAlwaysMisses(t *testing.T) {
	var c HistoryCache = NoopHistoryCache{}
	ctx := context.Background()

	c.Set(ctx, "chat-1", 0, []models.Message{{ID: "m1"}})
	if _, gen, ok := c.Get(ctx, "chat-1"); ok || gen != UnknownGeneration {
		t.Fatalf("noop cache Get = gen %d, hit %v", gen, ok)
	}
	c.Invalidate(ctx, "chat-1")
}

func TestMemoryHistoryCacheGenerations(t *testing.T) {
	ctx := context.Background()
	old := []models.Message{{ID: "m1", Content: "old"}}
	updated := []models.Message{{ID: "m1", Content: "new"}}

	tests := []struct {
		name        string
		run         func(c *MemoryHistoryCache)
		wantCached  bool
		wantContent string
	}{
		{
			name: "set after miss",
			run: func(c *MemoryHistoryCache) {
				_, gen, _ := c.Get(ctx, "chat")
				c.Set(ctx, "chat", gen, old)
			},
			wantCached:  true,
			wantContent: "old",
		},
		{
			name: "invalidate between read and set",
			run: func(c *MemoryHistoryCache) {
				_, gen, _ := c.Get(ctx, "chat")
				c.Invalidate(ctx, "chat")
				c.Set(ctx, "chat", gen, old)
			},
			wantCached: false,
		},
		{
			name: "fresh read after invalidate",
			run: func(c *MemoryHistoryCache) {
				_, stale, _ := c.Get(ctx, "chat")
				c.Invalidate(ctx, "chat")
				_, gen, _ := c.Get(ctx, "chat")
				c.Set(ctx, "chat", gen, updated)
				c.Set(ctx, "chat", stale, old)
			},
			wantCached:  true,
			wantContent: "new",
		},
		{
			name: "unknown generation",
			run: func(c *MemoryHistoryCache) {
				c.Set(ctx, "chat", UnknownGeneration, old)
			},
			wantCached: false,
		},
		{
			name: "empty history",
			run: func(c *MemoryHistoryCache) {
				_, gen, _ := c.Get(ctx, "chat")
				c.Set(ctx, "chat", gen, nil)
			},
			wantCached: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMemoryHistoryCache()
			tt.run(c)

			got, _, ok := c.Get(ctx, "chat")
			if ok != tt.wantCached {
				t.Fatalf("cached = %v, want %v", ok, tt.wantCached)
			}
			if ok && got[0].Content != tt.wantContent {
				t.Errorf("content = %q, want %q", got[0].Content, tt.wantContent)
			}
		})
	}
}

func TestMemoryHistoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryHistoryCache()
	in := []models.Message{{ID: "m1", Content: "a"}}

	c.Set(ctx, "chat", 0, in)
	in[0].Content = "mutated"

	got, _, _ := c.Get(ctx, "chat")
	got[0].Content = "also mutated"

	again, _, _ := c.Get(ctx, "chat")
	if again[0].Content != "a" {
		t.Errorf("content = %q, want %q", again[0].Content, "a")
	}
}

func TestNewWithoutURLIsNoop(t *testing.T) {
	c, closeFn := New(context.Background(), "", time.Minute, discardLogger())
	defer closeFn()

	if _, ok := c.(NoopHistoryCache); !ok {
		t.Fatalf("got %T, want NoopHistoryCache", c)
	}
}

func TestNewWithBadURLFallsBack(t *testing.T) {
	c, closeFn := New(context.Background(), "://nope", time.Minute, discardLogger())
	defer closeFn()

	if _, ok := c.(NoopHistoryCache); !ok {
		t.Fatalf("got %T, want NoopHistoryCache", c)
	}
}

func TestEncodeDecodePreservesOrder(t *testing.T) {
	in := []models.Message{
		{ID: "a", Sequence: 1, Role: models.RoleUser, Content: "hi"},
		{ID: "b", Sequence: 2, Role: models.RoleAssistant, Content: "hello"},
		{ID: "c", Sequence: 3, Role: "tool", Content: "{}"},
	}

	values, err := encodeMessages(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := make([]string, len(values))
	for i, v := range values {
		raw[i] = string(v.([]byte))
	}

	out, err := decodeMessages(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].Role != in[i].Role || out[i].Sequence != in[i].Sequence {
			t.Errorf("message %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := decodeMessages([]string{"{not json"}); err == nil {
		t.Fatal("expected error")
	}
}

// TestRedisHistoryCache runs against a real Redis when CHATPROJECTS_INTEGRATION=1
func TestRedisHistoryCache(t *testing.T) {
	if os.Getenv("CHATPROJECTS_INTEGRATION") != "1" {
		t.Skip("set CHATPROJECTS_INTEGRATION=1 to run Redis integration tests")
	}
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	client, err := Connect(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	c := NewRedisHistoryCache(client, time.Minute, discardLogger())
	history := []models.Message{
		{ID: "1", Sequence: 1, Role: models.RoleUser, Content: "q"},
		{ID: "2", Sequence: 2, Role: models.RoleAssistant, Content: "a"},
	}

	_, gen, ok := c.Get(ctx, "chat")
	if ok {
		t.Fatal("hit before set")
	}
	c.Set(ctx, "chat", gen, history)
	got, _, ok := c.Get(ctx, "chat")
	if !ok || len(got) != 2 || got[1].Content != "a" {
		t.Fatalf("get after set = %+v, %v", got, ok)
	}

	ttl, err := client.TTL(ctx, historyKey("chat")).Result()
	if err != nil || ttl <= 0 {
		t.Errorf("ttl = %v, %v", ttl, err)
	}

	c.Invalidate(ctx, "chat")
	if _, _, ok := c.Get(ctx, "chat"); ok {
		t.Fatal("hit after invalidate")
	}

	// a history read before the invalidate must not be written back
	c.Set(ctx, "chat", gen, history)
	if _, _, ok := c.Get(ctx, "chat"); ok {
		t.Fatal("write at a stale generation was stored")
	}
	_, fresh, _ := c.Get(ctx, "chat")
	if fresh != gen+1 {
		t.Errorf("generation = %d, want %d", fresh, gen+1)
	}
	c.Set(ctx, "chat", fresh, history[:1])
	if got, _, ok := c.Get(ctx, "chat"); !ok || len(got) != 1 {
		t.Errorf("write at the current generation = %+v, %v", got, ok)
	}
}
