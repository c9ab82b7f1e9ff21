package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatprojects/internal/auth"
	"chatprojects/internal/cache"
	"chatprojects/internal/capabilities"
	"chatprojects/internal/config"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
	domainllm "chatprojects/internal/domain/services/llm"
	"chatprojects/internal/middleware"
	"chatprojects/internal/repository/memory"
	authsvc "chatprojects/internal/service/auth"
	"chatprojects/internal/service/chats"
	llmsvc "chatprojects/internal/service/llm"
	"chatprojects/internal/service/projects"
	"chatprojects/internal/service/users"
)

const testPrefix = "/api/v1"

// echoProvider answers every prompt with a fixed reply and counts calls
type echoProvider struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (p *echoProvider) Name() string { return "echo" }

func (p *echoProvider) SupportsModel(string) bool { return true }

func (p *echoProvider) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &domainllm.GenerateResponse{Text: p.reply, Model: req.Model}, nil
}

// Fail makes every following call return err
func (p *echoProvider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *echoProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testEnv struct {
	t        *testing.T
	router   http.Handler
	provider *echoProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithMessages(t, nil)
}

// newTestEnvWithMessages lets a test wrap the message repository the message service writes through
func newTestEnvWithMessages(t *testing.T, wrap func(repositories.MessageRepository) repositories.MessageRepository) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{DefaultProvider: "echo", DefaultModel: "echo-1"}

	store := memory.NewStore()
	history := cache.NewMemoryHistoryCache()
	authorizer := authsvc.NewOwnerBasedAuthorizer(store.Users(), store.Projects(), store.Chats(), store.Messages())

	tokens, err := auth.NewHMACTokenManager("test-secret", time.Hour, logger)
	if err != nil {
		t.Fatalf("NewHMACTokenManager: %v", err)
	}

	provider := &echoProvider{reply: "pong"}
	registry := llmsvc.NewProviderRegistry(nil)
	registry.Register(provider)
	noSleep := func(context.Context, time.Duration) error { return nil }
	orchestrator, err := llmsvc.NewOrchestrator(registry, nil,
		llmsvc.NewRetrierWithSleep(llmsvc.DefaultRetryPolicy(), noSleep, logger),
		llmsvc.OrchestratorConfig{Provider: "echo", Model: "echo-1"},
		logger,
	)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	catalog, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("capabilities.NewRegistry: %v", err)
	}

	userService := users.NewUserService(store.Users(), auth.NewBcryptHasher(bcrypt.MinCost), tokens, tokens, authorizer, logger)
	projectService := projects.NewProjectService(store.Projects(), store.Chats(), authorizer, history, logger)
	chatService := chats.NewChatService(store.Chats(), store.Messages(), authorizer, history, logger)
	messageRepo := store.Messages()
	if wrap != nil {
		messageRepo = wrap(messageRepo)
	}
	messageService := chats.NewMessageService(store.Chats(), store.Projects(), messageRepo, authorizer, orchestrator, history, logger)

	handlers := &Handlers{
		Users:    NewUserHandler(userService, logger),
		Projects: NewProjectHandler(projectService, logger),
		Chats:    NewChatHandler(chatService, messageService, logger),
		Models:   NewModelsHandler(cfg, logger, catalog),
		Health:   NewHealthHandler(nil, logger),
	}

	return &testEnv{
		t:        t,
		router:   NewRouter(testPrefix, handlers, middleware.Auth(userService, logger)),
		provider: provider,
	}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	r := httptest.NewRequest(method, testPrefix+path, reader)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func (e *testEnv) expect(w *httptest.ResponseRecorder, status int, dest any) {
	e.t.Helper()
	if w.Code != status {
		e.t.Fatalf("status = %d, want %d; body: %s", w.Code, status, w.Body.String())
	}
	if dest != nil {
		if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
			e.t.Fatalf("decode %s: %v", w.Body.String(), err)
		}
	}
}

type idBody struct {
	ID string `json:"id"`
}

// signup registers and logs in through the form endpoint, returning the user ID and token
func (e *testEnv) signup(email string) (string, string) {
	e.t.Helper()
	var user idBody
	e.expect(e.do(http.MethodPost, "/users", "", map[string]string{
		"email": email, "password": "correct-horse",
	}), http.StatusCreated, &user)

	form := url.Values{"username": {email}, "password": {"correct-horse"}}
	r := httptest.NewRequest(http.MethodPost, testPrefix+"/login/access-token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	e.expect(w, http.StatusOK, &token)
	if token.TokenType != "bearer" || token.AccessToken == "" {
		e.t.Fatalf("token = %+v", token)
	}
	return user.ID, token.AccessToken
}

func (e *testEnv) createProjectAndChat(token, instructions string) (string, string) {
	e.t.Helper()
	var project idBody
	e.expect(e.do(http.MethodPost, "/projects", token, map[string]string{
		"name": "Research", "base_instructions": instructions,
	}), http.StatusCreated, &project)

	var chat idBody
	e.expect(e.do(http.MethodPost, "/chats", token, map[string]string{
		"project_id": project.ID, "title": "First",
	}), http.StatusCreated, &chat)
	return project.ID, chat.ID
}

type chatDetail struct {
	ID       string `json:"id"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestPostMessageRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("alice@example.com")
	_, chatID := env.createProjectAndChat(token, "You are terse.")

	var reply struct {
		Response string `json:"response"`
	}
	env.expect(env.do(http.MethodPost, "/chats/"+chatID+"/message", token, map[string]string{
		"message_content": "ping",
	}), http.StatusOK, &reply)
	if reply.Response != "pong" {
		t.Errorf("response = %q", reply.Response)
	}

	var first, second chatDetail
	env.expect(env.do(http.MethodGet, "/chats/"+chatID, token, nil), http.StatusOK, &first)
	if len(first.Messages) != 2 {
		t.Fatalf("messages = %+v", first.Messages)
	}
	if first.Messages[0].Role != "user" || first.Messages[0].Content != "ping" {
		t.Errorf("first message = %+v", first.Messages[0])
	}
	if first.Messages[1].Role != "assistant" || first.Messages[1].Content != reply.Response {
		t.Errorf("second message = %+v", first.Messages[1])
	}

	env.expect(env.do(http.MethodGet, "/chats/"+chatID, token, nil), http.StatusOK, &second)
	if len(second.Messages) != len(first.Messages) {
		t.Errorf("GET not idempotent: %d then %d messages", len(first.Messages), len(second.Messages))
	}
}

// rejectingAssistantRepo fails every assistant insert
type rejectingAssistantRepo struct {
	repositories.MessageRepository
}

func (r rejectingAssistantRepo) Create(ctx context.Context, msg *models.Message) error {
	if msg.Role == models.RoleAssistant {
		return errors.New("connection reset")
	}
	return r.MessageRepository.Create(ctx, msg)
}

type problemBody struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func TestPostMessageServerFailures(t *testing.T) {
	tests := []struct {
		name        string
		wrap        func(repositories.MessageRepository) repositories.MessageRepository
		providerErr error
		wantCalls   int
		wantDetail  string
	}{
		{
			name:        "provider exhausted",
			providerErr: errors.New("upstream 503"),
			wantCalls:   llmsvc.DefaultRetryPolicy().Attempts,
			wantDetail:  "LLM provider failed to respond",
		},
		{
			name: "reply not persisted",
			wrap: func(r repositories.MessageRepository) repositories.MessageRepository {
				return rejectingAssistantRepo{r}
			},
			wantCalls:  1,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvWithMessages(t, tt.wrap)
			if tt.providerErr != nil {
				env.provider.Fail(tt.providerErr)
			}
			_, token := env.signup("alice@example.com")
			_, chatID := env.createProjectAndChat(token, "sys")

			w := env.do(http.MethodPost, "/chats/"+chatID+"/message", token, map[string]string{
				"message_content": "ping",
			})
			var problem problemBody
			env.expect(w, http.StatusInternalServerError, &problem)
			if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("content type = %q", ct)
			}
			if problem.Status != http.StatusInternalServerError || problem.Detail != tt.wantDetail {
				t.Errorf("problem = %+v, want detail %q", problem, tt.wantDetail)
			}
			if strings.Contains(w.Body.String(), "pong") {
				t.Errorf("reply leaked in failure body: %s", w.Body.String())
			}
			if got := env.provider.Calls(); got != tt.wantCalls {
				t.Errorf("provider calls = %d, want %d", got, tt.wantCalls)
			}

			var detail chatDetail
			env.expect(env.do(http.MethodGet, "/chats/"+chatID, token, nil), http.StatusOK, &detail)
			if len(detail.Messages) != 1 || detail.Messages[0].Role != "user" || detail.Messages[0].Content != "ping" {
				t.Errorf("messages = %+v, want only the user message", detail.Messages)
			}
		})
	}
}

func TestPostMessageMissingInstructions(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("alice@example.com")
	_, chatID := env.createProjectAndChat(token, "   ")

	env.expect(env.do(http.MethodPost, "/chats/"+chatID+"/message", token, map[string]string{
		"message_content": "ping",
	}), http.StatusBadRequest, nil)

	if env.provider.Calls() != 0 {
		t.Errorf("provider called %d times", env.provider.Calls())
	}

	var detail chatDetail
	env.expect(env.do(http.MethodGet, "/chats/"+chatID, token, nil), http.StatusOK, &detail)
	if len(detail.Messages) != 0 {
		t.Errorf("messages persisted: %+v", detail.Messages)
	}
}

func TestCrossOwnerIsolation(t *testing.T) {
	env := newTestEnv(t)
	aliceID, alice := env.signup("alice@example.com")
	_, bob := env.signup("bob@example.com")
	projectID, chatID := env.createProjectAndChat(alice, "sys")
	missing := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"user", http.MethodGet, "/users/" + aliceID, nil, http.StatusForbidden},
		{"update user", http.MethodPut, "/users/" + aliceID, map[string]string{"email": "x@example.com"}, http.StatusForbidden},
		{"project", http.MethodGet, "/projects/" + projectID, nil, http.StatusForbidden},
		{"delete project", http.MethodDelete, "/projects/" + projectID, nil, http.StatusForbidden},
		{"chat", http.MethodGet, "/chats/" + chatID, nil, http.StatusForbidden},
		{"chats of project", http.MethodGet, "/chats?project_id=" + projectID, nil, http.StatusForbidden},
		{"create chat", http.MethodPost, "/chats", map[string]string{"project_id": projectID, "title": "x"}, http.StatusForbidden},
		{"post message", http.MethodPost, "/chats/" + chatID + "/message", map[string]string{"message_content": "hi"}, http.StatusForbidden},
		{"missing chat", http.MethodGet, "/chats/" + missing, nil, http.StatusNotFound},
		{"missing project", http.MethodGet, "/projects/" + missing, nil, http.StatusNotFound},
		{"chat in missing project", http.MethodPost, "/chats", map[string]string{"project_id": missing, "title": "x"}, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/chats/not-a-uuid", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, bob, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "sys") {
				t.Errorf("response leaks project data: %s", w.Body.String())
			}
		})
	}

	var bobProjects []idBody
	env.expect(env.do(http.MethodGet, "/projects", bob, nil), http.StatusOK, &bobProjects)
	if len(bobProjects) != 0 {
		t.Errorf("bob sees %d projects", len(bobProjects))
	}
	env.expect(env.do(http.MethodGet, "/projects/"+projectID, alice, nil), http.StatusOK, nil)
}

func TestAuthenticationFailures(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/projects", "", nil)
	if w.Code != http.StatusForbidden || w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("no token: status %d, header %q", w.Code, w.Header().Get("WWW-Authenticate"))
	}

	w = env.do(http.MethodGet, "/projects", "garbage", nil)
	if w.Code != http.StatusForbidden || w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("bad token: status %d, header %q", w.Code, w.Header().Get("WWW-Authenticate"))
	}

	env.signup("alice@example.com")
	env.expect(env.do(http.MethodPost, "/login/access-token", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	}), http.StatusBadRequest, nil)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup("alice@example.com")

	var problem struct {
		Detail string `json:"detail"`
	}
	env.expect(env.do(http.MethodPost, "/users", "", map[string]string{
		"email": "ALICE@example.com", "password": "another-pass",
	}), http.StatusBadRequest, &problem)
	if problem.Detail != "The user with this email already exists in the system." {
		t.Errorf("detail = %q", problem.Detail)
	}
}

func TestInactiveUserRejected(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.signup("alice@example.com")

	env.expect(env.do(http.MethodPut, "/users/"+aliceID, token, map[string]any{
		"is_active": false,
	}), http.StatusOK, nil)

	env.expect(env.do(http.MethodGet, "/projects", token, nil), http.StatusBadRequest, nil)
}

func TestProjectDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("alice@example.com")
	projectID, chatID := env.createProjectAndChat(token, "sys")

	env.expect(env.do(http.MethodPost, "/chats/"+chatID+"/message", token, map[string]string{
		"message_content": "ping",
	}), http.StatusOK, nil)

	var deleted idBody
	env.expect(env.do(http.MethodDelete, "/projects/"+projectID, token, nil), http.StatusOK, &deleted)
	if deleted.ID != projectID {
		t.Errorf("deleted = %q", deleted.ID)
	}
	env.expect(env.do(http.MethodGet, "/chats/"+chatID, token, nil), http.StatusNotFound, nil)
}

func TestUpdateProjectClearsDescription(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("alice@example.com")

	var project struct {
		ID          string  `json:"id"`
		Description *string `json:"description"`
	}
	env.expect(env.do(http.MethodPost, "/projects", token, map[string]any{
		"name": "P", "description": "d", "base_instructions": "sys",
	}), http.StatusCreated, &project)

	var updated struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	env.expect(env.do(http.MethodPut, "/projects/"+project.ID, token, map[string]any{
		"name": "Renamed",
	}), http.StatusOK, &updated)
	if updated.Name != "Renamed" || updated.Description == nil || *updated.Description != "d" {
		t.Errorf("partial update = %+v", updated)
	}

	updated.Description = nil
	env.expect(env.do(http.MethodPut, "/projects/"+project.ID, token, map[string]any{
		"description": nil,
	}), http.StatusOK, &updated)
	if updated.Description != nil {
		t.Errorf("description = %q, want cleared", *updated.Description)
	}
}

func TestListChatsPagination(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("alice@example.com")
	projectID, _ := env.createProjectAndChat(token, "sys")
	for i := 0; i < 2; i++ {
		env.expect(env.do(http.MethodPost, "/chats", token, map[string]string{
			"project_id": projectID, "title": "more",
		}), http.StatusCreated, nil)
	}

	var all, page []idBody
	env.expect(env.do(http.MethodGet, "/chats", token, nil), http.StatusOK, &all)
	env.expect(env.do(http.MethodGet, "/chats?project_id="+projectID+"&skip=1&limit=1", token, nil), http.StatusOK, &page)
	if len(all) != 3 || len(page) != 1 {
		t.Errorf("all = %d, page = %d", len(all), len(page))
	}
	env.expect(env.do(http.MethodGet, "/chats?limit=-1", token, nil), http.StatusBadRequest, nil)
}

func TestMessageEditing(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("alice@example.com")
	_, chatID := env.createProjectAndChat(token, "sys")
	env.expect(env.do(http.MethodPost, "/chats/"+chatID+"/message", token, map[string]string{
		"message_content": "ping",
	}), http.StatusOK, nil)

	var messages []struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	env.expect(env.do(http.MethodGet, "/chats/"+chatID+"/messages", token, nil), http.StatusOK, &messages)
	if len(messages) != 2 {
		t.Fatalf("messages = %+v", messages)
	}

	var edited struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	env.expect(env.do(http.MethodPut, "/messages/"+messages[0].ID, token, map[string]string{
		"role": "note", "content": "edited",
	}), http.StatusOK, &edited)
	if edited.Role != "note" || edited.Content != "edited" {
		t.Errorf("edited = %+v", edited)
	}

	env.expect(env.do(http.MethodDelete, "/messages/"+messages[1].ID, token, nil), http.StatusOK, nil)
	env.expect(env.do(http.MethodGet, "/chats/"+chatID+"/messages", token, nil), http.StatusOK, &messages)
	if len(messages) != 1 || messages[0].Role != "note" {
		t.Errorf("after edit/delete = %+v", messages)
	}
}

func TestModelsAndHealth(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("alice@example.com")

	var catalog struct {
		Providers []ProviderResponse `json:"providers"`
	}
	env.expect(env.do(http.MethodGet, "/models", token, nil), http.StatusOK, &catalog)
	var sawLorem bool
	for _, p := range catalog.Providers {
		if p.ID == "lorem" {
			sawLorem = p.Available && len(p.Models) > 0
		}
	}
	if !sawLorem {
		t.Errorf("lorem missing or unavailable: %+v", catalog.Providers)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTemporaryRedirect || w.Header().Get("Location") != "/health" {
		t.Errorf("root: %d %q", w.Code, w.Header().Get("Location"))
	}
}
