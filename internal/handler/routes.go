package handler

import (
	"net/http"
	"strings"
)

// Handlers groups the HTTP handlers mounted by NewRouter
type Handlers struct {
	Users    *UserHandler
	Projects *ProjectHandler
	Chats    *ChatHandler
	Models   *ModelsHandler
	Health   *HealthHandler
}

// NewRouter mounts every route under prefix. Routes other than registration,
// login and health go through requireAuth.
func NewRouter(prefix string, h *Handlers, requireAuth func(http.Handler) http.Handler) *http.ServeMux {
	prefix = strings.TrimRight(prefix, "/")
	mux := http.NewServeMux()

	public := func(pattern string, fn http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+prefix+path, fn)
	}
	private := func(pattern string, fn http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+prefix+path, requireAuth(fn))
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	public("POST /users", h.Users.CreateUser)
	public("POST /login/access-token", h.Users.Login)
	private("GET /users/me", h.Users.Me)
	private("GET /users/{id}", h.Users.GetUser)
	private("PUT /users/{id}", h.Users.UpdateUser)

	private("POST /projects", h.Projects.CreateProject)
	private("GET /projects", h.Projects.ListProjects)
	private("GET /projects/{id}", h.Projects.GetProject)
	private("PUT /projects/{id}", h.Projects.UpdateProject)
	private("DELETE /projects/{id}", h.Projects.DeleteProject)

	private("POST /chats", h.Chats.CreateChat)
	private("GET /chats", h.Chats.ListChats)
	private("GET /chats/{id}", h.Chats.GetChat)
	private("PUT /chats/{id}", h.Chats.UpdateChat)
	private("DELETE /chats/{id}", h.Chats.DeleteChat)
	private("POST /chats/{id}/message", h.Chats.PostMessage)
	private("GET /chats/{id}/messages", h.Chats.ListMessages)

	private("PUT /messages/{id}", h.Chats.UpdateMessage)
	private("DELETE /messages/{id}", h.Chats.DeleteMessage)

	private("GET /models", h.Models.ListModels)

	return mux
}
