package handler

import (
	"log/slog"
	"net/http"

	"chatprojects/internal/domain/services"
	"chatprojects/internal/httputil"
)

// UserHandler handles registration, login and user HTTP requests
type UserHandler struct {
	userService services.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// CreateUser registers a new account
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, user)
}

// Login exchanges credentials for an access token
// POST /login/access-token
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := httputil.ParseCredentials(w, r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.userService.Login(r.Context(), creds.Login(), creds.Password)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, token)
}

// GetUser returns the caller's own account
// GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := PathParam(w, r, "id", "User")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), httputil.GetUserID(r), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// UpdateUser changes email, password or active flag of the caller's account
// PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := PathParam(w, r, "id", "User")
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), httputil.GetUserID(r), userID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// Me returns the authenticated user
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, httputil.GetUser(r))
}
