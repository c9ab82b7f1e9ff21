package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"chatprojects/internal/domain/services"
	"chatprojects/internal/httputil"
)

// ChatHandler handles chat and message HTTP requests
// Handlers only communicate with services, never repositories
type ChatHandler struct {
	chatService    services.ChatService
	messageService services.MessageService
	logger         *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chatService services.ChatService,
	messageService services.MessageService,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		messageService: messageService,
		logger:         logger,
	}
}

// CreateChat creates a chat in one of the caller's projects
// POST /chats
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req services.CreateChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}
	req.UserID = httputil.GetUserID(r)

	chat, err := h.chatService.CreateChat(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, chat)
}

// ListChats retrieves chats, optionally filtered to one project
// GET /chats?project_id=&skip=&limit=
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))

	chats, err := h.chatService.ListChats(r.Context(), httputil.GetUserID(r), projectID, page)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chats)
}

// GetChat retrieves a chat with its ordered messages
// GET /chats/{id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat")
	if !ok {
		return
	}

	chat, err := h.chatService.GetChat(r.Context(), httputil.GetUserID(r), chatID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// UpdateChat updates a chat's title
// PUT /chats/{id}
func (h *ChatHandler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat")
	if !ok {
		return
	}

	var req services.UpdateChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}

	chat, err := h.chatService.UpdateChat(r.Context(), httputil.GetUserID(r), chatID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// DeleteChat deletes a chat and its messages, returning the deleted chat
// DELETE /chats/{id}
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat")
	if !ok {
		return
	}

	chat, err := h.chatService.DeleteChat(r.Context(), httputil.GetUserID(r), chatID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// PostMessage stores the user's message, asks the LLM and stores its reply
// POST /chats/{id}/message
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat")
	if !ok {
		return
	}

	var req services.PostMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.ChatID = chatID

	result, err := h.messageService.PostMessage(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListMessages returns a chat's history in order
// GET /chats/{id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat")
	if !ok {
		return
	}

	messages, err := h.messageService.ListMessages(r.Context(), httputil.GetUserID(r), chatID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// UpdateMessage patches a message's role or content
// PUT /messages/{id}
func (h *ChatHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := PathParam(w, r, "id", "Message")
	if !ok {
		return
	}

	var req services.UpdateMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}

	message, err := h.messageService.UpdateMessage(r.Context(), httputil.GetUserID(r), messageID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, message)
}

// DeleteMessage deletes a single message
// DELETE /messages/{id}
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := PathParam(w, r, "id", "Message")
	if !ok {
		return
	}

	message, err := h.messageService.DeleteMessage(r.Context(), httputil.GetUserID(r), messageID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, message)
}
