package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/service"
	"github.com/ophrus/backend/pkg/auth"
)

// MessageHandler handles direct-messaging endpoints.
type MessageHandler struct {
	messageSvc service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messageSvc service.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// Inbox handles GET /api/messages/inbox?page&limit (auth required).
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	inbox, err := h.messageSvc.Inbox(r.Context(), userID, page, limit)
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusOK, inbox)
}

// UnreadCount handles GET /api/messages/unread-count (auth required).
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	count, err := h.messageSvc.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// Conversation handles GET /api/messages/{userId} (auth required).
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	messages, err := h.messageSvc.Conversation(r.Context(), userID, r.PathValue("userId"))
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// Send handles POST /api/messages/{receiverId} (auth required).
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	var req struct {
		Contenu string `json:"contenu"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Contenu) == "" {
		writeMessage(w, http.StatusBadRequest, "Le contenu du message est requis.")
		return
	}

	msg, err := h.messageSvc.Send(r.Context(), userID, r.PathValue("receiverId"), req.Contenu)
	if err != nil {
		writeServiceError(w, err, "Destinataire non trouvé.")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// MarkRead handles PATCH /api/messages/read/{id} (auth required).
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	if err := h.messageSvc.MarkRead(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, err, "Message non trouvé.")
		return
	}
	writeMessage(w, http.StatusOK, "Message marqué comme lu.")
}

// MarkThreadRead handles PATCH /api/messages/read-thread/{userId} (auth required).
func (h *MessageHandler) MarkThreadRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	if err := h.messageSvc.MarkThreadRead(r.Context(), userID, r.PathValue("userId")); err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeMessage(w, http.StatusOK, "Conversation marquée comme lue.")
}
