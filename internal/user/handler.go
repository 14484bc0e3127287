package user

import (
	"encoding/json"
	"net/http"

	"roomchat/internal/apperr"
	"roomchat/internal/chat"
	myMiddleware "roomchat/internal/middleware"
)

// Broadcaster publishes events to every connected realtime channel.
type Broadcaster interface {
	Publish(event string, payload any)
}

type Handler struct {
	service   *Service
	broadcast Broadcaster
}

func NewHandler(service *Service, broadcast Broadcaster) *Handler {
	return &Handler{service: service, broadcast: broadcast}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	res, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	// Everyone learns about a new roster entry, including clients that were
	// connected before this user existed.
	h.broadcast.Publish(chat.EventUsersUpdate, map[string]any{"users": res.Users})

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	nickname, ok := r.Context().Value(myMiddleware.NicknameKey).(string)
	if !ok {
		writeError(w, apperr.Unauthorized("unauthorized"))
		return
	}

	u, users, err := h.service.Me(r.Context(), nickname)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "users": users})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}
