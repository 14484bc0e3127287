package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomchat/internal/apperr"
	myMiddleware "roomchat/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin deployment behind the static server
	},
}

type Handler struct {
	hub     *Hub
	service *Service
}

func NewHandler(hub *Hub, service *Service) *Handler {
	return &Handler{hub: hub, service: service}
}

// ServeWs upgrades an authenticated request to the realtime push channel.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	nickname, ok := r.Context().Value(myMiddleware.NicknameKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		ID:       uuid.NewString(),
		Nickname: nickname,
		Hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}
	// Roster first, registration second: the query runs outside the hub loop
	// and the batch lands ahead of any coalesced traffic.
	h.hub.Bootstrap(client)
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	nickname, ok := r.Context().Value(myMiddleware.NicknameKey).(string)
	if !ok {
		writeError(w, apperr.Unauthorized("unauthorized"))
		return
	}

	q := r.URL.Query()
	// Bad cursor or limit input falls back to defaults instead of failing.
	beforeID, _ := strconv.ParseInt(q.Get("beforeId"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := h.service.History(r.Context(), nickname, q.Get("type"), q.Get("target"), beforeID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	nickname, ok := r.Context().Value(myMiddleware.NicknameKey).(string)
	if !ok {
		writeError(w, apperr.Unauthorized("unauthorized"))
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	msg, err := h.service.Send(r.Context(), nickname, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	nickname, ok := r.Context().Value(myMiddleware.NicknameKey).(string)
	if !ok {
		writeError(w, apperr.Unauthorized("unauthorized"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, apperr.InvalidArg("invalid message id"))
		return
	}

	if err := h.service.Delete(r.Context(), nickname, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}
