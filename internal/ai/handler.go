package ai

import (
	"context"
	"encoding/json"
	"net/http"

	"roomchat/internal/apperr"
	myMiddleware "roomchat/internal/middleware"
)

// ModelReporter exposes the OpenAI model badge lookup.
type ModelReporter interface {
	FetchModelInfo(ctx context.Context, proxyURL string) *ModelInfo
}

type Handler struct {
	service *Service
	models  ModelReporter
}

func NewHandler(service *Service, models ModelReporter) *Handler {
	return &Handler{service: service, models: models}
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.service.Send(r.Context(), nickname, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) OpenAIModel(w http.ResponseWriter, r *http.Request) {
	proxyURL, err := NormalizeProxyURL(r.URL.Query().Get("proxyUrl"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.models.FetchModelInfo(r.Context(), proxyURL))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}
