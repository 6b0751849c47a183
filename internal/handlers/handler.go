package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/askrelay/askrelay/internal/broker"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	broker *broker.Broker
	logger zerolog.Logger
}

// NewHandler creates a new Handler backed by the given broker.
func NewHandler(b *broker.Broker, logger zerolog.Logger) *Handler {
	return &Handler{broker: b, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]interface{}{"ok": false, "error": message})
}
