package handlers

import (
	"net/http"
	"time"
)

const version = "0.1.0"

var startedAt = time.Now()

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	Questions     int    `json:"questions"`
	Answers       int    `json:"answers"`
	ActiveWaiters int    `json:"active_waiters"`
	Timestamp     string `json:"timestamp"`
}

// Health handles the health check endpoint. All state is in-memory, so a
// responsive process is a healthy one; the counts are for operators.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	questions, answers, waiters := h.broker.Counts()

	h.JSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       version,
		Uptime:        time.Since(startedAt).Round(time.Second).String(),
		Questions:     questions,
		Answers:       answers,
		ActiveWaiters: waiters,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
