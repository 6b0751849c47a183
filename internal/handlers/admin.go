package handlers

import "net/http"

// Read-only admin listings for operational visibility. No business logic.

// ListQuestions returns the full question log.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]interface{}{"items": h.broker.Questions()})
}

// ListAnswers returns the full answer log.
func (h *Handler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]interface{}{"items": h.broker.Answers()})
}

// ListAttachments returns attachment metadata without bytes.
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]interface{}{"items": h.broker.Attachments().List()})
}
