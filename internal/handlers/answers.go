package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/askrelay/askrelay/internal/models"
)

// SubmitAnswerRequest is the consumer-side acknowledgment body.
type SubmitAnswerRequest struct {
	QuestionID models.FlexID `json:"questionId"`
	Answer     string        `json:"answer"`
}

// SubmitAnswer appends to the answer log. The log is a sink: the question id
// is recorded as sent, not validated against the question log.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// A numeric zero decodes to "0"; both forms mean no id was supplied.
	if req.QuestionID == "" || req.QuestionID == "0" || req.Answer == "" {
		h.Error(w, http.StatusBadRequest, "Missing questionId or answer")
		return
	}

	h.broker.AppendAnswer(req.QuestionID, req.Answer)
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
