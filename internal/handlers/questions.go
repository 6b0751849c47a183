package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/askrelay/askrelay/internal/broker"
	"github.com/askrelay/askrelay/internal/models"
)

// SubmitQuestionRequest is the producer-side question submission body.
// Attachment descriptions are decoded and normalized individually; ones that
// fail to decode or resolve to nothing are dropped without failing the
// question or its sibling attachments.
type SubmitQuestionRequest struct {
	Text        string            `json:"text"`
	Attachments []json.RawMessage `json:"attachments"`
}

// SubmitQuestionResponse wraps the stored question.
type SubmitQuestionResponse struct {
	OK       bool            `json:"ok"`
	Question models.Question `json:"question"`
}

// LongPollResponse is the delivery payload for a long-poll request.
type LongPollResponse struct {
	Items      []models.Question `json:"items"`
	NextCursor int64             `json:"nextCursor"`
}

// SubmitQuestion handles producer question submission.
func (h *Handler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	var req SubmitQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "Missing text")
		return
	}

	inputs := make([]broker.AttachmentInput, 0, len(req.Attachments))
	for _, raw := range req.Attachments {
		var in broker.AttachmentInput
		if err := json.Unmarshal(raw, &in); err != nil {
			h.logger.Warn().Err(err).Msg("dropping malformed attachment description")
			continue
		}
		inputs = append(inputs, in)
	}

	refs := h.broker.Attachments().NormalizeAll(inputs)
	question := h.broker.AppendQuestion(req.Text, refs)

	h.JSON(w, http.StatusOK, SubmitQuestionResponse{OK: true, Question: question})
}

// LongPollQuestions suspends until questions past the cursor exist, the
// server deadline elapses (204), or the caller disconnects.
func (h *Handler) LongPollQuestions(w http.ResponseWriter, r *http.Request) {
	var cursor int64
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			cursor = parsed
		}
	}

	result := h.broker.LongPoll(r.Context(), cursor)
	if result.Timeout {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.JSON(w, http.StatusOK, LongPollResponse{
		Items:      result.Items,
		NextCursor: result.NextCursor,
	})
}
