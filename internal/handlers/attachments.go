package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/askrelay/askrelay/internal/broker"
	"github.com/askrelay/askrelay/internal/models"
)

// SubmitAttachmentRequest stores inline content ahead of a question that
// will reference it by id.
type SubmitAttachmentRequest struct {
	Filename string `json:"filename"`
	Mime     string `json:"mime"`
	Content  string `json:"content"` // base64 or data URI
}

// AttachmentResponse wraps a stored attachment descriptor.
type AttachmentResponse struct {
	OK         bool                 `json:"ok"`
	Attachment models.AttachmentRef `json:"attachment"`
}

// SubmitAttachment handles standalone inline attachment submission.
func (h *Handler) SubmitAttachment(w http.ResponseWriter, r *http.Request) {
	var req SubmitAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Content == "" {
		h.Error(w, http.StatusBadRequest, "Missing content (base64 or data URL string)")
		return
	}

	mime, content, err := broker.DecodeContent(req.Content, req.Mime)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid content encoding")
		return
	}

	desc := h.broker.Attachments().Store(req.Filename, mime, content)
	h.JSON(w, http.StatusOK, AttachmentResponse{OK: true, Attachment: desc})
}

// UploadAttachment handles binary multipart upload with a "file" part.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	mime := header.Header.Get("Content-Type")
	desc := h.broker.Attachments().Store(header.Filename, mime, content)
	h.JSON(w, http.StatusOK, AttachmentResponse{OK: true, Attachment: desc})
}

// GetAttachment streams stored bytes with the stored mime type.
func (h *Handler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.Error(w, http.StatusNotFound, "Attachment not found")
		return
	}

	entry, err := h.broker.Attachments().Fetch(id)
	if err != nil {
		if errors.Is(err, broker.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "Attachment not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to fetch attachment")
		return
	}

	w.Header().Set("Content-Type", entry.Mime)
	w.Header().Set("Content-Disposition", `inline; filename="`+url.PathEscape(entry.Filename)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(entry.Content)
}
