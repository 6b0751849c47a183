package broker

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/askrelay/askrelay/internal/metrics"
	"github.com/askrelay/askrelay/internal/models"
)

const defaultMime = "application/octet-stream"

// ErrNotFound is returned when no attachment exists for the requested id.
var ErrNotFound = errors.New("attachment not found")

var dataURLRegex = regexp.MustCompile(`(?i)^data:([^;,]+);base64,(.+)$`)

// AttachmentStore holds attachment bytes addressed by monotonically
// increasing id. Content is immutable once stored.
type AttachmentStore struct {
	logger zerolog.Logger

	mu      sync.Mutex
	nextID  int64
	entries map[int64]*models.Attachment
}

// NewAttachmentStore creates an empty store.
func NewAttachmentStore(logger zerolog.Logger) *AttachmentStore {
	return &AttachmentStore{
		logger:  logger,
		nextID:  1,
		entries: make(map[int64]*models.Attachment),
	}
}

// AttachmentURL is the deterministic retrieval path for a stored id.
func AttachmentURL(id int64) string {
	return "/v1/attachments/" + strconv.FormatInt(id, 10)
}

// Store saves content under a fresh id and returns the descriptor ref.
func (s *AttachmentStore) Store(filename, mime string, content []byte) models.AttachmentRef {
	if filename == "" {
		filename = "file"
	}
	if mime == "" {
		mime = defaultMime
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.entries[id] = &models.Attachment{
		ID:        id,
		Filename:  filename,
		Mime:      mime,
		Size:      len(content),
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
	s.mu.Unlock()

	metrics.AttachmentsStored.Inc()
	s.logger.Info().
		Int64("attachment_id", id).
		Str("mime", mime).
		Int("size", len(content)).
		Msg("attachment stored")

	return models.AttachmentRef{
		ID:       id,
		Filename: filename,
		Mime:     mime,
		Size:     len(content),
		URL:      AttachmentURL(id),
	}
}

// Fetch returns the stored attachment, or ErrNotFound.
func (s *AttachmentStore) Fetch(id int64) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// List returns metadata (no bytes) for every stored attachment, by id.
func (s *AttachmentStore) List() []models.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Attachment, 0, len(s.entries))
	for id := int64(1); id < s.nextID; id++ {
		if entry, ok := s.entries[id]; ok {
			out = append(out, entry.Meta())
		}
	}
	return out
}

// AttachmentInput is a raw inbound attachment description. A single payload
// may carry a stored id, inline content, or an external URL.
type AttachmentInput struct {
	ID       int64  `json:"id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Mime     string `json:"mime,omitempty"`
	B64      string `json:"b64,omitempty"`
	DataURL  string `json:"dataUrl,omitempty"`
	Content  string `json:"content,omitempty"`
	URL      string `json:"url,omitempty"`
}

// UnmarshalJSON accepts the id as a JSON number or a numeric string, the two
// forms producers send.
func (in *AttachmentInput) UnmarshalJSON(data []byte) error {
	type plain AttachmentInput
	aux := struct {
		ID json.RawMessage `json:"id"`
		*plain
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.ID) == 0 || string(aux.ID) == "null" {
		return nil
	}

	raw := string(aux.ID)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(aux.ID, &raw); err != nil {
			return err
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("attachment id %q is not numeric", raw)
	}
	in.ID = id
	return nil
}

// Normalize resolves one inbound description:
//
//  1. a known id resolves to the stored entry, with filename/mime overridden
//     for display only (never re-stored);
//  2. inline content (raw base64 or data URI) is decoded and stored fresh;
//  3. a bare URL passes through with no bytes and no id;
//  4. anything else resolves to nil.
//
// A nil result is silently filtered by NormalizeAll; it never fails the
// sibling attachments or the question.
func (s *AttachmentStore) Normalize(in AttachmentInput) *models.AttachmentRef {
	if in.ID > 0 {
		entry, err := s.Fetch(in.ID)
		if err == nil {
			ref := models.AttachmentRef{
				ID:       entry.ID,
				Filename: entry.Filename,
				Mime:     entry.Mime,
				Size:     entry.Size,
				URL:      AttachmentURL(entry.ID),
			}
			if in.Filename != "" {
				ref.Filename = in.Filename
			}
			if in.Mime != "" {
				ref.Mime = in.Mime
			}
			return &ref
		}
		// Unknown id: fall through to the other forms.
	}

	source := in.B64
	if source == "" {
		source = in.DataURL
	}
	if source == "" {
		source = in.Content
	}
	if source != "" {
		mime, content, err := DecodeContent(source, in.Mime)
		if err != nil {
			s.logger.Warn().Err(err).Str("filename", in.Filename).Msg("dropping undecodable attachment")
			return nil
		}
		ref := s.Store(in.Filename, mime, content)
		return &ref
	}

	if in.URL != "" {
		filename := in.Filename
		if filename == "" {
			filename = filenameFromURL(in.URL)
		}
		mime := in.Mime
		if mime == "" {
			mime = defaultMime
		}
		return &models.AttachmentRef{
			Filename: filename,
			Mime:     mime,
			URL:      in.URL,
		}
	}

	return nil
}

// NormalizeAll resolves a batch in submission order, dropping unresolvable
// entries.
func (s *AttachmentStore) NormalizeAll(ins []AttachmentInput) []models.AttachmentRef {
	refs := make([]models.AttachmentRef, 0, len(ins))
	for _, in := range ins {
		if ref := s.Normalize(in); ref != nil {
			refs = append(refs, *ref)
		}
	}
	return refs
}

// DecodeContent decodes inline attachment content: a data URI or a raw
// base64 string. Mime precedence is data-URI, then the explicit field, then
// the octet-stream default.
func DecodeContent(source, explicitMime string) (mime string, content []byte, err error) {
	if m := dataURLRegex.FindStringSubmatch(source); m != nil {
		content, err = decodeBase64(m[2])
		if err != nil {
			return "", nil, err
		}
		return m[1], content, nil
	}
	content, err = decodeBase64(source)
	if err != nil {
		return "", nil, err
	}
	mime = explicitMime
	if mime == "" {
		mime = defaultMime
	}
	return mime, content, nil
}

func decodeBase64(s string) ([]byte, error) {
	content, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return content, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// filenameFromURL infers a display filename from the last path segment,
// stripping any query string.
func filenameFromURL(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" {
		return "file"
	}
	return trimmed
}
