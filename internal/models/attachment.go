package models

// Attachment holds stored bytes plus descriptive metadata. Content is never
// mutated after creation.
type Attachment struct {
	ID        int64  `json:"id"`
	Filename  string `json:"filename"`
	Mime      string `json:"mime"`
	Size      int    `json:"size"`
	Content   []byte `json:"-"`
	Timestamp int64  `json:"ts"` // unix milliseconds
}

// Meta returns the attachment without its bytes, for admin listings.
func (a *Attachment) Meta() Attachment {
	meta := *a
	meta.Content = nil
	return meta
}

// AttachmentRef is an attachment as carried on a question: either a stored
// attachment referenced by id, or an external URL pass-through with no
// stored bytes (ID zero, Size zero).
type AttachmentRef struct {
	ID       int64  `json:"id,omitempty"`
	Filename string `json:"filename"`
	Mime     string `json:"mime"`
	Size     int    `json:"size,omitempty"`
	URL      string `json:"url"`
}
