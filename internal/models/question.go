package models

// Question is an immutable record in the question log. IDs are assigned by
// the broker and strictly increase in arrival order.
type Question struct {
	ID          int64           `json:"id"`
	Text        string          `json:"text"`
	Attachments []AttachmentRef `json:"attachments"`
	Timestamp   int64           `json:"ts"` // unix milliseconds
}
