package models

import (
	"encoding/json"
	"fmt"
)

// Answer is an append-only record of a consumer acknowledgment. QuestionID is
// opaque: the log is a sink, not a foreign-key store.
type Answer struct {
	QuestionID FlexID `json:"questionId"`
	Answer     string `json:"answer"`
	Timestamp  int64  `json:"ts"` // unix milliseconds
}

// FlexID is a question id that decodes from either a JSON string or a JSON
// number. Consumers historically sent both forms.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("questionId must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }
