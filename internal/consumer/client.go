// Package consumer implements the reliability layer on the broker's long-poll
// protocol: a cursor-tracked poll loop with adaptive backoff, producer-side
// dedup, a serial processing queue, and idempotent answer acknowledgment.
package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/askrelay/askrelay/internal/models"
)

// Client is an HTTP client for the broker's consumer-facing endpoints.
type Client struct {
	BaseURL    string
	AuthToken  string // bearer token, passed through unvalidated
	HTTPClient *http.Client

	// PollTimeout is the client-side bound on a single long-poll request. It
	// must be strictly greater than the server deadline so a clean "no data"
	// response is never mistaken for a transport failure.
	PollTimeout time.Duration
	// AnswerTimeout bounds a single acknowledgment request.
	AnswerTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAuthToken sets the bearer token forwarded on every request.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) { c.AuthToken = token }
}

// WithPollTimeout overrides the client-side long-poll bound.
func WithPollTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.PollTimeout = d
		}
	}
}

// NewClient creates a broker client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:       baseURL,
		HTTPClient:    &http.Client{},
		PollTimeout:   30 * time.Second,
		AnswerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PollResult is one long-poll outcome.
type PollResult struct {
	Items      []models.Question
	NextCursor int64
	// Empty reports a clean "no new questions" response (the server deadline
	// elapsed). Distinct from a transport error.
	Empty bool
}

// Poll issues one long-poll request for questions past the cursor. A cursor
// of zero requests everything.
func (c *Client) Poll(ctx context.Context, cursor int64) (*PollResult, error) {
	url := c.BaseURL + "/v1/questions/long-poll"
	if cursor > 0 {
		url += "?cursor=" + strconv.FormatInt(cursor, 10)
	}

	ctx, cancel := context.WithTimeout(ctx, c.PollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Items      []models.Question `json:"items"`
			NextCursor int64             `json:"nextCursor"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode long-poll response: %w", err)
		}
		if len(body.Items) == 0 {
			return &PollResult{NextCursor: body.NextCursor, Empty: true}, nil
		}
		return &PollResult{Items: body.Items, NextCursor: body.NextCursor}, nil
	case http.StatusNoContent, http.StatusAccepted, http.StatusNotModified:
		return &PollResult{NextCursor: cursor, Empty: true}, nil
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("long-poll status %d", resp.StatusCode)
	}
}

// PostAnswer submits one acknowledgment for a question.
func (c *Client) PostAnswer(ctx context.Context, questionID, answer string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"questionId": questionID,
		"answer":     answer,
		"ts":         time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.AnswerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/answers", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("post answer status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}
}
