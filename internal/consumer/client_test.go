package consumer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askrelay/askrelay/internal/models"
)

func TestClientPollDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/questions/long-poll", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("cursor"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items":      []models.Question{{ID: 6, Text: "q"}},
			"nextCursor": 6,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAuthToken("tok"))
	result, err := c.Poll(context.Background(), 5)
	require.NoError(t, err)
	require.False(t, result.Empty)
	require.Len(t, result.Items, 1)
	require.Equal(t, int64(6), result.NextCursor)
}

func TestClientPollNoData(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusAccepted, http.StatusNotModified} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(srv.URL)
		result, err := c.Poll(context.Background(), 3)
		require.NoError(t, err, "status %d is a protocol outcome, not an error", status)
		require.True(t, result.Empty)
		require.Equal(t, int64(3), result.NextCursor, "empty poll must not move the cursor")
		srv.Close()
	}
}

func TestClientPollErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Poll(context.Background(), 0)
	require.Error(t, err)
}

func TestClientPollTransportTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithPollTimeout(20*time.Millisecond))
	_, err := c.Poll(context.Background(), 0)
	require.Error(t, err, "a hung transport must surface as an error, not an empty poll")
}

func TestClientPostAnswer(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/answers", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.PostAnswer(context.Background(), "12", "the answer"))
	require.Equal(t, "12", got["questionId"])
	require.Equal(t, "the answer", got["answer"])
}
