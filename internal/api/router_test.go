package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askrelay/askrelay/internal/broker"
	"github.com/askrelay/askrelay/internal/config"
)

func newTestServer(t *testing.T, pollTimeout time.Duration) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	cfg := &config.Config{
		MaxBodyBytes:    1 << 20,
		MaxUploadBytes:  1 << 20,
		LongPollTimeout: pollTimeout,
	}
	b := broker.New(logger, broker.WithLongPollTimeout(pollTimeout))
	srv := httptest.NewServer(NewRouter(logger, cfg, b))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func getJSON(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]interface{}
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestSubmitQuestionAndImmediatePoll(t *testing.T) {
	srv := newTestServer(t, 5*time.Second)

	resp, body := postJSON(t, srv, "/v1/questions", `{"text":"Hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	question := body["question"].(map[string]interface{})
	assert.Equal(t, float64(1), question["id"])
	assert.Equal(t, "Hi", question["text"])
	assert.NotZero(t, question["ts"])

	// Data already past the cursor: the poll returns without suspending.
	resp, body = getJSON(t, srv, "/v1/questions/long-poll")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Hi", items[0].(map[string]interface{})["text"])
	assert.Equal(t, float64(1), body["nextCursor"])
}

func TestSubmitQuestionMissingText(t *testing.T) {
	srv := newTestServer(t, time.Second)

	resp, body := postJSON(t, srv, "/v1/questions", `{"attachments":[]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Missing text", body["error"])
}

func TestLongPollDeadlineReturns204(t *testing.T) {
	srv := newTestServer(t, 50*time.Millisecond)

	start := time.Now()
	resp, _ := getJSON(t, srv, "/v1/questions/long-poll?cursor=0")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"deadline must elapse before the empty response")
}

func TestLongPollSuspendedDelivery(t *testing.T) {
	srv := newTestServer(t, 5*time.Second)

	type pollOutcome struct {
		status int
		body   map[string]interface{}
	}
	done := make(chan pollOutcome, 1)
	go func() {
		resp, err := http.Get(srv.URL + "/v1/questions/long-poll")
		if err != nil {
			done <- pollOutcome{}
			return
		}
		defer resp.Body.Close()
		var body map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&body)
		done <- pollOutcome{status: resp.StatusCode, body: body}
	}()

	// Give the poll time to suspend before publishing.
	time.Sleep(50 * time.Millisecond)
	postJSON(t, srv, "/v1/questions", `{"text":"wake up"}`)

	select {
	case out := <-done:
		require.Equal(t, http.StatusOK, out.status)
		items := out.body["items"].([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, "wake up", items[0].(map[string]interface{})["text"])
	case <-time.After(3 * time.Second):
		t.Fatal("suspended poll was not woken by the submission")
	}
}

func TestInlineAttachmentLifecycle(t *testing.T) {
	srv := newTestServer(t, time.Second)

	resp, body := postJSON(t, srv, "/v1/questions",
		`{"text":"see attached","attachments":[{"filename":"note.txt","dataUrl":"data:text/plain;base64,aGVsbG8="}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	question := body["question"].(map[string]interface{})
	refs := question["attachments"].([]interface{})
	require.Len(t, refs, 1)
	ref := refs[0].(map[string]interface{})
	assert.Equal(t, float64(1), ref["id"])
	assert.Equal(t, "note.txt", ref["filename"])
	assert.Equal(t, "text/plain", ref["mime"])
	assert.Equal(t, float64(5), ref["size"])
	assert.Equal(t, "/v1/attachments/1", ref["url"])

	fetch, err := http.Get(srv.URL + "/v1/attachments/1")
	require.NoError(t, err)
	defer fetch.Body.Close()
	require.Equal(t, http.StatusOK, fetch.StatusCode)
	assert.Equal(t, "text/plain", fetch.Header.Get("Content-Type"))
	raw, err := io.ReadAll(fetch.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	missing, _ := getJSON(t, srv, "/v1/attachments/999")
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestMalformedAttachmentsDroppedSilently(t *testing.T) {
	srv := newTestServer(t, time.Second)

	resp, body := postJSON(t, srv, "/v1/questions",
		`{"text":"q","attachments":[{"b64":"aGVsbG8="},{"b64":"!!!not base64!!!"},{"url":"https://example.com/a/report.pdf?sig=x"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	question := body["question"].(map[string]interface{})
	refs := question["attachments"].([]interface{})
	require.Len(t, refs, 2, "the undecodable sibling is dropped, the rest survive")

	urlRef := refs[1].(map[string]interface{})
	assert.Equal(t, "report.pdf", urlRef["filename"])
	assert.Equal(t, "https://example.com/a/report.pdf?sig=x", urlRef["url"])
}

func TestStringIDAttachmentResolves(t *testing.T) {
	srv := newTestServer(t, time.Second)

	resp, _ := postJSON(t, srv, "/v1/attachments", `{"filename":"note.txt","content":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The stored id referenced as a JSON string resolves like a number; a
	// type-level malformed description is dropped without aborting the
	// question or its siblings.
	resp, body := postJSON(t, srv, "/v1/questions",
		`{"text":"Hi","attachments":[{"id":"1"},{"id":true},{"b64":"aGVsbG8="}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	question := body["question"].(map[string]interface{})
	refs := question["attachments"].([]interface{})
	require.Len(t, refs, 2)
	first := refs[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["id"])
	assert.Equal(t, "note.txt", first["filename"])
}

func TestStandaloneAttachmentEndpoint(t *testing.T) {
	srv := newTestServer(t, time.Second)

	resp, body := postJSON(t, srv, "/v1/attachments",
		`{"filename":"data.csv","mime":"text/csv","content":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	ref := body["attachment"].(map[string]interface{})
	assert.Equal(t, "data.csv", ref["filename"])
	assert.Equal(t, "text/csv", ref["mime"])

	resp, body = postJSON(t, srv, "/v1/attachments", `{"filename":"x"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing content (base64 or data URL string)", body["error"])

	resp, body = postJSON(t, srv, "/v1/attachments", `{"content":"!!!"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid content encoding", body["error"])
}

func TestMultipartUpload(t *testing.T) {
	srv := newTestServer(t, time.Second)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	part.Write([]byte("binary bytes"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/v1/attachments/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	ref := body["attachment"].(map[string]interface{})
	assert.Equal(t, "photo.png", ref["filename"])
	assert.Equal(t, float64(len("binary bytes")), ref["size"])
}

func TestSubmitAnswerAcceptsBothIDForms(t *testing.T) {
	srv := newTestServer(t, time.Second)

	resp, body := postJSON(t, srv, "/v1/answers", `{"questionId":7,"answer":"numeric id"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	resp, _ = postJSON(t, srv, "/v1/answers", `{"questionId":"7","answer":"string id"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = postJSON(t, srv, "/v1/answers", `{"answer":"no id"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing questionId or answer", body["error"])

	resp, _ = postJSON(t, srv, "/v1/answers", `{"questionId":"7"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = postJSON(t, srv, "/v1/answers", `{"questionId":0,"answer":"zero id"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing questionId or answer", body["error"])
}

func TestAdminListings(t *testing.T) {
	srv := newTestServer(t, time.Second)

	for i := 1; i <= 3; i++ {
		postJSON(t, srv, "/v1/questions", fmt.Sprintf(`{"text":"q%d"}`, i))
	}
	postJSON(t, srv, "/v1/answers", `{"questionId":"1","answer":"a1"}`)
	postJSON(t, srv, "/v1/attachments", `{"content":"aGVsbG8="}`)

	resp, body := getJSON(t, srv, "/admin/questions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"].([]interface{}), 3)

	resp, body = getJSON(t, srv, "/admin/answers")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"].([]interface{}), 1)

	resp, body = getJSON(t, srv, "/admin/attachments")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"].([]interface{}), 1)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, time.Second)
	postJSON(t, srv, "/v1/questions", `{"text":"q"}`)

	resp, body := getJSON(t, srv, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["questions"])
}
