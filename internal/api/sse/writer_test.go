package sse_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagare-ai/chat-service/internal/api/sse"
)

// plainWriter hides the Flusher that httptest.ResponseRecorder carries.
type plainWriter struct {
	http.ResponseWriter
}

func setupWriter(t *testing.T) (*sse.Writer, *httptest.ResponseRecorder) {
	t.Helper()

	recorder := httptest.NewRecorder()
	writer, err := sse.NewWriter(recorder)
	require.NoError(t, err)
	return writer, recorder
}

func TestNewWriter_SetsStreamingHeaders(t *testing.T) {
	_, recorder := setupWriter(t)

	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", recorder.Header().Get("Connection"))
	assert.Equal(t, "no", recorder.Header().Get("X-Accel-Buffering"))
}

func TestNewWriter_RequiresFlusher(t *testing.T) {
	_, err := sse.NewWriter(&plainWriter{httptest.NewRecorder()})
	assert.EqualError(t, err, "streaming not supported")
}

func TestWriter_StreamStart(t *testing.T) {
	writer, recorder := setupWriter(t)

	require.NoError(t, writer.WriteStreamStart("msg-1", "conv-1"))

	body := recorder.Body.String()
	assert.Contains(t, body, "event: message\n")
	assert.Contains(t, body, `"type":"STREAM_START"`)
	assert.Contains(t, body, `"messageId":"msg-1"`)
	assert.Contains(t, body, `"conversationId":"conv-1"`)
}

func TestWriter_StatusAndSnapshot(t *testing.T) {
	writer, recorder := setupWriter(t)

	require.NoError(t, writer.WriteStatus("Generating response"))
	require.NoError(t, writer.WriteSnapshot("Hello, wor"))

	body := recorder.Body.String()
	assert.Contains(t, body, `"type":"STATUS","content":"Generating response"`)
	assert.Contains(t, body, `"type":"TEXT_SNAPSHOT","content":"Hello, wor"`)
}

func TestWriter_StreamEnd(t *testing.T) {
	writer, recorder := setupWriter(t)

	require.NoError(t, writer.WriteStreamEnd(map[string]string{"id": "msg-1"}))

	body := recorder.Body.String()
	assert.Contains(t, body, `"type":"STREAM_END"`)
	assert.Contains(t, body, `"message":{"id":"msg-1"}`)
}

func TestWriter_StreamError(t *testing.T) {
	writer, recorder := setupWriter(t)

	require.NoError(t, writer.WriteStreamError("UPSTREAM_ERROR", "response generation failed", "rate limited"))

	body := recorder.Body.String()
	assert.Contains(t, body, `"type":"ERROR"`)
	assert.Contains(t, body, `"code":"UPSTREAM_ERROR"`)
	assert.Contains(t, body, `"details":"rate limited"`)
}

func TestWriter_Done(t *testing.T) {
	writer, recorder := setupWriter(t)

	require.NoError(t, writer.WriteDone())

	assert.Equal(t, "event: done\ndata: stream completed\n\n", recorder.Body.String())
}
