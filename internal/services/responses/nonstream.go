package responses

import (
	"context"
	"io"
)

// StreamingTransport adapts Client.Stream to the chat core's transport shape.
type StreamingTransport struct {
	client *Client
}

// NewStreamingTransport creates a streaming transport over the given client.
func NewStreamingTransport(client *Client) *StreamingTransport {
	return &StreamingTransport{client: client}
}

// Stream opens an SSE event stream for the request.
func (t *StreamingTransport) Stream(ctx context.Context, req *Request) (EventStream, error) {
	return t.client.Stream(ctx, req)
}

// NonStreamingTransport emulates the stream interface over a single blocking
// request. It yields no events; the complete response surfaces through
// FinalResponse. Consumers must not special-case which transport they got.
type NonStreamingTransport struct {
	client *Client
}

// NewNonStreamingTransport creates a non-streaming fallback transport.
func NewNonStreamingTransport(client *Client) *NonStreamingTransport {
	return &NonStreamingTransport{client: client}
}

// Stream issues the request immediately and wraps the complete response.
func (t *NonStreamingTransport) Stream(ctx context.Context, req *Request) (EventStream, error) {
	resp, err := t.client.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return &completeResponseStream{response: resp}, nil
}

// EventStream is a forward-only event source with a terminal response.
// EventReader and completeResponseStream both implement it.
type EventStream interface {
	// Next returns the next event, or io.EOF when the stream is exhausted.
	Next() (*Event, error)

	// FinalResponse returns the terminal response object.
	FinalResponse(ctx context.Context) (*Response, error)

	// Close releases resources associated with the stream.
	Close() error
}

// Transport opens an event stream for a request. The chat core works against
// this interface and never learns which implementation it received.
type Transport interface {
	Stream(ctx context.Context, req *Request) (EventStream, error)
}

// completeResponseStream is an eventless EventStream over a complete response.
type completeResponseStream struct {
	response *Response
}

func (s *completeResponseStream) Next() (*Event, error) {
	return nil, io.EOF
}

func (s *completeResponseStream) FinalResponse(ctx context.Context) (*Response, error) {
	return s.response, nil
}

func (s *completeResponseStream) Close() error {
	return nil
}
