package responses

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maxEventBytes caps the size of a single SSE data line.
const maxEventBytes = 4 * 1024 * 1024

// ProxyConfig holds optional outbound proxy URLs for upstream requests.
type ProxyConfig struct {
	HTTPProxy  string
	HTTPSProxy string
}

// ClientConfig holds the configuration for the Responses API client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Proxy      *ProxyConfig
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a streaming client for an OpenAI-compatible Responses endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Responses API client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Minute // long timeout for streaming
		}
		transport, err := BuildTransport(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// BuildTransport applies proxy settings to an HTTP transport.
func BuildTransport(proxy *ProxyConfig) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy == nil {
		return transport, nil
	}

	var httpURL, httpsURL *url.URL
	var err error
	if proxy.HTTPProxy != "" {
		if httpURL, err = url.Parse(proxy.HTTPProxy); err != nil {
			return nil, fmt.Errorf("invalid http proxy %q: %w", proxy.HTTPProxy, err)
		}
	}
	if proxy.HTTPSProxy != "" {
		if httpsURL, err = url.Parse(proxy.HTTPSProxy); err != nil {
			return nil, fmt.Errorf("invalid https proxy %q: %w", proxy.HTTPSProxy, err)
		}
	}
	if httpURL == nil && httpsURL == nil {
		return transport, nil
	}

	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsURL != nil {
			return httpsURL, nil
		}
		if httpURL != nil {
			return httpURL, nil
		}
		return httpsURL, nil
	}
	return transport, nil
}

// maskKey masks an API key for log output.
func maskKey(key string) string {
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return "****"
}

// Stream opens a streaming request against the /responses endpoint.
func (c *Client) Stream(ctx context.Context, req *Request) (*EventReader, error) {
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/responses"
	c.logger.Debug().
		Str("url", endpoint).
		Str("api_key", maskKey(c.apiKey)).
		Str("model", req.Model).
		Int("body_size", len(body)).
		Msg("opening response stream")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("responses API error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	scanner := bufio.NewScanner(resp.Body)
	// The terminal completed/failed event embeds the entire response JSON in
	// one data line, so a long generation overflows the scanner's default
	// 64KB token limit.
	scanner.Buffer(make([]byte, 64*1024), maxEventBytes)

	return &EventReader{
		response: resp,
		scanner:  scanner,
	}, nil
}

// Create issues a non-streaming request and returns the complete response.
func (c *Client) Create(ctx context.Context, req *Request) (*Response, error) {
	req.Stream = false

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/responses"
	c.logger.Debug().
		Str("url", endpoint).
		Str("api_key", maskKey(c.apiKey)).
		Str("model", req.Model).
		Msg("sending non-streaming request")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("responses API error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	var response Response
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}

// EventReader reads SSE events from an open response stream. It captures the
// terminal response object from the response.completed/failed event so it is
// available after the stream is exhausted.
type EventReader struct {
	response *http.Response
	scanner  *bufio.Scanner
	closed   bool
	final    *Response
}

// Next returns the next event from the stream, or io.EOF when exhausted.
func (r *EventReader) Next() (*Event, error) {
	if r.closed {
		return nil, io.EOF
	}

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			continue
		}
		// Event-name lines carry no payload; the type field in the data
		// line is authoritative.
		if strings.HasPrefix(line, "event: ") {
			continue
		}

		var jsonData string
		if strings.HasPrefix(line, "data: ") {
			jsonData = strings.TrimPrefix(line, "data: ")
		} else if strings.HasPrefix(line, "{") {
			jsonData = line
		} else {
			continue
		}

		if jsonData == "[DONE]" {
			return nil, io.EOF
		}

		var event Event
		if err := json.Unmarshal([]byte(jsonData), &event); err != nil {
			// Skip malformed events
			continue
		}

		switch event.Type {
		case EventResponseCompleted, EventResponseFailed:
			if event.Response != nil {
				r.final = event.Response
			}
		}

		return &event, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return nil, io.EOF
}

// FinalResponse returns the terminal response captured from the stream.
// Before the stream is exhausted, or when no terminal event arrived, it
// returns an empty response so callers can fall through their extraction
// tiers.
func (r *EventReader) FinalResponse(ctx context.Context) (*Response, error) {
	if r.final != nil {
		return r.final, nil
	}
	return &Response{}, nil
}

// Close closes the underlying response body.
func (r *EventReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.response != nil && r.response.Body != nil {
		return r.response.Body.Close()
	}
	return nil
}
