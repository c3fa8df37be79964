// Package files provides the upstream file and vector store client: uploads,
// vector store creation and file attachment.
package files

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nagare-ai/chat-service/internal/services/responses"
)

// Upload purposes understood by the provider.
const (
	PurposeAssistants = "assistants"
	PurposeVision     = "vision"
	PurposeUserData   = "user_data"
)

// UploadedFile is the provider's record of an uploaded file.
type UploadedFile struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Bytes     int64  `json:"bytes"`
	Purpose   string `json:"purpose"`
	CreatedAt int64  `json:"created_at"`
}

// VectorStore is the provider's record of a vector store.
type VectorStore struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// VectorStoreFile is the provider's record of a file attached to a store.
type VectorStoreFile struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ClientConfig holds the configuration for the files client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Proxy      *responses.ProxyConfig
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client talks to the provider's /files and /vector_stores endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new files client.
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
			timeout = 5 * time.Minute
		}
		transport, err := responses.BuildTransport(cfg.Proxy)
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

// UploadFile uploads file content under the given purpose and returns the
// provider's file record.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte, purpose string) (*UploadedFile, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file content is empty")
	}
	if purpose == "" {
		purpose = PurposeAssistants
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("purpose", purpose); err != nil {
		return nil, fmt.Errorf("failed to write purpose field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	c.logger.Debug().
		Str("filename", filename).
		Str("purpose", purpose).
		Int("size", len(data)).
		Msg("uploading file")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var uploaded UploadedFile
	if err := c.do(req, &uploaded); err != nil {
		return nil, err
	}
	return &uploaded, nil
}

// CreateVectorStore creates a named vector store.
func (c *Client) CreateVectorStore(ctx context.Context, name string) (*VectorStore, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/vector_stores", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var store VectorStore
	if err := c.do(req, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// AddFileToVectorStore attaches an uploaded file to a vector store for
// indexing.
func (c *Client) AddFileToVectorStore(ctx context.Context, storeID, fileID string) (*VectorStoreFile, error) {
	if storeID == "" {
		return nil, fmt.Errorf("store ID is required")
	}
	if fileID == "" {
		return nil, fmt.Errorf("file ID is required")
	}

	payload, err := json.Marshal(map[string]string{"file_id": fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/vector_stores/%s/files", c.baseURL, storeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var file VectorStoreFile
	if err := c.do(req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DeleteFile removes an uploaded file from the provider.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("file ID is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/files/"+fileID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, nil)
}

// do sends the request and decodes the JSON response into out when non-nil.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("files API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
