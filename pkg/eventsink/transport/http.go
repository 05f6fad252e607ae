package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// maxErrorBodyBytes bounds how much of an error response body is read when
// decoding the service error.
const maxErrorBodyBytes = 64 * 1024

// defaultRequestTimeout applies when no HTTP client or timeout is configured.
const defaultRequestTimeout = 30 * time.Second

// HTTPTransport submits batches to an HTTP ingestion endpoint.
// Request bodies are JSON, gzip-compressed.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTimeout sets the per-request timeout.
// Ignored when WithHTTPClient supplies a client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		if d > 0 && t.client == defaultClient {
			t.client = &http.Client{Timeout: d}
		}
	}
}

var defaultClient = &http.Client{Timeout: defaultRequestTimeout}

// NewHTTPTransport creates a transport targeting endpoint.
func NewHTTPTransport(endpoint string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		endpoint: endpoint,
		client:   defaultClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PutEvents implements Transport.
func (t *HTTPTransport) PutEvents(ctx context.Context, in *PutEventsInput) (*PutEventsOutput, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode put events request: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		return nil, fmt.Errorf("compress put events request: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress put events request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build put events request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// No HTTP response: the caller sees no status code, so the
		// failure classifies as retryable.
		return nil, fmt.Errorf("put events: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	requestID := resp.Header.Get("X-Request-Id")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &PutEventsOutput{RequestID: requestID}, nil
	}

	te := &Error{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
	}
	var serviceErr struct {
		Code    string `json:"code"`
		Type    string `json:"__type"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &serviceErr) == nil {
		te.Code = serviceErr.Code
		if te.Code == "" {
			te.Code = serviceErr.Type
		}
		te.Message = serviceErr.Message
	}
	if te.Message == "" {
		te.Message = http.StatusText(resp.StatusCode)
	}
	return nil, te
}
