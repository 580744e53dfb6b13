package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quocvuong92/sgpt/internal/cache"
	"github.com/quocvuong92/sgpt/internal/config"
	"github.com/quocvuong92/sgpt/internal/logging"
)

// Completer is the interface output handlers depend on, allowing the
// HTTP client to be swapped for a fake in tests.
type Completer interface {
	Complete(ctx context.Context, request Request, onFragment func(string)) (string, error)
}

// Ensure Client implements Completer
var _ Completer = (*Client)(nil)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	cache      *cache.Cache
	httpLogger *logging.HTTPLogger
}

// NewClient creates a client from the application configuration.
// completionCache may be nil, in which case every call hits the API.
// In verbose mode all HTTP traffic is logged with credentials redacted.
func NewClient(cfg *config.Config, completionCache *cache.Cache) *Client {
	transport := http.DefaultTransport

	var httpLogger *logging.HTTPLogger
	if cfg.Verbose {
		logger := logging.New(logging.Options{
			Level:  logging.LevelDebug,
			Format: logging.FormatJSON,
		})
		httpLogger = logging.NewHTTPLogger(logger)
		transport = logging.NewLoggingRoundTripper(http.DefaultTransport, httpLogger, true)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: transport,
		},
		url:        cfg.CompletionsURL(),
		apiKey:     cfg.APIKey,
		cache:      completionCache,
		httpLogger: httpLogger,
	}
}

// Complete performs one chat completion exchange. Each content fragment
// is passed to onFragment as it arrives and the accumulated text is
// returned once the stream finishes. When a cache is configured, a
// previously stored exchange is replayed through onFragment without any
// network traffic; a fresh exchange is recorded only after it completes.
// Failed exchanges are never retried here.
func (c *Client) Complete(ctx context.Context, request Request, onFragment func(string)) (string, error) {
	var content strings.Builder
	emit := func(fragment string) {
		content.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}

	var err error
	if c.cache != nil {
		err = c.cache.GetOrCompute(request.Fingerprint(), emit, func(send func(string)) error {
			return c.stream(ctx, request, send)
		})
	} else {
		err = c.stream(ctx, request, emit)
	}
	if err != nil {
		return "", err
	}

	return content.String(), nil
}

// stream performs the HTTP exchange and feeds content fragments to send.
func (c *Client) stream(ctx context.Context, request Request, send func(string)) error {
	reqBody := chatRequest{
		Messages:    request.Messages,
		Model:       request.Model,
		Temperature: request.Temperature,
		TopP:        request.TopProbability,
		Stream:      true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return handleError(resp.StatusCode, body)
	}

	start := time.Now()
	if c.httpLogger != nil {
		c.httpLogger.LogStreamStart(resp)
	}

	processor := NewSSEProcessor(resp.Body)
	if err := processor.Process(ctx, send); err != nil {
		return err
	}

	if c.httpLogger != nil {
		c.httpLogger.LogStreamEnd(time.Since(start), len(processor.GetContent()), processor.ChunkCount())
	}

	return nil
}

// handleError creates an appropriate error from the API response
func handleError(statusCode int, body []byte) error {
	var errResp ErrorResponse
	errMsg := fmt.Sprintf("status code %d", statusCode)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		errMsg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return &APIError{
			StatusCode: statusCode,
			Message:    "API key rejected. Check OPENAI_API_KEY or the api_key config entry",
		}
	case http.StatusForbidden:
		return &APIError{
			StatusCode: statusCode,
			Message:    "Access denied. Your account may not have access to this model",
		}
	case http.StatusTooManyRequests:
		return &APIError{
			StatusCode: statusCode,
			Message:    "Rate limited. Please wait a moment and try again",
		}
	default:
		return &APIError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("API error: %s", errMsg),
		}
	}
}
