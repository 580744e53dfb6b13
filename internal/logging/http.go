package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// bodyLogLimit caps how much of a request or response body one log
// entry may carry.
const bodyLogLimit = 10 << 10

// HTTPLogger records the HTTP exchanges behind completion requests.
// Credentials in headers and request bodies are redacted before they
// reach the log.
type HTTPLogger struct {
	logger *Logger
}

// NewHTTPLogger creates an HTTPLogger writing through logger.
func NewHTTPLogger(logger *Logger) *HTTPLogger {
	return &HTTPLogger{logger: logger}
}

// LogRequest records an outgoing request, including its body when
// provided.
func (h *HTTPLogger) LogRequest(req *http.Request, body []byte) {
	fields := Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"host":    req.Host,
		"headers": headerFields(req.Header, true),
	}
	if len(body) > 0 {
		fields["body"] = bodyField(body, true)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("HTTP request", fields)
}

// LogResponse records a completed response.
func (h *HTTPLogger) LogResponse(resp *http.Response, body []byte, duration time.Duration) {
	fields := Fields{
		"status":      resp.StatusCode,
		"status_text": resp.Status,
		"duration_ms": duration.Milliseconds(),
		"headers":     headerFields(resp.Header, false),
	}
	if len(body) > 0 {
		fields["body"] = bodyField(body, false)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("HTTP response", fields)
}

// LogStreamStart marks the point where a streaming response body is
// handed to the SSE reader.
func (h *HTTPLogger) LogStreamStart(resp *http.Response) {
	h.logger.Debug("HTTP stream started", Fields{
		"status":      resp.StatusCode,
		"status_text": resp.Status,
		"streaming":   true,
	})
}

// LogStreamEnd records how the stream went once it is drained.
func (h *HTTPLogger) LogStreamEnd(duration time.Duration, totalBytes, chunkCount int) {
	h.logger.Debug("HTTP stream finished", Fields{
		"duration_ms": duration.Milliseconds(),
		"total_bytes": totalBytes,
		"chunk_count": chunkCount,
	})
}

// LogError records a transport-level failure.
func (h *HTTPLogger) LogError(err error, req *http.Request) {
	h.logger.Error("HTTP request failed", err, Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})
}

// headerFields flattens headers to single values, replacing sensitive
// ones when redact is set.
func headerFields(header http.Header, redact bool) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		if len(values) == 0 {
			continue
		}
		if redact && isSensitiveHeader(name) {
			out[name] = "[REDACTED]"
			continue
		}
		out[name] = values[0]
	}
	return out
}

// bodyField renders a body for logging. JSON bodies are embedded as
// structure so the log stays queryable; anything else becomes
// truncated text.
func bodyField(body []byte, redact bool) interface{} {
	if json.Valid(body) {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			if redact {
				return redactSensitiveFields(parsed)
			}
			return parsed
		}
	}
	return truncateBody(body, bodyLogLimit)
}

// loggingTransport wraps a RoundTripper and reports every exchange to
// an HTTPLogger.
type loggingTransport struct {
	next      http.RoundTripper
	logger    *HTTPLogger
	logBodies bool
}

// NewLoggingRoundTripper wraps next with exchange logging. A nil next
// falls back to http.DefaultTransport.
func NewLoggingRoundTripper(next http.RoundTripper, logger *HTTPLogger, logBodies bool) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger, logBodies: logBodies}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if t.logBodies && req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}
	t.logger.LogRequest(req, reqBody)

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.LogError(err, req)
		return nil, err
	}

	// A streaming body belongs to the SSE reader; reading it here
	// would stall the fragment flow, so only buffered responses are
	// logged with their body.
	var respBody []byte
	if t.logBodies && !isStreamingResponse(resp) {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}
	t.logger.LogResponse(resp, respBody, time.Since(start))

	return resp, nil
}

// sensitiveHeaders lists headers whose values never reach the log.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"api-key":       true,
	"x-api-key":     true,
	"x-auth-token":  true,
	"cookie":        true,
	"set-cookie":    true,
}

func isSensitiveHeader(name string) bool {
	return sensitiveHeaders[strings.ToLower(name)]
}

// truncateBody clips body to maxSize, marking the cut.
func truncateBody(body []byte, maxSize int) string {
	if len(body) <= maxSize {
		return string(body)
	}
	return string(body[:maxSize]) + "...[truncated]"
}

func isStreamingResponse(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return strings.Contains(contentType, "text/event-stream") ||
		strings.Contains(contentType, "application/x-ndjson")
}

// sensitiveKeySubstrings flags JSON keys whose values are replaced
// before a body reaches the log.
var sensitiveKeySubstrings = []string{
	"api_key", "apikey", "api-key",
	"password", "secret", "token",
	"authorization", "auth",
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// redactSensitiveFields walks parsed JSON and replaces the values of
// credential-looking keys.
func redactSensitiveFields(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			if isSensitiveKey(k) {
				out[k] = "[REDACTED]"
			} else {
				out[k] = redactSensitiveFields(val)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = redactSensitiveFields(item)
		}
		return out
	default:
		return data
	}
}
