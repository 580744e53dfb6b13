package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single chat completion exchange.
type Request struct {
	Messages       []Message
	Model          string
	Temperature    float64
	TopProbability float64
}

// Fingerprint returns a stable identity for the request, used as the
// completion cache key. It hashes the canonical JSON encoding of the
// request parameters, so reordered messages, a different model or
// different sampling knobs all produce different keys.
func (r Request) Fingerprint() string {
	payload, _ := json.Marshal(struct {
		Messages       []Message `json:"messages"`
		Model          string    `json:"model"`
		Temperature    float64   `json:"temperature"`
		TopP           float64   `json:"top_p"`
	}{r.Messages, r.Model, r.Temperature, r.TopProbability})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// chatRequest is the wire form of a completion request. The exchange is
// always streamed.
type chatRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	Stream      bool      `json:"stream"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Delta represents streaming delta content
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Choice represents a response choice
type Choice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta,omitempty"`
	Message      Message `json:"message,omitempty"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// ChatResponse represents an API response chunk
type ChatResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// GetContent extracts the content from the response
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		if r.Choices[0].Message.Content != "" {
			return r.Choices[0].Message.Content
		}
		return r.Choices[0].Delta.Content
	}
	return ""
}

// ErrorResponse represents an API error payload
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// APIError represents an error with status code
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}
