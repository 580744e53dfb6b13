package api

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRequest_Fingerprint_Deterministic(t *testing.T) {
	request := Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are helpful"},
			{Role: RoleUser, Content: "Hello"},
		},
		Model:          "gpt-4o-mini",
		Temperature:    0.1,
		TopProbability: 1.0,
	}

	first := request.Fingerprint()
	second := request.Fingerprint()

	if first != second {
		t.Errorf("Fingerprint() not deterministic: %q != %q", first, second)
	}

	if len(first) != 64 {
		t.Errorf("Fingerprint() length = %d, want 64 hex chars", len(first))
	}

	for _, c := range first {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("Fingerprint() contains non-hex char %q", c)
			break
		}
	}
}

func TestRequest_Fingerprint_Sensitivity(t *testing.T) {
	base := Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are helpful"},
			{Role: RoleUser, Content: "Hello"},
		},
		Model:          "gpt-4o-mini",
		Temperature:    0.1,
		TopProbability: 1.0,
	}

	tests := []struct {
		name   string
		modify func(r Request) Request
	}{
		{
			name: "different message content",
			modify: func(r Request) Request {
				r.Messages = []Message{
					{Role: RoleSystem, Content: "You are helpful"},
					{Role: RoleUser, Content: "Goodbye"},
				}
				return r
			},
		},
		{
			name: "different message order",
			modify: func(r Request) Request {
				r.Messages = []Message{
					{Role: RoleUser, Content: "Hello"},
					{Role: RoleSystem, Content: "You are helpful"},
				}
				return r
			},
		},
		{
			name: "extra message",
			modify: func(r Request) Request {
				r.Messages = append([]Message{}, r.Messages...)
				r.Messages = append(r.Messages, Message{Role: RoleAssistant, Content: "Hi"})
				return r
			},
		},
		{
			name: "different model",
			modify: func(r Request) Request {
				r.Model = "gpt-4o"
				return r
			},
		},
		{
			name: "different temperature",
			modify: func(r Request) Request {
				r.Temperature = 0.7
				return r
			},
		},
		{
			name: "different top probability",
			modify: func(r Request) Request {
				r.TopProbability = 0.5
				return r
			},
		},
	}

	baseFingerprint := base.Fingerprint()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modified := tt.modify(base)
			if got := modified.Fingerprint(); got == baseFingerprint {
				t.Errorf("Fingerprint() unchanged after %s", tt.name)
			}
		})
	}
}

func TestChatResponse_GetContent(t *testing.T) {
	tests := []struct {
		name     string
		response ChatResponse
		want     string
	}{
		{
			name: "delta content",
			response: ChatResponse{
				Choices: []Choice{
					{Delta: Delta{Content: "streamed"}},
				},
			},
			want: "streamed",
		},
		{
			name: "message content",
			response: ChatResponse{
				Choices: []Choice{
					{Message: Message{Role: RoleAssistant, Content: "complete"}},
				},
			},
			want: "complete",
		},
		{
			name: "message content wins over delta",
			response: ChatResponse{
				Choices: []Choice{
					{
						Delta:   Delta{Content: "streamed"},
						Message: Message{Role: RoleAssistant, Content: "complete"},
					},
				},
			},
			want: "complete",
		},
		{
			name:     "no choices",
			response: ChatResponse{},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.response.GetContent(); got != tt.want {
				t.Errorf("GetContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_JSONShape(t *testing.T) {
	message := Message{Role: RoleUser, Content: "Hello"}

	data, err := json.Marshal(message)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}

	want := `{"role":"user","content":"Hello"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 429, Message: "Rate limited. Please wait a moment and try again"}

	if got := err.Error(); got != err.Message {
		t.Errorf("Error() = %q, want %q", got, err.Message)
	}
}
