package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/casefile-games/casefile/pkg/story"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 2048
)

// AnthropicService implements StoryService for Anthropic Claude, using
// tool use for the structured turn-update output.
type AnthropicService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicService(apiKey string, modelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   anthropicBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (a *AnthropicService) WithBaseURL(url string) *AnthropicService {
	a.baseURL = url
	return a
}

// OpenSession validates configuration and returns a session bound to the
// system instruction. The session retains the conversation so the model
// remembers prior turns.
func (a *AnthropicService) OpenSession(ctx context.Context, systemInstruction string) (StorySession, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is not set")
	}
	return &anthropicSession{
		svc:    a,
		system: systemInstruction,
	}, nil
}

// anthropicSession holds one long-lived conversation. It is used by a
// single controller, one turn at a time.
type anthropicSession struct {
	svc     *AnthropicService
	system  string
	history []anthropicMessage
}

func (s *anthropicSession) SendTurn(ctx context.Context, message string) (story.Reply, error) {
	messages := append(append([]anthropicMessage{}, s.history...), anthropicMessage{
		Role:    "user",
		Content: message,
	})

	resp, err := s.svc.chatCompletion(ctx, s.system, messages)
	if err != nil {
		return story.Reply{}, err
	}

	reply := parseReply(resp)

	// Record the exchange so the next turn sees it. Only the visible
	// text is replayed; tool calls are not echoed back.
	s.history = messages
	if reply.Text != "" {
		s.history = append(s.history, anthropicMessage{
			Role:    "assistant",
			Content: reply.Text,
		})
	}
	return reply, nil
}

// parseReply decides the reply kind once: a tool_use block named for the
// update tool makes it structured, text blocks alone make it text-only,
// and anything else is empty.
func parseReply(resp *anthropicChatResponse) story.Reply {
	var text string
	var update *story.UpdatePayload

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			if block.Name != story.UpdateToolName || update != nil {
				continue
			}
			var payload story.UpdatePayload
			if err := json.Unmarshal(block.Input, &payload); err != nil {
				// Schema mismatch degrades to text-only.
				continue
			}
			update = &payload
		}
	}

	if update != nil {
		return story.StructuredReply(text, update)
	}
	if text != "" {
		return story.TextReply(text)
	}
	return story.EmptyReply()
}

func (a *AnthropicService) chatCompletion(ctx context.Context, system string, messages []anthropicMessage) (*anthropicChatResponse, error) {
	temperature := DefaultAnthropicTemperature
	anthropicReq := anthropicChatRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		Messages:    messages,
		System:      system,
		Tools: []anthropicTool{{
			Name:        story.UpdateToolName,
			Description: story.UpdateToolDescription,
			InputSchema: story.UpdateToolSchema(),
		}},
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var anthropicResp anthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if anthropicResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", anthropicResp.Error.Message)
	}

	return &anthropicResp, nil
}
