// Package genai provides the model-call collaborator for the survey using
// the OpenAI chat completions API.
//
// The conversation engine treats the model as an opaque text-completion
// service: one system prompt, an ordered message sequence, one text reply.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default generation parameters. The interviewer persona keeps replies to a
// few sentences, so the token cap stays small.
const (
	DefaultModel     = openai.ChatModelGPT4o
	DefaultMaxTokens = 600
)

// Message is a role-tagged content pair in the conversation sent to the model.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// ClientInterface defines the model-call contract consumed by the
// conversation engine. A failed transport or an empty reply is an error;
// there is no retry policy at this layer.
type ClientInterface interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithMaxTokens overrides the completion token cap.
func WithMaxTokens(n int64) Option {
	return func(o *Opts) { o.MaxTokens = n }
}

// chatService defines the minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// openaiChatService backs chatService with the real OpenAI client.
type openaiChatService struct {
	client openai.Client
}

func (s *openaiChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return s.client.Chat.Completions.New(ctx, params)
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat      chatService
	model     string
	maxTokens int64
}

// NewClient initializes a GenAI client from options, falling back to the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	slog.Debug("genai.NewClient: creating client", "model", cfg.Model, "maxTokens", cfg.MaxTokens)
	return &Client{
		chat:      &openaiChatService{client: openai.NewClient(option.WithAPIKey(cfg.APIKey))},
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete sends the system prompt and message sequence to the model and
// returns the raw text of the reply.
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	params := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(systemPrompt)}
	for _, msg := range messages {
		switch msg.Role {
		case "user":
			params = append(params, openai.UserMessage(msg.Content))
		case "assistant":
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			slog.Warn("genai.Complete: skipping message with unknown role", "role", msg.Role)
		}
	}

	resp, err := c.chat.Create(ctx, openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            params,
		MaxCompletionTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		slog.Error("genai.Complete: chat completion failed", "error", err, "model", c.model)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai.Complete: no choices returned", "model", c.model)
		return "", fmt.Errorf("no choices returned")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		slog.Error("genai.Complete: empty completion content", "model", c.model)
		return "", fmt.Errorf("empty completion content")
	}
	slog.Debug("genai.Complete: completion succeeded", "model", c.model, "responseLength", len(content))
	return content, nil
}
