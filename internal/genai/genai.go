// Package genai provides the completion backend client and the bounded,
// retrying request pipeline in front of it.
package genai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aio-labs/aio-bot/internal/models"
)

// ErrNoChoicesReturned indicates the backend answered without any choice.
var ErrNoChoicesReturned = errors.New("no choices returned")

// chatService defines the minimal interface for chat completions, so tests
// can substitute a mock for the OpenAI service.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// openaiChatService adapts the real OpenAI client to chatService.
type openaiChatService struct {
	client openai.Client
}

func (s openaiChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Client wraps the OpenAI chat completion service. The backend is stateless
// per call; history trimming and retries live in Pipeline.
type Client struct {
	chat        chatService
	model       string
	temperature float64
	maxTokens   int64
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key instead of reading OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.chat = openaiChatService{client: openai.NewClient(option.WithAPIKey(key))}
	}
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// NewClient initializes a completion client. Without WithAPIKey it relies on
// the OPENAI_API_KEY environment variable picked up by the OpenAI SDK.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		model:       openai.ChatModelGPT4oMini,
		temperature: 0.7,
		maxTokens:   300,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chat == nil {
		c.chat = openaiChatService{client: openai.NewClient()}
	}
	return c, nil
}

// Complete issues a single chat completion over the given role-tagged
// messages and returns the assistant reply text.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toMessageParams(messages),
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxTokens),
	}
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

func toMessageParams(messages []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
