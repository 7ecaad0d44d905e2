package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"voicechat/core"
)

// OpenAIResponder answers chat turns with the OpenAI chat completion API.
type OpenAIResponder struct {
	config Config
	logger *core.Logger
	client *openai.Client
}

type Config struct {
	APIKey       string  `json:"-"`
	BaseURL      string  `json:"base_url,omitempty"`
	Model        string  `json:"model"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float32 `json:"temperature"`
	Streaming    bool    `json:"streaming"`
	SystemPrompt string  `json:"system_prompt"`
	HistoryTurns int     `json:"history_turns"` // Trailing history turns sent with each request.
}

func DefaultConfig() Config {
	return Config{
		Model:        openai.GPT4oMini,
		MaxTokens:    512,
		Temperature:  0.7,
		SystemPrompt: "You are a helpful voice assistant. Keep answers short and conversational.",
		HistoryTurns: 20,
	}
}

func NewOpenAIResponder(config Config, logger *core.Logger) (*OpenAIResponder, error) {
	if config.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIResponder{
		config: config,
		logger: logger.With(map[string]interface{}{"component": "openai"}),
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Respond sends history plus message and returns the reply text.
func (s *OpenAIResponder) Respond(ctx context.Context, history []core.ChatTurn, message string) (string, error) {
	chat := core.ChatContext{Turns: history}
	turns := chat.Last(s.config.HistoryTurns)

	req := openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    s.convertMessages(turns, message),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	if s.config.Streaming {
		return s.runStreamingCompletion(ctx, req)
	}
	return s.runNonStreamingCompletion(ctx, req)
}

func (s *OpenAIResponder) runStreamingCompletion(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	req.Stream = true
	stream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: create completion stream: %w", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("openai: stream: %w", err)
		}
		if len(response.Choices) > 0 {
			reply.WriteString(response.Choices[0].Delta.Content)
		}
	}
	return reply.String(), nil
}

func (s *OpenAIResponder) runNonStreamingCompletion(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		s.logger.Warn("completion returned no choices", "model", s.config.Model)
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIResponder) convertMessages(history []core.ChatTurn, message string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if s.config.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: s.config.SystemPrompt,
		})
	}
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    convertRole(turn.Role),
			Content: turn.Message,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
}

func convertRole(role core.ChatMessageRole) string {
	switch role {
	case core.ChatMessageRoleAssistant:
		return openai.ChatMessageRoleAssistant
	case core.ChatMessageRoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
