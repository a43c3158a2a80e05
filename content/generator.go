// ABOUTME: Text generation backends for outreach content
// ABOUTME: Generator interface with an OpenAI chat completion implementation
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/harperreed/outbound/logger"
)

// Generator turns a prompt into content.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

type OpenAIGenerator struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewOpenAIGenerator returns a generator for model. An empty key is an error.
func NewOpenAIGenerator(apiKey, model string, log *logger.Logger) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not configured")
	}
	return NewOpenAIGeneratorWithConfig(openai.DefaultConfig(apiKey), model, log), nil
}

// NewOpenAIGeneratorWithConfig allows a custom base URL or HTTP client.
func NewOpenAIGeneratorWithConfig(cfg openai.ClientConfig, model string, log *logger.Logger) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.System},
	}
	if p.User != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	g.log.Debug("content generated", "model", g.model, "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
