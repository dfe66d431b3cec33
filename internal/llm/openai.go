package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature float32 = 0.9

// OpenAIGenerator answers with an OpenAI-compatible chat completion.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	baseURL     string
}

// OpenAIOption configures an OpenAIGenerator.
type OpenAIOption func(*OpenAIGenerator)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) OpenAIOption {
	return func(g *OpenAIGenerator) {
		if t >= 0 {
			g.temperature = t
		}
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(g *OpenAIGenerator) { g.baseURL = url }
}

// NewOpenAIGenerator creates a generator for model.
func NewOpenAIGenerator(apiKey, model string, opts ...OpenAIOption) *OpenAIGenerator {
	g := &OpenAIGenerator{model: model, temperature: DefaultTemperature}
	if g.model == "" {
		g.model = openai.GPT3Dot5Turbo
	}
	for _, o := range opts {
		o(g)
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if g.baseURL != "" {
		clientConfig.BaseURL = g.baseURL
	}
	g.client = openai.NewClientWithConfig(clientConfig)
	return g
}

// Generate sends the system instructions with the retrieved context, the prior turns as
// alternating user/assistant messages, and the question.
func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	temperature := g.temperature
	if temperature == 0 {
		// The request field is omitempty: a plain 0 would be dropped and the server default used.
		temperature = math.SmallestNonzeroFloat32
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    Messages(p),
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Messages converts a prompt into chat messages.
func Messages(p Prompt) []openai.ChatCompletionMessage {
	system := p.System
	if cb := p.ContextBlock(); cb != "" {
		if system != "" {
			system += "\n\n"
		}
		system += cb
	}
	msgs := make([]openai.ChatCompletionMessage, 0, 2+2*len(p.History))
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, t := range p.History {
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Question},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Answer},
		)
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.Question})
	return msgs
}
