// Package llm wraps the generative model that answers questions from retrieved context.
package llm

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperjump/pdfassist/internal/config"
	"github.com/hyperjump/pdfassist/internal/models"
)

// Prompt is everything the model sees for one question.
type Prompt struct {
	System   string
	Context  []string
	History  models.History
	Question string
}

// ContextBlock renders the retrieved passages as a numbered list.
func (p Prompt) ContextBlock() string {
	if len(p.Context) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for i, c := range p.Context {
		sb.WriteString("[" + strconv.Itoa(i+1) + "] ")
		sb.WriteString(strings.TrimSpace(c))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Text renders the prompt as a single document: instructions, context, the conversation so far,
// then the question.
func (p Prompt) Text() string {
	var sb strings.Builder
	if p.System != "" {
		sb.WriteString(p.System)
		sb.WriteString("\n\n")
	}
	if cb := p.ContextBlock(); cb != "" {
		sb.WriteString(cb)
		sb.WriteByte('\n')
	}
	if len(p.History) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range p.History {
			sb.WriteString("User: " + t.Question + "\n")
			sb.WriteString("Assistant: " + t.Answer + "\n")
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("Question: " + p.Question + "\nAnswer:")
	return sb.String()
}

// Generator produces an answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// New builds the generator selected by cfg.Provider.
func New(cfg config.GenerationConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("generation: environment variable %s is not set", cfg.APIKeyEnv)
		}
		return NewOpenAIGenerator(key, cfg.Model, WithTemperature(cfg.TemperatureOrDefault()), WithBaseURL(cfg.BaseURL)), nil
	case "echo":
		return &EchoGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}
}
