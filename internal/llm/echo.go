package llm

import (
	"context"
	"strings"
)

// NoContextAnswer is returned by EchoGenerator when nothing was retrieved.
const NoContextAnswer = "I could not find anything relevant in the documents."

// EchoGenerator is a deterministic offline generator: it answers with the most relevant
// retrieved passage. Useful for tests and for trying the pipeline without an API key.
type EchoGenerator struct{}

func (EchoGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, c := range p.Context {
		if s := strings.TrimSpace(c); s != "" {
			return s, nil
		}
	}
	return NoContextAnswer, nil
}
