package conversation

import (
	"github.com/hyperjump/pdfassist/internal/llm"
	"github.com/hyperjump/pdfassist/internal/models"
)

// SystemPrompt instructs the model to stay within the supplied documents.
const SystemPrompt = "You are a helpful assistant answering questions about the user's documents. " +
	"Use the numbered context passages and the conversation so far. " +
	"If the answer is not in the context, say you don't know."

// BuildPrompt combines the retrieved chunks, the full prior history and the new question.
func BuildPrompt(sources []models.ScoredChunk, history models.History, question string) llm.Prompt {
	passages := make([]string, len(sources))
	for i, s := range sources {
		passages[i] = s.Chunk.Text
	}
	return llm.Prompt{
		System:   SystemPrompt,
		Context:  passages,
		History:  history.Clone(),
		Question: question,
	}
}
