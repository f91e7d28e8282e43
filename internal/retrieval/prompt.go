package retrieval

import (
	"fmt"
	"strings"

	"paperkb/internal/model"
)

// SystemPrompt fixes the assistant's role for every answer turn.
const SystemPrompt = "You are a helpful research assistant that answers questions based on provided academic documents."

const noContextNotice = "No documents are available for this question. " +
	"State clearly that you do not have enough information to answer."

// BuildPrompt assembles the grounded prompt: retrieved chunks first, then
// the question. The context is bounded by charBudget; chunks arrive ranked
// by similarity, so the lowest-ranked ones are dropped first when the
// budget runs out. With zero chunks the prompt says so explicitly instead
// of presenting an empty document list.
func BuildPrompt(question string, hits []model.ScoredChunk, charBudget int) string {
	var b strings.Builder
	b.WriteString("Based on the following academic documents, answer the user's question.\n")
	b.WriteString("If the answer is not found in the documents, state that you don't have enough information.\n\n")
	b.WriteString("Documents:\n")

	if len(hits) == 0 {
		b.WriteString(noContextNotice)
		b.WriteString("\n")
	} else {
		used := 0
		for i, hit := range hits {
			block := formatChunk(i+1, hit.Chunk)
			if used+len(block) > charBudget && used > 0 {
				break
			}
			b.WriteString(block)
			used += len(block)
		}
	}

	b.WriteString("\nUser Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:\n")
	return b.String()
}

func formatChunk(rank int, c model.DocumentChunk) string {
	source := c.DocumentID
	if title, ok := c.Metadata["title"].(string); ok && title != "" {
		source = fmt.Sprintf("%s (%s)", title, c.DocumentID)
	}
	return fmt.Sprintf("[%d] %s, chunk %d:\n%s\n\n", rank, source, c.SequenceIndex, c.Text)
}
