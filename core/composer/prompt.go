package composer

import (
	"fmt"
	"strings"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// promptInstructions pin the contract the citation extraction relies on:
// answers draw only on the numbered sources and cite them as [Source N].
const promptInstructions = `You are a helpful AI assistant that answers questions based on video transcripts.

IMPORTANT INSTRUCTIONS:
1. Answer ONLY based on the provided context
2. If the answer is not in the context, say "I don't have information about that in the videos."
3. Cite a source for every factual claim by putting its marker, for example [Source 1], directly after the claim
4. Be conversational and helpful
5. If multiple videos contain relevant information, mention all of them`

// FormatSources renders the retrieved chunks as numbered source blocks with
// the video name and covered time range
func FormatSources(results []*model.RetrievalResult) string {
	blocks := make([]string, 0, len(results))
	for i, result := range results {
		chunk := result.Chunk
		blocks = append(blocks, fmt.Sprintf(
			"[Source %d]\nVideo: %s\nTime: %s - %s\nContent: %s\n",
			i+1,
			chunk.VideoName,
			model.FormatTimestamp(chunk.StartTime),
			model.FormatTimestamp(chunk.EndTime),
			chunk.Content,
		))
	}
	return strings.Join(blocks, "\n")
}

// BuildPrompt assembles the generation prompt from the question, the
// retrieved chunks and the recent conversation. It is pure, the same inputs
// always produce the same prompt.
func BuildPrompt(query string, results []*model.RetrievalResult, history []model.Turn) string {
	var builder strings.Builder

	builder.WriteString(promptInstructions)
	builder.WriteString("\n\nContext from videos:\n")
	if len(results) == 0 {
		builder.WriteString("(no relevant transcript sections were found)\n")
	} else {
		builder.WriteString(FormatSources(results))
	}

	if len(history) > 0 {
		builder.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			builder.WriteString(string(turn.Role))
			builder.WriteString(": ")
			builder.WriteString(turn.Content)
			builder.WriteString("\n")
		}
	}

	builder.WriteString("\nQuestion: ")
	builder.WriteString(query)
	builder.WriteString("\nAnswer:")

	return builder.String()
}
