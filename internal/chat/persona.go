package chat

import (
	"fmt"
	"strings"

	"github.com/propdesk/propdesk/internal/model"
)

// Persona framing is a closed set of fixed templates keyed by caller role.
// No template is chosen dynamically at runtime beyond this map lookup.
var personaTemplates = map[string]string{
	model.RoleClient: `You are a friendly property advisor helping a prospective client.
Answer using only the provided context and conversation history.
Keep answers approachable and avoid internal jargon or commission details.`,
	model.RoleAgent: `You are an assistant for a real-estate agent.
Answer precisely using the provided context and conversation history.
Include unit numbers, prices and availability details when present in the context.`,
	model.RoleAdmin: `You are an assistant for a brokerage administrator.
Answer using the provided context and conversation history.
You may reference operational details such as document coverage and data gaps.`,
	model.RoleEmployee: `You are an assistant for a brokerage employee.
Answer using the provided context and conversation history.
Be concise and factual.`,
}

const citationRules = `Cite supporting passages with their bracketed numbers, e.g. [1].
If the context section is empty or irrelevant, say that no relevant information
was found in the uploaded documents and do not cite anything.`

// buildPrompt renders persona framing, retrieved context with citation
// markers, the recent history window and the new question into one prompt.
func buildPrompt(role string, chunks []model.ScoredChunk, history []model.Message, question string) string {
	var sb strings.Builder
	framing, ok := personaTemplates[role]
	if !ok {
		framing = personaTemplates[model.RoleClient]
	}
	sb.WriteString(framing)
	sb.WriteString("\n")
	sb.WriteString(citationRules)
	sb.WriteString("\n\nCONTEXT:\n")
	if len(chunks) == 0 {
		sb.WriteString("(no relevant context found)\n")
	} else {
		for i, chunk := range chunks {
			fmt.Fprintf(&sb, "[%d] (document %s, page %d)\n%s\n\n", i+1, chunk.DocumentID, chunk.Page, strings.TrimSpace(chunk.Content))
		}
	}
	sb.WriteString("\nCONVERSATION:\n")
	for _, msg := range history {
		label := "User"
		if msg.Sender == model.SenderAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, msg.Content)
	}
	fmt.Fprintf(&sb, "User: %s\nAssistant:", question)
	return sb.String()
}
