package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/model"
)

func TestBuildPromptWithContextAndHistory(t *testing.T) {
	chunks := scoredChunks(2)
	chunks[0].Content = "Unit 1204, 2BR, AED 1,850,000"
	chunks[0].Page = 3
	chunks[1].Content = "Tower amenities: pool, gym"
	history := []model.Message{
		{Sender: model.SenderUser, Content: "what towers do you have?"},
		{Sender: model.SenderAssistant, Content: "Marina Heights and Palm Gate."},
	}

	prompt := buildPrompt(model.RoleAgent, chunks, history, "how much is unit 1204?")
	require.Contains(t, prompt, "[1] (document doc-a, page 3)")
	require.Contains(t, prompt, "Unit 1204, 2BR, AED 1,850,000")
	require.Contains(t, prompt, "User: what towers do you have?")
	require.Contains(t, prompt, "Assistant: Marina Heights and Palm Gate.")
	require.True(t, strings.HasSuffix(prompt, "User: how much is unit 1204?\nAssistant:"))
	// Persona framing precedes the context block.
	require.Less(t, strings.Index(prompt, "real-estate agent"), strings.Index(prompt, "CONTEXT:"))
}

func TestBuildPromptNoContext(t *testing.T) {
	prompt := buildPrompt(model.RoleClient, nil, nil, "anything available?")
	require.Contains(t, prompt, "(no relevant context found)")
	require.NotContains(t, prompt, "[1]")
}

func TestBuildPromptUnknownRoleFallsBackToClient(t *testing.T) {
	prompt := buildPrompt("intruder", nil, nil, "hi")
	require.Contains(t, prompt, personaTemplates[model.RoleClient][:40])
}

func TestDeriveTitle(t *testing.T) {
	require.Equal(t, "short question", deriveTitle("  short   question \n"))
	long := strings.Repeat("word ", 30)
	title := deriveTitle(long)
	require.LessOrEqual(t, len([]rune(title)), maxTitleLength+1)
	require.True(t, strings.HasSuffix(title, "…"))
}
