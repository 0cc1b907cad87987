package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/model"
)

func scoredChunks(n int) []model.ScoredChunk {
	chunks := make([]model.ScoredChunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, model.ScoredChunk{
			Chunk: model.Chunk{
				ID:         string(rune('a'+i)) + "-chunk",
				DocumentID: "doc-" + string(rune('a'+i)),
			},
			Score: 0.9 - float32(i)*0.1,
		})
	}
	return chunks
}

func TestParseCitations(t *testing.T) {
	chunks := scoredChunks(3)
	citations := parseCitations("The price is AED 1.2M [1] and it has 2 bedrooms [3].", chunks)
	require.Len(t, citations, 2)
	require.Equal(t, 1, citations[0].Marker)
	require.Equal(t, chunks[0].ID, citations[0].ChunkID)
	require.Equal(t, 3, citations[1].Marker)
	require.Equal(t, chunks[2].DocumentID, citations[1].DocumentID)
}

func TestParseCitationsDropsOutOfRangeAndDuplicates(t *testing.T) {
	chunks := scoredChunks(2)
	citations := parseCitations("See [1], again [1], bogus [9] and [0].", chunks)
	require.Len(t, citations, 1)
	require.Equal(t, 1, citations[0].Marker)
}

func TestParseCitationsNoContext(t *testing.T) {
	require.Empty(t, parseCitations("Answer with [1] hallucinated marker.", nil))
	require.Empty(t, parseCitations("No markers at all.", scoredChunks(2)))
}
