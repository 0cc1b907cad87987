package ingest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/extract"
)

func singlePage(text string) *extract.Result {
	return &extract.Result{Pages: []extract.Page{{Number: 1, Text: text}}}
}

func TestChunkerWindowAndOverlap(t *testing.T) {
	// 9000 chars with no usable boundaries: hard cuts every window with
	// the overlap stepping back, which yields exactly 4 pieces.
	text := strings.Repeat("a", 9000)
	chunker := NewChunker(3000, 300)

	pieces := chunker.Chunk(singlePage(text))
	require.Len(t, pieces, 4)
	for i, piece := range pieces {
		require.LessOrEqual(t, len(piece.Text), 3000)
		require.Equal(t, i, piece.Seq)
	}
	// Consecutive pieces share the overlap region.
	for i := 1; i < len(pieces); i++ {
		prev := pieces[i-1].Text
		require.Equal(t, prev[len(prev)-300:], pieces[i].Text[:300])
	}
}

func TestChunkerPrefersParagraphBreak(t *testing.T) {
	text := strings.Repeat("x", 90) + "\n\n" + strings.Repeat("y", 60)
	chunker := NewChunker(100, 10)

	pieces := chunker.Chunk(singlePage(text))
	require.NotEmpty(t, pieces)
	require.True(t, strings.HasSuffix(pieces[0].Text, "\n\n"), "first piece should close on the paragraph break")
	require.Equal(t, text[:92], pieces[0].Text)
}

func TestChunkerFallsBackToSentenceEnd(t *testing.T) {
	text := strings.Repeat("x", 88) + ". " + strings.Repeat("y", 60)
	chunker := NewChunker(100, 10)

	pieces := chunker.Chunk(singlePage(text))
	require.NotEmpty(t, pieces)
	require.True(t, strings.HasSuffix(pieces[0].Text, ". "))
}

func TestChunkerHardCutKeepsRuneBoundary(t *testing.T) {
	text := strings.Repeat("日", 200)
	chunker := NewChunker(100, 10)

	pieces := chunker.Chunk(singlePage(text))
	require.NotEmpty(t, pieces)
	for _, piece := range pieces {
		require.True(t, strings.HasPrefix(piece.Text, "日"))
		require.Zero(t, len(piece.Text)%3, "pieces must not split a rune")
	}
}

func TestChunkerDeterministic(t *testing.T) {
	text := strings.Repeat("some sentence here. ", 500)
	chunker := NewChunker(3000, 300)

	first := chunker.Chunk(singlePage(text))
	second := chunker.Chunk(singlePage(text))
	require.True(t, reflect.DeepEqual(first, second))
}

func TestChunkerPageAttribution(t *testing.T) {
	res := &extract.Result{Pages: []extract.Page{
		{Number: 1, Text: strings.Repeat("a", 50)},
		{Number: 2, Text: strings.Repeat("b", 50)},
	}}
	chunker := NewChunker(60, 5)

	pieces := chunker.Chunk(res)
	require.NotEmpty(t, pieces)
	require.Equal(t, 1, pieces[0].Page)
	last := pieces[len(pieces)-1]
	require.Equal(t, 2, last.Page)
}

func TestChunkerEmptyInput(t *testing.T) {
	chunker := NewChunker(3000, 300)
	require.Empty(t, chunker.Chunk(singlePage("   \n  ")))
	require.Empty(t, chunker.Chunk(&extract.Result{}))
}
