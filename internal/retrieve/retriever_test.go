package retrieve

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/model"
)

// errEmbedder fails every embed call with a fixed error.
type errEmbedder struct {
	err error
}

func (e errEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return nil, e.err
}

func (errEmbedder) ModelName() string { return "err-embed" }

func TestQueryTimeoutDegradesToEmptyContext(t *testing.T) {
	r := NewRetriever(errEmbedder{err: context.DeadlineExceeded}, nil, 6, 0.5, 2, time.Second)
	results, err := r.Query(context.Background(), "apartments in the marina", Filters{})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestQueryWrappedTimeoutDegradesToEmptyContext(t *testing.T) {
	wrapped := fmt.Errorf("embed query: %w", context.DeadlineExceeded)
	r := NewRetriever(errEmbedder{err: wrapped}, nil, 6, 0.5, 2, time.Second)
	results, err := r.Query(context.Background(), "apartments in the marina", Filters{})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestQueryEmbedFailurePropagates(t *testing.T) {
	boom := errors.New("provider down")
	r := NewRetriever(errEmbedder{err: boom}, nil, 6, 0.5, 2, time.Second)
	_, err := r.Query(context.Background(), "apartments in the marina", Filters{})
	require.ErrorIs(t, err, boom)
}

func hit(docID string, score float32) model.ScoredChunk {
	return model.ScoredChunk{
		Chunk: model.Chunk{ID: docID + "-c", DocumentID: docID},
		Score: score,
	}
}

func TestDiversifyCapsPerDocument(t *testing.T) {
	hits := []model.ScoredChunk{
		hit("doc-a", 0.95),
		hit("doc-a", 0.94),
		hit("doc-a", 0.93),
		hit("doc-b", 0.92),
		hit("doc-a", 0.91),
		hit("doc-c", 0.90),
	}

	results := diversify(hits, 2, 6)
	require.Len(t, results, 4)
	perDoc := map[string]int{}
	for _, r := range results {
		perDoc[r.DocumentID]++
	}
	require.Equal(t, 2, perDoc["doc-a"])
	require.Equal(t, 1, perDoc["doc-b"])
	require.Equal(t, 1, perDoc["doc-c"])
}

func TestDiversifyKeepsSimilarityOrder(t *testing.T) {
	hits := []model.ScoredChunk{
		hit("doc-a", 0.9),
		hit("doc-b", 0.8),
		hit("doc-c", 0.7),
	}
	results := diversify(hits, 2, 3)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestDiversifyHonorsTopK(t *testing.T) {
	var hits []model.ScoredChunk
	for i := 0; i < 10; i++ {
		hits = append(hits, hit("doc-"+string(rune('a'+i)), 0.9))
	}
	require.Len(t, diversify(hits, 2, 3), 3)
}

func TestDiversifyEmpty(t *testing.T) {
	require.Empty(t, diversify(nil, 2, 6))
}
