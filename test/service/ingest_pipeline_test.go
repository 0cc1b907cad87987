package service_test

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/ingest"
	"github.com/propdesk/propdesk/internal/model"
	"github.com/propdesk/propdesk/internal/pkg/timeutil"
	"github.com/propdesk/propdesk/internal/repo"
	"github.com/propdesk/propdesk/test/testutil"
)

// fakeEmbedder produces a deterministic 768-dim vector from the text hash.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	v := make([]float32, 768)
	v[int(h.Sum32()%768)] = 1
	return v, nil
}

func (fakeEmbedder) ModelName() string { return "fake-embed" }

func TestPipelineIngestsPlainText(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := repo.NewDocumentRepo(db)
	chunks := repo.NewChunkRepo(db)
	ctx := context.Background()

	pipeline, err := ingest.NewPipeline(docs, chunks, fakeEmbedder{}, ingest.NewChunker(100, 10), 768, 1)
	require.NoError(t, err)
	defer pipeline.Release()

	doc := &model.Document{
		ID:       "doc-pipe",
		MimeType: "text/plain",
		FileKey:  "doc-pipe",
		Status:   model.DocumentStatusPending,
		Ctime:    timeutil.NowUnix(),
	}
	require.NoError(t, docs.Create(ctx, doc))
	text := "Unit 1204: 2 bedrooms, 1,350 sqft, AED 1,850,000. " + strings.Repeat("More detail about the tower. ", 20)
	pipeline.ProcessSync(ctx, doc, []byte(text))

	fetched, err := docs.GetByID(ctx, "doc-pipe")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusSuccess, fetched.Status)
	require.Greater(t, fetched.Confidence, 0.0)
	require.NotEmpty(t, fetched.Entities)

	count, err := chunks.CountByDocument(ctx, "doc-pipe")
	require.NoError(t, err)
	require.Greater(t, count, int64(1))

	items, err := chunks.ListByDocument(ctx, "doc-pipe")
	require.NoError(t, err)
	for i, chunk := range items {
		require.Equal(t, i, chunk.Seq)
		require.Equal(t, "text", chunk.ChunkType)
	}
}

// shortEmbedder returns vectors narrower than the chunk store's column.
type shortEmbedder struct{}

func (shortEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return make([]float32, 16), nil
}

func (shortEmbedder) ModelName() string { return "short-embed" }

func TestPipelineRejectsWrongEmbedDimension(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := repo.NewDocumentRepo(db)
	chunks := repo.NewChunkRepo(db)
	ctx := context.Background()

	pipeline, err := ingest.NewPipeline(docs, chunks, shortEmbedder{}, ingest.NewChunker(100, 10), 768, 1)
	require.NoError(t, err)
	defer pipeline.Release()

	doc := &model.Document{
		ID:       "doc-dim",
		MimeType: "text/plain",
		FileKey:  "doc-dim",
		Status:   model.DocumentStatusPending,
		Ctime:    timeutil.NowUnix(),
	}
	require.NoError(t, docs.Create(ctx, doc))
	pipeline.ProcessSync(ctx, doc, []byte("Unit 1204: 2 bedrooms, AED 1,850,000."))

	fetched, err := docs.GetByID(ctx, "doc-dim")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusError, fetched.Status)
	require.Contains(t, fetched.Diagnostic, "dimension")

	count, err := chunks.CountByDocument(ctx, "doc-dim")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPipelineMarksErrorOnBadPayload(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := repo.NewDocumentRepo(db)
	chunks := repo.NewChunkRepo(db)
	ctx := context.Background()

	pipeline, err := ingest.NewPipeline(docs, chunks, fakeEmbedder{}, ingest.NewChunker(100, 10), 768, 1)
	require.NoError(t, err)
	defer pipeline.Release()

	doc := &model.Document{
		ID:       "doc-bad",
		MimeType: "text/plain",
		FileKey:  "doc-bad",
		Status:   model.DocumentStatusPending,
		Ctime:    timeutil.NowUnix(),
	}
	require.NoError(t, docs.Create(ctx, doc))
	pipeline.ProcessSync(ctx, doc, []byte{0xff, 0xfe})

	fetched, err := docs.GetByID(ctx, "doc-bad")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusError, fetched.Status)
	require.NotEmpty(t, fetched.Diagnostic)

	count, err := chunks.CountByDocument(ctx, "doc-bad")
	require.NoError(t, err)
	require.Zero(t, count)
}
