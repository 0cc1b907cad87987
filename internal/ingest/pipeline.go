package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/propdesk/propdesk/internal/ai"
	"github.com/propdesk/propdesk/internal/extract"
	"github.com/propdesk/propdesk/internal/model"
	"github.com/propdesk/propdesk/internal/repo"
)

// Pipeline runs extract -> chunk -> embed -> upsert for uploaded documents.
// Distinct documents process in parallel on a shared worker pool; the chunks
// of one document are produced and embedded in sequence order. All chunks of
// a document land in a single transaction, and retrieval only sees documents
// whose status is success, so a half-processed document is never searchable.
type Pipeline struct {
	docs     *repo.DocumentRepo
	chunks   *repo.ChunkRepo
	embedder ai.IEmbedder
	chunker  *Chunker
	embedDim int
	pool     *ants.Pool
}

// NewPipeline builds the ingestion pipeline. embedDim is the vector width
// the chunk store was provisioned with; embeddings of any other width are
// rejected before the upsert since the dimension is fixed per embed model.
func NewPipeline(docs *repo.DocumentRepo, chunks *repo.ChunkRepo, embedder ai.IEmbedder, chunker *Chunker, embedDim, workers int) (*Pipeline, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		docs:     docs,
		chunks:   chunks,
		embedder: embedder,
		chunker:  chunker,
		embedDim: embedDim,
		pool:     pool,
	}, nil
}

// Submit queues one document for background processing. The upload request
// finishing or disconnecting does not abandon the work.
func (p *Pipeline) Submit(doc *model.Document, data []byte) error {
	return p.pool.Submit(func() {
		p.process(context.Background(), doc, data)
	})
}

// ProcessSync runs the pipeline inline, used by tests and backfills.
func (p *Pipeline) ProcessSync(ctx context.Context, doc *model.Document, data []byte) {
	p.process(ctx, doc, data)
}

func (p *Pipeline) Release() {
	p.pool.Release()
}

func (p *Pipeline) process(ctx context.Context, doc *model.Document, data []byte) {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", doc.ID), zap.String("mime_type", doc.MimeType))
	start := time.Now()

	extractor, err := extract.ForMime(doc.MimeType)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("no extractor: %v", err))
		return
	}
	result, err := extractor.Extract(data)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("extract: %v", err))
		return
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		p.fail(ctx, doc, "document has no extractable text")
		return
	}

	entities, confidence := scanEntities(text)
	pieces := p.chunker.Chunk(result)
	if len(pieces) == 0 {
		p.fail(ctx, doc, "chunking produced no content")
		return
	}

	chunkType := chunkTypeForMime(doc.MimeType)
	now := time.Now().Unix()
	chunks := make([]*model.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		embedding, err := p.embedder.Embed(ctx, piece.Text, ai.TaskRetrievalDocument)
		if err != nil {
			p.fail(ctx, doc, fmt.Sprintf("embed chunk %d: %v", piece.Seq, err))
			return
		}
		if p.embedDim > 0 && len(embedding) != p.embedDim {
			p.fail(ctx, doc, fmt.Sprintf("embed chunk %d: dimension %d, want %d", piece.Seq, len(embedding), p.embedDim))
			return
		}
		chunks = append(chunks, &model.Chunk{
			ID:         doc.ID + fmt.Sprintf("-%04d", piece.Seq),
			DocumentID: doc.ID,
			Seq:        piece.Seq,
			Content:    piece.Text,
			Embedding:  embedding,
			Page:       piece.Page,
			ChunkType:  chunkType,
			Ctime:      now,
		})
	}

	if err := p.chunks.SaveAll(ctx, chunks); err != nil {
		p.fail(ctx, doc, fmt.Sprintf("persist chunks: %v", err))
		return
	}
	if err := p.docs.MarkSuccess(ctx, doc.ID, confidence, entities); err != nil {
		logger.Error("mark document success failed", zap.Error(err))
		return
	}
	logger.Info("document ingested",
		zap.Int("chunks", len(chunks)),
		zap.Float64("confidence", confidence),
		zap.Duration("duration", time.Since(start)),
	)
}

func (p *Pipeline) fail(ctx context.Context, doc *model.Document, diagnostic string) {
	logutil.GetLogger(ctx).Warn("document ingestion failed",
		zap.String("document_id", doc.ID),
		zap.String("diagnostic", diagnostic),
	)
	if err := p.docs.MarkError(ctx, doc.ID, diagnostic); err != nil {
		logutil.GetLogger(ctx).Error("mark document error failed", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func chunkTypeForMime(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "spreadsheet"), strings.Contains(mimeType, "csv"):
		return "table"
	default:
		return "text"
	}
}
