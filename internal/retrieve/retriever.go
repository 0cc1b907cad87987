package retrieve

import (
	"context"
	"errors"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/propdesk/propdesk/internal/ai"
	"github.com/propdesk/propdesk/internal/model"
	"github.com/propdesk/propdesk/internal/repo"
)

// Filters narrows a retrieval to specific document formats or chunk kinds.
type Filters struct {
	MimeTypes  []string
	ChunkTypes []string
}

// Retriever embeds a query with the same model used at ingestion and
// returns the most relevant chunks. An empty result is a meaningful
// outcome: it tells the caller there is no relevant context, and the
// assembler must say so rather than invent one.
type Retriever struct {
	embedder  ai.IEmbedder
	chunks    *repo.ChunkRepo
	topK      int
	minScore  float64
	perDocCap int
	timeout   time.Duration
}

func NewRetriever(embedder ai.IEmbedder, chunks *repo.ChunkRepo, topK int, minScore float64, perDocCap int, timeout time.Duration) *Retriever {
	if topK <= 0 {
		topK = 6
	}
	if perDocCap <= 0 {
		perDocCap = 2
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Retriever{
		embedder:  embedder,
		chunks:    chunks,
		topK:      topK,
		minScore:  minScore,
		perDocCap: perDocCap,
		timeout:   timeout,
	}
}

// Query returns up to topK chunks ordered by similarity. A timeout in the
// embed or search step degrades to an empty result instead of failing the
// chat turn.
func (r *Retriever) Query(ctx context.Context, text string, filters Filters) ([]model.ScoredChunk, error) {
	logger := logutil.GetLogger(ctx)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	embedding, err := r.embedder.Embed(ctx, text, ai.TaskRetrievalQuery)
	if err != nil {
		if isTimeout(err) {
			logger.Warn("query embedding timed out, degrading to empty context")
			return nil, nil
		}
		return nil, err
	}

	// Overfetch so the per-document cap still leaves topK candidates when
	// one document dominates the neighborhood.
	limit := r.topK * r.perDocCap * 2
	hits, err := r.chunks.Search(ctx, embedding, limit, r.minScore, repo.SearchFilter{
		MimeTypes:  filters.MimeTypes,
		ChunkTypes: filters.ChunkTypes,
	})
	if err != nil {
		if isTimeout(err) {
			logger.Warn("vector search timed out, degrading to empty context")
			return nil, nil
		}
		return nil, err
	}

	results := diversify(hits, r.perDocCap, r.topK)
	logger.Debug("retrieval complete",
		zap.Int("candidates", len(hits)),
		zap.Int("returned", len(results)),
	)
	return results, nil
}

// diversify enforces the per-document cap while keeping similarity order,
// so a single large document cannot crowd out every other source.
func diversify(hits []model.ScoredChunk, perDocCap, topK int) []model.ScoredChunk {
	perDoc := map[string]int{}
	results := make([]model.ScoredChunk, 0, topK)
	for _, hit := range hits {
		if perDoc[hit.DocumentID] >= perDocCap {
			continue
		}
		perDoc[hit.DocumentID]++
		results = append(results, hit)
		if len(results) >= topK {
			break
		}
	}
	return results
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
