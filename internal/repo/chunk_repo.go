package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/propdesk/propdesk/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// SaveAll writes every chunk of one document in a single transaction so a
// failed ingestion never leaves a partial chunk set behind.
func (r *ChunkRepo) SaveAll(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	const query = `
		INSERT INTO chunks (id, document_id, seq, content, embedding, page, chunk_type, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, query,
			chunk.ID,
			chunk.DocumentID,
			chunk.Seq,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			chunk.Page,
			chunk.ChunkType,
			chunk.Ctime,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SearchFilter narrows nearest-neighbor search to document formats or
// chunk kinds; empty slices mean no restriction.
type SearchFilter struct {
	MimeTypes  []string
	ChunkTypes []string
}

// Search runs cosine nearest-neighbor over chunks of fully ingested
// documents. Score is 1 - cosine distance; rows under minScore are
// filtered in SQL so callers never see sub-threshold matches.
func (r *ChunkRepo) Search(ctx context.Context, embedding []float32, limit int, minScore float64, filter SearchFilter) ([]model.ScoredChunk, error) {
	vec := pgvector.NewVector(embedding)
	query := `
		SELECT c.id, c.document_id, c.seq, c.content, c.page, c.chunk_type, c.ctime,
			1 - (c.embedding <=> ?) AS score
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.status = ? AND 1 - (c.embedding <=> ?) >= ?
	`
	args := []interface{}{vec, model.DocumentStatusSuccess, vec, minScore}
	if len(filter.MimeTypes) > 0 {
		query += " AND d.mime_type IN (?)"
		args = append(args, filter.MimeTypes)
	}
	if len(filter.ChunkTypes) > 0 {
		query += " AND c.chunk_type IN (?)"
		args = append(args, filter.ChunkTypes)
	}
	query += " ORDER BY c.embedding <=> ? LIMIT ?"
	args = append(args, vec, limit)

	query, flatArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, flatArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ScoredChunk
	for rows.Next() {
		var item model.ScoredChunk
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Seq, &item.Content,
			&item.Page, &item.ChunkType, &item.Ctime, &item.Score); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, docID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM chunks WHERE document_id = $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, docID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, docID string) ([]model.Chunk, error) {
	const query = `
		SELECT id, document_id, seq, content, page, chunk_type, ctime
		FROM chunks WHERE document_id = $1 ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []model.Chunk
	for rows.Next() {
		var chunk model.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Content,
			&chunk.Page, &chunk.ChunkType, &chunk.Ctime); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
