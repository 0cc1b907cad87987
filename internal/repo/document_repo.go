package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/propdesk/propdesk/internal/model"
	"github.com/propdesk/propdesk/internal/pkg/dbutil"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	entities, err := json.Marshal(doc.Entities)
	if err != nil {
		return err
	}
	if doc.Entities == nil {
		entities = []byte("[]")
	}
	data := map[string]interface{}{
		"id":         doc.ID,
		"mime_type":  doc.MimeType,
		"raw_size":   doc.RawSize,
		"file_key":   doc.FileKey,
		"status":     doc.Status,
		"diagnostic": doc.Diagnostic,
		"entities":   entities,
		"confidence": doc.Confidence,
		"ctime":      doc.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	const query = `
		SELECT id, mime_type, raw_size, file_key, status, diagnostic, entities, confidence, ctime
		FROM documents WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, docID)
	var doc model.Document
	var entities []byte
	if err := row.Scan(&doc.ID, &doc.MimeType, &doc.RawSize, &doc.FileKey, &doc.Status,
		&doc.Diagnostic, &entities, &doc.Confidence, &doc.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(entities, &doc.Entities); err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarkSuccess finalizes a pending document. The where-clause on status
// keeps success/error terminal: a document never transitions twice.
func (r *DocumentRepo) MarkSuccess(ctx context.Context, docID string, confidence float64, entities []model.Entity) error {
	blob, err := json.Marshal(entities)
	if err != nil {
		return err
	}
	if entities == nil {
		blob = []byte("[]")
	}
	const query = `
		UPDATE documents SET status = $1, confidence = $2, entities = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, model.DocumentStatusSuccess, confidence, blob, docID, model.DocumentStatusPending)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *DocumentRepo) MarkError(ctx context.Context, docID string, diagnostic string) error {
	const query = `
		UPDATE documents SET status = $1, diagnostic = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, model.DocumentStatusError, diagnostic, docID, model.DocumentStatusPending)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
