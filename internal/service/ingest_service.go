package service

import (
	"bytes"
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/propdesk/propdesk/internal/extract"
	"github.com/propdesk/propdesk/internal/filestore"
	"github.com/propdesk/propdesk/internal/ingest"
	"github.com/propdesk/propdesk/internal/model"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
	"github.com/propdesk/propdesk/internal/repo"
)

// IngestService accepts uploaded documents, keeps the raw payload and
// hands the document to the background pipeline. The document row is
// created as pending before the pipeline runs, so a status poll never
// races an in-flight ingest.
type IngestService struct {
	docs      *repo.DocumentRepo
	chunks    *repo.ChunkRepo
	store     filestore.Store
	pipeline  *ingest.Pipeline
	maxUpload int64
}

func NewIngestService(docs *repo.DocumentRepo, chunks *repo.ChunkRepo, store filestore.Store, pipeline *ingest.Pipeline, maxUpload int64) *IngestService {
	return &IngestService{
		docs:      docs,
		chunks:    chunks,
		store:     store,
		pipeline:  pipeline,
		maxUpload: maxUpload,
	}
}

// Submit validates the upload, persists the raw bytes and queues processing.
// The returned document is in status pending.
func (s *IngestService) Submit(ctx context.Context, data []byte, mimeType string) (*model.Document, error) {
	if len(data) == 0 {
		return nil, appErr.ErrInvalid
	}
	if s.maxUpload > 0 && int64(len(data)) > s.maxUpload {
		return nil, appErr.ErrInvalid
	}
	if !extract.Supported(mimeType) {
		return nil, appErr.ErrUnsupportedFormat
	}

	doc := &model.Document{
		ID:       newID(),
		MimeType: mimeType,
		RawSize:  int64(len(data)),
		Status:   model.DocumentStatusPending,
		Ctime:    time.Now().Unix(),
	}
	doc.FileKey = doc.ID
	if err := s.store.Save(ctx, doc.FileKey, bytes.NewReader(data), doc.RawSize); err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.pipeline.Submit(doc, data); err != nil {
		logutil.GetLogger(ctx).Error("queue document failed", zap.String("document_id", doc.ID), zap.Error(err))
		return nil, err
	}
	logutil.GetLogger(ctx).Info("document accepted",
		zap.String("document_id", doc.ID),
		zap.String("mime_type", mimeType),
		zap.Int64("size", doc.RawSize),
	)
	return doc, nil
}

type DocumentStatus struct {
	Document   *model.Document `json:"document"`
	ChunkCount int64           `json:"chunk_count"`
}

func (s *IngestService) Get(ctx context.Context, id string) (*DocumentStatus, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.chunks.CountByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentStatus{Document: doc, ChunkCount: count}, nil
}
