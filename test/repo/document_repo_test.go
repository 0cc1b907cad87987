package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/model"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
	"github.com/propdesk/propdesk/internal/pkg/timeutil"
	"github.com/propdesk/propdesk/internal/repo"
	"github.com/propdesk/propdesk/test/testutil"
)

func TestDocumentLifecycle(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := repo.NewDocumentRepo(db)
	ctx := context.Background()

	doc := &model.Document{
		ID:       "doc-1",
		MimeType: "text/plain",
		RawSize:  128,
		FileKey:  "doc-1",
		Status:   model.DocumentStatusPending,
		Ctime:    timeutil.NowUnix(),
	}
	require.NoError(t, docs.Create(ctx, doc))

	fetched, err := docs.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusPending, fetched.Status)

	entities := []model.Entity{{Kind: "price", Value: "AED 1,850,000"}}
	require.NoError(t, docs.MarkSuccess(ctx, "doc-1", 0.5, entities))

	fetched, err = docs.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusSuccess, fetched.Status)
	require.InDelta(t, 0.5, fetched.Confidence, 0.001)
	require.Equal(t, entities, fetched.Entities)

	// Terminal states never transition again.
	require.ErrorIs(t, docs.MarkError(ctx, "doc-1", "late failure"), appErr.ErrNotFound)
	require.ErrorIs(t, docs.MarkSuccess(ctx, "doc-1", 0.9, nil), appErr.ErrNotFound)
}

func TestDocumentMarkError(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := repo.NewDocumentRepo(db)
	ctx := context.Background()

	doc := &model.Document{
		ID:       "doc-err",
		MimeType: "application/pdf",
		Status:   model.DocumentStatusPending,
		FileKey:  "doc-err",
		Ctime:    timeutil.NowUnix(),
	}
	require.NoError(t, docs.Create(ctx, doc))
	require.NoError(t, docs.MarkError(ctx, "doc-err", "extract: encrypted pdf"))

	fetched, err := docs.GetByID(ctx, "doc-err")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusError, fetched.Status)
	require.Equal(t, "extract: encrypted pdf", fetched.Diagnostic)

	require.ErrorIs(t, docs.MarkSuccess(ctx, "doc-err", 1.0, nil), appErr.ErrNotFound)
}

func TestDocumentGetMissing(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := repo.NewDocumentRepo(db)

	_, err := docs.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
