package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/cache"
	"github.com/propdesk/propdesk/internal/model"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
	"github.com/propdesk/propdesk/internal/pkg/timeutil"
	"github.com/propdesk/propdesk/internal/repo"
	"github.com/propdesk/propdesk/internal/service"
	"github.com/propdesk/propdesk/test/testutil"
)

func newSessionService(t *testing.T, convs *repo.ConversationRepo, msgs *repo.MessageRepo) *service.SessionService {
	t.Helper()
	store, err := cache.New("memory", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	listing := cache.NewListing(store, time.Minute, time.Minute)
	return service.NewSessionService(convs, msgs, listing)
}

func seedOwned(t *testing.T, convs *repo.ConversationRepo, id, owner string, mtime int64) {
	t.Helper()
	require.NoError(t, convs.Create(context.Background(), &model.Conversation{
		ID:     id,
		UserID: owner,
		Title:  "t",
		Role:   model.RoleClient,
		Ctime:  mtime,
		Mtime:  mtime,
	}))
}

func TestSessionListValidation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	sessions := newSessionService(t, repo.NewConversationRepo(db), repo.NewMessageRepo(db))
	caller := service.Caller{UserID: "user-1", Role: model.RoleClient}
	ctx := context.Background()

	_, err := sessions.List(ctx, caller, 0, 20, 0)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = sessions.List(ctx, caller, 1, 101, 0)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = sessions.Recent(ctx, caller, 31, 10)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = sessions.Recent(ctx, caller, 7, 51)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSessionListOwnershipAndCache(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	convs := repo.NewConversationRepo(db)
	sessions := newSessionService(t, convs, repo.NewMessageRepo(db))
	ctx := context.Background()

	seedOwned(t, convs, "c1", "user-1", timeutil.NowUnix())
	seedOwned(t, convs, "c2", "user-2", timeutil.NowUnix())

	mine, err := sessions.List(ctx, service.Caller{UserID: "user-1", Role: model.RoleClient}, 1, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, mine.Total)
	require.Equal(t, "c1", mine.Items[0].ID)

	// Cached reads stay scoped: the other owner gets their own page.
	theirs, err := sessions.List(ctx, service.Caller{UserID: "user-2", Role: model.RoleClient}, 1, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, theirs.Total)
	require.Equal(t, "c2", theirs.Items[0].ID)

	all, err := sessions.List(ctx, service.Caller{UserID: "admin-1", Role: model.RoleAdmin}, 1, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Total)
}

func TestSessionMessagesOwnership(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	convs := repo.NewConversationRepo(db)
	sessions := newSessionService(t, convs, repo.NewMessageRepo(db))
	ctx := context.Background()

	seedOwned(t, convs, "c1", "user-1", timeutil.NowUnix())

	_, err := sessions.ListMessages(ctx, service.Caller{UserID: "user-2", Role: model.RoleClient}, "c1", 10)
	require.ErrorIs(t, err, appErr.ErrNotFound, "foreign conversations must look nonexistent")

	_, err = sessions.ListMessages(ctx, service.Caller{UserID: "user-1", Role: model.RoleClient}, "c1", 10)
	require.NoError(t, err)

	_, err = sessions.ListMessages(ctx, service.Caller{UserID: "admin-1", Role: model.RoleAdmin}, "c1", 10)
	require.NoError(t, err)
}

func TestSessionDeleteInvalidatesListing(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	convs := repo.NewConversationRepo(db)
	sessions := newSessionService(t, convs, repo.NewMessageRepo(db))
	ctx := context.Background()
	caller := service.Caller{UserID: "user-1", Role: model.RoleClient}

	seedOwned(t, convs, "c1", "user-1", timeutil.NowUnix())
	seedOwned(t, convs, "c2", "user-1", timeutil.NowUnix())

	before, err := sessions.List(ctx, caller, 1, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, before.Total)

	require.NoError(t, sessions.Delete(ctx, caller, "c1"))

	// The cached page from before the delete must not be served.
	after, err := sessions.List(ctx, caller, 1, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, after.Total)

	require.ErrorIs(t, sessions.Delete(ctx, caller, "c1"), appErr.ErrNotFound)
}
