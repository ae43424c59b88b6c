package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/repository"
	"marginalia/backend/internal/repository/testutil"
	"marginalia/backend/internal/service"
)

func newDocumentService(t *testing.T) (service.DocumentService, *testDeps) {
	t.Helper()
	deps := newTestDeps(t)
	return service.NewDocumentService(deps.documents, deps.bans), deps
}

type testDeps struct {
	documents repository.DocumentRepository
	bans      repository.BannedUserRepository
	users     repository.UserRepository
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &testDeps{
		documents: repository.NewDocumentRepository(db),
		bans:      repository.NewBannedUserRepository(db),
		users:     repository.NewUserRepository(db),
	}
}

func (d *testDeps) user(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := d.users.Create(context.Background(), username, "", "hash")
	require.NoError(t, err)
	return user
}

func TestDocumentService_SyncManifestAndList(t *testing.T) {
	svc, _ := newDocumentService(t)
	ctx := context.Background()

	synced, err := svc.SyncManifest(ctx, []service.ManifestEntry{
		{Key: "DOJ-OGR-00000001.pdf", URL: "https://blob.example/1", SizeBytes: 100},
		{Key: "DOJ-OGR-00000002.pdf", URL: "https://blob.example/2", SizeBytes: 200},
		{Key: "", URL: "ignored"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, synced)

	page, err := svc.List(ctx, "", 50, 0)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Documents, 2)
	require.Equal(t, "DOJ-OGR-00000001.pdf", page.Documents[0].Key)

	// Re-syncing is idempotent.
	_, err = svc.SyncManifest(ctx, []service.ManifestEntry{
		{Key: "DOJ-OGR-00000001.pdf", URL: "https://blob.example/1b", SizeBytes: 150},
	})
	require.NoError(t, err)

	page, err = svc.List(ctx, "", 50, 0)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
}

func TestDocumentService_Get_NotFound(t *testing.T) {
	svc, _ := newDocumentService(t)

	_, err := svc.Get(context.Background(), "missing.pdf")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestDocumentService_Vote(t *testing.T) {
	svc, deps := newDocumentService(t)
	ctx := context.Background()

	_, err := svc.SyncManifest(ctx, []service.ManifestEntry{{Key: "doc.pdf"}})
	require.NoError(t, err)
	alice := deps.user(t, "alice")

	doc, err := svc.Vote(ctx, "doc.pdf", alice, 1)
	require.NoError(t, err)
	require.Equal(t, 1, doc.VoteScore)

	value, err := svc.MyVote(ctx, "doc.pdf", alice.ID)
	require.NoError(t, err)
	require.Equal(t, 1, value)

	// Zero clears the vote.
	doc, err = svc.Vote(ctx, "doc.pdf", alice, 0)
	require.NoError(t, err)
	require.Zero(t, doc.VoteScore)

	_, err = svc.Vote(ctx, "doc.pdf", alice, 2)
	require.ErrorIs(t, err, service.ErrInvalid)

	_, err = svc.Vote(ctx, "missing.pdf", alice, 1)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestDocumentService_Vote_BannedUser(t *testing.T) {
	svc, deps := newDocumentService(t)
	ctx := context.Background()

	_, err := svc.SyncManifest(ctx, []service.ManifestEntry{{Key: "doc.pdf"}})
	require.NoError(t, err)
	alice := deps.user(t, "alice")
	_, err = deps.bans.Ban(ctx, "alice", "abuse")
	require.NoError(t, err)

	_, err = svc.Vote(ctx, "doc.pdf", alice, 1)
	require.ErrorIs(t, err, service.ErrForbidden)
}
