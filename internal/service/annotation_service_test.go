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

func newAnnotationService(t *testing.T) (service.AnnotationService, *testDeps, repository.AnnotationRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	deps := &testDeps{
		documents: repository.NewDocumentRepository(db),
		bans:      repository.NewBannedUserRepository(db),
		users:     repository.NewUserRepository(db),
	}
	annotations := repository.NewAnnotationRepository(db)
	return service.NewAnnotationService(annotations, deps.documents, deps.bans), deps, annotations
}

func seedDoc(t *testing.T, deps *testDeps, key string) {
	t.Helper()
	_, err := deps.documents.Upsert(context.Background(), key, "", "", 0)
	require.NoError(t, err)
}

func TestAnnotationService_Save_StripsMarkup(t *testing.T) {
	svc, deps, _ := newAnnotationService(t)
	ctx := context.Background()

	seedDoc(t, deps, "doc.pdf")
	alice := deps.user(t, "alice")

	saved, err := svc.Save(ctx, alice, model.Annotation{
		DocumentKey: "doc.pdf",
		ClientID:    "c1",
		X:           0.5,
		Y:           0.5,
		Note:        `<script>alert(1)</script>plain note`,
		TextItems: []model.AnnotationTextItem{
			{X: 0.1, Y: 0.1, Text: `<b>bold</b> label`},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "plain note", saved.Note)
	require.Equal(t, "bold label", saved.TextItems[0].Text)
}

func TestAnnotationService_Save_Validation(t *testing.T) {
	svc, deps, _ := newAnnotationService(t)
	ctx := context.Background()

	seedDoc(t, deps, "doc.pdf")
	alice := deps.user(t, "alice")

	cases := []struct {
		name       string
		annotation model.Annotation
		wantErr    error
	}{
		{
			name:       "missing client id",
			annotation: model.Annotation{DocumentKey: "doc.pdf", X: 0.5, Y: 0.5},
			wantErr:    service.ErrInvalid,
		},
		{
			name:       "x out of range",
			annotation: model.Annotation{DocumentKey: "doc.pdf", ClientID: "c1", X: 1.5, Y: 0.5},
			wantErr:    service.ErrInvalid,
		},
		{
			name:       "negative y",
			annotation: model.Annotation{DocumentKey: "doc.pdf", ClientID: "c1", X: 0.5, Y: -0.1},
			wantErr:    service.ErrInvalid,
		},
		{
			name: "arrow out of range",
			annotation: model.Annotation{
				DocumentKey: "doc.pdf", ClientID: "c1", X: 0.5, Y: 0.5,
				ArrowItems: []model.AnnotationArrowItem{{X1: 0.1, Y1: 0.1, X2: 2, Y2: 0.4}},
			},
			wantErr: service.ErrInvalid,
		},
		{
			name:       "unknown document",
			annotation: model.Annotation{DocumentKey: "missing.pdf", ClientID: "c1", X: 0.5, Y: 0.5},
			wantErr:    service.ErrNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(ctx, alice, tc.annotation)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestAnnotationService_Save_BannedUser(t *testing.T) {
	svc, deps, _ := newAnnotationService(t)
	ctx := context.Background()

	seedDoc(t, deps, "doc.pdf")
	alice := deps.user(t, "alice")
	_, err := deps.bans.Ban(ctx, "alice", "abuse")
	require.NoError(t, err)

	_, err = svc.Save(ctx, alice, model.Annotation{DocumentKey: "doc.pdf", ClientID: "c1", X: 0.5, Y: 0.5})
	require.ErrorIs(t, err, service.ErrForbidden)
}

func TestAnnotationService_DeleteOwn(t *testing.T) {
	svc, deps, _ := newAnnotationService(t)
	ctx := context.Background()

	seedDoc(t, deps, "doc.pdf")
	alice := deps.user(t, "alice")
	bob := deps.user(t, "bob")

	_, err := svc.Save(ctx, alice, model.Annotation{DocumentKey: "doc.pdf", ClientID: "c1", X: 0.5, Y: 0.5})
	require.NoError(t, err)

	// Bob cannot delete Alice's annotation; the lookup is scoped to the
	// calling user, so it simply is not found.
	err = svc.Delete(ctx, bob, "doc.pdf", "c1")
	require.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, alice, "doc.pdf", "c1"))

	all, err := svc.ListByDocument(ctx, "doc.pdf")
	require.NoError(t, err)
	require.Empty(t, all)
}
