package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marginalia/backend/internal/handler"
	"marginalia/backend/internal/model"
	"marginalia/backend/internal/service/mock"
)

func TestCommentHandler_List_NestsReplies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now().UTC()
	commentService := mock.NewMockCommentService(ctrl)
	commentService.EXPECT().
		ListByDocument(gomock.Any(), "doc.pdf").
		Return([]model.Comment{
			{
				Hash: "h1", Username: "alice", Body: "top", VoteScore: 2, CreatedAt: now,
				Replies: []model.Comment{
					{Hash: "h2", Username: "bob", Body: "reply", CreatedAt: now},
				},
			},
		}, nil)

	h := handler.NewCommentHandler(commentService)
	e := newTestEcho()
	req := newJSONRequest(http.MethodGet, "/documents/doc.pdf/comments", nil)
	c, rec := newTestContext(e, req)
	setPathParams(c, map[string]string{"key": "doc.pdf"})

	require.NoError(t, h.List(c))

	var resp []handler.CommentResponse
	assertJSONResponse(t, rec, http.StatusOK, &resp)
	require.Len(t, resp, 1)
	require.Equal(t, "h1", resp[0].Hash)
	require.Equal(t, 2, resp[0].VoteScore)
	require.Len(t, resp[0].Replies, 1)
	require.Equal(t, "bob", resp[0].Replies[0].Username)
}

func TestCommentHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	commentService := mock.NewMockCommentService(ctrl)
	commentService.EXPECT().
		Create(gomock.Any(), gomock.Any(), "doc.pdf", "parent-hash", "hello").
		Return(&model.Comment{Hash: "new-hash", Username: "alice", Body: "hello"}, nil)

	h := handler.NewCommentHandler(commentService)
	e := newTestEcho()
	req := newJSONRequest(http.MethodPost, "/documents/doc.pdf/comments", map[string]string{
		"body":       "hello",
		"parentHash": "parent-hash",
	})
	c, rec := newTestContext(e, req)
	setPathParams(c, map[string]string{"key": "doc.pdf"})
	asUser(c, 42, "alice")

	require.NoError(t, h.Create(c))

	var resp handler.CommentResponse
	assertJSONResponse(t, rec, http.StatusCreated, &resp)
	require.Equal(t, "new-hash", resp.Hash)
}

func TestCommentHandler_Create_RequiresAuth(t *testing.T) {
	h := handler.NewCommentHandler(nil)
	e := newTestEcho()
	req := newJSONRequest(http.MethodPost, "/documents/doc.pdf/comments", map[string]string{"body": "hi"})
	c, rec := newTestContext(e, req)
	setPathParams(c, map[string]string{"key": "doc.pdf"})

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommentHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	commentService := mock.NewMockCommentService(ctrl)
	commentService.EXPECT().
		Delete(gomock.Any(), gomock.Any(), "h1").
		Return(nil)

	h := handler.NewCommentHandler(commentService)
	e := newTestEcho()
	req := newJSONRequest(http.MethodDelete, "/comments/h1", nil)
	c, rec := newTestContext(e, req)
	setPathParams(c, map[string]string{"hash": "h1"})
	asUser(c, 42, "alice")

	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCommentHandler_Vote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	commentService := mock.NewMockCommentService(ctrl)
	commentService.EXPECT().
		Vote(gomock.Any(), gomock.Any(), "h1", -1).
		Return(nil)

	h := handler.NewCommentHandler(commentService)
	e := newTestEcho()
	req := newJSONRequest(http.MethodPost, "/comments/h1/vote", map[string]int{"value": -1})
	c, rec := newTestContext(e, req)
	setPathParams(c, map[string]string{"hash": "h1"})
	asUser(c, 42, "alice")

	require.NoError(t, h.Vote(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
