package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/service"
)

type CommentHandler struct {
	service service.CommentService
}

type createCommentRequest struct {
	Body       string `json:"body"`
	ParentHash string `json:"parentHash"`
}

type commentResponse struct {
	Hash      string            `json:"hash"`
	Username  string            `json:"username"`
	Body      string            `json:"body"`
	VoteScore int               `json:"voteScore"`
	CreatedAt string            `json:"createdAt"`
	Replies   []commentResponse `json:"replies,omitempty"`
}

func NewCommentHandler(service service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/documents/:key/comments", h.List)
}

func (h *CommentHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.POST("/documents/:key/comments", h.Create)
	g.DELETE("/comments/:hash", h.Delete)
	g.POST("/comments/:hash/vote", h.Vote)
}

func (h *CommentHandler) List(c echo.Context) error {
	comments, err := h.service.ListByDocument(c.Request().Context(), c.Param("key"))
	if err != nil {
		return writeServiceError(c, err)
	}

	response := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		response = append(response, toCommentResponse(comment))
	}
	return c.JSON(http.StatusOK, response)
}

func (h *CommentHandler) Create(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	comment, err := h.service.Create(c.Request().Context(), user, c.Param("key"), req.ParentHash, req.Body)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toCommentResponse(*comment))
}

func (h *CommentHandler) Delete(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	if err := h.service.Delete(c.Request().Context(), user, c.Param("hash")); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) Vote(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	if err := h.service.Vote(c.Request().Context(), user, c.Param("hash"), req.Value); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toCommentResponse(comment model.Comment) commentResponse {
	resp := commentResponse{
		Hash:      comment.Hash,
		Username:  comment.Username,
		Body:      comment.Body,
		VoteScore: comment.VoteScore,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, reply := range comment.Replies {
		resp.Replies = append(resp.Replies, toCommentResponse(reply))
	}
	return resp
}
