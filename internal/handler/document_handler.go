package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/service"
)

type DocumentHandler struct {
	service service.DocumentService
}

type documentResponse struct {
	Key             string `json:"key"`
	Title           string `json:"title,omitempty"`
	URL             string `json:"url,omitempty"`
	SizeBytes       int64  `json:"sizeBytes"`
	AnnotationCount int    `json:"annotationCount"`
	CommentCount    int    `json:"commentCount"`
	VoteScore       int    `json:"voteScore"`
	UpdatedAt       string `json:"updatedAt"`
}

type documentListResponse struct {
	Documents []documentResponse `json:"documents"`
	Total     int                `json:"total"`
}

type voteRequest struct {
	Value int `json:"value"`
}

type voteResponse struct {
	VoteScore int `json:"voteScore"`
	MyVote    int `json:"myVote"`
}

func NewDocumentHandler(service service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/documents", h.List)
	g.GET("/documents/:key", h.Get)
}

func (h *DocumentHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.POST("/documents/:key/vote", h.Vote)
	g.GET("/documents/:key/vote", h.MyVote)
}

func (h *DocumentHandler) List(c echo.Context) error {
	page, err := h.service.List(
		c.Request().Context(),
		c.QueryParam("sort"),
		parseIntQuery(c, "limit", 100),
		parseIntQuery(c, "offset", 0),
	)
	if err != nil {
		return writeServiceError(c, err)
	}

	documents := make([]documentResponse, 0, len(page.Documents))
	for _, doc := range page.Documents {
		documents = append(documents, toDocumentResponse(doc))
	}
	return c.JSON(http.StatusOK, documentListResponse{Documents: documents, Total: page.Total})
}

func (h *DocumentHandler) Get(c echo.Context) error {
	doc, err := h.service.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toDocumentResponse(*doc))
}

func (h *DocumentHandler) Vote(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	doc, err := h.service.Vote(c.Request().Context(), c.Param("key"), user, req.Value)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, voteResponse{VoteScore: doc.VoteScore, MyVote: req.Value})
}

func (h *DocumentHandler) MyVote(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	value, err := h.service.MyVote(c.Request().Context(), c.Param("key"), user.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, voteResponse{MyVote: value})
}

func toDocumentResponse(doc model.Document) documentResponse {
	return documentResponse{
		Key:             doc.Key,
		Title:           doc.Title,
		URL:             doc.BlobURL,
		SizeBytes:       doc.SizeBytes,
		AnnotationCount: doc.AnnotationCount,
		CommentCount:    doc.CommentCount,
		VoteScore:       doc.VoteScore,
		UpdatedAt:       doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
