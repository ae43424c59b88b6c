package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/service"
)

type AnnotationHandler struct {
	service service.AnnotationService
}

type textItemDTO struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Text       string  `json:"text"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   string  `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	Color      string  `json:"color,omitempty"`
	Opacity    float64 `json:"opacity,omitempty"`
}

type arrowItemDTO struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type saveAnnotationRequest struct {
	ClientID   string         `json:"clientId"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Note       string         `json:"note"`
	TextItems  []textItemDTO  `json:"textItems"`
	ArrowItems []arrowItemDTO `json:"arrowItems"`
}

type annotationResponse struct {
	ClientID   string         `json:"clientId"`
	Username   string         `json:"username,omitempty"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Note       string         `json:"note,omitempty"`
	TextItems  []textItemDTO  `json:"textItems,omitempty"`
	ArrowItems []arrowItemDTO `json:"arrowItems,omitempty"`
	UpdatedAt  string         `json:"updatedAt"`
}

func NewAnnotationHandler(service service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{service: service}
}

func (h *AnnotationHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/documents/:key/annotations", h.List)
}

func (h *AnnotationHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.PUT("/documents/:key/annotations", h.Save)
	g.DELETE("/documents/:key/annotations/:clientId", h.Delete)
}

// List returns annotations on a document. With ?mine=1 only the
// caller's own annotations are returned, which requires auth.
func (h *AnnotationHandler) List(c echo.Context) error {
	key := c.Param("key")

	var annotations []model.Annotation
	var err error
	if c.QueryParam("mine") == "1" {
		user := currentUser(c)
		if user == nil {
			return writeError(c, http.StatusUnauthorized, "unauthorized")
		}
		annotations, err = h.service.ListMine(c.Request().Context(), key, user.ID)
	} else {
		annotations, err = h.service.ListByDocument(c.Request().Context(), key)
	}
	if err != nil {
		return writeServiceError(c, err)
	}

	response := make([]annotationResponse, 0, len(annotations))
	for _, a := range annotations {
		response = append(response, toAnnotationResponse(a))
	}
	return c.JSON(http.StatusOK, response)
}

func (h *AnnotationHandler) Save(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req saveAnnotationRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	annotation := model.Annotation{
		DocumentKey: c.Param("key"),
		ClientID:    req.ClientID,
		X:           req.X,
		Y:           req.Y,
		Note:        req.Note,
	}
	for _, item := range req.TextItems {
		annotation.TextItems = append(annotation.TextItems, model.AnnotationTextItem{
			X: item.X, Y: item.Y, Text: item.Text,
			FontFamily: item.FontFamily, FontSize: item.FontSize,
			FontWeight: item.FontWeight, FontStyle: item.FontStyle,
			Color: item.Color, Opacity: item.Opacity,
		})
	}
	for _, item := range req.ArrowItems {
		annotation.ArrowItems = append(annotation.ArrowItems, model.AnnotationArrowItem{
			X1: item.X1, Y1: item.Y1, X2: item.X2, Y2: item.Y2,
		})
	}

	saved, err := h.service.Save(c.Request().Context(), user, annotation)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toAnnotationResponse(*saved))
}

func (h *AnnotationHandler) Delete(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	if err := h.service.Delete(c.Request().Context(), user, c.Param("key"), c.Param("clientId")); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toAnnotationResponse(a model.Annotation) annotationResponse {
	resp := annotationResponse{
		ClientID:  a.ClientID,
		X:         a.X,
		Y:         a.Y,
		Note:      a.Note,
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, item := range a.TextItems {
		resp.TextItems = append(resp.TextItems, textItemDTO{
			X: item.X, Y: item.Y, Text: item.Text,
			FontFamily: item.FontFamily, FontSize: item.FontSize,
			FontWeight: item.FontWeight, FontStyle: item.FontStyle,
			Color: item.Color, Opacity: item.Opacity,
		})
	}
	for _, item := range a.ArrowItems {
		resp.ArrowItems = append(resp.ArrowItems, arrowItemDTO{
			X1: item.X1, Y1: item.Y1, X2: item.X2, Y2: item.Y2,
		})
	}
	return resp
}
