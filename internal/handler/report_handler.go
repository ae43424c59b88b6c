package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/service"
)

type ReportHandler struct {
	service service.ReportService
}

type reportRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type featureRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func NewReportHandler(service service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Feature requests are open to anonymous callers and rate limited by
// client address; content reports require an account and are limited
// per user.
func (h *ReportHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/feature-request", h.RequestFeature)
}

func (h *ReportHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.POST("/report", h.Report)
}

func (h *ReportHandler) Report(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	if err := h.service.Report(c.Request().Context(), user, req.Type, req.ID, req.Reason); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "received"})
}

func (h *ReportHandler) RequestFeature(c echo.Context) error {
	var req featureRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	err := h.service.RequestFeature(c.Request().Context(), c.RealIP(), currentUser(c), req.Title, req.Description)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, statusResponse{Status: "created"})
}
