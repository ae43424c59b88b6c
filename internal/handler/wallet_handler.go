package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/service"
)

type WalletHandler struct {
	service service.WalletService
}

type linkWalletRequest struct {
	Address string `json:"address"`
	Primary bool   `json:"primary"`
}

type walletResponse struct {
	Address   string `json:"address"`
	IsPrimary bool   `json:"isPrimary"`
	CreatedAt string `json:"createdAt"`
}

func NewWalletHandler(service service.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/wallets", h.List)
	g.POST("/wallets", h.Link)
	g.DELETE("/wallets/:address", h.Unlink)
	g.POST("/wallets/:address/primary", h.SetPrimary)
}

func (h *WalletHandler) List(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	wallets, err := h.service.List(c.Request().Context(), user.ID)
	if err != nil {
		return writeServiceError(c, err)
	}

	response := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		response = append(response, toWalletResponse(w))
	}
	return c.JSON(http.StatusOK, response)
}

func (h *WalletHandler) Link(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req linkWalletRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	wallet, err := h.service.Link(c.Request().Context(), user.ID, req.Address, req.Primary)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toWalletResponse(*wallet))
}

func (h *WalletHandler) Unlink(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	if err := h.service.Unlink(c.Request().Context(), user.ID, c.Param("address")); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WalletHandler) SetPrimary(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}

	if err := h.service.SetPrimary(c.Request().Context(), user.ID, c.Param("address")); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toWalletResponse(w model.Wallet) walletResponse {
	return walletResponse{
		Address:   w.Address,
		IsPrimary: w.IsPrimary,
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
	}
}
