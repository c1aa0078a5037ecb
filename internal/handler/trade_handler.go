package handler

import (
	"net/http"

	"ddjj/internal/middleware"
	"ddjj/internal/service"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
)

type TradeHandler struct {
	registryService service.RegistryService
}

func NewTradeHandler(registryService service.RegistryService) *TradeHandler {
	return &TradeHandler{registryService: registryService}
}

func (h *TradeHandler) RegisterRoutes(router *gin.RouterGroup) {
	trades := router.Group("/api/trades")
	{
		trades.GET("/:id", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator), h.GetTrade)
		trades.POST("/:id/activate", middleware.RequireRole(middleware.RoleAdmin), h.ActivateTrade)
	}
}

// GetTrade returns a trade with its owner
// @Summary      Get trade
// @Tags         trades
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Trade ID"
// @Success      200  {object}  response.Response{data=service.TradeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/trades/{id} [get]
func (h *TradeHandler) GetTrade(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	trade, err := h.registryService.GetTrade(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, trade))
}

// ActivateTrade marks a trade active and backfills it when the deadline already passed
// @Summary      Activate trade
// @Tags         trades
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Trade ID"
// @Success      200  {object}  response.Response{data=service.ActivateTradeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/trades/{id}/activate [post]
func (h *TradeHandler) ActivateTrade(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	res, err := h.registryService.ActivateTrade(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
