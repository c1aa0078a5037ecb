package handler

import (
	"net/http"

	"ddjj/internal/middleware"
	"ddjj/internal/service"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
)

type ConfigurationHandler struct {
	configService service.ConfigurationService
}

func NewConfigurationHandler(configService service.ConfigurationService) *ConfigurationHandler {
	return &ConfigurationHandler{configService: configService}
}

func (h *ConfigurationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/configuration")
	{
		group.GET("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator), h.GetConfiguration)
		group.PUT("", middleware.RequireRole(middleware.RoleAdmin), h.UpdateConfiguration)
	}
}

// GetConfiguration returns the filing policy
// @Summary      Get configuration
// @Description  Returns deadline day, current rate, default amount and good taxpayer discount
// @Tags         configuration
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.ConfigurationResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/configuration [get]
func (h *ConfigurationHandler) GetConfiguration(c *gin.Context) {
	cfg, err := h.configService.GetConfiguration(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cfg))
}

// UpdateConfiguration replaces the filing policy
// @Summary      Update configuration
// @Description  Validates and stores a new policy; the monthly backfill is rescheduled when the deadline moves
// @Tags         configuration
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.UpdateConfigurationRequest  true  "New policy"
// @Success      200   {object}  response.Response{data=service.ConfigurationResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/configuration [put]
func (h *ConfigurationHandler) UpdateConfiguration(c *gin.Context) {
	var req service.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	cfg, err := h.configService.UpdateConfiguration(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cfg))
}
