package handler

import (
	"net/http"

	"ddjj/internal/middleware"
	"ddjj/internal/service"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
)

type RectificationHandler struct {
	rectificationService service.RectificationService
}

func NewRectificationHandler(rectificationService service.RectificationService) *RectificationHandler {
	return &RectificationHandler{rectificationService: rectificationService}
}

func (h *RectificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	rect := router.Group("/api/rectifications")
	rect.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator, middleware.RoleTaxpayer))
	{
		rect.PUT("/:taxpayer/:trade/:period", h.Rectify)
		rect.GET("/:taxpayer/:trade/:period", h.ListByFiling)
	}

	transmissions := router.Group("/api/transmissions")
	transmissions.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator))
	{
		transmissions.PUT("/rectifications/:id", h.MarkTransmitted)
	}
}

// Rectify corrects a filing's declared amount
// @Summary      Rectify filing
// @Description  Records a numbered rectification and updates the filing's amount and fee
// @Tags         rectifications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        taxpayer  path      int                     true  "Taxpayer ID"
// @Param        trade     path      int                     true  "Trade ID"
// @Param        period    path      string                  true  "Period YYYY-MM"
// @Param        body      body      service.RectifyRequest  true  "New amount"
// @Success      201       {object}  response.Response{data=service.RectificationResponse}
// @Failure      400       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Router       /api/rectifications/{taxpayer}/{trade}/{period} [put]
func (h *RectificationHandler) Rectify(c *gin.Context) {
	key, ok := filingKeyFromPath(c)
	if !ok {
		return
	}
	if !middleware.CanActFor(c, key.TaxpayerID) {
		forbidden(c)
		return
	}

	var req service.RectifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	rect, err := h.rectificationService.Rectify(c.Request.Context(), key, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rect))
}

// ListByFiling returns the rectifications of a filing in sequence order
// @Summary      List rectifications
// @Tags         rectifications
// @Security     BearerAuth
// @Produce      json
// @Param        taxpayer  path      int     true  "Taxpayer ID"
// @Param        trade     path      int     true  "Trade ID"
// @Param        period    path      string  true  "Period YYYY-MM"
// @Success      200       {object}  response.Response{data=[]service.RectificationResponse}
// @Router       /api/rectifications/{taxpayer}/{trade}/{period} [get]
func (h *RectificationHandler) ListByFiling(c *gin.Context) {
	key, ok := filingKeyFromPath(c)
	if !ok {
		return
	}
	if !middleware.CanActFor(c, key.TaxpayerID) {
		forbidden(c)
		return
	}

	rects, err := h.rectificationService.ListByFiling(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rects))
}

// MarkTransmitted flags one rectification as sent
// @Summary      Mark rectification transmitted
// @Tags         transmissions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Rectification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transmissions/rectifications/{id} [put]
func (h *RectificationHandler) MarkTransmitted(c *gin.Context) {
	if err := h.rectificationService.MarkTransmitted(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"transmitted": true}))
}
