package handler

import (
	"context"
	"errors"
	"net/http"

	"ddjj/internal/backfill"
	"ddjj/internal/middleware"
	"ddjj/internal/model"
	"ddjj/internal/service"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
)

// BackfillController is the part of the scheduler the API drives.
type BackfillController interface {
	Status() backfill.Status
	Run(ctx context.Context, trigger backfill.Trigger) (backfill.Report, error)
}

type BackfillHandler struct {
	controller   BackfillController
	auditService service.AuditService
}

func NewBackfillHandler(controller BackfillController, auditService service.AuditService) *BackfillHandler {
	return &BackfillHandler{controller: controller, auditService: auditService}
}

func (h *BackfillHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/backfill")
	group.Use(middleware.RequireRole(middleware.RoleAdmin))
	{
		group.GET("/status", h.GetStatus)
		group.POST("/run", h.Run)
	}
}

// GetStatus reports the runner state, next monthly run and last report
// @Summary      Backfill status
// @Tags         backfill
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=backfill.Status}
// @Router       /api/backfill/status [get]
func (h *BackfillHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.controller.Status()))
}

// Run starts a backfill run now, regardless of the deadline
// @Summary      Run backfill
// @Description  Drains every active trade without a filing for the current period. Returns at once with coalesced=true when a run is already active.
// @Tags         backfill
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=backfill.Report}
// @Failure      500  {object}  response.Response
// @Router       /api/backfill/run [post]
func (h *BackfillHandler) Run(c *gin.Context) {
	report, err := h.controller.Run(c.Request.Context(), backfill.TriggerManual)
	h.auditService.Record(c.Request.Context(), middleware.Actor(c), model.ActionTriggerBackfill, "backfill", string(backfill.TriggerManual), report)
	if err != nil && !errors.Is(err, backfill.ErrBatchLimit) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
