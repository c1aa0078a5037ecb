package handler

import (
	"net/http"
	"strconv"

	"ddjj/internal/middleware"
	"ddjj/internal/service"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
)

type FilingHandler struct {
	filingService service.FilingService
}

func NewFilingHandler(filingService service.FilingService) *FilingHandler {
	return &FilingHandler{filingService: filingService}
}

func (h *FilingHandler) RegisterRoutes(router *gin.RouterGroup) {
	filings := router.Group("/api/filings")
	filings.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator, middleware.RoleTaxpayer))
	{
		filings.POST("", h.SubmitFiling)
		filings.GET("", h.FindByPeriod)
	}

	transmissions := router.Group("/api/transmissions")
	transmissions.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator))
	{
		transmissions.PUT("/filings/:taxpayer/:trade/:period", h.MarkTransmitted)
	}
}

// SubmitFiling records the current month's declaration
// @Summary      Submit filing
// @Description  Creates the filing for the current period; the fee is computed with the configuration in force
// @Tags         filings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.SubmitFilingRequest  true  "Declaration"
// @Success      201   {object}  response.Response{data=service.FilingResponse}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /api/filings [post]
func (h *FilingHandler) SubmitFiling(c *gin.Context) {
	var req service.SubmitFilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if !middleware.CanActFor(c, req.TaxpayerID) {
		forbidden(c)
		return
	}

	filing, err := h.filingService.SubmitFiling(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, filing))
}

// FindByPeriod lists a trade's filings for a year or a month
// @Summary      List filings
// @Tags         filings
// @Security     BearerAuth
// @Produce      json
// @Param        taxpayer_id  query     int  true   "Taxpayer ID"
// @Param        trade_id     query     int  true   "Trade ID"
// @Param        year         query     int  true   "Year"
// @Param        month        query     int  false  "Month 1-12; omit for the whole year"
// @Success      200          {object}  response.Response{data=[]service.FilingResponse}
// @Router       /api/filings [get]
func (h *FilingHandler) FindByPeriod(c *gin.Context) {
	taxpayerID, err1 := strconv.ParseUint(c.Query("taxpayer_id"), 10, 64)
	tradeID, err2 := strconv.ParseUint(c.Query("trade_id"), 10, 64)
	year, err3 := strconv.Atoi(c.Query("year"))
	if err1 != nil || err2 != nil || err3 != nil {
		badRequest(c, "taxpayer_id, trade_id and year are required numbers")
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", "0"))
	if err != nil {
		badRequest(c, "month must be a number")
		return
	}
	if !middleware.CanActFor(c, uint(taxpayerID)) {
		forbidden(c)
		return
	}

	filings, err := h.filingService.FindByPeriod(c.Request.Context(), uint(taxpayerID), uint(tradeID), year, month)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, filings))
}

// MarkTransmitted flags a filing as sent to the external system
// @Summary      Mark filing transmitted
// @Tags         transmissions
// @Security     BearerAuth
// @Produce      json
// @Param        taxpayer  path      int     true  "Taxpayer ID"
// @Param        trade     path      int     true  "Trade ID"
// @Param        period    path      string  true  "Period YYYY-MM"
// @Success      200       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Router       /api/transmissions/filings/{taxpayer}/{trade}/{period} [put]
func (h *FilingHandler) MarkTransmitted(c *gin.Context) {
	key, ok := filingKeyFromPath(c)
	if !ok {
		return
	}
	if err := h.filingService.MarkTransmitted(c.Request.Context(), key, middleware.Actor(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"transmitted": true}))
}
