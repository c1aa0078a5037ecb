package handler

import (
	"errors"
	"net/http"
	"strconv"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/period"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateFiling), errors.Is(err, apperr.ErrAlreadyTransmitted):
		return http.StatusConflict
	default:
		// ErrConfigurationMissing, ErrPersistence and anything unclassified
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: not your taxpayer account"))
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "Invalid "+name+": "+c.Param(name))
		return 0, false
	}
	return uint(n), true
}

// filingKeyFromPath reads :taxpayer/:trade/:period.
func filingKeyFromPath(c *gin.Context) (model.FilingKey, bool) {
	taxpayerID, ok := parseUintParam(c, "taxpayer")
	if !ok {
		return model.FilingKey{}, false
	}
	tradeID, ok := parseUintParam(c, "trade")
	if !ok {
		return model.FilingKey{}, false
	}
	p, err := period.Parse(c.Param("period"))
	if err != nil {
		badRequest(c, err.Error())
		return model.FilingKey{}, false
	}
	return model.FilingKey{TaxpayerID: taxpayerID, TradeID: tradeID, Period: p}, true
}
