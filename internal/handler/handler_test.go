package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ddjj/internal/apperr"
	"ddjj/internal/backfill"
	"ddjj/internal/middleware"
	"ddjj/internal/model"
	"ddjj/internal/service"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFilingService implements service.FilingService for testing
type MockFilingService struct {
	SubmitFunc   func(ctx context.Context, req service.SubmitFilingRequest) (service.FilingResponse, error)
	FindFunc     func(ctx context.Context, taxpayerID, tradeID uint, year, month int) ([]service.FilingResponse, error)
	TransmitFunc func(ctx context.Context, key model.FilingKey, actor string) error
}

func (m *MockFilingService) SubmitFiling(ctx context.Context, req service.SubmitFilingRequest) (service.FilingResponse, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return service.FilingResponse{}, nil
}

func (m *MockFilingService) FindByPeriod(ctx context.Context, taxpayerID, tradeID uint, year, month int) ([]service.FilingResponse, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, taxpayerID, tradeID, year, month)
	}
	return []service.FilingResponse{}, nil
}

func (m *MockFilingService) MarkTransmitted(ctx context.Context, key model.FilingKey, actor string) error {
	if m.TransmitFunc != nil {
		return m.TransmitFunc(ctx, key, actor)
	}
	return nil
}

// MockRectificationService implements service.RectificationService for testing
type MockRectificationService struct {
	RectifyFunc  func(ctx context.Context, key model.FilingKey, req service.RectifyRequest) (service.RectificationResponse, error)
	TransmitFunc func(ctx context.Context, id, actor string) error
}

func (m *MockRectificationService) Rectify(ctx context.Context, key model.FilingKey, req service.RectifyRequest) (service.RectificationResponse, error) {
	if m.RectifyFunc != nil {
		return m.RectifyFunc(ctx, key, req)
	}
	return service.RectificationResponse{}, nil
}

func (m *MockRectificationService) ListByFiling(context.Context, model.FilingKey) ([]service.RectificationResponse, error) {
	return []service.RectificationResponse{}, nil
}

func (m *MockRectificationService) MarkTransmitted(ctx context.Context, id, actor string) error {
	if m.TransmitFunc != nil {
		return m.TransmitFunc(ctx, id, actor)
	}
	return nil
}

type MockBackfillController struct {
	status  backfill.Status
	report  backfill.Report
	err     error
	trigger backfill.Trigger
}

func (m *MockBackfillController) Status() backfill.Status { return m.status }

func (m *MockBackfillController) Run(_ context.Context, trigger backfill.Trigger) (backfill.Report, error) {
	m.trigger = trigger
	return m.report, m.err
}

type MockAuditService struct {
	actions []string
}

func (m *MockAuditService) GetAuditLogs(context.Context, int, int) ([]service.AuditLogResponse, int64, error) {
	return nil, 0, nil
}

func (m *MockAuditService) Record(_ context.Context, _, action, _, _ string, _ interface{}) {
	m.actions = append(m.actions, action)
}

func init() {
	gin.SetMode(gin.TestMode)
	middleware.InitAuth("handler-test-secret")
}

func token(t *testing.T, role string, taxpayerID uint) string {
	t.Helper()
	tok, err := middleware.IssueToken("tester", role, taxpayerID, time.Hour)
	require.NoError(t, err)
	return tok
}

type registrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func newRouter(handlers ...registrar) *gin.Engine {
	r := gin.New()
	for _, h := range handlers {
		h.RegisterRoutes(&r.RouterGroup)
	}
	return r
}

func do(r *gin.Engine, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.NotFound("filing"), http.StatusNotFound},
		{fmt.Errorf("%w: x", apperr.ErrDuplicateFiling), http.StatusConflict},
		{fmt.Errorf("%w: x", apperr.ErrAlreadyTransmitted), http.StatusConflict},
		{fmt.Errorf("%w: x", apperr.ErrConfigurationMissing), http.StatusInternalServerError},
		{apperr.Persistence("op", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestFilingHandler_Submit(t *testing.T) {
	svc := &MockFilingService{
		SubmitFunc: func(_ context.Context, req service.SubmitFilingRequest) (service.FilingResponse, error) {
			if req.Amount == "1" {
				return service.FilingResponse{}, fmt.Errorf("%w: 7/3/2025-03", apperr.ErrDuplicateFiling)
			}
			return service.FilingResponse{TaxpayerID: req.TaxpayerID, TradeID: req.TradeID, ComputedFee: "16000.00"}, nil
		},
	}
	r := newRouter(NewFilingHandler(svc))

	t.Run("created", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/filings", token(t, middleware.RoleTaxpayer, 7),
			service.SubmitFilingRequest{TaxpayerID: 7, TradeID: 3, Amount: "200000"})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "success", decode(t, w).Status)
	})

	t.Run("duplicate is conflict", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/filings", token(t, middleware.RoleTaxpayer, 7),
			service.SubmitFilingRequest{TaxpayerID: 7, TradeID: 3, Amount: "1"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("taxpayer filing for someone else", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/filings", token(t, middleware.RoleTaxpayer, 8),
			service.SubmitFilingRequest{TaxpayerID: 7, TradeID: 3, Amount: "200000"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/filings", "", service.SubmitFilingRequest{TaxpayerID: 7, TradeID: 3, Amount: "1"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/filings", token(t, middleware.RoleAdmin, 0), map[string]string{"amount": "10"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFilingHandler_FindByPeriod(t *testing.T) {
	var gotMonth int
	svc := &MockFilingService{
		FindFunc: func(_ context.Context, _, _ uint, _ int, month int) ([]service.FilingResponse, error) {
			gotMonth = month
			return []service.FilingResponse{}, nil
		},
	}
	r := newRouter(NewFilingHandler(svc))

	w := do(r, http.MethodGet, "/api/filings?taxpayer_id=7&trade_id=3&year=2025", token(t, middleware.RoleOperator, 0), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, gotMonth)

	w = do(r, http.MethodGet, "/api/filings?taxpayer_id=7&trade_id=3", token(t, middleware.RoleOperator, 0), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilingHandler_MarkTransmitted(t *testing.T) {
	var gotKey model.FilingKey
	svc := &MockFilingService{
		TransmitFunc: func(_ context.Context, key model.FilingKey, actor string) error {
			gotKey = key
			if key.TradeID == 99 {
				return apperr.NotFound("filing %s", key)
			}
			return nil
		},
	}
	r := newRouter(NewFilingHandler(svc))

	w := do(r, http.MethodPut, "/api/transmissions/filings/7/3/2025-03", token(t, middleware.RoleOperator, 0), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.FilingKey{TaxpayerID: 7, TradeID: 3, Period: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, gotKey)

	w = do(r, http.MethodPut, "/api/transmissions/filings/7/99/2025-03", token(t, middleware.RoleOperator, 0), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPut, "/api/transmissions/filings/7/3/marzo", token(t, middleware.RoleOperator, 0), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/api/transmissions/filings/7/3/2025-03", token(t, middleware.RoleTaxpayer, 7), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRectificationHandler_Rectify(t *testing.T) {
	svc := &MockRectificationService{
		RectifyFunc: func(_ context.Context, key model.FilingKey, req service.RectifyRequest) (service.RectificationResponse, error) {
			return service.RectificationResponse{SequenceNumber: 1, Amount: req.Amount, Period: key.Period.Format("2006-01")}, nil
		},
		TransmitFunc: func(_ context.Context, id, _ string) error {
			return fmt.Errorf("%w: rectification %s", apperr.ErrAlreadyTransmitted, id)
		},
	}
	r := newRouter(NewRectificationHandler(svc))

	w := do(r, http.MethodPut, "/api/rectifications/7/3/2025-03", token(t, middleware.RoleTaxpayer, 7), service.RectifyRequest{Amount: "250000"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPut, "/api/rectifications/8/3/2025-03", token(t, middleware.RoleTaxpayer, 7), service.RectifyRequest{Amount: "250000"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPut, "/api/transmissions/rectifications/abc", token(t, middleware.RoleAdmin, 0), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBackfillHandler(t *testing.T) {
	ctrl := &MockBackfillController{
		status: backfill.Status{State: backfill.StateIdle, DeadlineDay: 26},
		report: backfill.Report{Trigger: backfill.TriggerManual, Inserted: 150, Batches: 2},
	}
	audit := &MockAuditService{}
	r := newRouter(NewBackfillHandler(ctrl, audit))

	w := do(r, http.MethodGet, "/api/backfill/status", token(t, middleware.RoleAdmin, 0), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/backfill/run", token(t, middleware.RoleAdmin, 0), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, backfill.TriggerManual, ctrl.trigger)
	assert.Equal(t, []string{model.ActionTriggerBackfill}, audit.actions)

	ctrl.err = fmt.Errorf("%w: no row", apperr.ErrConfigurationMissing)
	w = do(r, http.MethodPost, "/api/backfill/run", token(t, middleware.RoleAdmin, 0), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(r, http.MethodPost, "/api/backfill/run", token(t, middleware.RoleOperator, 0), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
