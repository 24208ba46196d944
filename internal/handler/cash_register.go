package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/apierror"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/middleware"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ReportCache holds reports of closed sessions. infra.ReportCache implements it.
type ReportCache interface {
	Get(ctx context.Context, sessionID int64) (*dto.SessionReport, error)
	Put(ctx context.Context, report *dto.SessionReport) error
}

type CashRegisterHandler struct {
	svc     service.CashRegisterService
	reports ReportCache
}

// NewCashRegisterHandler builds the handler. reports may be nil, which disables
// the report cache.
func NewCashRegisterHandler(svc service.CashRegisterService, reports ReportCache) *CashRegisterHandler {
	return &CashRegisterHandler{svc: svc, reports: reports}
}

// CurrentSession godoc
// @Summary Returns the open cash register session
// @Tags cash-register
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Session
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash-register/current-session [get]
func (h *CashRegisterHandler) CurrentSession(c *gin.Context) {
	sess, err := h.svc.CurrentSession(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// OpenSession godoc
// @Summary Opens a new cash register session
// @Tags cash-register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Opening balance"
// @Success 201 {object} dto.Session
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cash-register/open-session [post]
func (h *CashRegisterHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, err := h.svc.OpenSession(c.Request.Context(), actor(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// CloseSession godoc
// @Summary Closes a session and reconciles the declared balance
// @Tags cash-register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param body body dto.CloseSessionRequest true "Declared balance"
// @Success 200 {object} dto.CloseSessionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cash-register/close-session/{id} [patch]
// @Router /v1/cash-register/close-session/{id}/denominations [patch]
func (h *CashRegisterHandler) CloseSession(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseSession(c.Request.Context(), actor(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PerformCut godoc
// @Summary Records a cut with per-method totals
// @Tags cash-register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID"
// @Param body body dto.CutRequest true "Payment breakdown"
// @Success 201 {object} dto.CutResult
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash-register/cut/{sessionId} [post]
func (h *CashRegisterHandler) PerformCut(c *gin.Context) {
	id, ok := int64Param(c, "sessionId")
	if !ok {
		return
	}
	var req dto.CutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PerformCut(c.Request.Context(), actor(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListTransactions godoc
// @Summary Lists the transactions of a session
// @Tags cash-register
// @Produce json
// @Security BearerAuth
// @Param session_id query int true "Session ID"
// @Success 200 {array} dto.Transaction
// @Failure 400 {object} apierror.APIError
// @Router /v1/cash-register/transactions [get]
func (h *CashRegisterHandler) ListTransactions(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("session_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid session_id"))
		return
	}
	txns, err := h.svc.ListTransactions(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// AddExpense godoc
// @Summary Registers an expense paid from the drawer
// @Tags cash-register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID"
// @Param body body dto.ExpenseRequest true "Expense"
// @Success 201 {object} dto.Transaction
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cash-register/expense/{sessionId} [post]
func (h *CashRegisterHandler) AddExpense(c *gin.Context) {
	id, ok := int64Param(c, "sessionId")
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	txn, err := h.svc.AddExpense(c.Request.Context(), actor(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// RecordTransaction godoc
// @Summary Records a sale, refund, cancellation, tip or manual movement
// @Tags cash-register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID"
// @Param body body dto.RecordTransactionRequest true "Transaction"
// @Success 201 {object} dto.Transaction
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cash-register/transactions/{sessionId} [post]
func (h *CashRegisterHandler) RecordTransaction(c *gin.Context) {
	id, ok := int64Param(c, "sessionId")
	if !ok {
		return
	}
	var req dto.RecordTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	txn, err := h.svc.RecordTransaction(c.Request.Context(), actor(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// DeleteTransaction godoc
// @Summary Deletes a transaction from an open session (supervisor/admin)
// @Tags cash-register
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash-register/transaction/{id} [delete]
func (h *CashRegisterHandler) DeleteTransaction(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTransaction(c.Request.Context(), actor(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSessions godoc
// @Summary Lists past and current sessions, newest first
// @Tags cash-register
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.SessionPage
// @Router /v1/cash-register/sessions [get]
func (h *CashRegisterHandler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.svc.ListSessions(c.Request.Context(), page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SessionReport godoc
// @Summary Returns a session with its derived totals
// @Tags cash-register
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.SessionReport
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash-register/sessions/{id}/report [get]
func (h *CashRegisterHandler) SessionReport(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if h.reports != nil {
		cached, err := h.reports.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Int64("session_id", id).Msg("report cache read failed")
		} else if cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	resp, err := h.svc.SessionReport(ctx, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// Only closed sessions are immutable.
	if h.reports != nil && resp.Session.Status == dto.StatusClosed {
		if err := h.reports.Put(context.WithoutCancel(ctx), resp); err != nil {
			log.Warn().Err(err).Int64("session_id", id).Msg("report cache write failed")
		}
	}

	c.JSON(http.StatusOK, resp)
}

// actor names the authenticated user for audit columns.
func actor(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil {
		if claims.Username != "" {
			return claims.Username
		}
		return claims.Subject
	}
	return "anonymous"
}
