package http

import (
	stderrors "errors"
	"net/http"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"
	"streamshare/internal/core/services"
	"streamshare/internal/infrastructure/middleware"
	"streamshare/pkg/errors"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	settlement  ports.SettlementService
	ledger      ports.Ledger
	authService services.AuthService
}

func NewTransactionHandler(settlement ports.SettlementService, ledger ports.Ledger, authService services.AuthService) *TransactionHandler {
	return &TransactionHandler{
		settlement:  settlement,
		ledger:      ledger,
		authService: authService,
	}
}

func (h *TransactionHandler) SetupRoutes(router *gin.Engine) {
	authed := router.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(h.authService))
	{
		authed.POST("/transactions/stream-join", h.StreamJoin)
		authed.POST("/transactions/stream-leave", h.StreamLeave)
		authed.GET("/transactions", h.ListTransactions)
	}
}

type StreamJoinRequest struct {
	StreamID string `json:"streamId" binding:"required"`
}

type StreamLeaveRequest struct {
	StreamID string `json:"streamId" binding:"required"`
}

func (h *TransactionHandler) StreamJoin(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req StreamJoinRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("streamId is required"))
		return
	}

	remaining, err := h.settlement.SettleJoin(c.Request.Context(), callerID, domain.StreamID(req.StreamID))
	if err != nil {
		var ife *domain.InsufficientFundsError
		switch {
		case stderrors.As(err, &ife):
			c.Error(errors.NewInsufficientFundsError(ife.Have, ife.Need))
		case stderrors.Is(err, domain.ErrStreamNotFound):
			c.Error(errors.NewNotFoundError("stream"))
		case stderrors.Is(err, domain.ErrSelfJoin):
			c.Error(errors.NewForbiddenError("creator cannot join own stream"))
		default:
			c.Error(errors.NewInternalError("failed to settle join"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"coinsRemaining": remaining})
}

func (h *TransactionHandler) StreamLeave(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req StreamLeaveRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("streamId is required"))
		return
	}

	if err := h.settlement.SettleLeave(c.Request.Context(), callerID, domain.StreamID(req.StreamID)); err != nil {
		c.Error(errors.NewInternalError("failed to settle leave"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	transactions, err := h.ledger.TransactionsFor(c.Request.Context(), callerID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to list transactions"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
