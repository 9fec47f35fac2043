package http

import (
	"net/http"

	"streamshare/internal/core/ports"
	"streamshare/internal/core/services"
	"streamshare/internal/infrastructure/middleware"
	"streamshare/pkg/errors"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	ledger      ports.Ledger
	authService services.AuthService
}

func NewUserHandler(ledger ports.Ledger, authService services.AuthService) *UserHandler {
	return &UserHandler{ledger: ledger, authService: authService}
}

func (h *UserHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/users")
	api.Use(middleware.AuthMiddleware(h.authService))
	{
		api.GET("/me", h.Me)
		api.GET("/balance", h.Balance)
	}
}

func (h *UserHandler) Me(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.ledger.GetUser(c.Request.Context(), callerID)
	if err != nil {
		c.Error(errors.NewNotFoundError("user"))
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func (h *UserHandler) Balance(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.ledger.GetUser(c.Request.Context(), callerID)
	if err != nil {
		c.Error(errors.NewNotFoundError("user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"coins": user.Coins})
}
