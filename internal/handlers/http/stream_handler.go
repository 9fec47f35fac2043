package http

import (
	"net/http"
	"strconv"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"
	"streamshare/internal/core/services"
	"streamshare/internal/infrastructure/middleware"
	"streamshare/pkg/errors"
	"streamshare/pkg/validation"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	streamService ports.StreamService
	chatService   ports.ChatService
	ledger        ports.Ledger
	authService   services.AuthService
	historyLimit  int
}

func NewStreamHandler(
	streamService ports.StreamService,
	chatService ports.ChatService,
	ledger ports.Ledger,
	authService services.AuthService,
	historyLimit int,
) *StreamHandler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &StreamHandler{
		streamService: streamService,
		chatService:   chatService,
		ledger:        ledger,
		authService:   authService,
		historyLimit:  historyLimit,
	}
}

func (h *StreamHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/streams", h.ListStreams)
		api.GET("/streams/:id", h.GetStream)
		api.GET("/streams/:id/messages", h.ChatHistory)
		api.GET("/genres", h.ListGenres)
	}

	authed := router.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(h.authService))
	{
		authed.POST("/streams", h.CreateStream)
		authed.PATCH("/streams/:id", h.UpdateStream)
	}
}

type CreateStreamRequest struct {
	Title        string `json:"title" binding:"required,min=1,max=100"`
	Description  string `json:"description" binding:"max=1000"`
	Genre        string `json:"genre" binding:"required,max=50"`
	CostInCoins  int    `json:"costInCoins" binding:"min=0"`
	ThumbnailURL string `json:"thumbnailUrl" binding:"max=500"`
}

type UpdateStreamRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=1,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=1000"`
	Genre        *string `json:"genre" binding:"omitempty,max=50"`
	CostInCoins  *int    `json:"costInCoins" binding:"omitempty,min=0"`
	IsLive       *bool   `json:"isLive"`
	ThumbnailURL *string `json:"thumbnailUrl" binding:"omitempty,max=500"`
}

func (h *StreamHandler) CreateStream(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req CreateStreamRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateStreamTitle(req.Title); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateCoinCost(req.CostInCoins); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	stream, err := h.streamService.CreateStream(c.Request.Context(), callerID, req.Title, req.Description, req.Genre, req.CostInCoins, req.ThumbnailURL)
	if err != nil {
		c.Error(errors.NewInternalError("failed to create stream"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"stream": stream})
}

func (h *StreamHandler) GetStream(c *gin.Context) {
	streamID := domain.StreamID(c.Param("id"))

	stream, err := h.streamService.GetStream(c.Request.Context(), streamID)
	if err != nil {
		c.Error(errors.NewNotFoundError("stream"))
		return
	}

	c.JSON(http.StatusOK, h.streamResponse(c, stream))
}

func (h *StreamHandler) ListStreams(c *gin.Context) {
	filter := domain.StreamFilter{Genre: c.Query("genre")}
	if isLive := c.Query("isLive"); isLive != "" {
		live, err := strconv.ParseBool(isLive)
		if err != nil {
			c.Error(errors.NewInvalidInputError("isLive must be a boolean"))
			return
		}
		filter.IsLive = &live
	}

	streams, err := h.streamService.ListStreams(c.Request.Context(), filter)
	if err != nil {
		c.Error(errors.NewInternalError("failed to list streams"))
		return
	}

	out := make([]gin.H, 0, len(streams))
	for _, stream := range streams {
		out = append(out, h.streamResponse(c, stream))
	}
	c.JSON(http.StatusOK, gin.H{"streams": out})
}

func (h *StreamHandler) UpdateStream(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req UpdateStreamRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	update := domain.StreamUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Genre:        req.Genre,
		CostInCoins:  req.CostInCoins,
		IsLive:       req.IsLive,
		ThumbnailURL: req.ThumbnailURL,
	}

	stream, err := h.streamService.UpdateStream(c.Request.Context(), callerID, domain.StreamID(c.Param("id")), update)
	switch err {
	case nil:
	case domain.ErrStreamNotFound:
		c.Error(errors.NewNotFoundError("stream"))
		return
	case domain.ErrNotStreamOwner:
		c.Error(errors.NewForbiddenError("only the creator can update a stream"))
		return
	default:
		c.Error(errors.NewInternalError("failed to update stream"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream": stream})
}

func (h *StreamHandler) ChatHistory(c *gin.Context) {
	streamID := domain.StreamID(c.Param("id"))
	if _, err := h.streamService.GetStream(c.Request.Context(), streamID); err != nil {
		c.Error(errors.NewNotFoundError("stream"))
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), streamID, h.historyLimit)
	if err != nil {
		c.Error(errors.NewInternalError("failed to load chat history"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *StreamHandler) ListGenres(c *gin.Context) {
	genres, err := h.ledger.ListGenres(c.Request.Context())
	if err != nil {
		c.Error(errors.NewInternalError("failed to list genres"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

// streamResponse decorates a stream with its creator's public profile bits.
func (h *StreamHandler) streamResponse(c *gin.Context, stream *domain.Stream) gin.H {
	creatorUsername := "Unknown"
	creatorAvatar := ""
	if creator, err := h.ledger.GetUser(c.Request.Context(), stream.CreatorID); err == nil {
		creatorUsername = creator.Username
		creatorAvatar = creator.Avatar
	}

	return gin.H{
		"stream":          stream,
		"creatorUsername": creatorUsername,
		"creatorAvatar":   creatorAvatar,
	}
}
