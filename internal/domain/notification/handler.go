package notification

import (
	"log/slog"
	"net/http"

	"classping/internal/common"
	"classping/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for notification subscriptions.
type Handler struct {
	subscriptions *Subscriptions
}

// NewHandler creates a new notification handler.
func NewHandler(subscriptions *Subscriptions) *Handler {
	return &Handler{subscriptions: subscriptions}
}

// SubscribeRequest carries the Telegram chat id to notify. It is accepted
// as JSON or as a telegram_id query parameter.
type SubscribeRequest struct {
	TelegramID string `json:"telegram_id" form:"telegram_id" binding:"required"`
}

// Subscription handles GET /api/notifications/subscription
func (h *Handler) Subscription(c *gin.Context) {
	sub, err := h.subscriptions.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, sub)
}

// Subscribe handles POST /api/notifications/subscribe-telegram
func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		common.BindError(c, err)
		return
	}

	userID := middleware.UserID(c)
	sub, err := h.subscriptions.Subscribe(c.Request.Context(), userID, req.TelegramID)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	slog.Info("telegram subscription saved", "user_id", userID)
	common.Success(c, http.StatusOK, sub)
}

// Unsubscribe handles DELETE /api/notifications/subscribe-telegram
func (h *Handler) Unsubscribe(c *gin.Context) {
	sub, err := h.subscriptions.Unsubscribe(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, sub)
}

// RegisterRoutes registers subscription routes. All of them require a user.
func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/notifications/subscription", h.Subscription)
	protected.POST("/notifications/subscribe-telegram", h.Subscribe)
	protected.DELETE("/notifications/subscribe-telegram", h.Unsubscribe)
}
