package auth

import (
	"log/slog"
	"net/http"

	"classping/internal/common"
	"classping/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for authentication.
type Handler struct {
	service      *Service
	cookieSecure bool
}

// NewHandler creates a new auth handler. cookieSecure marks the access
// token cookie Secure; enable it behind HTTPS.
func NewHandler(service *Service, cookieSecure bool) *Handler {
	return &Handler{service: service, cookieSecure: cookieSecure}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	slog.Info("user registered", "user_id", resp.User.ID)
	h.setCookie(c, resp)
	common.Success(c, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	h.setCookie(c, resp)
	common.Success(c, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cookieSecure, true)
	common.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me handles GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	u, err := h.service.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, u)
}

func (h *Handler) setCookie(c *gin.Context, resp *TokenResponse) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, resp.AccessToken, int(resp.ExpiresIn), "/", "", h.cookieSecure, true)
}

// RegisterRoutes registers auth routes.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/logout", h.Logout)
	protected.GET("/auth/me", h.Me)
}
