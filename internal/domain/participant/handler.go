package participant

import (
	"net/http"

	"classping/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for course participants.
type Handler struct {
	service *Service
}

// NewHandler creates a new participant handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/courses/:id/participants
func (h *Handler) List(c *gin.Context) {
	courseID, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	participants, err := h.service.List(c.Request.Context(), courseID)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, participants)
}

// Add handles POST /api/courses/:id/participants
func (h *Handler) Add(c *gin.Context) {
	courseID, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	resp, err := h.service.Add(c.Request.Context(), courseID, req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, resp)
}

// Remove handles DELETE /api/courses/:id/participants/:user_id
func (h *Handler) Remove(c *gin.Context) {
	courseID, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}
	userID, err := common.ParamID(c, "user_id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	resp, err := h.service.Remove(c.Request.Context(), courseID, userID)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, resp)
}

// RegisterRoutes registers participant routes under /courses/:id.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/courses/:id/participants", h.List)
	protected.POST("/courses/:id/participants", h.Add)
	protected.DELETE("/courses/:id/participants/:user_id", h.Remove)
}
