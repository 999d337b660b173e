package course

import (
	"net/http"

	"classping/internal/common"
	"classping/internal/domain/schedule"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for courses.
type Handler struct {
	service *Service
}

// NewHandler creates a new course handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/courses
func (h *Handler) List(c *gin.Context) {
	var filter schedule.CourseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.BindError(c, err)
		return
	}

	courses, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, courses)
}

// Get handles GET /api/courses/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	course, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, course)
}

// Create handles POST /api/courses
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusCreated, course)
}

// Update handles PUT /api/courses/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	course, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, course)
}

// Delete handles DELETE /api/courses/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// RegisterRoutes registers course routes. Reads are public.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/courses", h.List)
	public.GET("/courses/:id", h.Get)
	protected.POST("/courses", h.Create)
	protected.PUT("/courses/:id", h.Update)
	protected.DELETE("/courses/:id", h.Delete)
}
