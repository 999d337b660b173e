package session

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"classping/internal/common"
	"classping/internal/domain/schedule"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		names := make([]string, 0, 4)
		for _, s := range schedule.Statuses() {
			names = append(names, string(s))
		}
		text := "{0} must be one of " + strings.Join(names, ", ")

		err := common.RegisterValidation("session_status", text, func(fl validator.FieldLevel) bool {
			return schedule.Status(fl.Field().String()).IsKnown()
		})
		if err != nil {
			slog.Error("registering session_status validation", "error", err)
		}
	})
}

// Handler handles HTTP requests for class sessions.
type Handler struct {
	service *Service
}

// NewHandler creates a new session handler.
func NewHandler(service *Service) *Handler {
	registerValidators()
	return &Handler{service: service}
}

// List handles GET /api/schedule
func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.BindError(c, err)
		return
	}

	sessions, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, sessions)
}

// Get handles GET /api/schedule/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	sess, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, sess)
}

// Create handles POST /api/schedule
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusCreated, resp)
}

// Update handles PUT /api/schedule/:id
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

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /api/schedule/:id/status
// The status may come as a JSON body or a status query parameter.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.HandleError(c, err)
		return
	}

	var req StatusRequest
	if err := c.ShouldBind(&req); err != nil {
		common.BindError(c, err)
		return
	}

	resp, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, resp)
}

// Delete handles DELETE /api/schedule/:id
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

// RegisterRoutes registers schedule routes. Reads are public.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/schedule", h.List)
	public.GET("/schedule/:id", h.Get)
	protected.POST("/schedule", h.Create)
	protected.PUT("/schedule/:id", h.Update)
	protected.PATCH("/schedule/:id/status", h.UpdateStatus)
	protected.DELETE("/schedule/:id", h.Delete)
}
