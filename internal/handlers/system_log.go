package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/services"
	"github.com/skillhive/backend/pkg/response"
)

// SystemLogHandler exposes operational logs to administrators.
type SystemLogHandler struct {
	service *services.SystemLogService
}

func NewSystemLogHandler(db *gorm.DB) *SystemLogHandler {
	return &SystemLogHandler{service: services.NewSystemLogService(db)}
}

// List handles GET /api/system-logs
func (h *SystemLogHandler) List(c *gin.Context) {
	filter := services.SystemLogFilter{
		Level:  c.Query("level"),
		Module: c.Query("module"),
	}
	if v := c.Query("user_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filter.UserID = uint(id)
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, total, err := h.service.List(filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"logs":  logs,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// Modules handles GET /api/system-logs/modules
func (h *SystemLogHandler) Modules(c *gin.Context) {
	modules, err := h.service.GetModules()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, modules)
}
