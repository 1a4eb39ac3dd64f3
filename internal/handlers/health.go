package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/services"
	"github.com/skillhive/backend/pkg/response"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /api/health
func (h *HealthHandler) Check(c *gin.Context) {
	status := gin.H{
		"status": "ok",
		"queue":  "sync",
	}

	if q := services.GetTaskQueue(); q != nil && q.IsAsync() {
		status["queue"] = "async"
	}

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
	} else {
		status["database"] = "ok"
	}

	response.Success(c, status)
}
