package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/middleware"
	"github.com/skillhive/backend/internal/services"
	"github.com/skillhive/backend/pkg/response"
)

// ApplicationHandler exposes the project application lifecycle.
type ApplicationHandler struct {
	service *services.ApplicationService
}

func NewApplicationHandler(db *gorm.DB) *ApplicationHandler {
	return &ApplicationHandler{service: services.NewApplicationService(db)}
}

type submitApplicationRequest struct {
	Message string `json:"message"`
}

// Submit handles POST /api/projects/:id/applications
func (h *ApplicationHandler) Submit(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req submitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.service.Submit(c.Request.Context(), projectID, middleware.GetUserID(c), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// ListForProject handles GET /api/projects/:id/applications
func (h *ApplicationHandler) ListForProject(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	apps, err := h.service.ListForProject(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, apps)
}

// ListMine handles GET /api/applications/mine
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.service.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, apps)
}

type decisionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Decide handles PATCH /api/applications/:id
func (h *ApplicationHandler) Decide(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Transition(c.Request.Context(), id, middleware.GetUserID(c), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Warnings) > 0 {
		response.SuccessWithWarnings(c, result.Application, result.Warnings)
		return
	}
	response.Success(c, result.Application)
}
