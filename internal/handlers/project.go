package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/middleware"
	"github.com/skillhive/backend/internal/services"
	"github.com/skillhive/backend/pkg/response"
)

// ProjectHandler exposes projects and their rosters.
type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{service: services.NewProjectService(db)}
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.service.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	filter := services.ProjectFilter{
		Status: c.Query("status"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	projects, total, err := h.service.List(filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"projects": projects,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.service.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

type projectUpdateRequest struct {
	services.ProjectRequest
	Status string `json:"status"`
}

// Update handles PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req projectUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.service.Update(id, middleware.GetUserID(c), &req.ProjectRequest, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Members handles GET /api/projects/:id/members
func (h *ProjectHandler) Members(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	members, err := h.service.Members(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id), err
}
