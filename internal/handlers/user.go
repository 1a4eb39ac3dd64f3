package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/middleware"
	"github.com/skillhive/backend/internal/services"
	"github.com/skillhive/backend/pkg/response"
)

// UserHandler exposes the member directory.
type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{service: services.NewUserService(db)}
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	filter := services.UserFilter{
		Skill: c.Query("skill"),
	}
	if v := c.Query("available"); v != "" {
		available := v == "true"
		filter.Available = &available
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.service.List(filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"users": users,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	user, err := h.service.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability handles PATCH /api/users/:id/availability
func (h *UserHandler) SetAvailability(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.service.SetAvailability(middleware.GetUserID(c), uint(id), *req.Available)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
