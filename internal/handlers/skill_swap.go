package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/middleware"
	"github.com/skillhive/backend/internal/services"
	"github.com/skillhive/backend/pkg/response"
)

// SkillSwapHandler exposes the skill swap lifecycle.
type SkillSwapHandler struct {
	service *services.SkillSwapService
}

func NewSkillSwapHandler(db *gorm.DB) *SkillSwapHandler {
	return &SkillSwapHandler{service: services.NewSkillSwapService(db)}
}

type proposeSwapRequest struct {
	ToUserID       uint   `json:"to_user_id" binding:"required"`
	OfferedSkill   string `json:"offered_skill" binding:"required"`
	RequestedSkill string `json:"requested_skill" binding:"required"`
	Message        string `json:"message"`
}

// Propose handles POST /api/skill-swaps
func (h *SkillSwapHandler) Propose(c *gin.Context) {
	var req proposeSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	swap, err := h.service.Propose(c.Request.Context(), middleware.GetUserID(c),
		req.ToUserID, req.OfferedSkill, req.RequestedSkill, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, swap)
}

// List handles GET /api/skill-swaps
func (h *SkillSwapHandler) List(c *gin.Context) {
	swaps, err := h.service.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, swaps)
}

// Get handles GET /api/skill-swaps/:id
func (h *SkillSwapHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid swap id")
		return
	}

	swap, err := h.service.GetByID(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, swap)
}

// Decide handles PATCH /api/skill-swaps/:id/status
func (h *SkillSwapHandler) Decide(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid swap id")
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), id, middleware.GetUserID(c), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Warnings) > 0 {
		response.SuccessWithWarnings(c, result.Swap, result.Warnings)
		return
	}
	response.Success(c, result.Swap)
}

type swapMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// PostMessage handles POST /api/skill-swaps/:id/messages
func (h *SkillSwapHandler) PostMessage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid swap id")
		return
	}

	var req swapMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.service.PostMessage(id, middleware.GetUserID(c), req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// ListMessages handles GET /api/skill-swaps/:id/messages
func (h *SkillSwapHandler) ListMessages(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid swap id")
		return
	}

	messages, err := h.service.ListMessages(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, messages)
}

// ListHistory handles GET /api/skill-swaps/:id/history
func (h *SkillSwapHandler) ListHistory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid swap id")
		return
	}

	history, err := h.service.ListHistory(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, history)
}
