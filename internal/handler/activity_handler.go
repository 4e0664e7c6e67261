package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jengzang/quota-backend-go/internal/models"
	"github.com/jengzang/quota-backend-go/internal/service"
	"github.com/jengzang/quota-backend-go/pkg/response"
)

// ActivityHandler handles HTTP requests that change source activity
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(service *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// RoutineStatusRequest is the body of a routine status update
type RoutineStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TaskActiveRequest is the body of a task activation change
type TaskActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateWorkRecord stores a work record
// POST /api/v1/work-records
func (h *ActivityHandler) CreateWorkRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.WorkRecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	rec, err := h.service.CreateWorkRecord(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, rec)
}

// UpdateWorkRecord rewrites a work record
// PUT /api/v1/work-records/:id
func (h *ActivityHandler) UpdateWorkRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.WorkRecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	rec, err := h.service.UpdateWorkRecord(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, rec)
}

// DeleteWorkRecord removes a work record
// DELETE /api/v1/work-records/:id
func (h *ActivityHandler) DeleteWorkRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteWorkRecord(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": id})
}

// CompleteMeeting marks a meeting instance completed
// POST /api/v1/meetings/:id/complete
func (h *ActivityHandler) CompleteMeeting(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.CompleteMeeting(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"completed": id})
}

// SetRoutineStatus updates a routine instance
// PUT /api/v1/routine-instances/:id/status
func (h *ActivityHandler) SetRoutineStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RoutineStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.service.SetRoutineStatus(c.Request.Context(), userID, id, req.Status); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "status": req.Status})
}

// SetTaskActive activates or deactivates a task
// PUT /api/v1/tasks/:type/:id/active
func (h *ActivityHandler) SetTaskActive(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req TaskActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.service.SetTaskActive(c.Request.Context(), userID, c.Param("type"), id, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "is_active": *req.IsActive})
}
