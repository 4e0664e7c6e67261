package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jengzang/quota-backend-go/internal/service"
	"github.com/jengzang/quota-backend-go/pkg/response"
)

// PriorityHandler handles HTTP requests for task ranking
type PriorityHandler struct {
	service *service.PriorityService
}

// NewPriorityHandler creates a new priority handler
func NewPriorityHandler(service *service.PriorityService) *PriorityHandler {
	return &PriorityHandler{service: service}
}

// Refresh recomputes every priority of the current user
// POST /api/v1/priorities/refresh
func (h *PriorityHandler) Refresh(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.RefreshAll(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"refreshed": true})
}

// GetSortedTasks lists tasks by descending priority
// GET /api/v1/tasks/sorted
func (h *PriorityHandler) GetSortedTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.service.GetSortedAllTasks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"tasks": tasks, "total": len(tasks)})
}
