package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/quota-backend-go/internal/middleware"
	"github.com/jengzang/quota-backend-go/internal/service"
	"github.com/jengzang/quota-backend-go/pkg/response"
)

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case service.IsNotFound(err):
		response.NotFound(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, "internal server error")
	}
}

// currentUser returns the authenticated user or writes a 401
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated")
		return 0, false
	}
	return userID, true
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
