package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-booking-api/internal/middleware"
	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
	"github.com/noah-isme/mentor-booking-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// currentUserID returns the authenticated user's id or writes a 401.
func currentUserID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func statusFilter(c *gin.Context) *models.LessonStatus {
	raw := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	if raw == "" {
		return nil
	}
	status := models.LessonStatus(raw)
	return &status
}
