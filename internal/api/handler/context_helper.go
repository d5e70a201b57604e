package handler

import (
	"github.com/gin-gonic/gin"

	"nest/backend/pkg/jwt"
	"nest/backend/pkg/response"
)

// MustGetUserID extracts user_id from the Gin context. On a missing or
// malformed value it writes a 401 and returns false; callers return
// immediately when ok is false.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetRole extracts role from the Gin context.
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// GetClaims extracts the parsed token claims when the auth middleware ran.
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get("claims")
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
