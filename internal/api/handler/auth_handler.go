package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"nest/backend/internal/dto"
	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// AuthHandler serves registration, sign-in and the token lifecycle.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates the AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register creates an account.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Conflict(c, 20002, "email already registered")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, user)
}

// Login verifies credentials and returns a token pair.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	tokens, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, 20003, "invalid email or password")
		case errors.Is(err, service.ErrAccountInactive):
			response.Forbidden(c, 20004, "account is inactive")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, tokens)
}

// Refresh rotates the refresh token.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	tokens, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			response.Unauthorized(c, 10002, "token invalid or expired")
		case errors.Is(err, service.ErrAccountInactive):
			response.Forbidden(c, 20004, "account is inactive")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, tokens)
}

// Logout revokes the caller's tokens.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req) // body is optional

	if err := h.authSvc.Logout(c.Request.Context(), GetClaims(c), req.RefreshToken); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Me returns the caller's profile.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, 20001, "user not found")
		return
	}
	response.OK(c, user)
}

// ChangePassword swaps the caller's password after verifying the old one.
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			response.BadRequest(c, 20005, "old password does not match")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
