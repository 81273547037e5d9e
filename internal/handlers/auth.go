package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/auth"
	"github.com/unsaid-app/backend/internal/util"
)

// Register creates a new account
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.RegisterUser(req)
	switch err {
	case nil:
		c.JSON(http.StatusCreated, resp)
	case auth.ErrUserExists:
		util.RespondConflict(c, "account")
	case auth.ErrUsernameExists:
		util.RespondConflict(c, "username")
	default:
		util.RespondInternalError(c, "Failed to register")
	}
}

// Login authenticates with email and password
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.LoginUser(req)
	switch err {
	case nil:
		c.JSON(http.StatusOK, resp)
	case auth.ErrUserNotFound, auth.ErrInvalidCredentials:
		util.RespondUnauthorized(c, "invalid email or password")
	default:
		util.RespondInternalError(c, "Failed to log in")
	}
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RequestPasswordReset starts a password reset flow. Always responds OK so
// account existence is not revealed.
// POST /api/v1/auth/password-reset
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if _, err := h.auth.RequestPasswordReset(req.Email); err != nil {
		util.RespondInternalError(c, "Failed to request password reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ResetPassword completes a password reset with a token
// POST /api/v1/auth/password-reset/confirm
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.NewPassword); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password_updated"})
}
