package api

import (
	"net/http"
	"time"

	"donation-portal/internal/middleware"
	"donation-portal/internal/response"

	"github.com/gin-gonic/gin"
)

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and sets the session cookie
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(c, err, "Invalid credentials", "Login failed")
		return
	}

	token, session, err := h.auth.IssueSession(user)
	if err != nil {
		response.FromError(c, err, "", "Login failed")
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.cfg.IsProduction(), true)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout clears the session cookie
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cfg.IsProduction(), true)
	response.SuccessJSON(c, nil)
}

// Me returns the current session
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	session, _ := middleware.CurrentSession(c)
	c.JSON(http.StatusOK, session)
}
