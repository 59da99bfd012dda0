package middleware

import (
	"net/http"

	"donation-portal/internal/response"
	"donation-portal/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie holds the signed session token
	SessionCookie = "fpf_session"
	sessionKey    = "session"
)

// LoadSession attaches the session, if any, to the request context
func LoadSession(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err == nil && token != "" {
			if session, err := auth.ParseSession(token); err == nil {
				c.Set(sessionKey, session)
			}
		}
		c.Next()
	}
}

// CurrentSession returns the session loaded by LoadSession
func CurrentSession(c *gin.Context) (*services.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*services.Session)
	return session, ok
}

// RequireSession rejects requests without a valid session
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			response.AbortWithError(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests without an admin session
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if !session.IsAdmin() {
			response.AbortWithError(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}
