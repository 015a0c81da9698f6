package middleware

import (
	"errors"
	"net/http"
	"strings"

	"taskboard/internal/models"
	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
	ContextTokenKey  = "session_token"
)

type SessionConfig struct {
	CookieName string
	LoginPath  string
}

// WantsJSON reports whether the client asked for a JSON response rather
// than an HTML page.
func WantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), gin.MIMEJSON) {
		return true
	}
	if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
		return true
	}
	return c.ContentType() == gin.MIMEJSON
}

// SessionToken returns the session token from the cookie, falling back to a
// bearer Authorization header.
func SessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func authenticate(c *gin.Context, db *gorm.DB, auth services.AuthService, config SessionConfig) error {
	token := SessionToken(c, config.CookieName)
	if token == "" {
		return services.ErrInvalidSession
	}

	if db != nil {
		db = db.WithContext(c.Request.Context())
	}
	user, _, err := auth.ValidateSession(db, token)
	if err != nil {
		return err
	}

	c.Set(ContextUserKey, user)
	c.Set(ContextUserIDKey, user.ID)
	c.Set(ContextTokenKey, token)
	return nil
}

// RequireSession rejects requests without a live session. Page requests are
// redirected to the login page, JSON requests get 401.
func RequireSession(db *gorm.DB, auth services.AuthService, config SessionConfig, logger *zap.Logger) gin.HandlerFunc {
	if config.LoginPath == "" {
		config.LoginPath = "/login"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		err := authenticate(c, db, auth, config)
		if err == nil {
			c.Next()
			return
		}

		if !errors.Is(err, services.ErrInvalidCredentials) {
			logger.Error("session lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to check session",
			})
			return
		}

		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "A valid session is required",
			})
			return
		}

		c.Redirect(http.StatusFound, config.LoginPath)
		c.Abort()
	}
}

// OptionalSession loads the session user when there is one and never blocks.
func OptionalSession(db *gorm.DB, auth services.AuthService, config SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = authenticate(c, db, auth, config)
		c.Next()
	}
}
