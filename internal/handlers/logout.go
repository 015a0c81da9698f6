package handlers

import (
	"errors"
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LogoutHandler struct {
	db          *gorm.DB
	authService services.AuthService
	cookie      SessionCookie
}

func NewLogoutHandler(db *gorm.DB, authService services.AuthService, cookie SessionCookie) *LogoutHandler {
	return &LogoutHandler{db: db, authService: authService, cookie: cookie}
}

// Logout revokes the current session and clears the cookie. A missing or
// already invalid session still logs out.
func (h *LogoutHandler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c, h.cookie.Name); token != "" {
		err := h.authService.RevokeSession(withContext(h.db, c), token)
		if err != nil && !errors.Is(err, services.ErrInvalidSession) {
			handleError(c, err)
			return
		}
	}

	h.cookie.clear(c)
	done(c, http.StatusOK, "/login", gin.H{"message": "Successfully logged out"})
}
