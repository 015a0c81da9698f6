package handlers

import (
	"errors"
	"net/http"
	"time"

	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionCookie describes the cookie that carries the session token.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (s SessionCookie) set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, token, int(s.TTL.Seconds()), "/", "", s.Secure, true)
}

func (s SessionCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

type AuthHandler struct {
	db          *gorm.DB
	authService services.AuthService
	cookie      SessionCookie
}

type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func NewAuthHandler(db *gorm.DB, authService services.AuthService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{db: db, authService: authService, cookie: cookie}
}

// startSession opens a session for user and sets the cookie.
func startSession(c *gin.Context, db *gorm.DB, auth services.AuthService, cookie SessionCookie, user *models.User) (*SessionResponse, error) {
	token, session, err := auth.CreateSession(db, user.ID)
	if err != nil {
		return nil, err
	}
	cookie.set(c, token)
	return &SessionResponse{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Index sends signed-in users to the dashboard and everyone else to login.
func Index(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		handleError(c, err)
		return
	}

	db := withContext(h.db, c)
	user, err := h.authService.LoginUser(db, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) && !middleware.WantsJSON(c) {
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{
				"Error": classify(err).message,
				"Email": req.Email,
			})
			return
		}
		handleError(c, err)
		return
	}

	resp, err := startSession(c, db, h.authService, h.cookie, user)
	if err != nil {
		handleError(c, err)
		return
	}
	done(c, http.StatusOK, "/dashboard", resp)
}
