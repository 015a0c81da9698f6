package handlers

import (
	"errors"
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterHandler struct {
	db              *gorm.DB
	registerService services.RegisterService
	authService     services.AuthService
	cookie          SessionCookie
}

func NewRegisterHandler(db *gorm.DB, registerService services.RegisterService, authService services.AuthService, cookie SessionCookie) *RegisterHandler {
	return &RegisterHandler{db: db, registerService: registerService, authService: authService, cookie: cookie}
}

func (h *RegisterHandler) SignupPage(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.HTML(http.StatusOK, "signup.html", gin.H{})
}

// Registration creates the account and signs the new user in.
func (h *RegisterHandler) Registration(c *gin.Context) {
	var req services.RegistrationRequest
	if err := bind(c, &req); err != nil {
		handleError(c, err)
		return
	}

	db := withContext(h.db, c)
	user, err := h.registerService.RegisterUser(db, req)
	if err != nil {
		formError := errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrDuplicateEmail)
		if formError && !middleware.WantsJSON(c) {
			c.HTML(classify(err).status, "signup.html", gin.H{
				"Error":     classify(err).message,
				"FirstName": req.FirstName,
				"LastName":  req.LastName,
				"Email":     req.Email,
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
	done(c, http.StatusCreated, "/dashboard", resp)
}
