package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"taskboard/internal/middleware"
	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const boardPath = "/my-boards"

type apiError struct {
	status  int
	code    string
	message string
}

// classify maps a service error to its HTTP status, machine code and
// user-facing message.
func classify(err error) apiError {
	switch {
	case errors.Is(err, services.ErrNoPendingInvite):
		return apiError{http.StatusNotFound, "no_pending_invite", "No pending invite from that user"}
	case errors.Is(err, services.ErrNotFound):
		return apiError{http.StatusNotFound, "not_found", "The requested item was not found"}
	case errors.Is(err, services.ErrInvalidSession):
		return apiError{http.StatusUnauthorized, "unauthenticated", "A valid session is required"}
	case errors.Is(err, services.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"}
	case errors.Is(err, services.ErrDuplicateEmail):
		return apiError{http.StatusConflict, "duplicate_email", "An account with this email already exists"}
	case errors.Is(err, services.ErrInvalidStateTransition):
		return apiError{http.StatusConflict, "invalid_state_transition", err.Error()}
	case errors.Is(err, services.ErrValidation):
		return apiError{http.StatusBadRequest, "validation_failed", err.Error()}
	case errors.Is(err, services.ErrDuplicateInvite):
		return apiError{http.StatusConflict, "duplicate_invite", "An invite to that user is already pending"}
	case errors.Is(err, services.ErrAlreadyMember):
		return apiError{http.StatusConflict, "already_member", "That user is already on your team"}
	default:
		return apiError{http.StatusInternalServerError, "internal_error", "Something went wrong, please try again"}
	}
}

func handleError(c *gin.Context, err error) {
	e := classify(err)
	// picked up by the request logger with the full detail
	_ = c.Error(err)

	if middleware.WantsJSON(c) {
		c.JSON(e.status, gin.H{
			"error":   e.code,
			"message": e.message,
		})
		return
	}
	c.HTML(e.status, "error.html", gin.H{
		"Status":  e.status,
		"Code":    e.code,
		"Message": e.message,
	})
}

// respond renders data as JSON, or as the named page for browsers.
func respond(c *gin.Context, status int, page string, data gin.H) {
	if middleware.WantsJSON(c) {
		c.JSON(status, data)
		return
	}
	c.HTML(status, page, data)
}

// done finishes a form action: JSON clients get the result, browsers are
// sent back to redirect with 303 so a reload does not resubmit.
func done(c *gin.Context, status int, redirect string, data interface{}) {
	if middleware.WantsJSON(c) {
		if data == nil {
			c.Status(status)
			return
		}
		c.JSON(status, data)
		return
	}
	c.Redirect(http.StatusSeeOther, redirect)
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.ContextUserIDKey)
}

func withContext(db *gorm.DB, c *gin.Context) *gorm.DB {
	if db == nil {
		return nil
	}
	return db.WithContext(c.Request.Context())
}

// lookupID reads a positive integer id from the path, then the form body,
// then the query string, trying each name in turn.
func lookupID(c *gin.Context, names ...string) (uint, error) {
	for _, name := range names {
		raw := c.Param(name)
		if raw == "" {
			raw = c.PostForm(name)
		}
		if raw == "" {
			raw = c.Query(name)
		}
		if raw == "" {
			continue
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("%w: %s must be a positive integer", services.ErrValidation, name)
		}
		return uint(id), nil
	}
	return 0, fmt.Errorf("%w: %s is required", services.ErrValidation, names[0])
}

// bind decodes a form or JSON body into dest by content type.
func bind(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBind(dest); err != nil {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	return nil
}
