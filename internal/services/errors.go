package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrDuplicateEmail         = errors.New("email already exists")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrValidation             = errors.New("validation failed")
	ErrDuplicateInvite        = errors.New("invite already pending")
	ErrAlreadyMember          = errors.New("already a team member")
	ErrNoPendingInvite        = fmt.Errorf("no pending invite: %w", ErrNotFound)
	ErrInvalidSession         = fmt.Errorf("invalid session: %w", ErrInvalidCredentials)
)

// lookupError turns a missing row into ErrNotFound naming what was looked up.
func lookupError(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// dbContext returns the request context a handler attached with WithContext.
func dbContext(db *gorm.DB) context.Context {
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}
