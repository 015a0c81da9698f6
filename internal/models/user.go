package models

import (
	"strings"
	"time"
)

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	FirstName      string    `json:"first_name" gorm:"size:250;not null"`
	LastName       string    `json:"last_name" gorm:"size:250;not null"`
	Email          string    `json:"email" gorm:"size:250;uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	AvatarLocation string    `json:"avatar_location" gorm:"size:250"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	AuthoredTasks []Task `json:"-" gorm:"foreignKey:AuthorID"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
