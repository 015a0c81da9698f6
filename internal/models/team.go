package models

import "time"

// PendingInvite is an outstanding team request from one user to another.
type PendingInvite struct {
	FromUserID uint      `json:"from_user_id" gorm:"primaryKey"`
	ToUserID   uint      `json:"to_user_id" gorm:"primaryKey;index"`
	CreatedAt  time.Time `json:"created_at"`

	FromUser User `json:"from_user" gorm:"foreignKey:FromUserID"`
	ToUser   User `json:"-" gorm:"foreignKey:ToUserID"`
}

// TeamMembership links two users symmetrically. UserAID is always the
// smaller id so each pair has exactly one row.
type TeamMembership struct {
	UserAID   uint      `json:"user_a_id" gorm:"primaryKey"`
	UserBID   uint      `json:"user_b_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTeamMembership(a, b uint) TeamMembership {
	if a > b {
		a, b = b, a
	}
	return TeamMembership{UserAID: a, UserBID: b}
}

// Other returns the member of the pair that is not userID.
func (m TeamMembership) Other(userID uint) uint {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}
