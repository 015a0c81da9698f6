package models

import "time"

// Notification is an append-only record of one user's action directed at another.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	SenderID    uint      `json:"sender_id" gorm:"not null;index"`
	RecipientID uint      `json:"recipient_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`

	Sender    User `json:"sender" gorm:"foreignKey:SenderID"`
	Recipient User `json:"-" gorm:"foreignKey:RecipientID"`
}
