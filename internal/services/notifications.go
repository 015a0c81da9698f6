package services

import (
	"fmt"

	"taskboard/internal/models"

	"gorm.io/gorm"
)

const (
	textInviteSent     = "Sent you a team invite request"
	textInviteAccepted = "Accepted your request"
	textInviteRejected = "Rejected request"
	textAddedToTask    = "Added You to a task: %s"
	textRemovedFrom    = "Removed you from a task: %s"
	textNewComment     = "Added a new comment: %s on %s"
	textNewReply       = "Replied %s to your comment"
	textChecklist      = "Assigned you a checklist: %s"
)

type NotificationService interface {
	ListForUser(db *gorm.DB, userID uint) ([]models.Notification, error)
}

type NotificationServiceImpl struct{}

func NewNotificationService() *NotificationServiceImpl {
	return &NotificationServiceImpl{}
}

// ListForUser returns the notifications sent to userID, newest first.
func (s *NotificationServiceImpl) ListForUser(db *gorm.DB, userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Preload("Sender").
		Where("recipient_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// notify appends a notification inside the caller's transaction.
func notify(tx *gorm.DB, senderID, recipientID uint, text string) error {
	n := models.Notification{
		Text:        text,
		SenderID:    senderID,
		RecipientID: recipientID,
	}
	if err := tx.Omit("Sender", "Recipient").Create(&n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
