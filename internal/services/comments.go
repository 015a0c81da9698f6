package services

import (
	"fmt"
	"strings"

	"taskboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentService interface {
	AddComment(db *gorm.DB, authorID, taskID uint, text string) (*models.Comment, error)
	AddReply(db *gorm.DB, authorID, commentID uint, text string) (*models.Reply, error)
}

type CommentServiceImpl struct{}

func NewCommentService() *CommentServiceImpl {
	return &CommentServiceImpl{}
}

// AddComment notifies the task's author.
func (s *CommentServiceImpl) AddComment(db *gorm.DB, authorID, taskID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("comment text is required")
	}

	comment := models.Comment{Text: text, TaskID: taskID, AuthorID: authorID}
	err := db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return lookupError("task", err)
		}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return notify(tx, authorID, task.AuthorID, fmt.Sprintf(textNewComment, comment.Text, task.Description))
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// AddReply notifies the author of the comment being replied to.
func (s *CommentServiceImpl) AddReply(db *gorm.DB, authorID, commentID uint, text string) (*models.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("reply text is required")
	}

	reply := models.Reply{Text: text, CommentID: commentID, AuthorID: authorID}
	err := db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return lookupError("comment", err)
		}
		if err := tx.Omit(clause.Associations).Create(&reply).Error; err != nil {
			return fmt.Errorf("failed to create reply: %w", err)
		}
		return notify(tx, authorID, comment.AuthorID, fmt.Sprintf(textNewReply, reply.Text))
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
