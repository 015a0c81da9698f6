package services

import (
	"fmt"
	"strings"

	"taskboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChecklistInput struct {
	Description  string `form:"checklist_desc" json:"checklist_desc"`
	DueDate      string `form:"due_date" json:"due_date"`
	Status       string `form:"status" json:"status"`
	AssignedToID uint   `form:"assigned_to" json:"assigned_to"`
}

type ChecklistService interface {
	AddChecklist(db *gorm.DB, authorID, taskID uint, input ChecklistInput) (*models.Checklist, error)
	SaveEditedChecklist(db *gorm.DB, actorID, checklistID uint, input ChecklistInput) (*models.Checklist, error)
}

type ChecklistServiceImpl struct{}

func NewChecklistService() *ChecklistServiceImpl {
	return &ChecklistServiceImpl{}
}

// AddChecklist attaches an inprogress checklist to a task and notifies the
// assignee.
func (s *ChecklistServiceImpl) AddChecklist(db *gorm.DB, authorID, taskID uint, input ChecklistInput) (*models.Checklist, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, validationError("checklist description is required")
	}
	if input.AssignedToID == 0 {
		return nil, validationError("assignee is required")
	}

	checklist := models.Checklist{
		Description:  description,
		DueDate:      strings.TrimSpace(input.DueDate),
		Status:       models.StatusInProgress,
		TaskID:       taskID,
		AuthorID:     authorID,
		AssignedToID: input.AssignedToID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return lookupError("task", err)
		}
		if err := tx.First(&checklist.AssignedTo, input.AssignedToID).Error; err != nil {
			return lookupError("assignee", err)
		}

		if err := tx.Omit(clause.Associations).Create(&checklist).Error; err != nil {
			return fmt.Errorf("failed to create checklist: %w", err)
		}
		return notify(tx, authorID, checklist.AssignedToID, fmt.Sprintf(textChecklist, checklist.Description))
	})
	if err != nil {
		return nil, err
	}
	return &checklist, nil
}

// SaveEditedChecklist rewrites every editable field. Concurrent edits are
// last writer wins. A changed assignee is notified.
func (s *ChecklistServiceImpl) SaveEditedChecklist(db *gorm.DB, actorID, checklistID uint, input ChecklistInput) (*models.Checklist, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, validationError("checklist description is required")
	}
	if input.AssignedToID == 0 {
		return nil, validationError("assignee is required")
	}
	if !models.ValidStatus(input.Status) {
		return nil, validationError("unknown checklist status %q", input.Status)
	}

	var checklist models.Checklist
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&checklist, checklistID).Error; err != nil {
			return lookupError("checklist", err)
		}
		if err := tx.First(&checklist.AssignedTo, input.AssignedToID).Error; err != nil {
			return lookupError("assignee", err)
		}

		reassigned := checklist.AssignedToID != input.AssignedToID
		checklist.Description = description
		checklist.Status = input.Status
		checklist.DueDate = strings.TrimSpace(input.DueDate)
		checklist.AssignedToID = input.AssignedToID

		err := tx.Model(&checklist).
			Select("Description", "Status", "DueDate", "AssignedToID", "UpdatedAt").
			Updates(&checklist).Error
		if err != nil {
			return fmt.Errorf("failed to save checklist: %w", err)
		}

		if reassigned {
			return notify(tx, actorID, checklist.AssignedToID, fmt.Sprintf(textChecklist, checklist.Description))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &checklist, nil
}
