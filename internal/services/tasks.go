package services

import (
	"fmt"
	"strings"

	"taskboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskInput struct {
	Description string `form:"task_description" json:"task_description"`
	Type        string `form:"task_type" json:"task_type"`
	DueDate     string `form:"due_date" json:"due_date"`
}

type TaskService interface {
	AddTask(db *gorm.DB, authorID uint, input TaskInput) (*models.Task, error)
	GetTaskByID(db *gorm.DB, id uint) (*models.Task, error)
	ListTasks(db *gorm.DB) ([]models.Task, error)
	ChangeStatus(db *gorm.DB, id uint, action models.TaskAction) (*models.Task, error)
	AddUserToTask(db *gorm.DB, actorID, taskID, userID uint) error
	DeleteUserFromTask(db *gorm.DB, actorID, taskID, userID uint) error
	DeleteTask(db *gorm.DB, id uint) error
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

// AddTask creates a task in status new with its author as the first assignee.
func (s *TaskServiceImpl) AddTask(db *gorm.DB, authorID uint, input TaskInput) (*models.Task, error) {
	task := models.Task{
		Description: strings.TrimSpace(input.Description),
		Type:        strings.TrimSpace(input.Type),
		DueDate:     strings.TrimSpace(input.DueDate),
		Status:      models.StatusNew,
		AuthorID:    authorID,
	}
	if task.Description == "" {
		return nil, validationError("task description is required")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&task).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		assignment := models.TaskAssignment{TaskID: task.ID, UserID: authorID}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to assign author: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uint) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("AssignedUsers").First(&task, id).Error; err != nil {
		return nil, lookupError("task", err)
	}
	return &task, nil
}

// ListTasks loads every task with the relations the board renders.
func (s *TaskServiceImpl) ListTasks(db *gorm.DB) ([]models.Task, error) {
	byID := func(table string) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB { return db.Order(table + ".id") }
	}

	var tasks []models.Task
	err := db.
		Preload("Author").
		Preload("AssignedUsers", byID("users")).
		Preload("Checklists", byID("checklists")).
		Preload("Checklists.Author").
		Preload("Checklists.AssignedTo").
		Preload("Comments", byID("comments")).
		Preload("Comments.Author").
		Preload("Comments.Replies", byID("replies")).
		Preload("Comments.Replies.Author").
		Order("tasks.id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ChangeStatus applies a kanban move. The update is conditional on the status
// read, so two racing moves cannot both succeed from the same state.
func (s *TaskServiceImpl) ChangeStatus(db *gorm.DB, id uint, action models.TaskAction) (*models.Task, error) {
	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return lookupError("task", err)
		}

		next, ok := models.NextStatus(action, task.Status)
		if !ok {
			return fmt.Errorf("%w: cannot %s a task that is %s", ErrInvalidStateTransition, action, task.Status)
		}

		result := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", task.ID, task.Status).
			Update("status", next)
		if result.Error != nil {
			return fmt.Errorf("failed to update task status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: task status changed concurrently", ErrInvalidStateTransition)
		}

		task.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// AddUserToTask assigns userID to the task. Assigning an already assigned
// user leaves one assignment row.
func (s *TaskServiceImpl) AddUserToTask(db *gorm.DB, actorID, taskID, userID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return lookupError("task", err)
		}
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return lookupError("user", err)
		}

		assignment := models.TaskAssignment{TaskID: task.ID, UserID: user.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to assign user: %w", err)
		}

		return notify(tx, actorID, user.ID, fmt.Sprintf(textAddedToTask, task.Description))
	})
}

func (s *TaskServiceImpl) DeleteUserFromTask(db *gorm.DB, actorID, taskID, userID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return lookupError("task", err)
		}

		result := tx.Where("task_id = ? AND user_id = ?", taskID, userID).Delete(&models.TaskAssignment{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove assignment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("user %d is not assigned to task %d: %w", userID, taskID, ErrNotFound)
		}

		return notify(tx, actorID, userID, fmt.Sprintf(textRemovedFrom, task.Description))
	})
}

// DeleteTask removes the task with its replies, comments, checklists and
// assignments. Notifications that mention the task are kept.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, id).Error; err != nil {
			return lookupError("task", err)
		}

		comments := tx.Model(&models.Comment{}).Select("id").Where("task_id = ?", id)
		steps := []struct {
			name  string
			query *gorm.DB
			model interface{}
		}{
			{"replies", tx.Where("comment_id IN (?)", comments), &models.Reply{}},
			{"comments", tx.Where("task_id = ?", id), &models.Comment{}},
			{"checklists", tx.Where("task_id = ?", id), &models.Checklist{}},
			{"assignments", tx.Where("task_id = ?", id), &models.TaskAssignment{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return fmt.Errorf("failed to delete task %s: %w", step.name, err)
			}
		}

		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
}
