package models

import (
	"time"
)

const (
	StatusNew        = "new"
	StatusInProgress = "inprogress"
	StatusCompleted  = "completed"
)

// TaskAction names a kanban move a user can request on a task.
type TaskAction string

const (
	ActionMoveToInProgress TaskAction = "move_to_inprogress"
	ActionMoveToCompleted  TaskAction = "move_to_completed"
	ActionReopen           TaskAction = "reopen_task"
)

type transition struct {
	from []string
	to   string
}

var taskTransitions = map[TaskAction]transition{
	ActionMoveToInProgress: {from: []string{StatusNew}, to: StatusInProgress},
	ActionMoveToCompleted:  {from: []string{StatusNew, StatusInProgress}, to: StatusCompleted},
	ActionReopen:           {from: []string{StatusCompleted}, to: StatusInProgress},
}

type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Type        string    `json:"type" gorm:"size:250"`
	DueDate     string    `json:"due_date" gorm:"size:250"`
	Status      string    `json:"status" gorm:"size:32;not null;default:'new'"`
	AuthorID    uint      `json:"author_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author        User        `json:"author" gorm:"foreignKey:AuthorID"`
	AssignedUsers []User      `json:"assigned_users" gorm:"many2many:task_assignments;"`
	Checklists    []Checklist `json:"checklists" gorm:"foreignKey:TaskID"`
	Comments      []Comment   `json:"comments" gorm:"foreignKey:TaskID"`
}

// TaskAssignment is the join row between a task and an assigned user.
type TaskAssignment struct {
	TaskID    uint      `json:"task_id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// NextStatus returns the status a task in current moves to under action.
// ok is false when the move is not allowed from current.
func NextStatus(action TaskAction, current string) (string, bool) {
	tr, exists := taskTransitions[action]
	if !exists {
		return "", false
	}
	for _, from := range tr.from {
		if from == current {
			return tr.to, true
		}
	}
	return "", false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusNew, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (t *Task) IsAssigned(userID uint) bool {
	for _, u := range t.AssignedUsers {
		if u.ID == userID {
			return true
		}
	}
	return false
}
