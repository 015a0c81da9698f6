package models

import "time"

type Checklist struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	DueDate      string    `json:"due_date" gorm:"size:250"`
	Status       string    `json:"status" gorm:"size:32;not null"`
	TaskID       uint      `json:"task_id" gorm:"not null;index"`
	AuthorID     uint      `json:"author_id" gorm:"not null;index"`
	AssignedToID uint      `json:"assigned_to_id" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Task       *Task `json:"-" gorm:"foreignKey:TaskID"`
	Author     User  `json:"author" gorm:"foreignKey:AuthorID"`
	AssignedTo User  `json:"assigned_to" gorm:"foreignKey:AssignedToID"`
}
