package models

import "time"

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	TaskID    uint      `json:"task_id" gorm:"not null;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`

	Task    *Task   `json:"-" gorm:"foreignKey:TaskID"`
	Author  User    `json:"author" gorm:"foreignKey:AuthorID"`
	Replies []Reply `json:"replies" gorm:"foreignKey:CommentID"`
}

type Reply struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CommentID uint      `json:"comment_id" gorm:"not null;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`

	Comment *Comment `json:"-" gorm:"foreignKey:CommentID"`
	Author  User     `json:"author" gorm:"foreignKey:AuthorID"`
}
