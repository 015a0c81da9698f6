package services

import (
	"fmt"

	"taskboard/internal/models"

	"gorm.io/gorm"
)

// Board is everything the board page shows one user.
type Board struct {
	User          models.User           `json:"user"`
	Tasks         []models.Task         `json:"tasks"`
	Invites       []models.User         `json:"invites"`
	Team          []models.User         `json:"team"`
	Notifications []models.Notification `json:"notifications"`
}

// TasksByStatus splits the board's tasks into kanban columns.
func (b *Board) TasksByStatus() map[string][]models.Task {
	columns := map[string][]models.Task{
		models.StatusNew:        {},
		models.StatusInProgress: {},
		models.StatusCompleted:  {},
	}
	for _, t := range b.Tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}
	return columns
}

type Dashboard struct {
	User           models.User           `json:"user"`
	TaskCounts     map[string]int64      `json:"task_counts"`
	AssignedToMe   int64                 `json:"assigned_to_me"`
	TeamSize       int                   `json:"team_size"`
	PendingInvites int                   `json:"pending_invites"`
	Recent         []models.Notification `json:"recent_notifications"`
}

type BoardService interface {
	Board(db *gorm.DB, userID uint) (*Board, error)
	Dashboard(db *gorm.DB, userID uint) (*Dashboard, error)
}

type BoardServiceImpl struct {
	tasks         TaskService
	teams         TeamService
	notifications NotificationService
}

func NewBoardService(tasks TaskService, teams TeamService, notifications NotificationService) *BoardServiceImpl {
	return &BoardServiceImpl{tasks: tasks, teams: teams, notifications: notifications}
}

func (s *BoardServiceImpl) Board(db *gorm.DB, userID uint) (*Board, error) {
	var board Board
	if err := db.First(&board.User, userID).Error; err != nil {
		return nil, lookupError("user", err)
	}

	var err error
	if board.Tasks, err = s.tasks.ListTasks(db); err != nil {
		return nil, err
	}
	if board.Invites, err = s.teams.Invites(db, userID); err != nil {
		return nil, err
	}
	if board.Team, err = s.teams.Team(db, userID); err != nil {
		return nil, err
	}
	if board.Notifications, err = s.notifications.ListForUser(db, userID); err != nil {
		return nil, err
	}
	return &board, nil
}

const recentNotifications = 5

func (s *BoardServiceImpl) Dashboard(db *gorm.DB, userID uint) (*Dashboard, error) {
	dash := Dashboard{
		TaskCounts: map[string]int64{
			models.StatusNew:        0,
			models.StatusInProgress: 0,
			models.StatusCompleted:  0,
		},
	}
	if err := db.First(&dash.User, userID).Error; err != nil {
		return nil, lookupError("user", err)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err := db.Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	for _, r := range rows {
		dash.TaskCounts[r.Status] = r.Count
	}

	if err := db.Model(&models.TaskAssignment{}).Where("user_id = ?", userID).Count(&dash.AssignedToMe).Error; err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	team, err := s.teams.Team(db, userID)
	if err != nil {
		return nil, err
	}
	dash.TeamSize = len(team)

	invites, err := s.teams.Invites(db, userID)
	if err != nil {
		return nil, err
	}
	dash.PendingInvites = len(invites)

	notifications, err := s.notifications.ListForUser(db, userID)
	if err != nil {
		return nil, err
	}
	if len(notifications) > recentNotifications {
		notifications = notifications[:recentNotifications]
	}
	dash.Recent = notifications

	return &dash, nil
}
