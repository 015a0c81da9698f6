package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"taskboard/internal/handlers"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/services"
	"taskboard/internal/web"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const testUserID uint = 1

type call struct {
	name string
	args []uint
}

type MockTaskService struct {
	err   error
	calls []call
	added []services.TaskInput
}

func (m *MockTaskService) record(name string, args ...uint) error {
	m.calls = append(m.calls, call{name: name, args: args})
	return m.err
}

func (m *MockTaskService) AddTask(db *gorm.DB, authorID uint, input services.TaskInput) (*models.Task, error) {
	if err := m.record("AddTask", authorID); err != nil {
		return nil, err
	}
	m.added = append(m.added, input)
	return &models.Task{ID: 10, Description: input.Description, Status: models.StatusNew, AuthorID: authorID}, nil
}

func (m *MockTaskService) GetTaskByID(db *gorm.DB, id uint) (*models.Task, error) {
	if err := m.record("GetTaskByID", id); err != nil {
		return nil, err
	}
	return &models.Task{ID: id}, nil
}

func (m *MockTaskService) ListTasks(db *gorm.DB) ([]models.Task, error) {
	return nil, m.record("ListTasks")
}

func (m *MockTaskService) ChangeStatus(db *gorm.DB, id uint, action models.TaskAction) (*models.Task, error) {
	if err := m.record("ChangeStatus:"+string(action), id); err != nil {
		return nil, err
	}
	return &models.Task{ID: id, Status: models.StatusInProgress}, nil
}

func (m *MockTaskService) AddUserToTask(db *gorm.DB, actorID, taskID, userID uint) error {
	return m.record("AddUserToTask", actorID, taskID, userID)
}

func (m *MockTaskService) DeleteUserFromTask(db *gorm.DB, actorID, taskID, userID uint) error {
	return m.record("DeleteUserFromTask", actorID, taskID, userID)
}

func (m *MockTaskService) DeleteTask(db *gorm.DB, id uint) error {
	return m.record("DeleteTask", id)
}

type MockChecklistService struct {
	err    error
	calls  []call
	inputs []services.ChecklistInput
}

func (m *MockChecklistService) AddChecklist(db *gorm.DB, authorID, taskID uint, input services.ChecklistInput) (*models.Checklist, error) {
	m.calls = append(m.calls, call{"AddChecklist", []uint{authorID, taskID}})
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Checklist{ID: 20, TaskID: taskID, Description: input.Description, AssignedToID: input.AssignedToID}, nil
}

func (m *MockChecklistService) SaveEditedChecklist(db *gorm.DB, actorID, checklistID uint, input services.ChecklistInput) (*models.Checklist, error) {
	m.calls = append(m.calls, call{"SaveEditedChecklist", []uint{actorID, checklistID}})
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Checklist{ID: checklistID, Description: input.Description, Status: input.Status}, nil
}

type MockCommentService struct {
	err   error
	calls []call
	texts []string
}

func (m *MockCommentService) AddComment(db *gorm.DB, authorID, taskID uint, text string) (*models.Comment, error) {
	m.calls = append(m.calls, call{"AddComment", []uint{authorID, taskID}})
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Comment{ID: 30, TaskID: taskID, Text: text}, nil
}

func (m *MockCommentService) AddReply(db *gorm.DB, authorID, commentID uint, text string) (*models.Reply, error) {
	m.calls = append(m.calls, call{"AddReply", []uint{authorID, commentID}})
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Reply{ID: 40, CommentID: commentID, Text: text}, nil
}

type MockTeamService struct {
	err    error
	calls  []call
	emails []string
}

func (m *MockTeamService) InviteMember(db *gorm.DB, senderID uint, email string) (*models.User, error) {
	m.calls = append(m.calls, call{"InviteMember", []uint{senderID}})
	m.emails = append(m.emails, email)
	if m.err != nil {
		return nil, m.err
	}
	return &models.User{ID: 2, Email: email}, nil
}

func (m *MockTeamService) AcceptRequest(db *gorm.DB, currentID, requesterID uint) error {
	m.calls = append(m.calls, call{"AcceptRequest", []uint{currentID, requesterID}})
	return m.err
}

func (m *MockTeamService) RejectRequest(db *gorm.DB, currentID, requesterID uint) error {
	m.calls = append(m.calls, call{"RejectRequest", []uint{currentID, requesterID}})
	return m.err
}

func (m *MockTeamService) Team(db *gorm.DB, userID uint) ([]models.User, error) { return nil, m.err }

func (m *MockTeamService) Invites(db *gorm.DB, userID uint) ([]models.User, error) { return nil, m.err }

type MockBoardService struct {
	err   error
	board *services.Board
	dash  *services.Dashboard
}

func (m *MockBoardService) Board(db *gorm.DB, userID uint) (*services.Board, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.board, nil
}

func (m *MockBoardService) Dashboard(db *gorm.DB, userID uint) (*services.Dashboard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dash, nil
}

type MockAuthService struct {
	users   map[string]*models.User
	revoked []string
}

func (m *MockAuthService) LoginUser(db *gorm.DB, email, password string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok || password != "correct-horse" {
		return nil, services.ErrInvalidCredentials
	}
	return user, nil
}

func (m *MockAuthService) CreateSession(db *gorm.DB, userID uint) (string, *models.Session, error) {
	return fmt.Sprintf("token-%d", userID), &models.Session{UserID: userID}, nil
}

func (m *MockAuthService) ValidateSession(db *gorm.DB, token string) (*models.User, *models.Session, error) {
	return nil, nil, services.ErrInvalidSession
}

func (m *MockAuthService) RevokeSession(db *gorm.DB, token string) error {
	if token == "" {
		return services.ErrInvalidSession
	}
	m.revoked = append(m.revoked, token)
	return nil
}

func (m *MockAuthService) CleanupSessions(db *gorm.DB) (int64, error) { return 0, nil }

type MockRegisterService struct {
	err error
}

func (m *MockRegisterService) RegisterUser(db *gorm.DB, req services.RegistrationRequest) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.User{ID: 5, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}, nil
}

var testCookie = handlers.SessionCookie{Name: "taskboard_session", TTL: 24 * time.Hour}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())

	// stands in for RequireSession
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, testUserID)
		c.Next()
	})
	return router
}

func postForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var errBoom = errors.New("boom")
