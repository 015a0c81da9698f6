package handlers

import (
	"net/http"

	"taskboard/internal/models"
	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

func (h *TaskHandler) addTask(c *gin.Context) (int, interface{}, error) {
	var input services.TaskInput
	if err := bind(c, &input); err != nil {
		return 0, nil, err
	}
	task, err := h.taskService.AddTask(withContext(h.db, c), currentUserID(c), input)
	return http.StatusCreated, task, err
}

func (h *TaskHandler) changeStatus(action models.TaskAction) formAction {
	return func(c *gin.Context) (int, interface{}, error) {
		taskID, err := lookupID(c, "task_id")
		if err != nil {
			return 0, nil, err
		}
		task, err := h.taskService.ChangeStatus(withContext(h.db, c), taskID, action)
		return http.StatusOK, task, err
	}
}

func (h *TaskHandler) addUser(c *gin.Context) (int, interface{}, error) {
	taskID, err := lookupID(c, "task_id")
	if err != nil {
		return 0, nil, err
	}
	userID, err := lookupID(c, "user_id", "user")
	if err != nil {
		return 0, nil, err
	}
	err = h.taskService.AddUserToTask(withContext(h.db, c), currentUserID(c), taskID, userID)
	return http.StatusOK, gin.H{"task_id": taskID, "user_id": userID}, err
}

func (h *TaskHandler) removeUser(c *gin.Context) (int, interface{}, error) {
	taskID, err := lookupID(c, "task_id")
	if err != nil {
		return 0, nil, err
	}
	userID, err := lookupID(c, "user_id")
	if err != nil {
		return 0, nil, err
	}
	err = h.taskService.DeleteUserFromTask(withContext(h.db, c), currentUserID(c), taskID, userID)
	return http.StatusNoContent, nil, err
}

func (h *TaskHandler) deleteTask(c *gin.Context) (int, interface{}, error) {
	taskID, err := lookupID(c, "task_id")
	if err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, h.taskService.DeleteTask(withContext(h.db, c), taskID)
}

func (h *TaskHandler) CreateTask(c *gin.Context) { run(c, h.addTask) }
func (h *TaskHandler) MoveToInProgress(c *gin.Context) { run(c, h.changeStatus(models.ActionMoveToInProgress)) }
func (h *TaskHandler) MoveToCompleted(c *gin.Context) { run(c, h.changeStatus(models.ActionMoveToCompleted)) }
func (h *TaskHandler) ReopenTask(c *gin.Context) { run(c, h.changeStatus(models.ActionReopen)) }
func (h *TaskHandler) AddUserToTask(c *gin.Context) { run(c, h.addUser) }
func (h *TaskHandler) DeleteUserFromTask(c *gin.Context) { run(c, h.removeUser) }
func (h *TaskHandler) DeleteTask(c *gin.Context) { run(c, h.deleteTask) }
