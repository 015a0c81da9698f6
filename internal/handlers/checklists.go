package handlers

import (
	"net/http"

	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChecklistHandler struct {
	db               *gorm.DB
	checklistService services.ChecklistService
}

func NewChecklistHandler(db *gorm.DB, checklistService services.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{db: db, checklistService: checklistService}
}

func (h *ChecklistHandler) add(c *gin.Context) (int, interface{}, error) {
	taskID, err := lookupID(c, "task_id")
	if err != nil {
		return 0, nil, err
	}
	var input services.ChecklistInput
	if err := bind(c, &input); err != nil {
		return 0, nil, err
	}
	checklist, err := h.checklistService.AddChecklist(withContext(h.db, c), currentUserID(c), taskID, input)
	return http.StatusCreated, checklist, err
}

func (h *ChecklistHandler) save(c *gin.Context) (int, interface{}, error) {
	checklistID, err := lookupID(c, "checklist_id")
	if err != nil {
		return 0, nil, err
	}
	var input services.ChecklistInput
	if err := bind(c, &input); err != nil {
		return 0, nil, err
	}
	checklist, err := h.checklistService.SaveEditedChecklist(withContext(h.db, c), currentUserID(c), checklistID, input)
	return http.StatusOK, checklist, err
}

func (h *ChecklistHandler) AddChecklist(c *gin.Context) { run(c, h.add) }
func (h *ChecklistHandler) SaveEditedChecklist(c *gin.Context) { run(c, h.save) }
