package handlers

import (
	"net/http"

	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db          *gorm.DB
	teamService services.TeamService
}

type inviteInput struct {
	Email string `form:"_email" json:"email"`
}

func NewTeamHandler(db *gorm.DB, teamService services.TeamService) *TeamHandler {
	return &TeamHandler{db: db, teamService: teamService}
}

func (h *TeamHandler) invite(c *gin.Context) (int, interface{}, error) {
	var input inviteInput
	if err := bind(c, &input); err != nil {
		return 0, nil, err
	}
	target, err := h.teamService.InviteMember(withContext(h.db, c), currentUserID(c), input.Email)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, gin.H{"invited": target}, nil
}

func (h *TeamHandler) accept(c *gin.Context) (int, interface{}, error) {
	requesterID, err := lookupID(c, "requester_id")
	if err != nil {
		return 0, nil, err
	}
	err = h.teamService.AcceptRequest(withContext(h.db, c), currentUserID(c), requesterID)
	return http.StatusOK, gin.H{"accepted": requesterID}, err
}

func (h *TeamHandler) reject(c *gin.Context) (int, interface{}, error) {
	requesterID, err := lookupID(c, "requester_id")
	if err != nil {
		return 0, nil, err
	}
	err = h.teamService.RejectRequest(withContext(h.db, c), currentUserID(c), requesterID)
	return http.StatusOK, gin.H{"rejected": requesterID}, err
}

func (h *TeamHandler) InviteMember(c *gin.Context) { run(c, h.invite) }
func (h *TeamHandler) AcceptRequest(c *gin.Context) { run(c, h.accept) }
func (h *TeamHandler) RejectRequest(c *gin.Context) { run(c, h.reject) }
