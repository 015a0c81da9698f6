package handlers

import (
	"fmt"
	"net/http"

	"taskboard/internal/models"
	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BoardHandler struct {
	db           *gorm.DB
	boardService services.BoardService

	// checked in order, first field present in the form wins
	actions []boardAction
}

type boardAction struct {
	field string
	run   formAction
}

func NewBoardHandler(db *gorm.DB, boardService services.BoardService, tasks *TaskHandler, checklists *ChecklistHandler, comments *CommentHandler, team *TeamHandler) *BoardHandler {
	return &BoardHandler{
		db:           db,
		boardService: boardService,
		actions: []boardAction{
			{"add_task", tasks.addTask},
			{"add_checklist", checklists.add},
			{"invite_member", team.invite},
			{"accept_request", team.accept},
			{"reject_request", team.reject},
			{"save_edited_checklist", checklists.save},
			{"add_comment", comments.addComment},
			{"add_reply", comments.addReply},
			{"move_to_inprogress", tasks.changeStatus(models.ActionMoveToInProgress)},
			{"move_to_completed", tasks.changeStatus(models.ActionMoveToCompleted)},
			{"reopen_task", tasks.changeStatus(models.ActionReopen)},
			{"add_user_to_task", tasks.addUser},
			{"delete_user_from_task", tasks.removeUser},
			{"delete_task", tasks.deleteTask},
		},
	}
}

func (h *BoardHandler) Board(c *gin.Context) {
	board, err := h.boardService.Board(withContext(h.db, c), currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, "boards.html", gin.H{
		"user":          board.User,
		"tasks":         board.Tasks,
		"columns":       board.TasksByStatus(),
		"invites":       board.Invites,
		"team":          board.Team,
		"notifications": board.Notifications,
	})
}

func (h *BoardHandler) Dashboard(c *gin.Context) {
	dash, err := h.boardService.Dashboard(withContext(h.db, c), currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, "dashboard.html", gin.H{
		"user":                 dash.User,
		"task_counts":          dash.TaskCounts,
		"assigned_to_me":       dash.AssignedToMe,
		"team_size":            dash.TeamSize,
		"pending_invites":      dash.PendingInvites,
		"recent_notifications": dash.Recent,
	})
}

// Dispatch serves the single-form board page, where the name of the
// submit button says which action to take.
func (h *BoardHandler) Dispatch(c *gin.Context) {
	for _, action := range h.actions {
		if _, ok := c.GetPostForm(action.field); ok {
			run(c, action.run)
			return
		}
	}
	handleError(c, fmt.Errorf("%w: no board action in form", services.ErrValidation))
}
