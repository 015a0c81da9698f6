package handlers

import (
	"net/http"

	"taskboard/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct {
	db             *gorm.DB
	commentService services.CommentService
}

type commentInput struct {
	Text string `form:"comment_text" json:"comment_text"`
}

type replyInput struct {
	Text string `form:"reply_text" json:"reply_text"`
}

func NewCommentHandler(db *gorm.DB, commentService services.CommentService) *CommentHandler {
	return &CommentHandler{db: db, commentService: commentService}
}

func (h *CommentHandler) addComment(c *gin.Context) (int, interface{}, error) {
	taskID, err := lookupID(c, "task_id")
	if err != nil {
		return 0, nil, err
	}
	var input commentInput
	if err := bind(c, &input); err != nil {
		return 0, nil, err
	}
	comment, err := h.commentService.AddComment(withContext(h.db, c), currentUserID(c), taskID, input.Text)
	return http.StatusCreated, comment, err
}

func (h *CommentHandler) addReply(c *gin.Context) (int, interface{}, error) {
	commentID, err := lookupID(c, "comment_id")
	if err != nil {
		return 0, nil, err
	}
	var input replyInput
	if err := bind(c, &input); err != nil {
		return 0, nil, err
	}
	reply, err := h.commentService.AddReply(withContext(h.db, c), currentUserID(c), commentID, input.Text)
	return http.StatusCreated, reply, err
}

func (h *CommentHandler) AddComment(c *gin.Context) { run(c, h.addComment) }
func (h *CommentHandler) AddReply(c *gin.Context) { run(c, h.addReply) }
