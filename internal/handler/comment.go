package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/models"
	"github.com/leePettigrew/it-triage-demo/internal/repository"
)

type CommentHandler interface {
	CreateComment(c *gin.Context)
	GetComments(c *gin.Context)
	DeleteComment(c *gin.Context)
}

type commentHandler struct {
	commentRepo repository.CommentRepository
	ticketRepo  repository.TicketRepository
	logger      *zap.Logger
}

func NewCommentHandler(commentRepo repository.CommentRepository, ticketRepo repository.TicketRepository, logger *zap.Logger) CommentHandler {
	return &commentHandler{
		commentRepo: commentRepo,
		ticketRepo:  ticketRepo,
		logger:      logger,
	}
}

// CreateComment handles POST /api/tickets/:id/comments.
func (h *commentHandler) CreateComment(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	var req models.CommentCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.ticketRepo.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get ticket for comment", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get ticket"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}

	comment := &models.Comment{
		TicketID: id,
		Author:   req.Author,
		Body:     req.Body,
	}
	if err := h.commentRepo.Create(comment); err != nil {
		h.logger.Error("Failed to create comment", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create comment"})
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GetComments handles GET /api/tickets/:id/comments.
func (h *commentHandler) GetComments(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	comments, err := h.commentRepo.GetByTicketID(id)
	if err != nil {
		h.logger.Error("Failed to list comments", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list comments"})
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// DeleteComment handles DELETE /api/comments/:id.
func (h *commentHandler) DeleteComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	if err := h.commentRepo.Delete(id); err != nil {
		h.logger.Error("Failed to delete comment", zap.Int64("comment_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}
	c.Status(http.StatusNoContent)
}
