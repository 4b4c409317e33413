package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/corpus"
	"github.com/leePettigrew/it-triage-demo/internal/models"
	"github.com/leePettigrew/it-triage-demo/internal/repository"
)

// Enqueuer submits a ticket id to the routing queue.
type Enqueuer interface {
	Enqueue(ticketID int64) bool
}

type TicketHandler interface {
	CreateTicket(c *gin.Context)
	GetAllTickets(c *gin.Context)
	GetTicketByID(c *gin.Context)
	PatchTicket(c *gin.Context)
	DeleteTicket(c *gin.Context)
	Reclassify(c *gin.Context)
}

type ticketHandler struct {
	ticketRepo repository.TicketRepository
	prototypes *corpus.Store
	queue      Enqueuer
	logger     *zap.Logger
}

func NewTicketHandler(ticketRepo repository.TicketRepository, prototypes *corpus.Store, queue Enqueuer, logger *zap.Logger) TicketHandler {
	return &ticketHandler{
		ticketRepo: ticketRepo,
		prototypes: prototypes,
		queue:      queue,
		logger:     logger,
	}
}

// CreateTicket handles POST /api/tickets. The ticket is stored pending and
// a routing job is enqueued exactly once.
func (h *ticketHandler) CreateTicket(c *gin.Context) {
	var req models.TicketCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket := &models.Ticket{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.DefaultPriority,
		Level:       models.DefaultLevel,
		Status:      models.StatusPending,
	}
	if err := h.ticketRepo.Create(ticket); err != nil {
		h.logger.Error("Failed to create ticket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ticket"})
		return
	}

	h.queue.Enqueue(ticket.ID)

	c.JSON(http.StatusCreated, ticket)
}

// GetAllTickets handles GET /api/tickets.
func (h *ticketHandler) GetAllTickets(c *gin.Context) {
	tickets, err := h.ticketRepo.GetAll()
	if err != nil {
		h.logger.Error("Failed to list tickets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	c.JSON(http.StatusOK, tickets)
}

// GetTicketByID handles GET /api/tickets/:id.
func (h *ticketHandler) GetTicketByID(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketRepo.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get ticket", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get ticket"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// PatchTicket handles PATCH /api/tickets/:id. A transition to closed feeds
// the ticket back into its team's prototype set so future routing reflects
// resolved history.
func (h *ticketHandler) PatchTicket(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	var patch models.TicketPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
		return
	}
	if patch.Level != nil && !patch.Level.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid support level"})
		return
	}

	before, err := h.ticketRepo.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get ticket", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get ticket"})
		return
	}
	if before == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}

	ticket, err := h.ticketRepo.Patch(id, patch)
	if err != nil {
		h.logger.Error("Failed to patch ticket", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to patch ticket"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}

	if before.Status != models.StatusClosed && ticket.Status == models.StatusClosed {
		h.recordFeedback(ticket)
	}

	c.JSON(http.StatusOK, ticket)
}

// recordFeedback appends the closed ticket to its team's prototype set.
// Best-effort: a failure leaves the ticket closed with the example
// unrecorded, which is acceptable for feedback enrichment.
func (h *ticketHandler) recordFeedback(ticket *models.Ticket) {
	if !ticket.AssignedTo.Routable() {
		return
	}
	err := h.prototypes.Append(ticket.AssignedTo, corpus.Example{
		Title:       ticket.Title,
		Description: ticket.Description,
	})
	if err != nil {
		h.logger.Error("Failed to record feedback example",
			zap.Int64("ticket_id", ticket.ID),
			zap.String("team", string(ticket.AssignedTo)),
			zap.Error(err))
	}
}

// DeleteTicket handles DELETE /api/tickets/:id.
func (h *ticketHandler) DeleteTicket(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	if err := h.ticketRepo.Delete(id); err != nil {
		h.logger.Error("Failed to delete ticket", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete ticket"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Reclassify handles POST /api/tickets/:id/classify, the manual retrigger.
// Concurrent attempts for the same ticket are a benign last-writer-wins
// race.
func (h *ticketHandler) Reclassify(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketRepo.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get ticket", zap.Int64("ticket_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get ticket"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}

	if !h.queue.Enqueue(id) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "routing queue is full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "classification queued"})
}

func ticketID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return 0, false
	}
	return id, true
}
