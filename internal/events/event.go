package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

// EventTicketRouted is emitted once per successful routing attempt.
const EventTicketRouted = "ticket_routed"

// TicketEvent is the envelope pushed to websocket listeners. Delivery is
// best-effort with no ordering guarantee; listeners must treat the persisted
// ticket record, not the event stream, as ground truth.
type TicketEvent struct {
	EventID     string               `json:"event_id"`
	Event       string               `json:"event"`
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Priority    models.Priority      `json:"priority"`
	Level       models.SupportLevel  `json:"level"`
	AssignedTo  models.Team          `json:"assigned_to"`
	Confidence  float64              `json:"confidence"`
	Status      models.TicketStatus  `json:"status"`
	CreatedAt   string               `json:"created_at"`
}

// NewTicketRoutedEvent projects a ticket into the ticket_routed envelope.
func NewTicketRoutedEvent(ticket *models.Ticket) TicketEvent {
	return TicketEvent{
		EventID:     uuid.New().String(),
		Event:       EventTicketRouted,
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Priority:    ticket.Priority,
		Level:       ticket.Level,
		AssignedTo:  ticket.AssignedTo,
		Confidence:  ticket.Confidence,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt.UTC().Format(time.RFC3339),
	}
}
