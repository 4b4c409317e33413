package models

import "time"

// TicketStatus is the ticket lifecycle state machine:
// pending -> classified -> routed -> closed.
// The full routing pipeline writes "routed" directly; "classified" exists
// for partial pipelines that assign a team without finishing estimation.
type TicketStatus string

const (
	StatusPending    TicketStatus = "pending"
	StatusClassified TicketStatus = "classified"
	StatusRouted     TicketStatus = "routed"
	StatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusPending, StatusClassified, StatusRouted, StatusClosed:
		return true
	}
	return false
}

// Ticket represents a support ticket stored in the 'tickets' table.
// Title and Description are immutable inputs to routing; AssignedTo,
// Confidence, Priority and Level are written by the routing worker.
// Confidence is only meaningful once Status is routed or closed.
type Ticket struct {
	ID          int64        `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Priority    Priority     `db:"priority" json:"priority"`
	Level       SupportLevel `db:"support_level" json:"level"`
	AssignedTo  Team         `db:"assigned_to" json:"assigned_to"`
	Confidence  float64      `db:"confidence" json:"confidence"`
	Status      TicketStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Text returns the combined form the classifier works on.
func (t *Ticket) Text() string {
	if t.Description == "" {
		return t.Title
	}
	return t.Title + ". " + t.Description
}

// TicketCreate is the request body for POST /api/tickets.
type TicketCreate struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// TicketPatch is the request body for PATCH /api/tickets/:id. Nil fields
// are left untouched.
type TicketPatch struct {
	Status   *TicketStatus `json:"status,omitempty"`
	Priority *Priority     `json:"priority,omitempty"`
	Level    *SupportLevel `json:"level,omitempty"`
}
