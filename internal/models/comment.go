package models

import "time"

// Comment represents a comment stored in the 'comments' table.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	TicketID  int64     `db:"ticket_id" json:"ticket_id"`
	Author    string    `db:"author" json:"author"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CommentCreate is the request body for POST /api/tickets/:id/comments.
type CommentCreate struct {
	Author string `json:"author" binding:"required"`
	Body   string `json:"body" binding:"required"`
}
