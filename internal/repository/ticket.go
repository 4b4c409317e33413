package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

type TicketRepository interface {
	Create(ticket *models.Ticket) error
	GetByID(id int64) (*models.Ticket, error)
	GetAll() ([]*models.Ticket, error)
	// UpdateRouting writes the full classification result in one statement so
	// concurrent reclassification stays last-writer-wins at row granularity.
	UpdateRouting(id int64, team models.Team, confidence float64, priority models.Priority, level models.SupportLevel, status models.TicketStatus) error
	Patch(id int64, patch models.TicketPatch) (*models.Ticket, error)
	Delete(id int64) error
}

type ticketRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewTicketRepository(db *sqlx.DB, logger *zap.Logger) TicketRepository {
	return &ticketRepository{db: db, logger: logger}
}

func (r *ticketRepository) Create(ticket *models.Ticket) error {
	query := `INSERT INTO tickets (title, description, priority, support_level, assigned_to, confidence, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	return r.db.QueryRowx(query,
		ticket.Title, ticket.Description, ticket.Priority, ticket.Level,
		ticket.AssignedTo, ticket.Confidence, ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	query := `SELECT id, title, description, priority, support_level, assigned_to, confidence, status, created_at, updated_at
	          FROM tickets WHERE id = $1`
	err := r.db.Get(&ticket, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetAll() ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	query := `SELECT id, title, description, priority, support_level, assigned_to, confidence, status, created_at, updated_at
	          FROM tickets ORDER BY created_at DESC`
	if err := r.db.Select(&tickets, query); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) UpdateRouting(id int64, team models.Team, confidence float64, priority models.Priority, level models.SupportLevel, status models.TicketStatus) error {
	query := `UPDATE tickets
	          SET assigned_to = $2, confidence = $3, priority = $4, support_level = $5, status = $6, updated_at = now()
	          WHERE id = $1`
	res, err := r.db.Exec(query, id, team, confidence, priority, level, status)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Ticket deleted between fetch and write; nothing to do.
		r.logger.Warn("Routing update matched no ticket", zap.Int64("ticket_id", id))
	}
	return nil
}

func (r *ticketRepository) Patch(id int64, patch models.TicketPatch) (*models.Ticket, error) {
	var ticket models.Ticket
	query := `UPDATE tickets
	          SET status        = COALESCE($2, status),
	              priority      = COALESCE($3, priority),
	              support_level = COALESCE($4, support_level),
	              updated_at    = now()
	          WHERE id = $1
	          RETURNING id, title, description, priority, support_level, assigned_to, confidence, status, created_at, updated_at`
	err := r.db.QueryRowx(query, id, patch.Status, patch.Priority, patch.Level).StructScan(&ticket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM tickets WHERE id = $1`, id)
	return err
}
