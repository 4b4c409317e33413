package repository

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByTicketID(ticketID int64) ([]*models.Comment, error)
	Delete(id int64) error
}

type commentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewCommentRepository(db *sqlx.DB, logger *zap.Logger) CommentRepository {
	return &commentRepository{db: db, logger: logger}
}

func (r *commentRepository) Create(comment *models.Comment) error {
	query := `INSERT INTO comments (ticket_id, author, body)
	          VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowx(query, comment.TicketID, comment.Author, comment.Body).
		Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) GetByTicketID(ticketID int64) ([]*models.Comment, error) {
	var comments []*models.Comment
	query := `SELECT id, ticket_id, author, body, created_at
	          FROM comments WHERE ticket_id = $1 ORDER BY created_at ASC`
	if err := r.db.Select(&comments, query, ticketID); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	return err
}
