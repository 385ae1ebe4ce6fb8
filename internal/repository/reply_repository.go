package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Realwahba/support-tickets/internal/domain"
)

// ReplyRepository manages ticket thread replies.
type ReplyRepository interface {
	// CreateWithStatus inserts a reply and moves its ticket to the given
	// status in one transaction, so a reply can never land without the
	// transition it triggers.
	CreateWithStatus(ctx context.Context, reply *domain.Reply, status domain.TicketStatus) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Reply, error)
}

type replyRepository struct {
	pool *pgxpool.Pool
}

// NewReplyRepository builds repository.
func NewReplyRepository(pool *pgxpool.Pool) ReplyRepository {
	return &replyRepository{pool: pool}
}

func (r *replyRepository) CreateWithStatus(ctx context.Context, reply *domain.Reply, status domain.TicketStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO ticket_replies (ticket_id, sender_role, sender_display_name, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		reply.TicketID,
		reply.SenderRole,
		reply.SenderDisplayName,
		reply.Body,
	).Scan(&reply.ID, &reply.CreatedAt); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`, status, reply.TicketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *replyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Reply, error) {
	const query = `
        SELECT id, ticket_id, sender_role, sender_display_name, body, created_at
        FROM ticket_replies WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reply
	for rows.Next() {
		var reply domain.Reply
		if err := rows.Scan(
			&reply.ID,
			&reply.TicketID,
			&reply.SenderRole,
			&reply.SenderDisplayName,
			&reply.Body,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}
