package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Realwahba/support-tickets/internal/domain"
)

// TicketFilter captures listing parameters. AccountEmail, when set, applies
// the customer visibility rule; the staff console lists everything.
type TicketFilter struct {
	AccountEmail *string
	Statuses     []domain.TicketStatus
	Limit        int
	Offset       int
}

// TicketPatch carries the staff-editable fields of a ticket.
type TicketPatch struct {
	SubmittedName  string
	SubmittedEmail string
	OrderReference string
	Subject        string
	Category       string
	Priority       domain.TicketPriority
	Status         domain.TicketStatus
	Message        string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ReplyCounts(ctx context.Context, ticketIDs []string) (map[string]int, error)
	StatusCounts(ctx context.Context, accountEmail *string) (map[domain.TicketStatus]int, error)
}

const ticketColumns = `id, ticket_number, submitted_name, submitted_email, account_email, account_id,
               order_reference, subject, category, priority, message, status,
               client_ip, user_agent, created_at, updated_at`

// visibilityClause is the identity rule: a ticket belongs to an account email
// when bound to it, or, for legacy rows with no bound account, when the typed
// email matches.
const visibilityClause = `(account_email = %[1]s OR (account_email IS NULL AND submitted_email = %[1]s))`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, submitted_name, submitted_email, account_email, account_id,
                             order_reference, subject, category, priority, message, status, client_ip, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.SubmittedName,
		ticket.SubmittedEmail,
		ticket.AccountEmail,
		ticket.AccountID,
		ticket.OrderReference,
		ticket.Subject,
		ticket.Category,
		ticket.Priority,
		ticket.Message,
		ticket.Status,
		ticket.ClientIP,
		ticket.UserAgent,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET submitted_name=$1, submitted_email=$2, order_reference=$3, subject=$4,
            category=$5, priority=$6, status=$7, message=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING %s`, ticketColumns)
	return scanTicket(r.pool.QueryRow(ctx, query,
		patch.SubmittedName,
		patch.SubmittedEmail,
		patch.OrderReference,
		patch.Subject,
		patch.Category,
		patch.Priority,
		patch.Status,
		patch.Message,
		id,
	))
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING %s`, ticketColumns)
	return scanTicket(r.pool.QueryRow(ctx, query, status, id))
}

// Delete removes a ticket together with its replies. The cascade is explicit
// and transactional so a partial failure cannot orphan replies.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM ticket_replies WHERE ticket_id=$1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AccountEmail != nil {
		args = append(args, *filter.AccountEmail)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(visibilityClause, placeholder))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	// A negative limit disables paging; the CSV export walks the full table.
	limit := filter.Limit
	if limit == 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC`,
		base, strings.Join(clauses, " AND "))
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ReplyCounts(ctx context.Context, ticketIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return counts, nil
	}
	const query = `
        SELECT ticket_id, COUNT(*) FROM ticket_replies
        WHERE ticket_id = ANY($1)
        GROUP BY ticket_id`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

// StatusCounts powers the stat boxes above the ticket lists.
func (r *ticketRepository) StatusCounts(ctx context.Context, accountEmail *string) (map[domain.TicketStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tickets GROUP BY status`
	args := []any{}
	if accountEmail != nil {
		args = append(args, *accountEmail)
		query = fmt.Sprintf(`SELECT status, COUNT(*) FROM tickets WHERE %s GROUP BY status`,
			fmt.Sprintf(visibilityClause, "$1"))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.SubmittedName,
		&ticket.SubmittedEmail,
		&ticket.AccountEmail,
		&ticket.AccountID,
		&ticket.OrderReference,
		&ticket.Subject,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Message,
		&ticket.Status,
		&ticket.ClientIP,
		&ticket.UserAgent,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
