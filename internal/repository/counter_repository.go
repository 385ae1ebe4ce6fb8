package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository owns the persisted ticket-number counter.
type CounterRepository interface {
	// NextSequence advances the counter for the given calendar year and
	// returns the new sequence value. A year different from the stored one
	// resets the sequence to 1.
	NextSequence(ctx context.Context, year int) (int, error)
}

type counterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository instantiates repository.
func NewCounterRepository(pool *pgxpool.Pool) CounterRepository {
	return &counterRepository{pool: pool}
}

func (r *counterRepository) NextSequence(ctx context.Context, year int) (int, error) {
	// Increment-or-reset in a single statement on the single counter row;
	// row-level locking serializes concurrent submissions, so two requests
	// can never be handed the same number even across instances.
	const query = `
        UPDATE ticket_counter
        SET last_sequence = CASE WHEN last_year = $1 THEN last_sequence + 1 ELSE 1 END,
            last_year = $1
        WHERE id
        RETURNING last_sequence`
	var seq int
	if err := r.pool.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
