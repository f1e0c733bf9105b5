package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoAvailableHook is returned when every hook on the board is occupied.
var ErrNoAvailableHook = errors.New("no available hook")

// Repository handles database operations for the hook board
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new hooks repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsurePool seeds hook rows 1..size. Existing rows are untouched, so the
// board survives restarts and the call is safe on every boot.
func (r *Repository) EnsurePool(ctx context.Context, size int) error {
	query := `
		INSERT INTO hooks (number, status)
		SELECT n, 'available' FROM generate_series(1, $1) AS n
		ON CONFLICT (number) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, size); err != nil {
		return fmt.Errorf("failed to seed hook pool: %w", err)
	}
	return nil
}

// NextAvailable returns the lowest-numbered available hook.
func (r *Repository) NextAvailable(ctx context.Context) (int, error) {
	query := `
		SELECT number FROM hooks
		WHERE status = 'available'
		ORDER BY number ASC
		LIMIT 1
	`
	var number int
	err := r.db.QueryRow(ctx, query).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoAvailableHook
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find available hook: %w", err)
	}
	return number, nil
}

// Assign atomically claims a hook for a card. Returns false without error
// when the hook was taken by a concurrent writer, so callers can retry with
// another hook instead of failing the check-in.
func (r *Repository) Assign(ctx context.Context, number int, cardID uuid.UUID) (bool, error) {
	query := `
		UPDATE hooks
		SET status = 'occupied', reserved_for = $2, reserved_at = NOW(), updated_at = NOW()
		WHERE number = $1 AND status = 'available'
	`
	tag, err := r.db.Exec(ctx, query, number, cardID)
	if err != nil {
		return false, fmt.Errorf("failed to assign hook %d: %w", number, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release frees a hook. Releasing an already-available hook is a no-op.
func (r *Repository) Release(ctx context.Context, number int) error {
	query := `
		UPDATE hooks
		SET status = 'available', reserved_for = NULL, reserved_at = NULL, updated_at = NOW()
		WHERE number = $1
	`
	tag, err := r.db.Exec(ctx, query, number)
	if err != nil {
		return fmt.Errorf("failed to release hook %d: %w", number, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to release hook %d: %w", number, pgx.ErrNoRows)
	}
	return nil
}

// GetByNumber returns a single hook.
func (r *Repository) GetByNumber(ctx context.Context, number int) (*Hook, error) {
	query := `
		SELECT number, status, reserved_for, reserved_at, updated_at
		FROM hooks
		WHERE number = $1
	`
	hook := &Hook{}
	err := r.db.QueryRow(ctx, query, number).Scan(
		&hook.Number,
		&hook.Status,
		&hook.ReservedFor,
		&hook.ReservedAt,
		&hook.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hook %d: %w", number, err)
	}
	return hook, nil
}

// List returns the whole board ordered by hook number.
func (r *Repository) List(ctx context.Context) ([]Hook, error) {
	query := `
		SELECT number, status, reserved_for, reserved_at, updated_at
		FROM hooks
		ORDER BY number ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hooks: %w", err)
	}
	defer rows.Close()

	var board []Hook
	for rows.Next() {
		var hook Hook
		if err := rows.Scan(
			&hook.Number,
			&hook.Status,
			&hook.ReservedFor,
			&hook.ReservedAt,
			&hook.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan hook: %w", err)
		}
		board = append(board, hook)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hooks: %w", err)
	}
	return board, nil
}

// Stats returns board occupancy counts.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT COUNT(*),
			   COUNT(*) FILTER (WHERE status = 'available'),
			   COUNT(*) FILTER (WHERE status = 'occupied')
		FROM hooks
	`
	var stats Stats
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.Available, &stats.Occupied); err != nil {
		return Stats{}, fmt.Errorf("failed to get hook stats: %w", err)
	}
	return stats, nil
}
