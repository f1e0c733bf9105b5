package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for retrieval requests
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new retrieval repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const requestColumns = `
	id, vehicle_id, card_id, is_priority, status, amount, tip, payment_method,
	driver_id, cancel_reason, requested_at, assigned_at, picked_up_at,
	car_ready_at, keys_handed_at, completed_at, cancelled_at, cash_collected_at,
	created_at, updated_at
`

func scanRequest(row pgx.Row) (*RetrievalRequest, error) {
	req := &RetrievalRequest{}
	err := row.Scan(
		&req.ID,
		&req.VehicleID,
		&req.CardID,
		&req.IsPriority,
		&req.Status,
		&req.Amount,
		&req.Tip,
		&req.PaymentMethod,
		&req.DriverID,
		&req.CancelReason,
		&req.RequestedAt,
		&req.AssignedAt,
		&req.PickedUpAt,
		&req.CarReadyAt,
		&req.KeysHandedAt,
		&req.CompletedAt,
		&req.CancelledAt,
		&req.CashCollectedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Create inserts a new pending retrieval request.
func (r *Repository) Create(ctx context.Context, req *RetrievalRequest) error {
	query := `
		INSERT INTO retrieval_requests (
			vehicle_id, card_id, is_priority, status, amount, requested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		req.VehicleID,
		req.CardID,
		req.IsPriority,
		req.Status,
		req.Amount,
		req.RequestedAt,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create retrieval request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*RetrievalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM retrieval_requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retrieval request: %w", err)
	}
	return req, nil
}

// ActiveByCard returns the card's in-flight request, if any.
func (r *Repository) ActiveByCard(ctx context.Context, cardID uuid.UUID) (*RetrievalRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM retrieval_requests
		WHERE card_id = $1
		  AND status IN ('pending', 'assigned', 'in_progress', 'ready')
		ORDER BY requested_at DESC
		LIMIT 1
	`
	req, err := scanRequest(r.db.QueryRow(ctx, query, cardID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active request: %w", err)
	}
	return req, nil
}

// AtomicAccept transitions a request from pending to assigned. The status
// guard in the WHERE clause is what decides the race between two runners
// tapping accept at once; exactly one update matches.
func (r *Repository) AtomicAccept(ctx context.Context, id, driverID int64) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET status = 'assigned', driver_id = $2, assigned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, id, driverID)
	if err != nil {
		return false, fmt.Errorf("failed to accept request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkInProgress records that the runner is on the way to the car.
func (r *Repository) MarkInProgress(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET status = 'in_progress', picked_up_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'assigned'
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark request in progress: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCarReady stages the car at the pickup lane. Legal from any state that
// can still reach ready, including pending when the runner skips accepting.
func (r *Repository) MarkCarReady(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET status = 'ready', car_ready_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'assigned', 'in_progress')
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark car ready: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Complete finalizes a staged request at key handover.
func (r *Repository) Complete(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET status = 'completed', keys_handed_at = NOW(), completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'ready'
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to complete request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteActive finalizes a request from any non-terminal state. Used by
// the booth's complete-by-card flow, where staff confirm the guest left
// with their car even if intermediate taps were skipped.
func (r *Repository) CompleteActive(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET status = 'completed', keys_handed_at = NOW(), completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'assigned', 'in_progress', 'ready')
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to complete request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AtomicCancel voids a request that has not progressed past assigned.
// Returns false when the request is already too far along or terminal,
// leaving every field untouched.
func (r *Repository) AtomicCancel(ctx context.Context, id int64, reason string) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET status = 'cancelled', cancel_reason = $2, cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'assigned')
	`
	tag, err := r.db.Exec(ctx, query, id, reason)
	if err != nil {
		return false, fmt.Errorf("failed to cancel request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetPaymentMethod records how the guest will settle.
func (r *Repository) SetPaymentMethod(ctx context.Context, id int64, method string) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET payment_method = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('cancelled')
	`
	tag, err := r.db.Exec(ctx, query, id, method)
	if err != nil {
		return false, fmt.Errorf("failed to set payment method: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CollectCash records a cash settlement with an optional tip.
func (r *Repository) CollectCash(ctx context.Context, id int64, tip float64) (bool, error) {
	query := `
		UPDATE retrieval_requests
		SET payment_method = 'cash', tip = $2, cash_collected_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'completed' AND cash_collected_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, id, tip)
	if err != nil {
		return false, fmt.Errorf("failed to collect cash: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

const queueJoin = `
	SELECT r.id, r.vehicle_id, r.card_id, v.sequence_number, v.hook_number,
		   v.license_plate, v.make, v.model, v.color, r.is_priority, r.status,
		   r.amount, r.driver_id, d.name, r.requested_at, r.car_ready_at
	FROM retrieval_requests r
	JOIN vehicles v ON v.id = r.vehicle_id
	LEFT JOIN drivers d ON d.id = r.driver_id
`

func (r *Repository) queryQueue(ctx context.Context, where, order string) ([]QueueEntry, error) {
	rows, err := r.db.Query(ctx, queueJoin+` WHERE `+where+` ORDER BY `+order)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var entries []QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(
			&e.RequestID,
			&e.VehicleID,
			&e.CardID,
			&e.SequenceNumber,
			&e.HookNumber,
			&e.LicensePlate,
			&e.Make,
			&e.Model,
			&e.Color,
			&e.IsPriority,
			&e.Status,
			&e.Amount,
			&e.DriverID,
			&e.DriverName,
			&e.RequestedAt,
			&e.CarReadyAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	return entries, nil
}

// QueueView lists in-flight requests in service order: priority requests
// first, then first come first served within each tier. The order is a
// query predicate over persisted state, recomputed on every read.
func (r *Repository) QueueView(ctx context.Context) ([]QueueEntry, error) {
	return r.queryQueue(ctx,
		`r.status IN ('pending', 'assigned', 'in_progress', 'ready')`,
		`r.is_priority DESC, r.requested_at ASC`,
	)
}

// PendingHandovers lists staged cars waiting for their guests.
func (r *Repository) PendingHandovers(ctx context.Context) ([]QueueEntry, error) {
	return r.queryQueue(ctx,
		`r.status = 'ready'`,
		`r.car_ready_at ASC`,
	)
}
