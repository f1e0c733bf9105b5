package station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDayAlreadyClosed is returned when a closeout already exists for a date.
var ErrDayAlreadyClosed = errors.New("day already closed out")

const uniqueViolation = "23505"

// Repository handles database operations for station reporting
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new station repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Overview builds the live dashboard snapshot in one round trip.
func (r *Repository) Overview(ctx context.Context) (Overview, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM hooks),
			(SELECT COUNT(*) FROM hooks WHERE status = 'available'),
			(SELECT COUNT(*) FROM hooks WHERE status = 'occupied'),
			(SELECT COUNT(*) FROM vehicles WHERE status IN ('parked', 'requested')),
			(SELECT COUNT(*) FROM retrieval_requests WHERE status IN ('pending', 'assigned', 'in_progress')),
			(SELECT COUNT(*) FROM retrieval_requests WHERE status = 'ready'),
			(SELECT COUNT(*) FROM drivers WHERE status = 'online'),
			(SELECT COUNT(*) FROM drivers WHERE status = 'busy'),
			(SELECT COUNT(*) FROM vehicles WHERE check_in_time::date = CURRENT_DATE),
			(SELECT COUNT(*) FROM retrieval_requests
			 WHERE status = 'completed' AND completed_at::date = CURRENT_DATE),
			(SELECT COALESCE(SUM(amount), 0) FROM retrieval_requests
			 WHERE status = 'completed' AND completed_at::date = CURRENT_DATE)
	`
	var o Overview
	err := r.db.QueryRow(ctx, query).Scan(
		&o.HooksTotal,
		&o.HooksAvailable,
		&o.HooksOccupied,
		&o.VehiclesParked,
		&o.QueueDepth,
		&o.PendingHandovers,
		&o.DriversOnline,
		&o.DriversBusy,
		&o.CheckInsToday,
		&o.RetrievalsToday,
		&o.RevenueToday,
	)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to build overview: %w", err)
	}
	return o, nil
}

// DailyReport aggregates one operating day.
func (r *Repository) DailyReport(ctx context.Context, date time.Time) (DailyReport, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM vehicles WHERE check_in_time::date = $1::date),
			(SELECT COUNT(*) FROM retrieval_requests
			 WHERE status = 'completed' AND completed_at::date = $1::date),
			(SELECT COUNT(*) FROM retrieval_requests
			 WHERE status = 'cancelled' AND cancelled_at::date = $1::date),
			(SELECT COUNT(*) FROM retrieval_requests
			 WHERE is_priority AND requested_at::date = $1::date),
			(SELECT COALESCE(SUM(amount), 0) FROM retrieval_requests
			 WHERE status = 'completed' AND completed_at::date = $1::date),
			(SELECT COALESCE(SUM(tip), 0) FROM retrieval_requests
			 WHERE status = 'completed' AND completed_at::date = $1::date),
			(SELECT COALESCE(SUM(amount + tip), 0) FROM retrieval_requests
			 WHERE cash_collected_at::date = $1::date)
	`
	report := DailyReport{Date: date.Format("2006-01-02")}
	err := r.db.QueryRow(ctx, query, date).Scan(
		&report.CheckIns,
		&report.CompletedPickups,
		&report.CancelledRequests,
		&report.PriorityRequests,
		&report.Revenue,
		&report.Tips,
		&report.CashCollected,
	)
	if err != nil {
		return DailyReport{}, fmt.Errorf("failed to build daily report: %w", err)
	}
	return report, nil
}

// CreateCloseout records the final figures for a date. The unique index on
// the date turns a double closeout into ErrDayAlreadyClosed.
func (r *Repository) CreateCloseout(ctx context.Context, c *Closeout) error {
	query := `
		INSERT INTO daily_closeouts (date, check_ins, pickups, revenue, tips, closed_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		c.Date,
		c.CheckIns,
		c.Pickups,
		c.Revenue,
		c.Tips,
		c.ClosedBy,
		c.Notes,
	).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDayAlreadyClosed
		}
		return fmt.Errorf("failed to create closeout: %w", err)
	}
	return nil
}

// CashPayments splits cash-settled retrievals into ones still owed to the
// drawer and ones collected on the given day.
func (r *Repository) CashPayments(ctx context.Context, day time.Time) (CashPayments, error) {
	query := `
		SELECT rr.id, rr.card_id, v.sequence_number, v.hook_number,
		       rr.amount, rr.tip, rr.completed_at, rr.cash_collected_at
		FROM retrieval_requests rr
		JOIN vehicles v ON v.id = rr.vehicle_id
		WHERE rr.payment_method = 'cash'
		  AND (
			(rr.status = 'completed' AND rr.cash_collected_at IS NULL)
			OR rr.cash_collected_at::date = $1::date
		  )
		ORDER BY rr.completed_at ASC NULLS LAST
	`
	rows, err := r.db.Query(ctx, query, day)
	if err != nil {
		return CashPayments{}, fmt.Errorf("failed to load cash payments: %w", err)
	}
	defer rows.Close()

	result := CashPayments{
		Pending:        []CashPayment{},
		CollectedToday: []CashPayment{},
	}
	for rows.Next() {
		var p CashPayment
		if err := rows.Scan(
			&p.RequestID,
			&p.CardID,
			&p.SequenceNumber,
			&p.HookNumber,
			&p.Amount,
			&p.Tip,
			&p.CompletedAt,
			&p.CashCollectedAt,
		); err != nil {
			return CashPayments{}, fmt.Errorf("failed to scan cash payment: %w", err)
		}
		if p.CashCollectedAt == nil {
			result.Pending = append(result.Pending, p)
			result.PendingTotal += p.Amount + p.Tip
		} else {
			result.CollectedToday = append(result.CollectedToday, p)
			result.CollectedTotal += p.Amount + p.Tip
		}
	}
	if err := rows.Err(); err != nil {
		return CashPayments{}, fmt.Errorf("failed to read cash payments: %w", err)
	}

	return result, nil
}

// CloseoutHistory lists finalized days, newest first.
func (r *Repository) CloseoutHistory(ctx context.Context, limit, offset int) ([]Closeout, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM daily_closeouts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count closeouts: %w", err)
	}

	query := `
		SELECT id, date, check_ins, pickups, revenue, tips, closed_by, notes, created_at
		FROM daily_closeouts
		ORDER BY date DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list closeouts: %w", err)
	}
	defer rows.Close()

	var list []Closeout
	for rows.Next() {
		var c Closeout
		if err := rows.Scan(
			&c.ID,
			&c.Date,
			&c.CheckIns,
			&c.Pickups,
			&c.Revenue,
			&c.Tips,
			&c.ClosedBy,
			&c.Notes,
			&c.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan closeout: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read closeouts: %w", err)
	}

	return list, total, nil
}
