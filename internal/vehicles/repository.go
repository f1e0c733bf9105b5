package vehicles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyParked is returned when a card already has an active vehicle.
var ErrAlreadyParked = errors.New("card already has an active vehicle")

const uniqueViolation = "23505"

// Repository handles database operations for vehicles
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new vehicles repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const vehicleColumns = `
	id, card_id, sequence_number, hook_number, license_plate, make, model,
	color, customer_phone, status, check_in_time, check_out_time,
	created_at, updated_at
`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	v := &Vehicle{}
	err := row.Scan(
		&v.ID,
		&v.CardID,
		&v.SequenceNumber,
		&v.HookNumber,
		&v.LicensePlate,
		&v.Make,
		&v.Model,
		&v.Color,
		&v.CustomerPhone,
		&v.Status,
		&v.CheckInTime,
		&v.CheckOutTime,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create inserts a new vehicle record. The venue-wide sequence number is
// taken from MAX+1 inside the insert itself, so concurrent check-ins never
// read a stale counter. A partial unique index on active card ids turns a
// double check-in race into a unique violation, surfaced as ErrAlreadyParked.
func (r *Repository) Create(ctx context.Context, v *Vehicle) error {
	query := `
		INSERT INTO vehicles (
			card_id, sequence_number, hook_number, license_plate, make, model,
			color, customer_phone, status, check_in_time
		)
		SELECT $1, COALESCE(MAX(sequence_number), 0) + 1, $2, $3, $4, $5, $6, $7, $8, $9
		FROM vehicles
		RETURNING id, sequence_number, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		v.CardID,
		v.HookNumber,
		v.LicensePlate,
		v.Make,
		v.Model,
		v.Color,
		v.CustomerPhone,
		v.Status,
		v.CheckInTime,
	).Scan(&v.ID, &v.SequenceNumber, &v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyParked
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

// GetByID retrieves a vehicle by its internal id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// FindActiveByCard returns the card's vehicle that has not yet left the venue.
func (r *Repository) FindActiveByCard(ctx context.Context, cardID uuid.UUID) (*Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE card_id = $1 AND status IN ('parked', 'requested')
		ORDER BY check_in_time DESC
		LIMIT 1
	`
	v, err := scanVehicle(r.db.QueryRow(ctx, query, cardID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle by card: %w", err)
	}
	return v, nil
}

// UpdateAttributes patches the descriptive fields of a vehicle. Fields
// passed as nil keep their current value.
func (r *Repository) UpdateAttributes(ctx context.Context, id int64, req UpdateRequest) (*Vehicle, error) {
	query := `
		UPDATE vehicles
		SET license_plate = COALESCE($2, license_plate),
			make = COALESCE($3, make),
			model = COALESCE($4, model),
			color = COALESCE($5, color),
			customer_phone = COALESCE($6, customer_phone),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + vehicleColumns + `
	`
	v, err := scanVehicle(r.db.QueryRow(ctx, query, id,
		req.LicensePlate, req.Make, req.Model, req.Color, req.CustomerPhone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return v, nil
}

// ParkedSince reports when the card's active vehicle checked in and its
// current status. Satisfies the pricing package's VehicleReader.
func (r *Repository) ParkedSince(ctx context.Context, cardID uuid.UUID) (time.Time, string, error) {
	query := `
		SELECT check_in_time, status
		FROM vehicles
		WHERE card_id = $1 AND status IN ('parked', 'requested')
		ORDER BY check_in_time DESC
		LIMIT 1
	`
	var checkIn time.Time
	var status string
	err := r.db.QueryRow(ctx, query, cardID).Scan(&checkIn, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, "", pgx.ErrNoRows
	}
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to look up parked vehicle: %w", err)
	}
	return checkIn, status, nil
}

// MarkRequested transitions a vehicle from parked to requested. Returns
// false when the vehicle is not currently parked.
func (r *Repository) MarkRequested(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE vehicles
		SET status = 'requested', updated_at = NOW()
		WHERE id = $1 AND status = 'parked'
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark vehicle requested: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkRetrieved finalizes a vehicle's stay. Valid from any non-terminal
// status and a no-op when already retrieved, so a confirmed handover always
// lands the vehicle in its terminal state.
func (r *Repository) MarkRetrieved(ctx context.Context, id int64) error {
	query := `
		UPDATE vehicles
		SET status = 'retrieved', check_out_time = NOW(), updated_at = NOW()
		WHERE id = $1 AND status <> 'retrieved'
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark vehicle retrieved: %w", err)
	}
	return nil
}

// RestoreParked returns a vehicle to parked after a cancelled retrieval.
// Only applies when the vehicle is still in requested state.
func (r *Repository) RestoreParked(ctx context.Context, id int64) error {
	query := `
		UPDATE vehicles
		SET status = 'parked', updated_at = NOW()
		WHERE id = $1 AND status = 'requested'
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to restore vehicle to parked: %w", err)
	}
	return nil
}

// ListActive lists vehicles currently at the venue, newest first.
func (r *Repository) ListActive(ctx context.Context, limit, offset int) ([]Vehicle, int64, error) {
	return r.list(ctx, `status IN ('parked', 'requested')`, limit, offset)
}

// History lists all vehicles ever checked in, newest first.
func (r *Repository) History(ctx context.Context, limit, offset int) ([]Vehicle, int64, error) {
	return r.list(ctx, `TRUE`, limit, offset)
}

func (r *Repository) list(ctx context.Context, where string, limit, offset int) ([]Vehicle, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM vehicles WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE ` + where + `
		ORDER BY check_in_time DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]Vehicle, 0, limit)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read vehicles: %w", err)
	}

	return vehicles, total, nil
}
