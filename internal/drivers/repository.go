package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for drivers
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new drivers repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new driver in offline state.
func (r *Repository) Create(ctx context.Context, d *Driver) error {
	query := `
		INSERT INTO drivers (name, phone, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, d.Name, d.Phone, d.Status).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}
	return nil
}

// GetByID retrieves a driver by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Driver, error) {
	query := `SELECT id, name, phone, status, created_at, updated_at FROM drivers WHERE id = $1`

	d := &Driver{}
	err := r.db.QueryRow(ctx, query, id).
		Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return d, nil
}

// List returns all drivers, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *DriverStatus) ([]Driver, error) {
	query := `SELECT id, name, phone, status, created_at, updated_at FROM drivers`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	var list []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read drivers: %w", err)
	}
	return list, nil
}

// SetStatus updates a driver's availability. Returns false when the driver
// does not exist.
func (r *Repository) SetStatus(ctx context.Context, id int64, status DriverStatus) (bool, error) {
	query := `UPDATE drivers SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to set driver status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
