package pricing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for tariff settings and payment history
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new pricing repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Settings table keys.
const (
	keyBaseFee         = "base_fee"
	keyPriorityFee     = "priority_fee"
	keyHourlyRate      = "hourly_rate"
	keySurgeMultiplier = "surge_multiplier"
	keySurgeEnabled    = "surge_enabled"
)

// SeedDefaults inserts the default tariff values for any missing settings key.
// Existing values are never overwritten, so it is safe to call on every boot.
func (r *Repository) SeedDefaults(ctx context.Context) error {
	defaults := DefaultTariff()
	rows := map[string]string{
		keyBaseFee:         formatFloat(defaults.BaseFee),
		keyPriorityFee:     formatFloat(defaults.PriorityFee),
		keyHourlyRate:      formatFloat(defaults.HourlyRate),
		keySurgeMultiplier: formatFloat(defaults.SurgeMultiplier),
		keySurgeEnabled:    strconv.FormatBool(defaults.SurgeEnabled),
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`
	for key, value := range rows {
		if _, err := r.db.Exec(ctx, query, key, value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

// GetTariff loads the current tariff, falling back to defaults for missing keys.
func (r *Repository) GetTariff(ctx context.Context) (Tariff, error) {
	tariff := DefaultTariff()

	rows, err := r.db.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return tariff, fmt.Errorf("failed to load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return tariff, fmt.Errorf("failed to scan setting: %w", err)
		}

		switch key {
		case keyBaseFee:
			tariff.BaseFee = parseFloat(value, tariff.BaseFee)
		case keyPriorityFee:
			tariff.PriorityFee = parseFloat(value, tariff.PriorityFee)
		case keyHourlyRate:
			tariff.HourlyRate = parseFloat(value, tariff.HourlyRate)
		case keySurgeMultiplier:
			tariff.SurgeMultiplier = parseFloat(value, tariff.SurgeMultiplier)
		case keySurgeEnabled:
			tariff.SurgeEnabled = value == "true"
		}
	}
	if err := rows.Err(); err != nil {
		return tariff, fmt.Errorf("failed to read settings: %w", err)
	}

	return tariff, nil
}

// UpdateTariff upserts the provided settings and returns the resulting tariff.
func (r *Repository) UpdateTariff(ctx context.Context, req UpdateTariffRequest) (Tariff, error) {
	updates := map[string]string{}
	if req.BaseFee != nil {
		updates[keyBaseFee] = formatFloat(*req.BaseFee)
	}
	if req.PriorityFee != nil {
		updates[keyPriorityFee] = formatFloat(*req.PriorityFee)
	}
	if req.HourlyRate != nil {
		updates[keyHourlyRate] = formatFloat(*req.HourlyRate)
	}
	if req.SurgeMultiplier != nil {
		updates[keySurgeMultiplier] = formatFloat(*req.SurgeMultiplier)
	}
	if req.SurgeEnabled != nil {
		updates[keySurgeEnabled] = strconv.FormatBool(*req.SurgeEnabled)
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	for key, value := range updates {
		if _, err := r.db.Exec(ctx, query, key, value); err != nil {
			return Tariff{}, fmt.Errorf("failed to update setting %s: %w", key, err)
		}
	}

	return r.GetTariff(ctx)
}

// PaymentHistory lists completed retrievals with their charged amounts,
// most recent first.
func (r *Repository) PaymentHistory(ctx context.Context, limit, offset int) ([]PaymentRecord, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM retrieval_requests WHERE status = 'completed'`
	if err := r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	query := `
		SELECT r.id, r.card_id, v.license_plate, r.amount, r.tip,
			   r.payment_method, r.is_priority, r.completed_at
		FROM retrieval_requests r
		JOIN vehicles v ON v.id = r.vehicle_id
		WHERE r.status = 'completed'
		ORDER BY r.completed_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	records := make([]PaymentRecord, 0, limit)
	for rows.Next() {
		var rec PaymentRecord
		if err := rows.Scan(
			&rec.RequestID,
			&rec.CardID,
			&rec.LicensePlate,
			&rec.Amount,
			&rec.Tip,
			&rec.PaymentMethod,
			&rec.IsPriority,
			&rec.CompletedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan payment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read payments: %w", err)
	}

	return records, total, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
