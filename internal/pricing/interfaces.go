package pricing

import (
	"context"

	"github.com/google/uuid"
	"time"
)

// RepositoryInterface defines the contract for pricing data access
type RepositoryInterface interface {
	SeedDefaults(ctx context.Context) error
	GetTariff(ctx context.Context) (Tariff, error)
	UpdateTariff(ctx context.Context, req UpdateTariffRequest) (Tariff, error)
	PaymentHistory(ctx context.Context, limit, offset int) ([]PaymentRecord, int64, error)
}

// VehicleReader supplies the check-in state needed to price a stay. It is
// satisfied by the vehicles repository.
type VehicleReader interface {
	ParkedSince(ctx context.Context, cardID uuid.UUID) (checkIn time.Time, status string, err error)
}

// ServiceInterface defines the contract for pricing business logic
type ServiceInterface interface {
	CalculateFee(ctx context.Context, req CalculateFeeRequest) (*FeeQuote, error)
	GetTariff(ctx context.Context) (Tariff, error)
	UpdateTariff(ctx context.Context, req UpdateTariffRequest) (Tariff, error)
	PaymentHistory(ctx context.Context, limit, offset int) ([]PaymentRecord, int64, error)
}

// Ensure implementations satisfy the interfaces
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ ServiceInterface    = (*Service)(nil)
)
