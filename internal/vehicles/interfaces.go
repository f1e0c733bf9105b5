package vehicles

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the contract for vehicle data access
type RepositoryInterface interface {
	Create(ctx context.Context, v *Vehicle) error
	GetByID(ctx context.Context, id int64) (*Vehicle, error)
	FindActiveByCard(ctx context.Context, cardID uuid.UUID) (*Vehicle, error)
	ParkedSince(ctx context.Context, cardID uuid.UUID) (time.Time, string, error)
	UpdateAttributes(ctx context.Context, id int64, req UpdateRequest) (*Vehicle, error)
	MarkRequested(ctx context.Context, id int64) (bool, error)
	MarkRetrieved(ctx context.Context, id int64) error
	RestoreParked(ctx context.Context, id int64) error
	ListActive(ctx context.Context, limit, offset int) ([]Vehicle, int64, error)
	History(ctx context.Context, limit, offset int) ([]Vehicle, int64, error)
}

// HookAllocator is the slice of the hook board the check-in flow needs.
type HookAllocator interface {
	AssignNext(ctx context.Context, cardID uuid.UUID) (int, error)
	AssignSpecific(ctx context.Context, number int, cardID uuid.UUID) error
	Release(ctx context.Context, number int) error
}

// ServiceInterface defines the contract for vehicle business logic
type ServiceInterface interface {
	CheckIn(ctx context.Context, req CheckInRequest) (*Vehicle, error)
	GetByID(ctx context.Context, id int64) (*Vehicle, error)
	GetByCard(ctx context.Context, cardID uuid.UUID) (*Vehicle, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Vehicle, error)
	CurrentFeeQuote(ctx context.Context, cardID uuid.UUID) (*FeeQuote, error)
	ListActive(ctx context.Context, limit, offset int) ([]Vehicle, int64, error)
	History(ctx context.Context, limit, offset int) ([]Vehicle, int64, error)
}

// Ensure implementations satisfy the interfaces
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ ServiceInterface    = (*Service)(nil)
)
