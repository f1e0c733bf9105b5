package retrieval

import (
	"context"

	"github.com/google/uuid"

	"github.com/valetkeys/valet-backend/internal/pricing"
	"github.com/valetkeys/valet-backend/internal/vehicles"
)

// RepositoryInterface defines the contract for retrieval request data access
type RepositoryInterface interface {
	Create(ctx context.Context, req *RetrievalRequest) error
	GetByID(ctx context.Context, id int64) (*RetrievalRequest, error)
	ActiveByCard(ctx context.Context, cardID uuid.UUID) (*RetrievalRequest, error)
	AtomicAccept(ctx context.Context, id, driverID int64) (bool, error)
	MarkInProgress(ctx context.Context, id int64) (bool, error)
	MarkCarReady(ctx context.Context, id int64) (bool, error)
	Complete(ctx context.Context, id int64) (bool, error)
	CompleteActive(ctx context.Context, id int64) (bool, error)
	AtomicCancel(ctx context.Context, id int64, reason string) (bool, error)
	SetPaymentMethod(ctx context.Context, id int64, method string) (bool, error)
	CollectCash(ctx context.Context, id int64, tip float64) (bool, error)
	QueueView(ctx context.Context) ([]QueueEntry, error)
	PendingHandovers(ctx context.Context) ([]QueueEntry, error)
}

// VehicleRegistry is the slice of the vehicles package the retrieval flow
// needs to keep vehicle state in lockstep with request state.
type VehicleRegistry interface {
	GetByID(ctx context.Context, id int64) (*vehicles.Vehicle, error)
	FindActiveByCard(ctx context.Context, cardID uuid.UUID) (*vehicles.Vehicle, error)
	MarkRequested(ctx context.Context, id int64) (bool, error)
	MarkRetrieved(ctx context.Context, id int64) error
	RestoreParked(ctx context.Context, id int64) error
}

// HookReleaser frees hooks when a retrieval completes.
type HookReleaser interface {
	Release(ctx context.Context, number int) error
}

// TariffSource supplies the pricing settings used to lock in the amount.
type TariffSource interface {
	GetTariff(ctx context.Context) (pricing.Tariff, error)
}

// ServiceInterface defines the contract for retrieval business logic
type ServiceInterface interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*RetrievalRequest, error)
	Accept(ctx context.Context, requestID, driverID int64) (*RetrievalRequest, error)
	StartPickup(ctx context.Context, requestID int64) (*RetrievalRequest, error)
	MarkCarReady(ctx context.Context, requestID int64) (*RetrievalRequest, error)
	CompleteHandover(ctx context.Context, requestID int64) (*RetrievalRequest, error)
	CompleteByCard(ctx context.Context, cardID uuid.UUID) (*RetrievalRequest, error)
	Cancel(ctx context.Context, requestID int64, reason string) (*RetrievalRequest, error)
	GetByID(ctx context.Context, requestID int64) (*RetrievalRequest, error)
	Queue(ctx context.Context) ([]QueueEntry, error)
	PendingHandovers(ctx context.Context) ([]QueueEntry, error)
	SetPaymentMethod(ctx context.Context, requestID int64, method string) error
	CollectCash(ctx context.Context, requestID int64, tip float64) error
}

// Ensure implementations satisfy the interfaces
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ ServiceInterface    = (*Service)(nil)
)
