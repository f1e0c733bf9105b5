package hooks

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the contract for hook board data access
type RepositoryInterface interface {
	EnsurePool(ctx context.Context, size int) error
	NextAvailable(ctx context.Context) (int, error)
	Assign(ctx context.Context, number int, cardID uuid.UUID) (bool, error)
	Release(ctx context.Context, number int) error
	GetByNumber(ctx context.Context, number int) (*Hook, error)
	List(ctx context.Context) ([]Hook, error)
	Stats(ctx context.Context) (Stats, error)
}

// ServiceInterface defines the contract for hook allocation logic
type ServiceInterface interface {
	EnsurePool(ctx context.Context) error
	AssignNext(ctx context.Context, cardID uuid.UUID) (int, error)
	AssignSpecific(ctx context.Context, number int, cardID uuid.UUID) error
	Release(ctx context.Context, number int) error
	GetHook(ctx context.Context, number int) (*Hook, error)
	NextAvailable(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Board(ctx context.Context) ([]Hook, Stats, error)
}

// Ensure implementations satisfy the interfaces
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ ServiceInterface    = (*Service)(nil)
)
