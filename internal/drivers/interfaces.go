package drivers

import "context"

// RepositoryInterface defines the contract for driver data access
type RepositoryInterface interface {
	Create(ctx context.Context, d *Driver) error
	GetByID(ctx context.Context, id int64) (*Driver, error)
	List(ctx context.Context, status *DriverStatus) ([]Driver, error)
	SetStatus(ctx context.Context, id int64, status DriverStatus) (bool, error)
}

// ServiceInterface defines the contract for driver business logic
type ServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*Driver, error)
	GetByID(ctx context.Context, id int64) (*Driver, error)
	List(ctx context.Context, status *DriverStatus) ([]Driver, error)
	SetStatus(ctx context.Context, id int64, status DriverStatus) (*Driver, error)
}

// Ensure implementations satisfy the interfaces
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ ServiceInterface    = (*Service)(nil)
)
