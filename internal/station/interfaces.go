package station

import (
	"context"
	"time"
)

// RepositoryInterface defines the contract for station data access
type RepositoryInterface interface {
	Overview(ctx context.Context) (Overview, error)
	DailyReport(ctx context.Context, date time.Time) (DailyReport, error)
	CashPayments(ctx context.Context, day time.Time) (CashPayments, error)
	CreateCloseout(ctx context.Context, c *Closeout) error
	CloseoutHistory(ctx context.Context, limit, offset int) ([]Closeout, int64, error)
}

// ServiceInterface defines the contract for station business logic
type ServiceInterface interface {
	Overview(ctx context.Context) (Overview, error)
	DailyReport(ctx context.Context, date string) (DailyReport, error)
	CashPayments(ctx context.Context) (CashPayments, error)
	CloseoutDay(ctx context.Context, req CloseoutRequest) (*Closeout, error)
	CloseoutHistory(ctx context.Context, limit, offset int) ([]Closeout, int64, error)
}

// Ensure implementations satisfy the interfaces
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ ServiceInterface    = (*Service)(nil)
)
