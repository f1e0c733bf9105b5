package station

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/logger"
)

// Service handles business logic for station reporting
type Service struct {
	repo RepositoryInterface
	now  func() time.Time
}

// NewService creates a new station service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Overview returns the live dashboard snapshot.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	overview, err := s.repo.Overview(ctx)
	if err != nil {
		logger.Error("failed to build overview", zap.Error(err))
		return Overview{}, common.NewInternalServerError("failed to build overview")
	}
	return overview, nil
}

// DailyReport aggregates one operating day. An empty date means today.
func (s *Service) DailyReport(ctx context.Context, date string) (DailyReport, error) {
	day := s.now()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return DailyReport{}, common.NewValidationError("date must be YYYY-MM-DD")
		}
		day = parsed
	}

	report, err := s.repo.DailyReport(ctx, day)
	if err != nil {
		logger.Error("failed to build daily report", zap.String("date", date), zap.Error(err))
		return DailyReport{}, common.NewInternalServerError("failed to build daily report")
	}
	return report, nil
}

// CashPayments returns the drawer state for today.
func (s *Service) CashPayments(ctx context.Context) (CashPayments, error) {
	payments, err := s.repo.CashPayments(ctx, s.now())
	if err != nil {
		logger.Error("failed to load cash payments", zap.Error(err))
		return CashPayments{}, common.NewInternalServerError("failed to load cash payments")
	}
	return payments, nil
}

// CloseoutDay finalizes a date using that day's report figures. Closing the
// same date twice is a conflict.
func (s *Service) CloseoutDay(ctx context.Context, req CloseoutRequest) (*Closeout, error) {
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, common.NewValidationError("date must be YYYY-MM-DD")
	}

	report, err := s.repo.DailyReport(ctx, day)
	if err != nil {
		logger.Error("failed to build report for closeout", zap.String("date", req.Date), zap.Error(err))
		return nil, common.NewInternalServerError("failed to close out day")
	}

	closeout := &Closeout{
		Date:     req.Date,
		CheckIns: report.CheckIns,
		Pickups:  report.CompletedPickups,
		Revenue:  report.Revenue,
		Tips:     report.Tips,
		ClosedBy: req.ClosedBy,
		Notes:    req.Notes,
	}
	if err := s.repo.CreateCloseout(ctx, closeout); err != nil {
		if errors.Is(err, ErrDayAlreadyClosed) {
			return nil, common.NewConflictError(common.CodeTooLate, "day has already been closed out")
		}
		logger.Error("failed to create closeout", zap.String("date", req.Date), zap.Error(err))
		return nil, common.NewInternalServerError("failed to close out day")
	}

	logger.Info("day closed out",
		zap.String("date", req.Date),
		zap.Float64("revenue", closeout.Revenue),
	)

	return closeout, nil
}

// CloseoutHistory lists finalized days, newest first.
func (s *Service) CloseoutHistory(ctx context.Context, limit, offset int) ([]Closeout, int64, error) {
	list, total, err := s.repo.CloseoutHistory(ctx, limit, offset)
	if err != nil {
		logger.Error("failed to load closeout history", zap.Error(err))
		return nil, 0, common.NewInternalServerError("failed to load closeout history")
	}
	return list, total, nil
}
