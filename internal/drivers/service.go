package drivers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/eventbus"
	"github.com/valetkeys/valet-backend/pkg/logger"
)

// Service handles business logic for drivers
type Service struct {
	repo RepositoryInterface
	bus  *eventbus.Bus
}

// NewService creates a new drivers service
func NewService(repo RepositoryInterface, bus *eventbus.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Register creates a new driver, starting offline.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Driver, error) {
	driver := &Driver{
		Name:   req.Name,
		Phone:  req.Phone,
		Status: DriverStatusOffline,
	}
	if err := s.repo.Create(ctx, driver); err != nil {
		logger.Error("failed to register driver", zap.Error(err))
		return nil, common.NewInternalServerError("failed to register driver")
	}

	logger.Info("driver registered", zap.Int64("driver_id", driver.ID), zap.String("name", driver.Name))
	return driver, nil
}

// GetByID returns one driver.
func (s *Service) GetByID(ctx context.Context, id int64) (*Driver, error) {
	driver, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("driver not found", err)
		}
		logger.Error("failed to get driver", zap.Int64("driver_id", id), zap.Error(err))
		return nil, common.NewInternalServerError("failed to get driver")
	}
	return driver, nil
}

// List returns drivers, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *DriverStatus) ([]Driver, error) {
	if status != nil && !status.Valid() {
		return nil, common.NewValidationError("invalid driver status")
	}

	list, err := s.repo.List(ctx, status)
	if err != nil {
		logger.Error("failed to list drivers", zap.Error(err))
		return nil, common.NewInternalServerError("failed to list drivers")
	}
	return list, nil
}

// SetStatus updates a driver's availability and announces the change.
func (s *Service) SetStatus(ctx context.Context, id int64, status DriverStatus) (*Driver, error) {
	if !status.Valid() {
		return nil, common.NewValidationError("invalid driver status")
	}

	updated, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		logger.Error("failed to set driver status", zap.Int64("driver_id", id), zap.Error(err))
		return nil, common.NewInternalServerError("failed to set driver status")
	}
	if !updated {
		return nil, common.NewNotFoundError("driver not found", nil)
	}

	event, err := eventbus.NewEvent("driver.status", "drivers", eventbus.DriverStatusChangedData{
		DriverID:  id,
		Status:    string(status),
		ChangedAt: time.Now().UTC(),
	})
	if err == nil {
		if pubErr := s.bus.Publish(ctx, eventbus.SubjectDriverStatusChanged, event); pubErr != nil {
			logger.Warn("failed to publish driver status event", zap.Error(pubErr))
		}
	}

	return s.GetByID(ctx, id)
}
