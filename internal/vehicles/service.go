package vehicles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/internal/pricing"
	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/eventbus"
	"github.com/valetkeys/valet-backend/pkg/logger"
)

// Service handles business logic for vehicle check-in and lookup
type Service struct {
	repo  RepositoryInterface
	hooks HookAllocator
	bus   *eventbus.Bus
	now   func() time.Time
}

// NewService creates a new vehicles service
func NewService(repo RepositoryInterface, hooks HookAllocator, bus *eventbus.Bus) *Service {
	return &Service{
		repo:  repo,
		hooks: hooks,
		bus:   bus,
		now:   time.Now,
	}
}

// CheckIn parks a car: claims a hook, creates the vehicle record, and
// announces the arrival. If the record cannot be created the claimed hook
// is released so the board never leaks slots.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (*Vehicle, error) {
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		return nil, common.NewValidationError("invalid card id")
	}

	if existing, err := s.repo.FindActiveByCard(ctx, cardID); err == nil && existing != nil {
		return nil, common.NewConflictError(common.CodeAlreadyParked, "card already has a parked vehicle")
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error("failed to check for existing vehicle", zap.Error(err))
		return nil, common.NewInternalServerError("failed to check in vehicle")
	}

	var hookNumber int
	if req.HookNumber != nil {
		if err := s.hooks.AssignSpecific(ctx, *req.HookNumber, cardID); err != nil {
			return nil, err
		}
		hookNumber = *req.HookNumber
	} else {
		hookNumber, err = s.hooks.AssignNext(ctx, cardID)
		if err != nil {
			return nil, err
		}
	}

	vehicle := &Vehicle{
		CardID:        cardID,
		HookNumber:    hookNumber,
		LicensePlate:  req.LicensePlate,
		Make:          req.Make,
		Model:         req.Model,
		Color:         req.Color,
		CustomerPhone: req.CustomerPhone,
		Status:        VehicleStatusParked,
		CheckInTime:   s.now(),
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		if relErr := s.hooks.Release(ctx, hookNumber); relErr != nil {
			logger.Error("failed to release hook after aborted check-in",
				zap.Int("hook", hookNumber), zap.Error(relErr))
		}
		if errors.Is(err, ErrAlreadyParked) {
			return nil, common.NewConflictError(common.CodeAlreadyParked, "card already has a parked vehicle")
		}
		logger.Error("failed to create vehicle", zap.Error(err))
		return nil, common.NewInternalServerError("failed to check in vehicle")
	}

	s.publishCheckedIn(ctx, vehicle)

	logger.Info("vehicle checked in",
		zap.Int64("vehicle_id", vehicle.ID),
		zap.String("card_id", cardID.String()),
		zap.Int("hook", hookNumber),
	)

	return vehicle, nil
}

// GetByID returns a vehicle record, active or retrieved.
func (s *Service) GetByID(ctx context.Context, id int64) (*Vehicle, error) {
	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("vehicle not found", err)
		}
		logger.Error("failed to get vehicle", zap.Error(err))
		return nil, common.NewInternalServerError("failed to get vehicle")
	}
	return vehicle, nil
}

// Update corrects descriptive attributes recorded at check-in.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Vehicle, error) {
	vehicle, err := s.repo.UpdateAttributes(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("vehicle not found", err)
		}
		logger.Error("failed to update vehicle", zap.Error(err))
		return nil, common.NewInternalServerError("failed to update vehicle")
	}
	return vehicle, nil
}

// GetByCard returns the card's active vehicle.
func (s *Service) GetByCard(ctx context.Context, cardID uuid.UUID) (*Vehicle, error) {
	vehicle, err := s.repo.FindActiveByCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("no active vehicle for card", err)
		}
		logger.Error("failed to find vehicle", zap.Error(err))
		return nil, common.NewInternalServerError("failed to find vehicle")
	}
	return vehicle, nil
}

// CurrentFeeQuote computes the walk-up fee for a parked vehicle from its
// check-in time to now.
func (s *Service) CurrentFeeQuote(ctx context.Context, cardID uuid.UUID) (*FeeQuote, error) {
	vehicle, err := s.GetByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if vehicle.Status != VehicleStatusParked {
		return nil, common.NewConflictError(common.CodeNotParked, "vehicle is not parked")
	}

	parked := s.now().Sub(vehicle.CheckInTime)
	return &FeeQuote{
		CardID:        cardID,
		ParkedMinutes: int(parked.Minutes()),
		Amount:        pricing.WalkUpFee(parked),
	}, nil
}

// ListActive lists vehicles currently at the venue.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]Vehicle, int64, error) {
	list, total, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		logger.Error("failed to list vehicles", zap.Error(err))
		return nil, 0, common.NewInternalServerError("failed to list vehicles")
	}
	return list, total, nil
}

// History lists all check-ins, newest first.
func (s *Service) History(ctx context.Context, limit, offset int) ([]Vehicle, int64, error) {
	list, total, err := s.repo.History(ctx, limit, offset)
	if err != nil {
		logger.Error("failed to load vehicle history", zap.Error(err))
		return nil, 0, common.NewInternalServerError("failed to load vehicle history")
	}
	return list, total, nil
}

// publishCheckedIn emits the arrival event. Eventing never fails a check-in.
func (s *Service) publishCheckedIn(ctx context.Context, v *Vehicle) {
	event, err := eventbus.NewEvent("vehicle.checkedin", "vehicles", eventbus.VehicleCheckedInData{
		VehicleID:      v.ID,
		CardID:         v.CardID,
		SequenceNumber: v.SequenceNumber,
		HookNumber:     v.HookNumber,
		LicensePlate:   derefString(v.LicensePlate),
		CheckInTime:    v.CheckInTime,
	})
	if err != nil {
		logger.Warn("failed to build check-in event", zap.Error(err))
		return
	}
	if err := s.bus.Publish(ctx, eventbus.SubjectVehicleCheckedIn, event); err != nil {
		logger.Warn("failed to publish check-in event", zap.Error(err))
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
