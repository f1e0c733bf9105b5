package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/logger"
)

// Service handles business logic for fee quoting and tariff management
type Service struct {
	repo     RepositoryInterface
	vehicles VehicleReader
	now      func() time.Time
}

// NewService creates a new pricing service
func NewService(repo RepositoryInterface, vehicles VehicleReader) *Service {
	return &Service{
		repo:     repo,
		vehicles: vehicles,
		now:      time.Now,
	}
}

// CalculateFee quotes the settings-driven retrieval fee for a parked vehicle.
func (s *Service) CalculateFee(ctx context.Context, req CalculateFeeRequest) (*FeeQuote, error) {
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		return nil, common.NewValidationError("invalid card id")
	}

	checkIn, status, err := s.vehicles.ParkedSince(ctx, cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("no active vehicle for card", err)
		}
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("failed to look up vehicle for quote", zap.Error(err))
		return nil, common.NewInternalServerError("failed to calculate fee")
	}
	if status != "parked" && status != "requested" {
		return nil, common.NewConflictError(common.CodeNotParked, "vehicle is not parked")
	}

	tariff, err := s.repo.GetTariff(ctx)
	if err != nil {
		logger.Error("failed to load tariff", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load tariff")
	}

	parked := s.now().Sub(checkIn)
	breakdown := RetrievalFee(tariff, parked, req.IsPriority)

	return &FeeQuote{
		CardID:        req.CardID,
		ParkedMinutes: int(parked.Minutes()),
		IsPriority:    req.IsPriority,
		Breakdown:     breakdown,
	}, nil
}

// GetTariff returns the current tariff settings.
func (s *Service) GetTariff(ctx context.Context) (Tariff, error) {
	tariff, err := s.repo.GetTariff(ctx)
	if err != nil {
		logger.Error("failed to load tariff", zap.Error(err))
		return Tariff{}, common.NewInternalServerError("failed to load tariff")
	}
	return tariff, nil
}

// UpdateTariff applies partial tariff updates and returns the new settings.
func (s *Service) UpdateTariff(ctx context.Context, req UpdateTariffRequest) (Tariff, error) {
	tariff, err := s.repo.UpdateTariff(ctx, req)
	if err != nil {
		logger.Error("failed to update tariff", zap.Error(err))
		return Tariff{}, common.NewInternalServerError("failed to update tariff")
	}
	return tariff, nil
}

// PaymentHistory lists settled retrievals.
func (s *Service) PaymentHistory(ctx context.Context, limit, offset int) ([]PaymentRecord, int64, error) {
	records, total, err := s.repo.PaymentHistory(ctx, limit, offset)
	if err != nil {
		logger.Error("failed to load payment history", zap.Error(err))
		return nil, 0, common.NewInternalServerError("failed to load payment history")
	}
	return records, total, nil
}
