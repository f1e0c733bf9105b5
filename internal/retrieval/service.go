package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/internal/pricing"
	"github.com/valetkeys/valet-backend/internal/vehicles"
	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/eventbus"
	"github.com/valetkeys/valet-backend/pkg/logger"
)

// Service handles business logic for the retrieval queue and request lifecycle
type Service struct {
	repo     RepositoryInterface
	vehicles VehicleRegistry
	hooks    HookReleaser
	tariffs  TariffSource
	bus      *eventbus.Bus
	now      func() time.Time
}

// NewService creates a new retrieval service
func NewService(repo RepositoryInterface, registry VehicleRegistry, hooks HookReleaser, tariffs TariffSource, bus *eventbus.Bus) *Service {
	return &Service{
		repo:     repo,
		vehicles: registry,
		hooks:    hooks,
		tariffs:  tariffs,
		bus:      bus,
		now:      time.Now,
	}
}

// Enqueue creates a retrieval request for a parked vehicle. The fee is
// computed and locked in here, not at completion, so the price the guest
// saw when they tapped is the price they pay.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (*RetrievalRequest, error) {
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		return nil, common.NewValidationError("invalid card id")
	}

	if existing, err := s.repo.ActiveByCard(ctx, cardID); err == nil && existing != nil {
		appErr := common.NewConflictError(common.CodeDuplicateActive,
			fmt.Sprintf("an active request already exists with status %s", existing.Status))
		appErr.Details = EnqueueConflict{ExistingID: existing.ID, ExistingStatus: existing.Status}
		return nil, appErr
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error("failed to check for active request", zap.Error(err))
		return nil, common.NewInternalServerError("failed to create retrieval request")
	}

	vehicle, err := s.vehicles.FindActiveByCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("no active vehicle for card", err)
		}
		logger.Error("failed to find vehicle for retrieval", zap.Error(err))
		return nil, common.NewInternalServerError("failed to create retrieval request")
	}
	if vehicle.Status != vehicles.VehicleStatusParked {
		return nil, common.NewConflictError(common.CodeNotParked, "vehicle is not parked")
	}

	tariff, err := s.tariffs.GetTariff(ctx)
	if err != nil {
		logger.Error("failed to load tariff for enqueue", zap.Error(err))
		return nil, common.NewInternalServerError("failed to create retrieval request")
	}
	parked := s.now().Sub(vehicle.CheckInTime)
	amount := pricing.RetrievalFee(tariff, parked, req.IsPriority).Total

	// The conditional update is the arbiter for concurrent taps on the
	// same card: only one caller moves the vehicle out of parked.
	moved, err := s.vehicles.MarkRequested(ctx, vehicle.ID)
	if err != nil {
		logger.Error("failed to mark vehicle requested", zap.Error(err))
		return nil, common.NewInternalServerError("failed to create retrieval request")
	}
	if !moved {
		return nil, common.NewConflictError(common.CodeDuplicateActive, "a retrieval is already in flight for this vehicle")
	}

	request := &RetrievalRequest{
		VehicleID:   vehicle.ID,
		CardID:      cardID,
		IsPriority:  req.IsPriority,
		Status:      StatusPending,
		Amount:      amount,
		RequestedAt: s.now(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		if restoreErr := s.vehicles.RestoreParked(ctx, vehicle.ID); restoreErr != nil {
			logger.Error("failed to restore vehicle after aborted enqueue",
				zap.Int64("vehicle_id", vehicle.ID), zap.Error(restoreErr))
		}
		logger.Error("failed to create retrieval request", zap.Error(err))
		return nil, common.NewInternalServerError("failed to create retrieval request")
	}

	s.publish(ctx, "retrieval.requested", eventbus.SubjectRetrievalRequested, eventbus.RetrievalRequestedData{
		RequestID:   request.ID,
		VehicleID:   vehicle.ID,
		CardID:      cardID,
		HookNumber:  vehicle.HookNumber,
		IsPriority:  request.IsPriority,
		Amount:      request.Amount,
		RequestedAt: request.RequestedAt,
	})

	logger.Info("retrieval requested",
		zap.Int64("request_id", request.ID),
		zap.String("card_id", cardID.String()),
		zap.Bool("priority", request.IsPriority),
		zap.Float64("amount", request.Amount),
	)

	return request, nil
}

// Accept assigns a request to a runner. Exactly one of two concurrent
// accepts wins; the loser gets an AlreadyAssigned conflict.
func (s *Service) Accept(ctx context.Context, requestID, driverID int64) (*RetrievalRequest, error) {
	won, err := s.repo.AtomicAccept(ctx, requestID, driverID)
	if err != nil {
		logger.Error("failed to accept request", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, common.NewInternalServerError("failed to accept request")
	}
	if !won {
		request, err := s.repo.GetByID(ctx, requestID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("retrieval request not found", err)
		}
		if err != nil {
			logger.Error("failed to load request after lost accept", zap.Error(err))
			return nil, common.NewInternalServerError("failed to accept request")
		}
		return nil, common.NewConflictError(common.CodeAlreadyAssigned,
			fmt.Sprintf("request is no longer pending (status %s)", request.Status))
	}

	request, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "retrieval.assigned", eventbus.SubjectRetrievalAssigned, eventbus.RetrievalAssignedData{
		RequestID:  requestID,
		DriverID:   driverID,
		AssignedAt: s.now(),
	})

	return request, nil
}

// StartPickup records that the runner is walking to the car.
func (s *Service) StartPickup(ctx context.Context, requestID int64) (*RetrievalRequest, error) {
	moved, err := s.repo.MarkInProgress(ctx, requestID)
	if err != nil {
		logger.Error("failed to start pickup", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, common.NewInternalServerError("failed to start pickup")
	}
	if !moved {
		return nil, s.transitionConflict(ctx, requestID, StatusInProgress)
	}
	return s.GetByID(ctx, requestID)
}

// MarkCarReady stages the car at the pickup lane.
func (s *Service) MarkCarReady(ctx context.Context, requestID int64) (*RetrievalRequest, error) {
	moved, err := s.repo.MarkCarReady(ctx, requestID)
	if err != nil {
		logger.Error("failed to mark car ready", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, common.NewInternalServerError("failed to mark car ready")
	}
	if !moved {
		return nil, s.transitionConflict(ctx, requestID, StatusReady)
	}

	request, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	vehicle, vErr := s.vehicles.GetByID(ctx, request.VehicleID)
	hookNumber := 0
	if vErr == nil {
		hookNumber = vehicle.HookNumber
	}
	s.publish(ctx, "retrieval.ready", eventbus.SubjectRetrievalReady, eventbus.RetrievalReadyData{
		RequestID:  requestID,
		HookNumber: hookNumber,
		ReadyAt:    s.now(),
	})

	return request, nil
}

// CompleteHandover finalizes a staged request: the request completes, the
// vehicle is marked retrieved, and the hook is released, in that order.
// The later legs are idempotent, so replaying the call after a partial
// failure converges on the consistent end state instead of erroring.
func (s *Service) CompleteHandover(ctx context.Context, requestID int64) (*RetrievalRequest, error) {
	request, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	completed, err := s.repo.Complete(ctx, requestID)
	if err != nil {
		logger.Error("failed to complete request", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, common.NewInternalServerError("failed to complete handover")
	}
	if !completed && request.Status != StatusCompleted {
		if request.Status == StatusCancelled {
			return nil, common.NewConflictError(common.CodeTooLate, "request was cancelled")
		}
		return nil, common.NewConflictError(common.CodeNotReady, "car has not been staged for pickup")
	}

	if err := s.finalize(ctx, request); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, requestID)
}

// CompleteByCard finalizes the active request for a claim card, regardless
// of how far through the lifecycle it got. Used when the guest simply
// drives off and staff close out the ticket afterwards.
func (s *Service) CompleteByCard(ctx context.Context, cardID uuid.UUID) (*RetrievalRequest, error) {
	request, err := s.repo.ActiveByCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("no active request for card", err)
		}
		logger.Error("failed to find request by card", zap.Error(err))
		return nil, common.NewInternalServerError("failed to complete retrieval")
	}

	completed, err := s.repo.CompleteActive(ctx, request.ID)
	if err != nil {
		logger.Error("failed to complete request", zap.Int64("request_id", request.ID), zap.Error(err))
		return nil, common.NewInternalServerError("failed to complete retrieval")
	}
	if !completed {
		return nil, common.NewConflictError(common.CodeTooLate, "request is already settled")
	}

	if err := s.finalize(ctx, request); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, request.ID)
}

// finalize runs the vehicle and hook legs of a completion. Both legs are
// idempotent; a hook must never stay occupied for a completed request.
func (s *Service) finalize(ctx context.Context, request *RetrievalRequest) error {
	vehicle, err := s.vehicles.GetByID(ctx, request.VehicleID)
	if err != nil {
		logger.Error("failed to load vehicle for completion",
			zap.Int64("vehicle_id", request.VehicleID), zap.Error(err))
		return common.NewInternalServerError("failed to complete handover")
	}

	if err := s.vehicles.MarkRetrieved(ctx, vehicle.ID); err != nil {
		logger.Error("failed to mark vehicle retrieved",
			zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
		return common.NewInternalServerError("failed to complete handover")
	}

	if err := s.hooks.Release(ctx, vehicle.HookNumber); err != nil {
		logger.Error("failed to release hook after handover",
			zap.Int("hook", vehicle.HookNumber), zap.Error(err))
		return common.NewInternalServerError("failed to complete handover")
	}

	s.publish(ctx, "retrieval.completed", eventbus.SubjectRetrievalCompleted, eventbus.RetrievalCompletedData{
		RequestID:   request.ID,
		VehicleID:   vehicle.ID,
		CardID:      request.CardID,
		HookNumber:  vehicle.HookNumber,
		Amount:      request.Amount,
		CompletedAt: s.now(),
	})

	logger.Info("retrieval completed",
		zap.Int64("request_id", request.ID),
		zap.Int("hook", vehicle.HookNumber),
	)

	return nil
}

// Cancel voids a request still in pending or assigned. The vehicle returns
// to parked; the hook stays occupied since the keys never left the board.
func (s *Service) Cancel(ctx context.Context, requestID int64, reason string) (*RetrievalRequest, error) {
	cancelled, err := s.repo.AtomicCancel(ctx, requestID, reason)
	if err != nil {
		logger.Error("failed to cancel request", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, common.NewInternalServerError("failed to cancel request")
	}
	if !cancelled {
		request, err := s.repo.GetByID(ctx, requestID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("retrieval request not found", err)
		}
		if err != nil {
			logger.Error("failed to load request after failed cancel", zap.Error(err))
			return nil, common.NewInternalServerError("failed to cancel request")
		}
		return nil, common.NewConflictError(common.CodeTooLate,
			fmt.Sprintf("request can no longer be cancelled (status %s)", request.Status))
	}

	request, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.vehicles.RestoreParked(ctx, request.VehicleID); err != nil {
		logger.Error("failed to restore vehicle after cancel",
			zap.Int64("vehicle_id", request.VehicleID), zap.Error(err))
	}

	s.publish(ctx, "retrieval.cancelled", eventbus.SubjectRetrievalCancelled, eventbus.RetrievalCancelledData{
		RequestID:   requestID,
		VehicleID:   request.VehicleID,
		CardID:      request.CardID,
		Reason:      reason,
		CancelledAt: s.now(),
	})

	return request, nil
}

// GetByID returns one request.
func (s *Service) GetByID(ctx context.Context, requestID int64) (*RetrievalRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("retrieval request not found", err)
		}
		logger.Error("failed to get request", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, common.NewInternalServerError("failed to get request")
	}
	return request, nil
}

// Queue returns in-flight requests in service order.
func (s *Service) Queue(ctx context.Context) ([]QueueEntry, error) {
	entries, err := s.repo.QueueView(ctx)
	if err != nil {
		logger.Error("failed to load queue", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load queue")
	}
	return entries, nil
}

// PendingHandovers returns staged cars waiting for their guests.
func (s *Service) PendingHandovers(ctx context.Context) ([]QueueEntry, error) {
	entries, err := s.repo.PendingHandovers(ctx)
	if err != nil {
		logger.Error("failed to load pending handovers", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load pending handovers")
	}
	return entries, nil
}

// SetPaymentMethod records how the guest will settle the fee.
func (s *Service) SetPaymentMethod(ctx context.Context, requestID int64, method string) error {
	updated, err := s.repo.SetPaymentMethod(ctx, requestID, method)
	if err != nil {
		logger.Error("failed to set payment method", zap.Int64("request_id", requestID), zap.Error(err))
		return common.NewInternalServerError("failed to set payment method")
	}
	if !updated {
		return common.NewNotFoundError("retrieval request not found", nil)
	}
	return nil
}

// CollectCash records a cash settlement. Collecting twice is a conflict so
// the till never double-counts a ticket.
func (s *Service) CollectCash(ctx context.Context, requestID int64, tip float64) error {
	collected, err := s.repo.CollectCash(ctx, requestID, tip)
	if err != nil {
		logger.Error("failed to collect cash", zap.Int64("request_id", requestID), zap.Error(err))
		return common.NewInternalServerError("failed to collect cash")
	}
	if !collected {
		request, err := s.repo.GetByID(ctx, requestID)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewNotFoundError("retrieval request not found", err)
		}
		if err != nil {
			logger.Error("failed to load request after failed collection", zap.Error(err))
			return common.NewInternalServerError("failed to collect cash")
		}
		if request.CashCollectedAt != nil {
			return common.NewConflictError(common.CodeTooLate, "cash already collected for this request")
		}
		return common.NewConflictError(common.CodeNotReady, "request is not completed yet")
	}

	s.publish(ctx, "payment.collected", eventbus.SubjectPaymentCollected, eventbus.PaymentCollectedData{
		RequestID:   requestID,
		Method:      "cash",
		Tip:         tip,
		CollectedAt: s.now(),
	})

	return nil
}

// transitionConflict classifies a failed conditional update as not-found or
// an illegal transition, using the total transition table for the message.
func (s *Service) transitionConflict(ctx context.Context, requestID int64, target RequestStatus) error {
	request, err := s.repo.GetByID(ctx, requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NewNotFoundError("retrieval request not found", err)
	}
	if err != nil {
		logger.Error("failed to load request after failed transition", zap.Error(err))
		return common.NewInternalServerError("failed to update request")
	}

	if CanTransition(request.Status, target) {
		// Legal on paper but lost to a concurrent writer.
		return common.NewConflictError(common.CodeAlreadyAssigned, "request was updated concurrently, retry")
	}
	return common.NewConflictError(common.CodeTooLate,
		fmt.Sprintf("cannot move request from %s to %s", request.Status, target))
}

// publish emits a lifecycle event. Eventing is best effort and never fails
// the transition that triggered it.
func (s *Service) publish(ctx context.Context, eventType, subject string, data interface{}) {
	event, err := eventbus.NewEvent(eventType, "retrieval", data)
	if err != nil {
		logger.Warn("failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.bus.Publish(ctx, subject, event); err != nil {
		logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
