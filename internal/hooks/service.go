package hooks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/logger"
)

// assignAttempts bounds the find-then-claim retry loop under contention.
const assignAttempts = 5

// Service handles business logic for hook allocation
type Service struct {
	repo     RepositoryInterface
	poolSize int
}

// NewService creates a new hooks service
func NewService(repo RepositoryInterface, poolSize int) *Service {
	return &Service{repo: repo, poolSize: poolSize}
}

// EnsurePool seeds the hook board to the configured size.
func (s *Service) EnsurePool(ctx context.Context) error {
	if err := s.repo.EnsurePool(ctx, s.poolSize); err != nil {
		logger.Error("failed to seed hook pool", zap.Int("size", s.poolSize), zap.Error(err))
		return common.NewInternalServerError("failed to initialize hook board")
	}
	logger.Info("hook board ready", zap.Int("size", s.poolSize))
	return nil
}

// AssignNext claims the lowest-numbered available hook for a card. Finding
// and claiming are separate statements, so a concurrent check-in can steal
// the hook between them; the conditional update detects that and we move on
// to the next candidate.
func (s *Service) AssignNext(ctx context.Context, cardID uuid.UUID) (int, error) {
	for attempt := 0; attempt < assignAttempts; attempt++ {
		number, err := s.repo.NextAvailable(ctx)
		if errors.Is(err, ErrNoAvailableHook) {
			return 0, common.NewConflictError(common.CodeHooksExhausted, "all hooks are occupied")
		}
		if err != nil {
			logger.Error("failed to find available hook", zap.Error(err))
			return 0, common.NewInternalServerError("failed to find available hook")
		}

		claimed, err := s.repo.Assign(ctx, number, cardID)
		if err != nil {
			logger.Error("failed to claim hook", zap.Int("hook", number), zap.Error(err))
			return 0, common.NewInternalServerError("failed to claim hook")
		}
		if claimed {
			return number, nil
		}

		logger.Debug("hook claimed concurrently, retrying",
			zap.Int("hook", number),
			zap.Int("attempt", attempt+1),
		)
	}

	return 0, common.NewConflictError(common.CodeHooksExhausted, "could not claim a hook, board is contended")
}

// AssignSpecific claims a named hook, as when staff hang keys on a chosen slot.
func (s *Service) AssignSpecific(ctx context.Context, number int, cardID uuid.UUID) error {
	if number < 1 || number > s.poolSize {
		return common.NewValidationError("hook number out of range")
	}

	claimed, err := s.repo.Assign(ctx, number, cardID)
	if err != nil {
		logger.Error("failed to claim hook", zap.Int("hook", number), zap.Error(err))
		return common.NewInternalServerError("failed to claim hook")
	}
	if !claimed {
		return common.NewConflictError(common.CodeHookOccupied, "hook is already occupied")
	}
	return nil
}

// Release frees a hook. Safe to call twice; the second call is a no-op.
func (s *Service) Release(ctx context.Context, number int) error {
	err := s.repo.Release(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewNotFoundError("hook not found", err)
		}
		logger.Error("failed to release hook", zap.Int("hook", number), zap.Error(err))
		return common.NewInternalServerError("failed to release hook")
	}
	return nil
}

// GetHook returns a single hook's state.
func (s *Service) GetHook(ctx context.Context, number int) (*Hook, error) {
	hook, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("hook not found", err)
		}
		logger.Error("failed to get hook", zap.Int("hook", number), zap.Error(err))
		return nil, common.NewInternalServerError("failed to get hook")
	}
	return hook, nil
}

// NextAvailable peeks at the lowest-numbered free hook without claiming
// it. Another check-in may still take it first; the claim is only made
// through AssignNext.
func (s *Service) NextAvailable(ctx context.Context) (int, error) {
	number, err := s.repo.NextAvailable(ctx)
	if errors.Is(err, ErrNoAvailableHook) {
		return 0, common.NewConflictError(common.CodeHooksExhausted, "all hooks are occupied")
	}
	if err != nil {
		logger.Error("failed to find available hook", zap.Error(err))
		return 0, common.NewInternalServerError("failed to find available hook")
	}
	return number, nil
}

// Stats returns occupancy counters for the board.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		logger.Error("failed to get hook stats", zap.Error(err))
		return Stats{}, common.NewInternalServerError("failed to get hook stats")
	}
	return stats, nil
}

// Board returns the full board with occupancy stats.
func (s *Service) Board(ctx context.Context) ([]Hook, Stats, error) {
	board, err := s.repo.List(ctx)
	if err != nil {
		logger.Error("failed to list hooks", zap.Error(err))
		return nil, Stats{}, common.NewInternalServerError("failed to list hooks")
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		logger.Error("failed to get hook stats", zap.Error(err))
		return nil, Stats{}, common.NewInternalServerError("failed to get hook stats")
	}

	return board, stats, nil
}
