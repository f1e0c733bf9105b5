package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/valetkeys/valet-backend/internal/pricing"
	"github.com/valetkeys/valet-backend/internal/vehicles"
	"github.com/valetkeys/valet-backend/pkg/common"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, req *RetrievalRequest) error {
	args := m.Called(ctx, req)
	if args.Error(0) == nil {
		req.ID = 101
	}
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*RetrievalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RetrievalRequest), args.Error(1)
}

func (m *mockRepo) ActiveByCard(ctx context.Context, cardID uuid.UUID) (*RetrievalRequest, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RetrievalRequest), args.Error(1)
}

func (m *mockRepo) AtomicAccept(ctx context.Context, id, driverID int64) (bool, error) {
	args := m.Called(ctx, id, driverID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) MarkInProgress(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) MarkCarReady(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) Complete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) CompleteActive(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) AtomicCancel(ctx context.Context, id int64, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) SetPaymentMethod(ctx context.Context, id int64, method string) (bool, error) {
	args := m.Called(ctx, id, method)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) CollectCash(ctx context.Context, id int64, tip float64) (bool, error) {
	args := m.Called(ctx, id, tip)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) QueueView(ctx context.Context) ([]QueueEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]QueueEntry), args.Error(1)
}

func (m *mockRepo) PendingHandovers(ctx context.Context) ([]QueueEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]QueueEntry), args.Error(1)
}

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) GetByID(ctx context.Context, id int64) (*vehicles.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vehicles.Vehicle), args.Error(1)
}

func (m *mockRegistry) FindActiveByCard(ctx context.Context, cardID uuid.UUID) (*vehicles.Vehicle, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vehicles.Vehicle), args.Error(1)
}

func (m *mockRegistry) MarkRequested(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRegistry) MarkRetrieved(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRegistry) RestoreParked(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockReleaser struct {
	mock.Mock
}

func (m *mockReleaser) Release(ctx context.Context, number int) error {
	args := m.Called(ctx, number)
	return args.Error(0)
}

type mockTariffs struct {
	mock.Mock
}

func (m *mockTariffs) GetTariff(ctx context.Context) (pricing.Tariff, error) {
	args := m.Called(ctx)
	return args.Get(0).(pricing.Tariff), args.Error(1)
}

type fixture struct {
	repo     *mockRepo
	registry *mockRegistry
	releaser *mockReleaser
	tariffs  *mockTariffs
	svc      *Service
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		repo:     new(mockRepo),
		registry: new(mockRegistry),
		releaser: new(mockReleaser),
		tariffs:  new(mockTariffs),
	}
	f.svc = NewService(f.repo, f.registry, f.releaser, f.tariffs, nil)
	f.svc.now = func() time.Time { return now }
	return f
}

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func parkedVehicle(cardID uuid.UUID) *vehicles.Vehicle {
	return &vehicles.Vehicle{
		ID:          7,
		CardID:      cardID,
		HookNumber:  5,
		Status:      vehicles.VehicleStatusParked,
		CheckInTime: testNow.Add(-45 * time.Minute),
	}
}

func TestEnqueue(t *testing.T) {
	cardID := uuid.New()

	t.Run("creates pending request with locked-in amount", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("ActiveByCard", mock.Anything, cardID).Return(nil, pgx.ErrNoRows).Once()
		f.registry.On("FindActiveByCard", mock.Anything, cardID).Return(parkedVehicle(cardID), nil).Once()
		f.tariffs.On("GetTariff", mock.Anything).Return(pricing.DefaultTariff(), nil).Once()
		f.registry.On("MarkRequested", mock.Anything, int64(7)).Return(true, nil).Once()
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(r *RetrievalRequest) bool {
			return r.Status == StatusPending && r.VehicleID == 7 && r.Amount == 15.0
		})).Return(nil).Once()

		request, err := f.svc.Enqueue(context.Background(), EnqueueRequest{CardID: cardID.String()})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, request.Status)
		assert.Equal(t, 15.0, request.Amount)
		f.repo.AssertExpectations(t)
		f.registry.AssertExpectations(t)
	})

	t.Run("priority raises locked-in amount", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("ActiveByCard", mock.Anything, cardID).Return(nil, pgx.ErrNoRows).Once()
		f.registry.On("FindActiveByCard", mock.Anything, cardID).Return(parkedVehicle(cardID), nil).Once()
		f.tariffs.On("GetTariff", mock.Anything).Return(pricing.DefaultTariff(), nil).Once()
		f.registry.On("MarkRequested", mock.Anything, int64(7)).Return(true, nil).Once()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		request, err := f.svc.Enqueue(context.Background(), EnqueueRequest{
			CardID:     cardID.String(),
			IsPriority: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 25.0, request.Amount)
	})

	t.Run("duplicate active request returns existing id and status", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("ActiveByCard", mock.Anything, cardID).Return(&RetrievalRequest{
			ID:     42,
			Status: StatusAssigned,
		}, nil).Once()

		_, err := f.svc.Enqueue(context.Background(), EnqueueRequest{CardID: cardID.String()})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeDuplicateActive, appErr.ErrorCode)

		conflict, ok := appErr.Details.(EnqueueConflict)
		require.True(t, ok)
		assert.Equal(t, int64(42), conflict.ExistingID)
		assert.Equal(t, StatusAssigned, conflict.ExistingStatus)
		f.registry.AssertNotCalled(t, "MarkRequested")
	})

	t.Run("vehicle not parked", func(t *testing.T) {
		f := newFixture(testNow)

		v := parkedVehicle(cardID)
		v.Status = vehicles.VehicleStatusRequested
		f.repo.On("ActiveByCard", mock.Anything, cardID).Return(nil, pgx.ErrNoRows).Once()
		f.registry.On("FindActiveByCard", mock.Anything, cardID).Return(v, nil).Once()

		_, err := f.svc.Enqueue(context.Background(), EnqueueRequest{CardID: cardID.String()})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeNotParked, appErr.ErrorCode)
	})

	t.Run("unknown card", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("ActiveByCard", mock.Anything, cardID).Return(nil, pgx.ErrNoRows).Once()
		f.registry.On("FindActiveByCard", mock.Anything, cardID).Return(nil, pgx.ErrNoRows).Once()

		_, err := f.svc.Enqueue(context.Background(), EnqueueRequest{CardID: cardID.String()})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.Code)
	})

	t.Run("concurrent tap loses MarkRequested race", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("ActiveByCard", mock.Anything, cardID).Return(nil, pgx.ErrNoRows).Once()
		f.registry.On("FindActiveByCard", mock.Anything, cardID).Return(parkedVehicle(cardID), nil).Once()
		f.tariffs.On("GetTariff", mock.Anything).Return(pricing.DefaultTariff(), nil).Once()
		f.registry.On("MarkRequested", mock.Anything, int64(7)).Return(false, nil).Once()

		_, err := f.svc.Enqueue(context.Background(), EnqueueRequest{CardID: cardID.String()})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeDuplicateActive, appErr.ErrorCode)
		f.repo.AssertNotCalled(t, "Create")
	})

	t.Run("restores vehicle when insert fails", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("ActiveByCard", mock.Anything, cardID).Return(nil, pgx.ErrNoRows).Once()
		f.registry.On("FindActiveByCard", mock.Anything, cardID).Return(parkedVehicle(cardID), nil).Once()
		f.tariffs.On("GetTariff", mock.Anything).Return(pricing.DefaultTariff(), nil).Once()
		f.registry.On("MarkRequested", mock.Anything, int64(7)).Return(true, nil).Once()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError).Once()
		f.registry.On("RestoreParked", mock.Anything, int64(7)).Return(nil).Once()

		_, err := f.svc.Enqueue(context.Background(), EnqueueRequest{CardID: cardID.String()})
		require.Error(t, err)
		f.registry.AssertExpectations(t)
	})
}

func TestAccept(t *testing.T) {
	t.Run("winner gets the request", func(t *testing.T) {
		f := newFixture(testNow)

		driverID := int64(9)
		f.repo.On("AtomicAccept", mock.Anything, int64(101), driverID).Return(true, nil).Once()
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(&RetrievalRequest{
			ID:       101,
			Status:   StatusAssigned,
			DriverID: &driverID,
		}, nil).Once()

		request, err := f.svc.Accept(context.Background(), 101, driverID)
		require.NoError(t, err)
		assert.Equal(t, StatusAssigned, request.Status)
		assert.Equal(t, driverID, *request.DriverID)
	})

	t.Run("loser gets AlreadyAssigned", func(t *testing.T) {
		f := newFixture(testNow)

		winner := int64(9)
		f.repo.On("AtomicAccept", mock.Anything, int64(101), int64(10)).Return(false, nil).Once()
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(&RetrievalRequest{
			ID:       101,
			Status:   StatusAssigned,
			DriverID: &winner,
		}, nil).Once()

		_, err := f.svc.Accept(context.Background(), 101, 10)
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeAlreadyAssigned, appErr.ErrorCode)
	})

	t.Run("missing request is NotFound", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("AtomicAccept", mock.Anything, int64(999), int64(9)).Return(false, nil).Once()
		f.repo.On("GetByID", mock.Anything, int64(999)).Return(nil, pgx.ErrNoRows).Once()

		_, err := f.svc.Accept(context.Background(), 999, 9)
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.Code)
	})
}

func TestCompleteHandover(t *testing.T) {
	cardID := uuid.New()

	readyRequest := func() *RetrievalRequest {
		return &RetrievalRequest{
			ID:        101,
			VehicleID: 7,
			CardID:    cardID,
			Status:    StatusReady,
			Amount:    15,
		}
	}

	t.Run("completes request, retrieves vehicle, releases hook", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("GetByID", mock.Anything, int64(101)).Return(readyRequest(), nil).Once()
		f.repo.On("Complete", mock.Anything, int64(101)).Return(true, nil).Once()
		f.registry.On("GetByID", mock.Anything, int64(7)).Return(parkedVehicle(cardID), nil).Once()
		f.registry.On("MarkRetrieved", mock.Anything, int64(7)).Return(nil).Once()
		f.releaser.On("Release", mock.Anything, 5).Return(nil).Once()

		completed := readyRequest()
		completed.Status = StatusCompleted
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(completed, nil).Once()

		request, err := f.svc.CompleteHandover(context.Background(), 101)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, request.Status)
		f.registry.AssertExpectations(t)
		f.releaser.AssertExpectations(t)
	})

	t.Run("not staged yet is a conflict", func(t *testing.T) {
		f := newFixture(testNow)

		pending := readyRequest()
		pending.Status = StatusPending
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(pending, nil).Once()
		f.repo.On("Complete", mock.Anything, int64(101)).Return(false, nil).Once()

		_, err := f.svc.CompleteHandover(context.Background(), 101)
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeNotReady, appErr.ErrorCode)
		f.releaser.AssertNotCalled(t, "Release")
	})

	t.Run("replay after partial failure re-runs idempotent legs", func(t *testing.T) {
		f := newFixture(testNow)

		done := readyRequest()
		done.Status = StatusCompleted
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(done, nil).Twice()
		f.repo.On("Complete", mock.Anything, int64(101)).Return(false, nil).Once()
		f.registry.On("GetByID", mock.Anything, int64(7)).Return(parkedVehicle(cardID), nil).Once()
		f.registry.On("MarkRetrieved", mock.Anything, int64(7)).Return(nil).Once()
		f.releaser.On("Release", mock.Anything, 5).Return(nil).Once()

		_, err := f.svc.CompleteHandover(context.Background(), 101)
		require.NoError(t, err)
		f.releaser.AssertExpectations(t)
	})

	t.Run("hook release failure surfaces as error", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("GetByID", mock.Anything, int64(101)).Return(readyRequest(), nil).Once()
		f.repo.On("Complete", mock.Anything, int64(101)).Return(true, nil).Once()
		f.registry.On("GetByID", mock.Anything, int64(7)).Return(parkedVehicle(cardID), nil).Once()
		f.registry.On("MarkRetrieved", mock.Anything, int64(7)).Return(nil).Once()
		f.releaser.On("Release", mock.Anything, 5).Return(assert.AnError).Once()

		_, err := f.svc.CompleteHandover(context.Background(), 101)
		require.Error(t, err)
	})
}

func TestCancel(t *testing.T) {
	cardID := uuid.New()

	t.Run("cancels pending request and restores vehicle", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("AtomicCancel", mock.Anything, int64(101), "changed my mind").Return(true, nil).Once()
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(&RetrievalRequest{
			ID:        101,
			VehicleID: 7,
			CardID:    cardID,
			Status:    StatusCancelled,
		}, nil).Once()
		f.registry.On("RestoreParked", mock.Anything, int64(7)).Return(nil).Once()

		request, err := f.svc.Cancel(context.Background(), 101, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, request.Status)
		f.registry.AssertExpectations(t)
	})

	t.Run("too late once ready", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("AtomicCancel", mock.Anything, int64(101), "").Return(false, nil).Once()
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(&RetrievalRequest{
			ID:     101,
			Status: StatusReady,
		}, nil).Once()

		_, err := f.svc.Cancel(context.Background(), 101, "")
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeTooLate, appErr.ErrorCode)
		f.registry.AssertNotCalled(t, "RestoreParked")
	})

	t.Run("missing request is NotFound", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("AtomicCancel", mock.Anything, int64(999), "").Return(false, nil).Once()
		f.repo.On("GetByID", mock.Anything, int64(999)).Return(nil, pgx.ErrNoRows).Once()

		_, err := f.svc.Cancel(context.Background(), 999, "")
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.Code)
	})
}

func TestQueueOrdering(t *testing.T) {
	// Ordering itself is a query predicate; the service returns what the
	// read model produced.
	f := newFixture(testNow)

	entries := []QueueEntry{
		{RequestID: 2, IsPriority: true, RequestedAt: testNow.Add(time.Second)},
		{RequestID: 1, IsPriority: false, RequestedAt: testNow},
		{RequestID: 3, IsPriority: false, RequestedAt: testNow.Add(2 * time.Second)},
	}
	f.repo.On("QueueView", mock.Anything).Return(entries, nil).Once()

	got, err := f.svc.Queue(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].RequestID)
	assert.Equal(t, int64(1), got[1].RequestID)
	assert.Equal(t, int64(3), got[2].RequestID)
}

func TestCollectCash(t *testing.T) {
	t.Run("records settlement", func(t *testing.T) {
		f := newFixture(testNow)

		f.repo.On("CollectCash", mock.Anything, int64(101), 5.0).Return(true, nil).Once()

		require.NoError(t, f.svc.CollectCash(context.Background(), 101, 5.0))
	})

	t.Run("double collection is a conflict", func(t *testing.T) {
		f := newFixture(testNow)

		collectedAt := testNow
		f.repo.On("CollectCash", mock.Anything, int64(101), 0.0).Return(false, nil).Once()
		f.repo.On("GetByID", mock.Anything, int64(101)).Return(&RetrievalRequest{
			ID:              101,
			Status:          StatusCompleted,
			CashCollectedAt: &collectedAt,
		}, nil).Once()

		err := f.svc.CollectCash(context.Background(), 101, 0)
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeTooLate, appErr.ErrorCode)
	})
}
