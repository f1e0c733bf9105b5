package integration

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valetkeys/valet-backend/internal/drivers"
	"github.com/valetkeys/valet-backend/internal/hooks"
	"github.com/valetkeys/valet-backend/internal/pricing"
	"github.com/valetkeys/valet-backend/internal/retrieval"
	"github.com/valetkeys/valet-backend/internal/vehicles"
	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/test/helpers"
)

const testHookPool = 10

type stack struct {
	hooks       *hooks.Service
	vehicles    *vehicles.Service
	vehicleRepo *vehicles.Repository
	pricing     *pricing.Service
	retrieval   *retrieval.Service
	drivers     *drivers.Service
}

func setupStack(t *testing.T) *stack {
	t.Helper()

	if os.Getenv("TEST_DATABASE_URL") == "" && os.Getenv("DATABASE_URL") == "" {
		t.Skip("no test database configured")
	}

	pool := helpers.SetupTestDatabase(t)
	helpers.ResetTables(t, pool,
		"retrieval_requests", "vehicles", "hooks", "drivers", "daily_closeouts", "settings")

	ctx := context.Background()

	hookRepo := hooks.NewRepository(pool)
	hookSvc := hooks.NewService(hookRepo, testHookPool)
	require.NoError(t, hookSvc.EnsurePool(ctx))

	pricingRepo := pricing.NewRepository(pool)
	require.NoError(t, pricingRepo.SeedDefaults(ctx))

	vehicleRepo := vehicles.NewRepository(pool)
	vehicleSvc := vehicles.NewService(vehicleRepo, hookSvc, nil)
	pricingSvc := pricing.NewService(pricingRepo, vehicleRepo)
	retrievalRepo := retrieval.NewRepository(pool)
	retrievalSvc := retrieval.NewService(retrievalRepo, vehicleRepo, hookSvc, pricingSvc, nil)
	driverRepo := drivers.NewRepository(pool)
	driverSvc := drivers.NewService(driverRepo, nil)

	return &stack{
		hooks:       hookSvc,
		vehicles:    vehicleSvc,
		vehicleRepo: vehicleRepo,
		pricing:     pricingSvc,
		retrieval:   retrievalSvc,
		drivers:     driverSvc,
	}
}

func TestValetFlow_CheckInToHandover(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	card := uuid.New()
	cardID := card.String()

	vehicle, err := s.vehicles.CheckIn(ctx, vehicles.CheckInRequest{CardID: cardID})
	require.NoError(t, err)
	assert.Equal(t, vehicles.VehicleStatusParked, vehicle.Status)
	assert.Equal(t, int64(1), vehicle.SequenceNumber)
	assert.GreaterOrEqual(t, vehicle.HookNumber, 1)

	// A second check-in on the same card is rejected while the first
	// claim is active.
	_, err = s.vehicles.CheckIn(ctx, vehicles.CheckInRequest{CardID: cardID})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeAlreadyParked, appErr.ErrorCode)

	req, err := s.retrieval.Enqueue(ctx, retrieval.EnqueueRequest{CardID: cardID})
	require.NoError(t, err)
	assert.Equal(t, retrieval.StatusPending, req.Status)
	assert.Greater(t, req.Amount, 0.0)

	// Re-requesting points back at the live request.
	_, err = s.retrieval.Enqueue(ctx, retrieval.EnqueueRequest{CardID: cardID})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeDuplicateActive, appErr.ErrorCode)
	conflict, ok := appErr.Details.(retrieval.EnqueueConflict)
	require.True(t, ok)
	assert.Equal(t, req.ID, conflict.ExistingID)

	driver, err := s.drivers.Register(ctx, drivers.RegisterRequest{Name: "Mehmet"})
	require.NoError(t, err)

	accepted, err := s.retrieval.Accept(ctx, req.ID, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, retrieval.StatusAssigned, accepted.Status)

	// The request is already claimed, the second driver loses.
	other, err := s.drivers.Register(ctx, drivers.RegisterRequest{Name: "Aylin"})
	require.NoError(t, err)
	_, err = s.retrieval.Accept(ctx, req.ID, other.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeAlreadyAssigned, appErr.ErrorCode)

	_, err = s.retrieval.StartPickup(ctx, req.ID)
	require.NoError(t, err)

	ready, err := s.retrieval.MarkCarReady(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, retrieval.StatusReady, ready.Status)

	done, err := s.retrieval.CompleteHandover(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, retrieval.StatusCompleted, done.Status)

	// Completion retires the vehicle and frees its hook.
	retrieved, err := s.vehicleRepo.GetByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, vehicles.VehicleStatusRetrieved, retrieved.Status)
	require.NotNil(t, retrieved.CheckOutTime)

	// The card drops out of the active index with the claim settled.
	_, err = s.vehicles.GetByCard(ctx, card)
	var notFound *common.AppError
	require.ErrorAs(t, err, &notFound)

	hook, err := s.hooks.GetHook(ctx, vehicle.HookNumber)
	require.NoError(t, err)
	assert.Equal(t, hooks.HookStatusAvailable, hook.Status)

	// The card is free for the next visit.
	again, err := s.vehicles.CheckIn(ctx, vehicles.CheckInRequest{CardID: cardID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.SequenceNumber)
}

func TestValetFlow_CancelRestoresVehicle(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	card := uuid.New()
	cardID := card.String()

	vehicle, err := s.vehicles.CheckIn(ctx, vehicles.CheckInRequest{CardID: cardID})
	require.NoError(t, err)

	req, err := s.retrieval.Enqueue(ctx, retrieval.EnqueueRequest{CardID: cardID})
	require.NoError(t, err)

	cancelled, err := s.retrieval.Cancel(ctx, req.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, retrieval.StatusCancelled, cancelled.Status)

	// The vehicle goes back to parked on its original hook.
	restored, err := s.vehicles.GetByCard(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, vehicles.VehicleStatusParked, restored.Status)
	assert.Equal(t, vehicle.HookNumber, restored.HookNumber)

	// Cancelling a finished request changes nothing.
	var appErr *common.AppError
	_, err = s.retrieval.Cancel(ctx, req.ID, "again")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeTooLate, appErr.ErrorCode)
}

func TestValetFlow_PriorityOrdersQueue(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	regular := uuid.New().String()
	priority := uuid.New().String()

	_, err := s.vehicles.CheckIn(ctx, vehicles.CheckInRequest{CardID: regular})
	require.NoError(t, err)
	_, err = s.vehicles.CheckIn(ctx, vehicles.CheckInRequest{CardID: priority})
	require.NoError(t, err)

	first, err := s.retrieval.Enqueue(ctx, retrieval.EnqueueRequest{CardID: regular})
	require.NoError(t, err)
	second, err := s.retrieval.Enqueue(ctx, retrieval.EnqueueRequest{CardID: priority, IsPriority: true})
	require.NoError(t, err)

	queue, err := s.retrieval.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, second.ID, queue[0].RequestID)
	assert.Equal(t, first.ID, queue[1].RequestID)
}
