package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/valetkeys/valet-backend/pkg/common"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) SeedDefaults(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockRepo) GetTariff(ctx context.Context) (Tariff, error) {
	args := m.Called(ctx)
	return args.Get(0).(Tariff), args.Error(1)
}

func (m *mockRepo) UpdateTariff(ctx context.Context, req UpdateTariffRequest) (Tariff, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Tariff), args.Error(1)
}

func (m *mockRepo) PaymentHistory(ctx context.Context, limit, offset int) ([]PaymentRecord, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]PaymentRecord), args.Get(1).(int64), args.Error(2)
}

type mockVehicleReader struct {
	mock.Mock
}

func (m *mockVehicleReader) ParkedSince(ctx context.Context, cardID uuid.UUID) (time.Time, string, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).(time.Time), args.String(1), args.Error(2)
}

func newTestService(repo *mockRepo, vehicles *mockVehicleReader, now time.Time) *Service {
	svc := NewService(repo, vehicles)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCalculateFee(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	cardID := uuid.New()
	tariff := DefaultTariff()

	t.Run("quotes parked vehicle", func(t *testing.T) {
		repo := new(mockRepo)
		vehicles := new(mockVehicleReader)
		svc := newTestService(repo, vehicles, now)

		vehicles.On("ParkedSince", mock.Anything, cardID).
			Return(now.Add(-150*time.Minute), "parked", nil)
		repo.On("GetTariff", mock.Anything).Return(tariff, nil)

		quote, err := svc.CalculateFee(context.Background(), CalculateFeeRequest{
			CardID: cardID.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, 150, quote.ParkedMinutes)
		// 3 started hours: base 15 + 2x5 hourly
		assert.Equal(t, 25.0, quote.Breakdown.Total)
		repo.AssertExpectations(t)
		vehicles.AssertExpectations(t)
	})

	t.Run("priority surcharge applied", func(t *testing.T) {
		repo := new(mockRepo)
		vehicles := new(mockVehicleReader)
		svc := newTestService(repo, vehicles, now)

		vehicles.On("ParkedSince", mock.Anything, cardID).
			Return(now.Add(-30*time.Minute), "parked", nil)
		repo.On("GetTariff", mock.Anything).Return(tariff, nil)

		quote, err := svc.CalculateFee(context.Background(), CalculateFeeRequest{
			CardID:     cardID.String(),
			IsPriority: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 10.0, quote.Breakdown.Priority)
		assert.Equal(t, 25.0, quote.Breakdown.Total)
	})

	t.Run("rejects malformed card id", func(t *testing.T) {
		svc := newTestService(new(mockRepo), new(mockVehicleReader), now)

		_, err := svc.CalculateFee(context.Background(), CalculateFeeRequest{CardID: "nope"})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.Code)
	})

	t.Run("rejects retrieved vehicle", func(t *testing.T) {
		repo := new(mockRepo)
		vehicles := new(mockVehicleReader)
		svc := newTestService(repo, vehicles, now)

		vehicles.On("ParkedSince", mock.Anything, cardID).
			Return(now.Add(-time.Hour), "retrieved", nil)

		_, err := svc.CalculateFee(context.Background(), CalculateFeeRequest{CardID: cardID.String()})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, common.CodeNotParked, appErr.ErrorCode)
	})

	t.Run("unknown card is not found", func(t *testing.T) {
		repo := new(mockRepo)
		vehicles := new(mockVehicleReader)
		svc := newTestService(repo, vehicles, now)

		vehicles.On("ParkedSince", mock.Anything, cardID).
			Return(time.Time{}, "", pgx.ErrNoRows)

		_, err := svc.CalculateFee(context.Background(), CalculateFeeRequest{CardID: cardID.String()})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.Code)
	})

	t.Run("propagates vehicle lookup error", func(t *testing.T) {
		repo := new(mockRepo)
		vehicles := new(mockVehicleReader)
		svc := newTestService(repo, vehicles, now)

		notFound := common.NewNotFoundError("vehicle not found", nil)
		vehicles.On("ParkedSince", mock.Anything, cardID).
			Return(time.Time{}, "", notFound)

		_, err := svc.CalculateFee(context.Background(), CalculateFeeRequest{CardID: cardID.String()})
		assert.Equal(t, notFound, err)
	})
}

func TestUpdateTariff(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockVehicleReader))

	base := 20.0
	req := UpdateTariffRequest{BaseFee: &base}
	updated := DefaultTariff()
	updated.BaseFee = 20

	repo.On("UpdateTariff", mock.Anything, req).Return(updated, nil)

	tariff, err := svc.UpdateTariff(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 20.0, tariff.BaseFee)
}

func TestPaymentHistory_RepoError(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockVehicleReader))

	repo.On("PaymentHistory", mock.Anything, 20, 0).
		Return(nil, int64(0), errors.New("boom"))

	_, _, err := svc.PaymentHistory(context.Background(), 20, 0)
	require.Error(t, err)
	appErr, ok := err.(*common.AppError)
	require.True(t, ok)
	assert.Equal(t, 500, appErr.Code)
}
