package drivers

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/valetkeys/valet-backend/pkg/common"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, d *Driver) error {
	args := m.Called(ctx, d)
	if args.Error(0) == nil {
		d.ID = 9
	}
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Driver), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, status *DriverStatus) ([]Driver, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Driver), args.Error(1)
}

func (m *mockRepo) SetStatus(ctx context.Context, id int64, status DriverStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func TestRegister(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, nil)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(d *Driver) bool {
		return d.Name == "Sam" && d.Status == DriverStatusOffline
	})).Return(nil).Once()

	driver, err := svc.Register(context.Background(), RegisterRequest{Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), driver.ID)
	assert.Equal(t, DriverStatusOffline, driver.Status)
}

func TestSetStatus(t *testing.T) {
	t.Run("updates availability", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewService(repo, nil)

		repo.On("SetStatus", mock.Anything, int64(9), DriverStatusBreak).Return(true, nil).Once()
		repo.On("GetByID", mock.Anything, int64(9)).Return(&Driver{
			ID:     9,
			Name:   "Sam",
			Status: DriverStatusBreak,
		}, nil).Once()

		driver, err := svc.SetStatus(context.Background(), 9, DriverStatusBreak)
		require.NoError(t, err)
		assert.Equal(t, DriverStatusBreak, driver.Status)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := NewService(new(mockRepo), nil)

		_, err := svc.SetStatus(context.Background(), 9, DriverStatus("asleep"))
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.Code)
	})

	t.Run("missing driver is NotFound", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewService(repo, nil)

		repo.On("SetStatus", mock.Anything, int64(99), DriverStatusOnline).Return(false, nil).Once()

		_, err := svc.SetStatus(context.Background(), 99, DriverStatusOnline)
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.Code)
	})
}

func TestList_InvalidFilter(t *testing.T) {
	svc := NewService(new(mockRepo), nil)

	bogus := DriverStatus("bogus")
	_, err := svc.List(context.Background(), &bogus)
	require.Error(t, err)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, nil)

	repo.On("GetByID", mock.Anything, int64(404)).Return(nil, pgx.ErrNoRows).Once()

	_, err := svc.GetByID(context.Background(), 404)
	require.Error(t, err)
	appErr, ok := err.(*common.AppError)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}
