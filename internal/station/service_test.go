package station

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/valetkeys/valet-backend/pkg/common"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Overview(ctx context.Context) (Overview, error) {
	args := m.Called(ctx)
	return args.Get(0).(Overview), args.Error(1)
}

func (m *mockRepo) DailyReport(ctx context.Context, date time.Time) (DailyReport, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(DailyReport), args.Error(1)
}

func (m *mockRepo) CashPayments(ctx context.Context, day time.Time) (CashPayments, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(CashPayments), args.Error(1)
}

func (m *mockRepo) CreateCloseout(ctx context.Context, c *Closeout) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.ID = 1
	}
	return args.Error(0)
}

func (m *mockRepo) CloseoutHistory(ctx context.Context, limit, offset int) ([]Closeout, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Closeout), args.Get(1).(int64), args.Error(2)
}

func TestOverview(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo)

	repo.On("Overview", mock.Anything).Return(Overview{
		HooksTotal:      50,
		HooksAvailable:  38,
		DriversOnline:   4,
		DriversBusy:     2,
		CheckInsToday:   31,
		RetrievalsToday: 19,
		RevenueToday:    480.5,
	}, nil).Once()

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, overview.DriversBusy)
	assert.Equal(t, 31, overview.CheckInsToday)
	assert.Equal(t, 19, overview.RetrievalsToday)
	repo.AssertExpectations(t)
}

func TestDailyReport(t *testing.T) {
	t.Run("rejects malformed date", func(t *testing.T) {
		svc := NewService(new(mockRepo))

		_, err := svc.DailyReport(context.Background(), "14-03-2026")
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.Code)
	})

	t.Run("defaults to today", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewService(repo)
		now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		repo.On("DailyReport", mock.Anything, now).
			Return(DailyReport{Date: "2026-03-14", CheckIns: 12}, nil).Once()

		report, err := svc.DailyReport(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, 12, report.CheckIns)
	})
}

func TestCashPayments(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo)
	now := time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo.On("CashPayments", mock.Anything, now).Return(CashPayments{
		Pending:      []CashPayment{{RequestID: 7, Amount: 20, Tip: 5}},
		PendingTotal: 25,
	}, nil).Once()

	payments, err := svc.CashPayments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25.0, payments.PendingTotal)
	require.Len(t, payments.Pending, 1)
	repo.AssertExpectations(t)
}

func TestCloseoutDay(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("copies report figures into closeout", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewService(repo)

		repo.On("DailyReport", mock.Anything, day).Return(DailyReport{
			Date:             "2026-03-14",
			CheckIns:         30,
			CompletedPickups: 28,
			Revenue:          512.5,
			Tips:             42,
		}, nil).Once()
		repo.On("CreateCloseout", mock.Anything, mock.MatchedBy(func(c *Closeout) bool {
			return c.Date == "2026-03-14" && c.CheckIns == 30 && c.Revenue == 512.5
		})).Return(nil).Once()

		closeout, err := svc.CloseoutDay(context.Background(), CloseoutRequest{Date: "2026-03-14"})
		require.NoError(t, err)
		assert.Equal(t, 28, closeout.Pickups)
		repo.AssertExpectations(t)
	})

	t.Run("double closeout is a conflict", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewService(repo)

		repo.On("DailyReport", mock.Anything, day).Return(DailyReport{}, nil).Once()
		repo.On("CreateCloseout", mock.Anything, mock.Anything).Return(ErrDayAlreadyClosed).Once()

		_, err := svc.CloseoutDay(context.Background(), CloseoutRequest{Date: "2026-03-14"})
		require.Error(t, err)
		appErr, ok := err.(*common.AppError)
		require.True(t, ok)
		assert.Equal(t, 409, appErr.Code)
	})
}
