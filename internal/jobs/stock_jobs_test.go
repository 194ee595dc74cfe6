package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"equipment-rental-backend/internal/config"
	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Only the report queries are implemented; the embedded interfaces stay nil.
type MockEquipmentRepo struct {
	repository.EquipmentRepository
	mock.Mock
}

func (m *MockEquipmentRepo) ListLowStock(ctx context.Context) ([]domain.Equipment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepo) ListUnbalanced(ctx context.Context) ([]domain.Equipment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

type MockBookingRepo struct {
	repository.BookingRepository
	mock.Mock
}

func (m *MockBookingRepo) ListOverdue(ctx context.Context, today time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (r *recordingActivity) Log(ctx context.Context, e domain.ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func newRunner() (*JobRunner, *MockEquipmentRepo, *MockBookingRepo, *recordingActivity) {
	eq := new(MockEquipmentRepo)
	bk := new(MockBookingRepo)
	act := &recordingActivity{}
	jr := NewJobRunner(repository.Repositories{Equipment: eq, Bookings: bk}, act, &config.Config{})
	jr.now = func() time.Time { return time.Date(2025, 2, 10, 15, 0, 0, 0, time.UTC) }
	return jr, eq, bk, act
}

func TestLowStockReport(t *testing.T) {
	jr, eq, _, act := newRunner()
	eq.On("ListLowStock", mock.Anything).Return([]domain.Equipment{
		{ID: 1, TenantID: 2, Name: "Mixer", Stock: domain.StockLevels{Total: 3, Available: 1, Reserved: 2}, MinStockLevel: 2},
		{ID: 2, TenantID: 1, Name: "Ladder", Stock: domain.StockLevels{Total: 4, Available: 0, Reserved: 4}, MinStockLevel: 1},
		{ID: 3, TenantID: 2, Name: "Drill", Stock: domain.StockLevels{Total: 1}, MinStockLevel: 1},
	}, nil)

	jr.LowStockReport()

	require.Len(t, act.entries, 2)
	assert.Equal(t, int32(1), act.entries[0].TenantID)
	assert.Equal(t, int32(2), act.entries[1].TenantID)
	assert.Equal(t, domain.ActivityReport, act.entries[1].Action)
	assert.Len(t, act.entries[1].Metadata["items"], 2)
	assert.Equal(t, JobLowStockReport, act.entries[1].Metadata["report"])
}

func TestOverdueBookingsReport(t *testing.T) {
	jr, _, bk, act := newRunner()
	legacyEq := int32(9)
	bk.On("ListOverdue", mock.Anything, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)).Return([]domain.Booking{
		{
			ID: 1, TenantID: 1, BookingNumber: "BK-000001",
			EndDate: time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC),
			Items:   []domain.BookingItem{{Quantity: 4, ReturnedQty: 1}},
		},
		{
			ID: 2, TenantID: 1, BookingNumber: "BK-000002",
			EndDate: time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
			Items:   []domain.BookingItem{{Quantity: 2, ReturnedQty: 2}},
		},
		{
			ID: 3, TenantID: 1, BookingNumber: "BK-000003",
			EndDate:     time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC),
			EquipmentID: &legacyEq,
		},
	}, nil)

	jr.OverdueBookingsReport()

	require.Len(t, act.entries, 1)
	list := act.entries[0].Metadata["bookings"].([]map[string]any)
	require.Len(t, list, 2)
	assert.Equal(t, "BK-000001", list[0]["bookingNumber"])
	assert.Equal(t, 3, list[0]["pendingQty"])
	assert.Equal(t, 3, list[0]["daysOverdue"])
	assert.Equal(t, 1, list[1]["pendingQty"])
}

func TestStockInvariantCheck(t *testing.T) {
	t.Run("Clean", func(t *testing.T) {
		jr, eq, _, act := newRunner()
		eq.On("ListUnbalanced", mock.Anything).Return([]domain.Equipment{}, nil)
		jr.StockInvariantCheck()
		assert.Empty(t, act.entries)
	})

	t.Run("Reports Broken Counters", func(t *testing.T) {
		jr, eq, _, act := newRunner()
		eq.On("ListUnbalanced", mock.Anything).Return([]domain.Equipment{
			{ID: 7, TenantID: 3, Name: "Compactor", Stock: domain.StockLevels{Total: 5, Available: 4, Reserved: 2}},
		}, nil)

		jr.StockInvariantCheck()

		require.Len(t, act.entries, 1)
		assert.Equal(t, int32(7), act.entries[0].EntityID)
		assert.Equal(t, 2, act.entries[0].Metadata["reserved"])
	})

	t.Run("Query Failure Does Not Panic", func(t *testing.T) {
		jr, eq, _, act := newRunner()
		eq.On("ListUnbalanced", mock.Anything).Return([]domain.Equipment(nil), errors.New("db down"))
		assert.NotPanics(t, jr.StockInvariantCheck)
		assert.Empty(t, act.entries)
	})
}

func TestRun(t *testing.T) {
	jr, eq, _, _ := newRunner()
	eq.On("ListLowStock", mock.Anything).Return([]domain.Equipment{}, nil)

	require.NoError(t, jr.Run(JobLowStockReport))
	eq.AssertCalled(t, "ListLowStock", mock.Anything)
	assert.ErrorContains(t, jr.Run("nightly-backup"), "unknown job")
}
