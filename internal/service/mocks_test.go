package service_test

import (
	"context"
	"sync"
	"time"

	"equipment-rental-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockPlanLimitChecker struct {
	mock.Mock
}

func (m *MockPlanLimitChecker) CheckBookingLimit(ctx context.Context, tenantID int32) (*domain.PlanLimit, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlanLimit), args.Error(1)
}

type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id int32) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepo) NextBookingSeq(ctx context.Context, tenantID int32) (int32, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int32), args.Error(1)
}

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBookingRepo) CreateItem(ctx context.Context, it *domain.BookingItem) error {
	return m.Called(ctx, it).Error(0)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, tenantID, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) List(ctx context.Context, tenantID int32, status string) ([]domain.Booking, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) ListItems(ctx context.Context, bookingIDs []int32) ([]domain.BookingItem, error) {
	args := m.Called(ctx, bookingIDs)
	return args.Get(0).([]domain.BookingItem), args.Error(1)
}

func (m *MockBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBookingRepo) UpdateItemReturn(ctx context.Context, it *domain.BookingItem) error {
	return m.Called(ctx, it).Error(0)
}

func (m *MockBookingRepo) ListActiveReservations(ctx context.Context, tenantID, equipmentID int32, start, end time.Time, excludeBookingID *int32) ([]domain.Reservation, error) {
	args := m.Called(ctx, tenantID, equipmentID, start, end, excludeBookingID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockBookingRepo) CountCreatedSince(ctx context.Context, tenantID int32, since time.Time) (int, error) {
	args := m.Called(ctx, tenantID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepo) ListOverdue(ctx context.Context, today time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Create(ctx context.Context, e *domain.ActivityEntry) error {
	return m.Called(ctx, e).Error(0)
}

// recordingActivity is an ActivityLogger that keeps every entry.
type recordingActivity struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (r *recordingActivity) Log(ctx context.Context, e domain.ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingActivity) byAction(action string) []domain.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ActivityEntry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
