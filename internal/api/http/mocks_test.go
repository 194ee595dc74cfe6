package http

import (
	"context"
	"time"

	"equipment-rental-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, actor domain.Actor, in *domain.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, tenantID, id int32) (*domain.BookingDetail, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetail), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, tenantID int32, status string) ([]domain.Booking, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateBooking(ctx context.Context, actor domain.Actor, id int32, in *domain.UpdateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, actor domain.Actor, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockReturnService struct {
	mock.Mock
}

func (m *MockReturnService) ProcessReturn(ctx context.Context, actor domain.Actor, bookingID int32, in *domain.ReturnInput) (*domain.ReturnResult, error) {
	args := m.Called(ctx, actor, bookingID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnResult), args.Error(1)
}

func (m *MockReturnService) GetReturnStatus(ctx context.Context, tenantID, bookingID int32) (*domain.ReturnStatus, error) {
	args := m.Called(ctx, tenantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnStatus), args.Error(1)
}

type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) CheckAvailability(ctx context.Context, tenantID, equipmentID int32, start, end time.Time, quantity int, excludeBookingID *int32) (*domain.Availability, error) {
	args := m.Called(ctx, tenantID, equipmentID, start, end, quantity, excludeBookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *MockStockService) AdjustStock(ctx context.Context, actor domain.Actor, equipmentID int32, in *domain.StockAdjustmentInput) (*domain.Equipment, error) {
	args := m.Called(ctx, actor, equipmentID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockStockService) ListMovements(ctx context.Context, tenantID, equipmentID int32, limit int) ([]domain.StockMovement, error) {
	args := m.Called(ctx, tenantID, equipmentID, limit)
	return args.Get(0).([]domain.StockMovement), args.Error(1)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}
