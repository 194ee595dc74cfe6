package service

import (
	"context"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/utils"
)

type BookingService interface {
	CreateBooking(ctx context.Context, actor domain.Actor, in *domain.CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, tenantID, id int32) (*domain.BookingDetail, error)
	ListBookings(ctx context.Context, tenantID int32, status string) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, actor domain.Actor, id int32, in *domain.UpdateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actor domain.Actor, id int32) (*domain.Booking, error)
}

type ReturnService interface {
	ProcessReturn(ctx context.Context, actor domain.Actor, bookingID int32, in *domain.ReturnInput) (*domain.ReturnResult, error)
	GetReturnStatus(ctx context.Context, tenantID, bookingID int32) (*domain.ReturnStatus, error)
}

type StockService interface {
	CheckAvailability(ctx context.Context, tenantID, equipmentID int32, start, end time.Time, quantity int, excludeBookingID *int32) (*domain.Availability, error)
	AdjustStock(ctx context.Context, actor domain.Actor, equipmentID int32, in *domain.StockAdjustmentInput) (*domain.Equipment, error)
	ListMovements(ctx context.Context, tenantID, equipmentID int32, limit int) ([]domain.StockMovement, error)
}

type PlanLimitChecker interface {
	CheckBookingLimit(ctx context.Context, tenantID int32) (*domain.PlanLimit, error)
}

type PricingCalculator interface {
	CalculateRentalPrice(ctx context.Context, equipment *domain.Equipment, days, quantity int) (*utils.PriceQuote, error)
}

// ActivityLogger is a fire-and-forget audit sink. Log never fails the caller.
type ActivityLogger interface {
	Log(ctx context.Context, entry domain.ActivityEntry)
}
