package service

import (
	"context"
	"fmt"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
	"equipment-rental-backend/internal/utils"
)

// AvailabilityChecker answers whether enough units of one equipment are free
// over a date range.
type AvailabilityChecker struct{}

func NewAvailabilityChecker() *AvailabilityChecker {
	return &AvailabilityChecker{}
}

// CheckPeriod computes capacity minus the quantities held by PENDING and
// CONFIRMED bookings overlapping [start, end]. excludeBookingID skips one
// booking so an edit does not collide with its own reservation.
func (c *AvailabilityChecker) CheckPeriod(ctx context.Context, repos repository.Repositories, eq *domain.Equipment, start, end time.Time, quantity int, excludeBookingID *int32) (*domain.Availability, error) {
	reservations, err := repos.Bookings.ListActiveReservations(ctx, eq.TenantID, eq.ID, start, end, excludeBookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations of equipment %d: %w", eq.ID, err)
	}

	reserved := 0
	for _, r := range reservations {
		if !r.Status.HoldsStock() {
			continue
		}
		if excludeBookingID != nil && r.BookingID == *excludeBookingID {
			continue
		}
		if !utils.IntervalsOverlap(start, end, r.StartDate, r.EndDate) {
			continue
		}
		reserved += r.Quantity
	}

	capacity := eq.RentableCapacity()
	free := capacity - reserved
	if free < 0 {
		free = 0
	}

	res := &domain.Availability{
		EquipmentID:       eq.ID,
		Requested:         quantity,
		Capacity:          capacity,
		ReservedInPeriod:  reserved,
		AvailableInPeriod: free,
		LiveAvailable:     eq.Stock.Available,
		Available:         free >= quantity,
	}
	if !res.Available {
		res.Message = fmt.Sprintf("%s is not available for the requested period: requested %d, available %d",
			eq.Name, quantity, free)
	}
	return res, nil
}

// CheckLive compares quantity against the current available counter only.
func (c *AvailabilityChecker) CheckLive(eq *domain.Equipment, quantity int) bool {
	return eq.Stock.Available >= quantity
}
