package service

import (
	"context"
	"fmt"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
)

const LimitTypeMonthlyBookings = "monthly_bookings"

// PlanPolicy is the booking quota of one subscription plan. Zero means
// unlimited.
type PlanPolicy struct {
	MaxBookingsPerMonth int
	UpgradeURL          string
}

type planLimitChecker struct {
	tenants  repository.TenantRepository
	bookings repository.BookingRepository
	plans    map[string]PlanPolicy
	now      func() time.Time
}

func NewPlanLimitChecker(tenants repository.TenantRepository, bookings repository.BookingRepository, plans map[string]PlanPolicy) PlanLimitChecker {
	return &planLimitChecker{
		tenants:  tenants,
		bookings: bookings,
		plans:    plans,
		now:      time.Now,
	}
}

// CheckBookingLimit counts the bookings the tenant created this calendar
// month (UTC) against its plan. Unknown plans are unlimited.
func (c *planLimitChecker) CheckBookingLimit(ctx context.Context, tenantID int32) (*domain.PlanLimit, error) {
	tenant, err := c.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	policy := c.plans[tenant.Plan]
	limit := &domain.PlanLimit{
		Allowed:    true,
		LimitType:  LimitTypeMonthlyBookings,
		Max:        policy.MaxBookingsPerMonth,
		UpgradeURL: policy.UpgradeURL,
	}
	if policy.MaxBookingsPerMonth <= 0 {
		return limit, nil
	}

	now := c.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	count, err := c.bookings.CountCreatedSince(ctx, tenantID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings of tenant %d: %w", tenantID, err)
	}

	limit.Current = count
	if count >= policy.MaxBookingsPerMonth {
		limit.Allowed = false
		limit.Message = fmt.Sprintf("the %s plan allows %d bookings per month; %d already created",
			tenant.Plan, policy.MaxBookingsPerMonth, count)
	}
	return limit, nil
}
