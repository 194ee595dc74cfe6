package jobs

import (
	"context"
	"fmt"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/utils"
)

// LowStockReport lists equipment whose available stock is below its
// minimum level, one report entry per tenant.
func (jr *JobRunner) LowStockReport() {
	jr.runWithRecovery(JobLowStockReport, func() error {
		ctx := context.Background()

		items, err := jr.repos.Equipment.ListLowStock(ctx)
		if err != nil {
			return fmt.Errorf("failed to list low stock equipment: %w", err)
		}

		byTenant := map[int32][]domain.Equipment{}
		for _, eq := range items {
			byTenant[eq.TenantID] = append(byTenant[eq.TenantID], eq)
			logger.Debug("Equipment below minimum stock",
				"tenant_id", eq.TenantID,
				"equipment_id", eq.ID,
				"available", eq.Stock.Available,
				"min_stock_level", eq.MinStockLevel)
		}

		for _, tenantID := range sortedTenants(byTenant) {
			list := byTenant[tenantID]
			entries := make([]map[string]any, 0, len(list))
			for _, eq := range list {
				entries = append(entries, map[string]any{
					"equipmentId":   eq.ID,
					"name":          eq.Name,
					"available":     eq.Stock.Available,
					"minStockLevel": eq.MinStockLevel,
				})
			}
			jr.activity.Log(ctx, domain.ActivityEntry{
				TenantID:    tenantID,
				Action:      domain.ActivityReport,
				Entity:      "equipment",
				Description: fmt.Sprintf("%d equipment item(s) below minimum stock", len(list)),
				Metadata:    map[string]any{"report": JobLowStockReport, "items": entries},
			})
		}

		logger.Info("Low stock report generated", "equipment", len(items), "tenants", len(byTenant))
		return nil
	})
}

// OverdueBookingsReport lists active bookings past their end date that
// still have units out.
func (jr *JobRunner) OverdueBookingsReport() {
	jr.runWithRecovery(JobOverdueBookingsReport, func() error {
		ctx := context.Background()
		today := utils.TruncateToDate(jr.now())

		bookings, err := jr.repos.Bookings.ListOverdue(ctx, today)
		if err != nil {
			return fmt.Errorf("failed to list overdue bookings: %w", err)
		}

		byTenant := map[int32][]map[string]any{}
		for i := range bookings {
			b := &bookings[i]
			pending := 0
			for _, line := range b.Lines() {
				pending += line.PendingQty()
			}
			if pending == 0 {
				continue
			}
			daysOverdue := int(today.Sub(utils.TruncateToDate(b.EndDate)).Hours() / 24)
			byTenant[b.TenantID] = append(byTenant[b.TenantID], map[string]any{
				"bookingId":     b.ID,
				"bookingNumber": b.BookingNumber,
				"endDate":       b.EndDate.Format(utils.DateLayout),
				"pendingQty":    pending,
				"daysOverdue":   daysOverdue,
			})
			logger.Debug("Booking overdue",
				"tenant_id", b.TenantID,
				"booking_id", b.ID,
				"pending", pending,
				"days_overdue", daysOverdue)
		}

		count := 0
		for _, tenantID := range sortedTenants(byTenant) {
			list := byTenant[tenantID]
			count += len(list)
			jr.activity.Log(ctx, domain.ActivityEntry{
				TenantID:    tenantID,
				Action:      domain.ActivityReport,
				Entity:      "booking",
				Description: fmt.Sprintf("%d booking(s) overdue for return", len(list)),
				Metadata:    map[string]any{"report": JobOverdueBookingsReport, "bookings": list},
			})
		}

		logger.Info("Overdue bookings report generated", "bookings", count, "tenants", len(byTenant))
		return nil
	})
}

// StockInvariantCheck reports equipment whose counters no longer add up
// or went negative. It never repairs them.
func (jr *JobRunner) StockInvariantCheck() {
	jr.runWithRecovery(JobStockInvariantCheck, func() error {
		ctx := context.Background()

		broken, err := jr.repos.Equipment.ListUnbalanced(ctx)
		if err != nil {
			return fmt.Errorf("failed to list unbalanced equipment: %w", err)
		}

		for _, eq := range broken {
			logger.Error("Stock counters out of balance",
				"tenant_id", eq.TenantID,
				"equipment_id", eq.ID,
				"total", eq.Stock.Total,
				"available", eq.Stock.Available,
				"reserved", eq.Stock.Reserved,
				"maintenance", eq.Stock.Maintenance,
				"damaged", eq.Stock.Damaged)
			jr.activity.Log(ctx, domain.ActivityEntry{
				TenantID:    eq.TenantID,
				Action:      domain.ActivityReport,
				Entity:      "equipment",
				EntityID:    eq.ID,
				Description: fmt.Sprintf("Stock counters of %s are out of balance", eq.Name),
				Metadata: map[string]any{
					"report":      JobStockInvariantCheck,
					"total":       eq.Stock.Total,
					"available":   eq.Stock.Available,
					"reserved":    eq.Stock.Reserved,
					"maintenance": eq.Stock.Maintenance,
					"damaged":     eq.Stock.Damaged,
				},
			})
		}

		if len(broken) > 0 {
			return fmt.Errorf("%d equipment item(s) violate the stock invariant", len(broken))
		}
		logger.Info("Stock invariant check passed")
		return nil
	})
}
