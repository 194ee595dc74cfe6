package service

import (
	"context"
	"fmt"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/repository"
)

type returnService struct {
	repos    repository.Repositories
	tx       repository.TxManager
	ledger   *StockLedger
	activity ActivityLogger
}

func NewReturnService(repos repository.Repositories, tx repository.TxManager, ledger *StockLedger, activity ActivityLogger) ReturnService {
	return &returnService{
		repos:    repos,
		tx:       tx,
		ledger:   ledger,
		activity: activity,
	}
}

// ProcessReturn books returned and damaged units against the booking's
// lines and completes the booking once nothing is pending. Every line is
// validated before the first write; any failure rolls the whole return back.
func (s *returnService) ProcessReturn(ctx context.Context, actor domain.Actor, bookingID int32, in *domain.ReturnInput) (*domain.ReturnResult, error) {
	logger.EnterMethod("returnService.ProcessReturn", "bookingID", bookingID, "tenantID", actor.TenantID, "lines", len(in.Items))

	if err := validateReturn(in); err != nil {
		logger.ExitMethodWithError("returnService.ProcessReturn", err, true)
		return nil, err
	}

	fx := newEffects(actor)
	result := &domain.ReturnResult{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, actor.TenantID, bookingID)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return domain.NewInvalidStateTransition(
				fmt.Sprintf("cannot process a return for %s booking %s", b.Status, b.BookingNumber), b.Status)
		}

		items := make(map[int32]*domain.BookingItem, len(b.Items))
		for i := range b.Items {
			items[b.Items[i].ID] = &b.Items[i]
		}

		// Validate against a running copy so repeated lines for one item
		// are checked cumulatively.
		pending := make(map[int32]int, len(items))
		for id, it := range items {
			pending[id] = it.PendingQty()
		}
		ids := make([]int32, 0, len(in.Items))
		for _, line := range in.Items {
			it, ok := items[line.BookingItemID]
			if !ok {
				return domain.NewNotFound("booking item", line.BookingItemID)
			}
			requested := line.ReturnedQty + line.DamagedQty
			if requested > pending[it.ID] {
				return domain.NewQuantityOverrun(equipmentName(it), requested, pending[it.ID])
			}
			pending[it.ID] -= requested
			ids = append(ids, it.EquipmentID)
		}

		if _, err := lockEquipment(ctx, repos, actor.TenantID, ids); err != nil {
			return err
		}

		for _, line := range in.Items {
			it := items[line.BookingItemID]
			it.ReturnedQty += line.ReturnedQty
			it.DamagedQty += line.DamagedQty
			if line.DamageNotes != "" {
				if it.Notes != "" {
					it.Notes += "\n"
				}
				it.Notes += "Damage: " + line.DamageNotes
			}
			if err := repos.Bookings.UpdateItemReturn(ctx, it); err != nil {
				return err
			}

			op := LedgerOp{Actor: actor, EquipmentID: it.EquipmentID, BookingID: &b.ID}
			if line.ReturnedQty > 0 {
				op.Quantity = line.ReturnedQty
				op.Reason = fmt.Sprintf("Returned from booking %s", b.BookingNumber)
				if _, err := s.ledger.Release(ctx, repos, fx, op, domain.MovementRentalReturn); err != nil {
					return err
				}
			}
			if line.DamagedQty > 0 {
				op.Quantity = line.DamagedQty
				op.Reason = fmt.Sprintf("Damaged on booking %s", b.BookingNumber)
				if line.DamageNotes != "" {
					op.Reason += ": " + line.DamageNotes
				}
				if _, err := s.ledger.MarkDamaged(ctx, repos, fx, op); err != nil {
					return err
				}
				if line.RepairCost != nil && line.RepairCost.IsPositive() {
					cost := &domain.EquipmentCost{
						TenantID:    actor.TenantID,
						EquipmentID: it.EquipmentID,
						Type:        domain.CostTypeRepair,
						Description: repairDescription(b, it, line),
						Amount:      *line.RepairCost,
						Date:        today(),
					}
					if err := repos.Costs.Create(ctx, cost); err != nil {
						return fmt.Errorf("failed to record repair cost: %w", err)
					}
				}
			}
			result.Summary.TotalReturned += line.ReturnedQty
			result.Summary.TotalDamaged += line.DamagedQty
		}

		fresh, err := repos.Bookings.ListItems(ctx, []int32{b.ID})
		if err != nil {
			return err
		}
		b.Items = fresh
		if b.AllItemsReturned() {
			b.Status = domain.BookingStatusCompleted
			if in.Notes != "" {
				if b.Notes != "" {
					b.Notes += "\n"
				}
				b.Notes += in.Notes
			}
			if err := repos.Bookings.Update(ctx, b); err != nil {
				return err
			}
			result.Summary.Completed = true
		}

		fx.record(domain.ActivityReturn, "booking", b.ID,
			fmt.Sprintf("Processed return for booking %s", b.BookingNumber),
			map[string]any{
				"bookingNumber": b.BookingNumber,
				"itemsReturned": result.Summary.TotalReturned,
				"itemsDamaged":  result.Summary.TotalDamaged,
				"completed":     result.Summary.Completed,
			})
		result.Booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("returnService.ProcessReturn", err, domain.KindOf(err) != "")
		return nil, err
	}

	fx.flush(ctx, s.activity)
	logger.ExitMethod("returnService.ProcessReturn", "bookingID", bookingID,
		"returned", result.Summary.TotalReturned, "damaged", result.Summary.TotalDamaged, "completed", result.Summary.Completed)
	return result, nil
}

func validateReturn(in *domain.ReturnInput) error {
	fields := map[string]string{}
	if len(in.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, line := range in.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if line.BookingItemID <= 0 {
			fields[prefix+".bookingItemId"] = "is required"
		}
		if line.ReturnedQty < 0 {
			fields[prefix+".returnedQty"] = "must not be negative"
		}
		if line.DamagedQty < 0 {
			fields[prefix+".damagedQty"] = "must not be negative"
		}
		if line.ReturnedQty == 0 && line.DamagedQty == 0 {
			fields[prefix] = "returnedQty or damagedQty must be positive"
		}
		if line.RepairCost != nil && line.RepairCost.IsNegative() {
			fields[prefix+".repairCost"] = "must not be negative"
		}
	}
	if len(fields) > 0 {
		return domain.NewValidation("invalid return request", fields)
	}
	return nil
}

func equipmentName(it *domain.BookingItem) string {
	if it.Equipment != nil && it.Equipment.Name != "" {
		return it.Equipment.Name
	}
	return fmt.Sprintf("equipment %d", it.EquipmentID)
}

func repairDescription(b *domain.Booking, it *domain.BookingItem, line domain.ReturnLineInput) string {
	desc := fmt.Sprintf("Repair of %d x %s from booking %s", line.DamagedQty, equipmentName(it), b.BookingNumber)
	if line.DamageNotes != "" {
		desc += ": " + line.DamageNotes
	}
	return desc
}

func (s *returnService) GetReturnStatus(ctx context.Context, tenantID, bookingID int32) (*domain.ReturnStatus, error) {
	b, err := s.repos.Bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	return domain.BuildReturnStatus(b), nil
}
