package service

import (
	"context"
	"fmt"
	"sort"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/metrics"
	"equipment-rental-backend/internal/repository"
)

// LedgerOp describes one stock change requested from the ledger.
type LedgerOp struct {
	Actor       domain.Actor
	EquipmentID int32
	BookingID   *int32
	Quantity    int
	Reason      string
}

// StockLedger is the only code path that writes equipment stock counters.
// Every operation runs against transaction-bound repositories and pairs the
// counter update with one StockMovement row.
type StockLedger struct{}

func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

type ledgerStep struct {
	op      LedgerOp
	kind    domain.MovementType
	delta   domain.StockDelta
	tracked domain.StockField // bucket recorded as previous/new stock
	short   domain.StockField // bucket reported when the guard trips
}

// Reserve moves units from available to reserved (RENTAL_OUT).
func (l *StockLedger) Reserve(ctx context.Context, repos repository.Repositories, fx *effects, op LedgerOp) (*domain.Equipment, error) {
	return l.apply(ctx, repos, fx, ledgerStep{
		op:      op,
		kind:    domain.MovementRentalOut,
		delta:   domain.ReserveDelta(op.Quantity),
		tracked: domain.StockFieldAvailable,
		short:   domain.StockFieldAvailable,
	})
}

// Release moves units from reserved back to available. kind is
// RENTAL_RETURN for returns and completions, ADJUSTMENT for cancellations.
func (l *StockLedger) Release(ctx context.Context, repos repository.Repositories, fx *effects, op LedgerOp, kind domain.MovementType) (*domain.Equipment, error) {
	return l.apply(ctx, repos, fx, ledgerStep{
		op:      op,
		kind:    kind,
		delta:   domain.ReleaseDelta(op.Quantity),
		tracked: domain.StockFieldAvailable,
		short:   domain.StockFieldReserved,
	})
}

// MarkDamaged moves units from reserved to damaged (DAMAGE).
func (l *StockLedger) MarkDamaged(ctx context.Context, repos repository.Repositories, fx *effects, op LedgerOp) (*domain.Equipment, error) {
	return l.apply(ctx, repos, fx, ledgerStep{
		op:      op,
		kind:    domain.MovementDamage,
		delta:   domain.DamageDelta(op.Quantity),
		tracked: domain.StockFieldDamaged,
		short:   domain.StockFieldReserved,
	})
}

// Adjust applies a manual correction of op.Quantity (signed) units to field.
func (l *StockLedger) Adjust(ctx context.Context, repos repository.Repositories, fx *effects, op LedgerOp, field domain.StockField) (*domain.Equipment, error) {
	delta, err := domain.AdjustmentDelta(field, op.Quantity)
	if err != nil {
		return nil, domain.NewValidation(err.Error(), map[string]string{"field": "must be one of total, maintenance, damaged"})
	}

	kind := domain.MovementAdjustment
	short := domain.StockFieldAvailable
	switch field {
	case domain.StockFieldMaintenance:
		kind = domain.MovementMaintenance
	case domain.StockFieldDamaged:
		kind = domain.MovementRepair
	}
	if field != domain.StockFieldTotal && op.Quantity < 0 {
		short = field
	}

	return l.apply(ctx, repos, fx, ledgerStep{op: op, kind: kind, delta: delta, tracked: field, short: short})
}

func (l *StockLedger) apply(ctx context.Context, repos repository.Repositories, fx *effects, step ledgerStep) (*domain.Equipment, error) {
	op := step.op
	eq, err := repos.Equipment.GetForUpdate(ctx, op.Actor.TenantID, op.EquipmentID)
	if err != nil {
		return nil, err
	}

	next, err := eq.Stock.Apply(step.delta)
	if err != nil {
		logger.Warn("Stock guard rejected ledger operation",
			"equipment_id", eq.ID, "movement", step.kind, "quantity", op.Quantity, "error", err)
		return nil, domain.NewStockConflict(eq.ID, eq.Name, abs(op.Quantity), eq.Stock.Field(step.short))
	}

	if err := repos.Equipment.ApplyStockDelta(ctx, op.Actor.TenantID, eq.ID, step.delta); err != nil {
		return nil, err
	}

	movement := &domain.StockMovement{
		TenantID:      op.Actor.TenantID,
		EquipmentID:   eq.ID,
		BookingID:     op.BookingID,
		UserID:        op.Actor.UserID,
		Type:          step.kind,
		Quantity:      abs(op.Quantity),
		PreviousStock: eq.Stock.Field(step.tracked),
		NewStock:      next.Field(step.tracked),
		Reason:        op.Reason,
	}
	if err := repos.Movements.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record %s movement for equipment %d: %w", step.kind, eq.ID, err)
	}
	metrics.StockMovements.WithLabelValues(string(step.kind)).Inc()

	eq.Stock = next
	fx.touch(eq)
	return eq, nil
}

// lockEquipment takes the row locks for ids in ascending order so that two
// transactions touching the same rows never wait on each other in a cycle.
func lockEquipment(ctx context.Context, repos repository.Repositories, tenantID int32, ids []int32) (map[int32]*domain.Equipment, error) {
	sorted := uniqueSorted(ids)
	locked := make(map[int32]*domain.Equipment, len(sorted))
	for _, id := range sorted {
		eq, err := repos.Equipment.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		locked[id] = eq
	}
	return locked, nil
}

func uniqueSorted(ids []int32) []int32 {
	seen := make(map[int32]bool, len(ids))
	out := make([]int32, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
