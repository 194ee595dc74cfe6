package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/repository"
	"equipment-rental-backend/internal/utils"
)

const maxMovementsLimit = 500

type stockService struct {
	repos        repository.Repositories
	tx           repository.TxManager
	ledger       *StockLedger
	availability *AvailabilityChecker
	activity     ActivityLogger
	defaultLimit int
}

func NewStockService(repos repository.Repositories, tx repository.TxManager, ledger *StockLedger, availability *AvailabilityChecker, activity ActivityLogger, defaultLimit int) StockService {
	if defaultLimit <= 0 {
		defaultLimit = defaultRecentMovements
	}
	return &stockService{
		repos:        repos,
		tx:           tx,
		ledger:       ledger,
		availability: availability,
		activity:     activity,
		defaultLimit: defaultLimit,
	}
}

func (s *stockService) CheckAvailability(ctx context.Context, tenantID, equipmentID int32, start, end time.Time, quantity int, excludeBookingID *int32) (*domain.Availability, error) {
	fields := map[string]string{}
	if quantity < 1 {
		fields["quantity"] = "must be at least 1"
	}
	if _, err := utils.InclusiveDays(start, end); err != nil {
		fields["endDate"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, domain.NewValidation("invalid availability query", fields)
	}

	eq, err := s.repos.Equipment.GetByID(ctx, tenantID, equipmentID)
	if err != nil {
		return nil, err
	}
	return s.availability.CheckPeriod(ctx, s.repos, eq, start, end, quantity, excludeBookingID)
}

func (s *stockService) AdjustStock(ctx context.Context, actor domain.Actor, equipmentID int32, in *domain.StockAdjustmentInput) (*domain.Equipment, error) {
	logger.EnterMethod("stockService.AdjustStock", "equipmentID", equipmentID, "field", in.Field, "delta", in.Delta)

	fields := map[string]string{}
	if in.Delta == 0 {
		fields["delta"] = "must not be zero"
	}
	if strings.TrimSpace(in.Reason) == "" {
		fields["reason"] = "is required"
	}
	if len(fields) > 0 {
		err := domain.NewValidation("invalid stock adjustment", fields)
		logger.ExitMethodWithError("stockService.AdjustStock", err, true)
		return nil, err
	}

	fx := newEffects(actor)
	var updated *domain.Equipment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		eq, err := s.ledger.Adjust(ctx, repos, fx, LedgerOp{
			Actor:       actor,
			EquipmentID: equipmentID,
			Quantity:    in.Delta,
			Reason:      in.Reason,
		}, in.Field)
		if err != nil {
			return err
		}
		fx.record(domain.ActivityAdjust, "equipment", eq.ID,
			fmt.Sprintf("Adjusted %s stock of %s by %+d", in.Field, eq.Name, in.Delta),
			map[string]any{"field": in.Field, "delta": in.Delta, "reason": in.Reason})
		updated = eq
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("stockService.AdjustStock", err, domain.KindOf(err) != "")
		return nil, err
	}

	fx.flush(ctx, s.activity)
	logger.ExitMethod("stockService.AdjustStock", "equipmentID", equipmentID)
	return updated, nil
}

func (s *stockService) ListMovements(ctx context.Context, tenantID, equipmentID int32, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxMovementsLimit {
		limit = maxMovementsLimit
	}
	if _, err := s.repos.Equipment.GetByID(ctx, tenantID, equipmentID); err != nil {
		return nil, err
	}
	return s.repos.Movements.ListByEquipment(ctx, tenantID, equipmentID, limit)
}
