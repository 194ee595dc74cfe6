package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type equipmentRepository struct {
	db DBTX
}

func NewEquipmentRepository(db DBTX) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

const equipmentColumns = `id, tenant_id, name, category, price_per_day, price_per_hour,
	total_stock, available_stock, reserved_stock, maintenance_stock, damaged_stock,
	min_stock_level, created_on, updated_on`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*domain.Equipment, error) {
	e := &domain.Equipment{}
	var hourly decimal.NullDecimal
	err := row.Scan(&e.ID, &e.TenantID, &e.Name, &e.Category, &e.PricePerDay, &hourly,
		&e.Stock.Total, &e.Stock.Available, &e.Stock.Reserved, &e.Stock.Maintenance, &e.Stock.Damaged,
		&e.MinStockLevel, &e.CreatedOn, &e.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if hourly.Valid {
		e.PricePerHour = &hourly.Decimal
	}
	return e, nil
}

func (r *equipmentRepository) get(ctx context.Context, query string, tenantID, id int32) (*domain.Equipment, error) {
	e, err := scanEquipment(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("equipment", id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 AND tenant_id = $2`
	return r.get(ctx, query, tenantID, id)
}

func (r *equipmentRepository) GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 AND tenant_id = $2 FOR UPDATE`
	logger.DatabaseCall("GetForUpdate", "equipment", "equipment_id", id, "tenant_id", tenantID)
	return r.get(ctx, query, tenantID, id)
}

// ApplyStockDelta adds delta to the counters in place so concurrent
// statements never overwrite each other's increments.
func (r *equipmentRepository) ApplyStockDelta(ctx context.Context, tenantID, id int32, d domain.StockDelta) error {
	query := `UPDATE equipment SET
	            total_stock = total_stock + $1,
	            available_stock = available_stock + $2,
	            reserved_stock = reserved_stock + $3,
	            maintenance_stock = maintenance_stock + $4,
	            damaged_stock = damaged_stock + $5,
	            updated_on = $6
	          WHERE id = $7 AND tenant_id = $8`
	result, err := r.db.ExecContext(ctx, query, d.Total, d.Available, d.Reserved, d.Maintenance, d.Damaged, time.Now(), id, tenantID)
	if err != nil {
		logger.DatabaseResult("ApplyStockDelta", 0, err, "equipment_id", id)
		return fmt.Errorf("failed to update stock of equipment %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("ApplyStockDelta", rows, nil, "equipment_id", id)
	if rows == 0 {
		return domain.NewNotFound("equipment", id)
	}
	return nil
}

func (r *equipmentRepository) ListLowStock(ctx context.Context) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE available_stock < min_stock_level ORDER BY tenant_id, id`
	return r.list(ctx, query)
}

func (r *equipmentRepository) ListUnbalanced(ctx context.Context) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment
	          WHERE total_stock <> available_stock + reserved_stock + maintenance_stock + damaged_stock
	          ORDER BY tenant_id, id`
	return r.list(ctx, query)
}

func (r *equipmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Equipment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
