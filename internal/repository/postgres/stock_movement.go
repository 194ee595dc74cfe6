package postgres

import (
	"context"
	"database/sql"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
)

type stockMovementRepository struct {
	db DBTX
}

func NewStockMovementRepository(db DBTX) repository.StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, m *domain.StockMovement) error {
	if m.CreatedOn.IsZero() {
		m.CreatedOn = time.Now()
	}
	query := `INSERT INTO stock_movements (tenant_id, equipment_id, booking_id, user_id, type, quantity, previous_stock, new_stock, reason, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	return r.db.QueryRowContext(ctx, query, m.TenantID, m.EquipmentID, m.BookingID, m.UserID, m.Type,
		m.Quantity, m.PreviousStock, m.NewStock, m.Reason, m.CreatedOn).Scan(&m.ID)
}

const movementColumns = `id, tenant_id, equipment_id, booking_id, user_id, type, quantity, previous_stock, new_stock, reason, created_on`

func (r *stockMovementRepository) ListByEquipment(ctx context.Context, tenantID, equipmentID int32, limit int) ([]domain.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
	          WHERE tenant_id = $1 AND equipment_id = $2 ORDER BY created_on DESC, id DESC LIMIT $3`
	return r.list(ctx, query, tenantID, equipmentID, limit)
}

func (r *stockMovementRepository) ListByBooking(ctx context.Context, tenantID, bookingID int32, limit int) ([]domain.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
	          WHERE tenant_id = $1 AND booking_id = $2 ORDER BY created_on DESC, id DESC LIMIT $3`
	return r.list(ctx, query, tenantID, bookingID, limit)
}

func (r *stockMovementRepository) list(ctx context.Context, query string, args ...any) ([]domain.StockMovement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []domain.StockMovement{}
	for rows.Next() {
		var m domain.StockMovement
		var bookingID sql.NullInt32
		if err := rows.Scan(&m.ID, &m.TenantID, &m.EquipmentID, &bookingID, &m.UserID, &m.Type,
			&m.Quantity, &m.PreviousStock, &m.NewStock, &m.Reason, &m.CreatedOn); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := bookingID.Int32
			m.BookingID = &id
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
