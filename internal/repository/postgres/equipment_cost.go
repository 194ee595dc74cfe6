package postgres

import (
	"context"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
)

type equipmentCostRepository struct {
	db DBTX
}

func NewEquipmentCostRepository(db DBTX) repository.EquipmentCostRepository {
	return &equipmentCostRepository{db: db}
}

func (r *equipmentCostRepository) Create(ctx context.Context, c *domain.EquipmentCost) error {
	query := `INSERT INTO equipment_costs (tenant_id, equipment_id, type, description, amount, date, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, c.TenantID, c.EquipmentID, c.Type, c.Description,
		c.Amount, c.Date, time.Now()).Scan(&c.ID)
}
