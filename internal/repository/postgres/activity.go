package postgres

import (
	"context"
	"encoding/json"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
)

type activityRepository struct {
	db DBTX
}

func NewActivityRepository(db DBTX) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, e *domain.ActivityEntry) error {
	var metadata []byte
	if len(e.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return err
		}
	}
	if e.CreatedOn.IsZero() {
		e.CreatedOn = time.Now()
	}
	query := `INSERT INTO activity_logs (tenant_id, user_id, action, entity, entity_id, description, metadata, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.db.QueryRowContext(ctx, query, e.TenantID, e.UserID, e.Action, e.Entity, e.EntityID,
		e.Description, metadata, e.CreatedOn).Scan(&e.ID)
}
