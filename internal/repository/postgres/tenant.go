package postgres

import (
	"context"
	"database/sql"
	"errors"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
)

type tenantRepository struct {
	db DBTX
}

func NewTenantRepository(db DBTX) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) GetByID(ctx context.Context, id int32) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	query := `SELECT id, name, plan, booking_seq, created_on FROM tenants WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Plan, &t.BookingSeq, &t.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("tenant", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// NextBookingSeq bumps the counter in a single statement; the row lock it
// takes serializes concurrent creators of the same tenant until commit.
func (r *tenantRepository) NextBookingSeq(ctx context.Context, tenantID int32) (int32, error) {
	var seq int32
	query := `UPDATE tenants SET booking_seq = booking_seq + 1 WHERE id = $1 RETURNING booking_seq`
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NewNotFound("tenant", tenantID)
	}
	return seq, err
}
