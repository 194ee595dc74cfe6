package postgres

import (
	"context"
	"database/sql"
	"errors"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
)

type customerRepository struct {
	db DBTX
}

func NewCustomerRepository(db DBTX) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, tenant_id, name, email, phone, created_on FROM customers WHERE id = $1 AND tenant_id = $2`
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("customer", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) GetSite(ctx context.Context, tenantID, customerID, siteID int32) (*domain.CustomerSite, error) {
	s := &domain.CustomerSite{}
	query := `SELECT id, tenant_id, customer_id, name, address FROM customer_sites
	          WHERE id = $1 AND customer_id = $2 AND tenant_id = $3`
	err := r.db.QueryRowContext(ctx, query, siteID, customerID, tenantID).Scan(&s.ID, &s.TenantID, &s.CustomerID, &s.Name, &s.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("customer site", siteID)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
