package repository

import (
	"context"
	"time"

	"equipment-rental-backend/internal/domain"
)

type TenantRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Tenant, error)
	// NextBookingSeq increments and returns the tenant's booking counter.
	NextBookingSeq(ctx context.Context, tenantID int32) (int32, error)
}

type CustomerRepository interface {
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Customer, error)
	GetSite(ctx context.Context, tenantID, customerID, siteID int32) (*domain.CustomerSite, error)
}

type EquipmentRepository interface {
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Equipment, error)
	// GetForUpdate reads the row and holds a row lock until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Equipment, error)
	ApplyStockDelta(ctx context.Context, tenantID, id int32, delta domain.StockDelta) error
	ListLowStock(ctx context.Context) ([]domain.Equipment, error)
	ListUnbalanced(ctx context.Context) ([]domain.Equipment, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	CreateItem(ctx context.Context, item *domain.BookingItem) error
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Booking, error)
	List(ctx context.Context, tenantID int32, status string) ([]domain.Booking, error)
	ListItems(ctx context.Context, bookingIDs []int32) ([]domain.BookingItem, error)
	Update(ctx context.Context, booking *domain.Booking) error
	UpdateItemReturn(ctx context.Context, item *domain.BookingItem) error
	// ListActiveReservations returns PENDING/CONFIRMED lines of equipmentID
	// whose booking period overlaps [start, end], skipping excludeBookingID.
	ListActiveReservations(ctx context.Context, tenantID, equipmentID int32, start, end time.Time, excludeBookingID *int32) ([]domain.Reservation, error)
	CountCreatedSince(ctx context.Context, tenantID int32, since time.Time) (int, error)
	ListOverdue(ctx context.Context, today time.Time) ([]domain.Booking, error)
}

type StockMovementRepository interface {
	Create(ctx context.Context, m *domain.StockMovement) error
	ListByEquipment(ctx context.Context, tenantID, equipmentID int32, limit int) ([]domain.StockMovement, error)
	ListByBooking(ctx context.Context, tenantID, bookingID int32, limit int) ([]domain.StockMovement, error)
}

type EquipmentCostRepository interface {
	Create(ctx context.Context, cost *domain.EquipmentCost) error
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityEntry) error
}

// Repositories bundles every repository bound to the same connection or
// transaction.
type Repositories struct {
	Tenants    TenantRepository
	Customers  CustomerRepository
	Equipment  EquipmentRepository
	Bookings   BookingRepository
	Movements  StockMovementRepository
	Costs      EquipmentCostRepository
	Activities ActivityRepository
}

// TxManager runs fn inside one database transaction. fn receives
// repositories bound to that transaction; returning an error rolls back
// every write made through them.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
