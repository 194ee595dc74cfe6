package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/repository"

	"github.com/lib/pq"
)

type bookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, booking_number, tenant_id, customer_id, customer_site_id, start_date, end_date,
	start_time, end_time, total_price, status, notes, equipment_id, paid_at, created_by, created_on, updated_on`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.BookingNumber, &b.TenantID, &b.CustomerID, &b.CustomerSiteID, &b.StartDate, &b.EndDate,
		&b.StartTime, &b.EndTime, &b.TotalPrice, &b.Status, &b.Notes, &b.EquipmentID, &b.PaidAt, &b.CreatedBy,
		&b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	now := time.Now()
	b.CreatedOn, b.UpdatedOn = now, now
	query := `INSERT INTO bookings (booking_number, tenant_id, customer_id, customer_site_id, start_date, end_date,
	            start_time, end_time, total_price, status, notes, equipment_id, paid_at, created_by, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id`
	logger.DatabaseCall("Create", "bookings", "booking_number", b.BookingNumber)
	return r.db.QueryRowContext(ctx, query, b.BookingNumber, b.TenantID, b.CustomerID, b.CustomerSiteID,
		b.StartDate, b.EndDate, b.StartTime, b.EndTime, b.TotalPrice, b.Status, b.Notes, b.EquipmentID,
		b.PaidAt, b.CreatedBy, b.CreatedOn, b.UpdatedOn).Scan(&b.ID)
}

func (r *bookingRepository) CreateItem(ctx context.Context, it *domain.BookingItem) error {
	query := `INSERT INTO booking_items (booking_id, equipment_id, quantity, unit_price, total_price, returned_qty, damaged_qty, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.db.QueryRowContext(ctx, query, it.BookingID, it.EquipmentID, it.Quantity, it.UnitPrice,
		it.TotalPrice, it.ReturnedQty, it.DamagedQty, it.Notes).Scan(&it.ID)
}

func (r *bookingRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND tenant_id = $2`
	return r.getWithItems(ctx, query, tenantID, id)
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND tenant_id = $2 FOR UPDATE`
	return r.getWithItems(ctx, query, tenantID, id)
}

func (r *bookingRepository) getWithItems(ctx context.Context, query string, tenantID, id int32) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("booking", id)
	}
	if err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, []int32{b.ID})
	if err != nil {
		return nil, err
	}
	b.Items = items
	return b, nil
}

// List returns the tenant's bookings newest first. Items are not loaded.
func (r *bookingRepository) List(ctx context.Context, tenantID int32, status string) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_on DESC, id DESC"
	return r.list(ctx, query, args...)
}

func (r *bookingRepository) ListItems(ctx context.Context, bookingIDs []int32) ([]domain.BookingItem, error) {
	if len(bookingIDs) == 0 {
		return []domain.BookingItem{}, nil
	}
	query := `SELECT bi.id, bi.booking_id, bi.equipment_id, bi.quantity, bi.unit_price, bi.total_price,
	                 bi.returned_qty, bi.damaged_qty, bi.notes, e.name, e.category, e.price_per_day
	          FROM booking_items bi JOIN equipment e ON e.id = bi.equipment_id
	          WHERE bi.booking_id = ANY($1) ORDER BY bi.booking_id, bi.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(bookingIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.BookingItem{}
	for rows.Next() {
		var it domain.BookingItem
		eq := &domain.Equipment{}
		if err := rows.Scan(&it.ID, &it.BookingID, &it.EquipmentID, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
			&it.ReturnedQty, &it.DamagedQty, &it.Notes, &eq.Name, &eq.Category, &eq.PricePerDay); err != nil {
			return nil, err
		}
		eq.ID = it.EquipmentID
		it.Equipment = eq
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	b.UpdatedOn = time.Now()
	query := `UPDATE bookings SET status = $1, start_date = $2, end_date = $3, total_price = $4, notes = $5,
	            paid_at = $6, updated_on = $7
	          WHERE id = $8 AND tenant_id = $9`
	result, err := r.db.ExecContext(ctx, query, b.Status, b.StartDate, b.EndDate, b.TotalPrice, b.Notes,
		b.PaidAt, b.UpdatedOn, b.ID, b.TenantID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewNotFound("booking", b.ID)
	}
	return nil
}

func (r *bookingRepository) UpdateItemReturn(ctx context.Context, it *domain.BookingItem) error {
	query := `UPDATE booking_items SET returned_qty = $1, damaged_qty = $2, notes = $3 WHERE id = $4 AND booking_id = $5`
	result, err := r.db.ExecContext(ctx, query, it.ReturnedQty, it.DamagedQty, it.Notes, it.ID, it.BookingID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewNotFound("booking item", it.ID)
	}
	return nil
}

// ListActiveReservations unions multi-item lines with legacy single-equipment
// bookings, the latter counted as one unit each. Item lines contribute only
// their pending quantity, so units already returned or damaged are not held.
func (r *bookingRepository) ListActiveReservations(ctx context.Context, tenantID, equipmentID int32, start, end time.Time, excludeBookingID *int32) ([]domain.Reservation, error) {
	query := `SELECT b.id, bi.equipment_id, bi.quantity - bi.returned_qty - bi.damaged_qty, b.start_date, b.end_date, b.status
	          FROM booking_items bi JOIN bookings b ON b.id = bi.booking_id
	          WHERE b.tenant_id = $1 AND bi.equipment_id = $2
	            AND b.status IN ('PENDING', 'CONFIRMED')
	            AND bi.quantity - bi.returned_qty - bi.damaged_qty > 0
	            AND b.start_date <= $4 AND b.end_date >= $3
	            AND ($5::INTEGER IS NULL OR b.id <> $5)
	          UNION ALL
	          SELECT b.id, b.equipment_id, 1, b.start_date, b.end_date, b.status
	          FROM bookings b
	          WHERE b.tenant_id = $1 AND b.equipment_id = $2
	            AND b.status IN ('PENDING', 'CONFIRMED')
	            AND b.start_date <= $4 AND b.end_date >= $3
	            AND ($5::INTEGER IS NULL OR b.id <> $5)
	            AND NOT EXISTS (SELECT 1 FROM booking_items x WHERE x.booking_id = b.id)`
	logger.DatabaseCall("ListActiveReservations", "bookings", "equipment_id", equipmentID)
	rows, err := r.db.QueryContext(ctx, query, tenantID, equipmentID, start, end, excludeBookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.BookingID, &res.EquipmentID, &res.Quantity, &res.StartDate, &res.EndDate, &res.Status); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *bookingRepository) CountCreatedSince(ctx context.Context, tenantID int32, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM bookings WHERE tenant_id = $1 AND created_on >= $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, since).Scan(&count)
	return count, err
}

// ListOverdue returns active bookings across tenants whose end date is
// before today, with items loaded.
func (r *bookingRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status IN ('PENDING', 'CONFIRMED') AND end_date < $1
	          ORDER BY tenant_id, end_date, id`
	bookings, err := r.list(ctx, query, today)
	if err != nil || len(bookings) == 0 {
		return bookings, err
	}

	ids := make([]int32, len(bookings))
	index := make(map[int32]int, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
		index[bookings[i].ID] = i
	}
	items, err := r.ListItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		b := &bookings[index[it.BookingID]]
		b.Items = append(b.Items, it)
	}
	return bookings, nil
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
