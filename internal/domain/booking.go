package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return st, true
	}
	return "", false
}

// HoldsStock reports whether a booking in this status keeps units reserved.
func (s BookingStatus) HoldsStock() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo encodes PENDING -> CONFIRMED -> COMPLETED and
// PENDING/CONFIRMED -> CANCELLED. Terminal states never move again.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCompleted || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	}
	return false
}

type Booking struct {
	ID             int32           `json:"id"`
	BookingNumber  string          `json:"booking_number"`
	TenantID       int32           `json:"tenant_id"`
	CustomerID     int32           `json:"customer_id"`
	CustomerSiteID *int32          `json:"customer_site_id,omitempty"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	StartTime      *string         `json:"start_time,omitempty"`
	EndTime        *string         `json:"end_time,omitempty"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Status         BookingStatus   `json:"status"`
	Notes          string          `json:"notes"`
	EquipmentID    *int32          `json:"equipment_id,omitempty"` // legacy single-equipment bookings
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedBy      int32           `json:"created_by"`
	Items          []BookingItem   `json:"items"`
	Customer       *Customer       `json:"customer,omitempty"`
	CreatedOn      time.Time       `json:"created_on"`
	UpdatedOn      time.Time       `json:"updated_on"`
}

type BookingItem struct {
	ID          int32           `json:"id"`
	BookingID   int32           `json:"booking_id"`
	EquipmentID int32           `json:"equipment_id"`
	Equipment   *Equipment      `json:"equipment,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ReturnedQty int             `json:"returned_qty"`
	DamagedQty  int             `json:"damaged_qty"`
	Notes       string          `json:"notes"`
}

// PendingQty is the number of units neither returned nor marked damaged.
func (i *BookingItem) PendingQty() int {
	p := i.Quantity - i.ReturnedQty - i.DamagedQty
	if p < 0 {
		return 0
	}
	return p
}

func (i *BookingItem) IsComplete() bool {
	return i.ReturnedQty+i.DamagedQty >= i.Quantity
}

// AllItemsReturned is true once every line is fully accounted for. A
// booking without lines is never considered returned.
func (b *Booking) AllItemsReturned() bool {
	if len(b.Items) == 0 {
		return false
	}
	for i := range b.Items {
		if !b.Items[i].IsComplete() {
			return false
		}
	}
	return true
}

// Lines returns the line items holding stock for b. Legacy rows stored
// without items yield one synthetic line of quantity 1.
func (b *Booking) Lines() []BookingItem {
	if len(b.Items) > 0 || b.EquipmentID == nil {
		return b.Items
	}
	return []BookingItem{{BookingID: b.ID, EquipmentID: *b.EquipmentID, Quantity: 1}}
}

func FormatBookingNumber(seq int32) string {
	return fmt.Sprintf("BK-%06d", seq)
}

// Reservation is one booking line that holds stock over a period. Quantity
// is the line's pending quantity; rows from legacy single-equipment bookings
// arrive with Quantity 1.
type Reservation struct {
	BookingID   int32
	EquipmentID int32
	Quantity    int
	StartDate   time.Time
	EndDate     time.Time
	Status      BookingStatus
}

// BookingDetail is a booking with its recent stock movements.
type BookingDetail struct {
	Booking        *Booking        `json:"booking"`
	StockMovements []StockMovement `json:"stock_movements"`
}

// Actor identifies who performs a mutation and for which tenant.
type Actor struct {
	TenantID int32
	UserID   int32
}

type BookingLineInput struct {
	EquipmentID int32
	Quantity    int
	UnitPrice   *decimal.Decimal
	Notes       string
}

type CreateBookingInput struct {
	CustomerID     int32
	CustomerSiteID *int32
	StartDate      time.Time
	EndDate        time.Time
	StartTime      *string
	EndTime        *string
	Notes          string
	EquipmentID    *int32
	TotalPrice     *decimal.Decimal
	Items          []BookingLineInput
	Status         *BookingStatus
}

// Lines normalizes the request to a list of line items. A legacy request
// carrying only EquipmentID becomes a single line of quantity 1.
func (in *CreateBookingInput) Lines() []BookingLineInput {
	if len(in.Items) > 0 {
		return in.Items
	}
	if in.EquipmentID != nil {
		return []BookingLineInput{{EquipmentID: *in.EquipmentID, Quantity: 1}}
	}
	return nil
}

// IsLegacy reports whether the request used the single-equipment shape.
func (in *CreateBookingInput) IsLegacy() bool {
	return len(in.Items) == 0 && in.EquipmentID != nil
}

type UpdateBookingInput struct {
	Status     *BookingStatus
	StartDate  *time.Time
	EndDate    *time.Time
	TotalPrice *decimal.Decimal
	Notes      *string
}

type ReturnLineInput struct {
	BookingItemID int32
	ReturnedQty   int
	DamagedQty    int
	DamageNotes   string
	RepairCost    *decimal.Decimal
}

type ReturnInput struct {
	Items []ReturnLineInput
	Notes string
}

type ReturnSummary struct {
	TotalReturned int  `json:"total_returned"`
	TotalDamaged  int  `json:"total_damaged"`
	Completed     bool `json:"completed"`
}

type ReturnResult struct {
	Summary ReturnSummary `json:"summary"`
	Booking *Booking      `json:"booking"`
}

type ReturnItemStatus struct {
	BookingItemID int32  `json:"booking_item_id"`
	EquipmentID   int32  `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
	Quantity      int    `json:"quantity"`
	ReturnedQty   int    `json:"returned_qty"`
	DamagedQty    int    `json:"damaged_qty"`
	PendingQty    int    `json:"pending_qty"`
	IsComplete    bool   `json:"is_complete"`
}

type ReturnStatusSummary struct {
	TotalItems    int  `json:"total_items"`
	TotalQuantity int  `json:"total_quantity"`
	TotalReturned int  `json:"total_returned"`
	TotalDamaged  int  `json:"total_damaged"`
	TotalPending  int  `json:"total_pending"`
	IsComplete    bool `json:"is_complete"`
}

type ReturnStatus struct {
	Booking *Booking            `json:"booking"`
	Items   []ReturnItemStatus  `json:"items"`
	Summary ReturnStatusSummary `json:"summary"`
}

// BuildReturnStatus computes the per-line return snapshot of b.
func BuildReturnStatus(b *Booking) *ReturnStatus {
	rs := &ReturnStatus{Booking: b, Items: make([]ReturnItemStatus, 0, len(b.Items))}
	for i := range b.Items {
		it := &b.Items[i]
		st := ReturnItemStatus{
			BookingItemID: it.ID,
			EquipmentID:   it.EquipmentID,
			Quantity:      it.Quantity,
			ReturnedQty:   it.ReturnedQty,
			DamagedQty:    it.DamagedQty,
			PendingQty:    it.PendingQty(),
			IsComplete:    it.IsComplete(),
		}
		if it.Equipment != nil {
			st.EquipmentName = it.Equipment.Name
		}
		rs.Items = append(rs.Items, st)
		rs.Summary.TotalQuantity += it.Quantity
		rs.Summary.TotalReturned += it.ReturnedQty
		rs.Summary.TotalDamaged += it.DamagedQty
		rs.Summary.TotalPending += st.PendingQty
	}
	rs.Summary.TotalItems = len(b.Items)
	rs.Summary.IsComplete = b.AllItemsReturned()
	return rs
}
