package http

import (
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/utils"

	"github.com/shopspring/decimal"
)

type bookingItemRequest struct {
	EquipmentID int32            `json:"equipmentId"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

type createBookingRequest struct {
	CustomerID     int32                `json:"customerId"`
	CustomerSiteID *int32               `json:"customerSiteId,omitempty"`
	StartDate      string               `json:"startDate"`
	EndDate        string               `json:"endDate"`
	StartTime      *string              `json:"startTime,omitempty"`
	EndTime        *string              `json:"endTime,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	EquipmentID    *int32               `json:"equipmentId,omitempty"`
	TotalPrice     *decimal.Decimal     `json:"totalPrice,omitempty"`
	Items          []bookingItemRequest `json:"items,omitempty"`
	Status         *string              `json:"status,omitempty"`
}

type updateBookingRequest struct {
	Status     *string          `json:"status,omitempty"`
	StartDate  *string          `json:"startDate,omitempty"`
	EndDate    *string          `json:"endDate,omitempty"`
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

type returnItemRequest struct {
	BookingItemID int32            `json:"bookingItemId"`
	ReturnedQty   int              `json:"returnedQty"`
	DamagedQty    int              `json:"damagedQty"`
	DamageNotes   string           `json:"damageNotes,omitempty"`
	RepairCost    *decimal.Decimal `json:"repairCost,omitempty"`
}

type returnRequest struct {
	Items []returnItemRequest `json:"items"`
	Notes string              `json:"notes,omitempty"`
}

type stockAdjustmentRequest struct {
	Field  string `json:"field"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// fieldErrors collects per-field parse problems into one validation error.
type fieldErrors map[string]string

func (f fieldErrors) date(field, value string) time.Time {
	t, err := utils.ParseDate(value)
	if err != nil {
		f[field] = err.Error()
	}
	return t
}

func (f fieldErrors) clock(field string, value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	c, err := utils.ParseClock(*value)
	if err != nil {
		f[field] = err.Error()
		return nil
	}
	return &c
}

func (f fieldErrors) status(value *string) *domain.BookingStatus {
	if value == nil {
		return nil
	}
	st, ok := domain.ParseBookingStatus(*value)
	if !ok {
		f["status"] = "unknown booking status"
		return nil
	}
	return &st
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return domain.NewValidation("invalid request", f)
}

func (req *createBookingRequest) toInput() (*domain.CreateBookingInput, error) {
	fe := fieldErrors{}
	in := &domain.CreateBookingInput{
		CustomerID:     req.CustomerID,
		CustomerSiteID: req.CustomerSiteID,
		StartDate:      fe.date("startDate", req.StartDate),
		EndDate:        fe.date("endDate", req.EndDate),
		StartTime:      fe.clock("startTime", req.StartTime),
		EndTime:        fe.clock("endTime", req.EndTime),
		Notes:          req.Notes,
		EquipmentID:    req.EquipmentID,
		TotalPrice:     req.TotalPrice,
		Status:         fe.status(req.Status),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, domain.BookingLineInput{
			EquipmentID: it.EquipmentID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Notes:       it.Notes,
		})
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	return in, nil
}

func (req *updateBookingRequest) toInput() (*domain.UpdateBookingInput, error) {
	fe := fieldErrors{}
	in := &domain.UpdateBookingInput{
		Status:     fe.status(req.Status),
		TotalPrice: req.TotalPrice,
		Notes:      req.Notes,
	}
	if req.StartDate != nil {
		t := fe.date("startDate", *req.StartDate)
		in.StartDate = &t
	}
	if req.EndDate != nil {
		t := fe.date("endDate", *req.EndDate)
		in.EndDate = &t
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	return in, nil
}

func (req *returnRequest) toInput() *domain.ReturnInput {
	in := &domain.ReturnInput{Notes: req.Notes}
	for _, it := range req.Items {
		in.Items = append(in.Items, domain.ReturnLineInput{
			BookingItemID: it.BookingItemID,
			ReturnedQty:   it.ReturnedQty,
			DamagedQty:    it.DamagedQty,
			DamageNotes:   it.DamageNotes,
			RepairCost:    it.RepairCost,
		})
	}
	return in
}

type equipmentSummary struct {
	ID          int32           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	PricePerDay decimal.Decimal `json:"pricePerDay"`
}

type bookingItemResponse struct {
	ID          int32             `json:"id"`
	EquipmentID int32             `json:"equipmentId"`
	Equipment   *equipmentSummary `json:"equipment,omitempty"`
	Quantity    int               `json:"quantity"`
	UnitPrice   decimal.Decimal   `json:"unitPrice"`
	TotalPrice  decimal.Decimal   `json:"totalPrice"`
	ReturnedQty int               `json:"returnedQty"`
	DamagedQty  int               `json:"damagedQty"`
	PendingQty  int               `json:"pendingQty"`
	Notes       string            `json:"notes,omitempty"`
}

type customerResponse struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type bookingResponse struct {
	ID             int32                 `json:"id"`
	BookingNumber  string                `json:"bookingNumber"`
	CustomerID     int32                 `json:"customerId"`
	CustomerSiteID *int32                `json:"customerSiteId,omitempty"`
	Customer       *customerResponse     `json:"customer,omitempty"`
	StartDate      string                `json:"startDate"`
	EndDate        string                `json:"endDate"`
	StartTime      *string               `json:"startTime,omitempty"`
	EndTime        *string               `json:"endTime,omitempty"`
	TotalPrice     decimal.Decimal       `json:"totalPrice"`
	Status         domain.BookingStatus  `json:"status"`
	Notes          string                `json:"notes,omitempty"`
	EquipmentID    *int32                `json:"equipmentId,omitempty"`
	PaidAt         *time.Time            `json:"paidAt,omitempty"`
	CreatedBy      int32                 `json:"createdBy"`
	Items          []bookingItemResponse `json:"items"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

type movementResponse struct {
	ID            int32               `json:"id"`
	EquipmentID   int32               `json:"equipmentId"`
	BookingID     *int32              `json:"bookingId,omitempty"`
	UserID        int32               `json:"userId"`
	Type          domain.MovementType `json:"type"`
	Quantity      int                 `json:"quantity"`
	PreviousStock int                 `json:"previousStock"`
	NewStock      int                 `json:"newStock"`
	Reason        string              `json:"reason"`
	CreatedAt     time.Time           `json:"createdAt"`
}

type bookingDetailResponse struct {
	bookingResponse
	StockMovements []movementResponse `json:"stockMovements"`
}

type returnSummaryResponse struct {
	TotalReturned int  `json:"totalReturned"`
	TotalDamaged  int  `json:"totalDamaged"`
	Completed     bool `json:"completed"`
}

type returnResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Summary returnSummaryResponse `json:"summary"`
	Booking bookingResponse       `json:"booking"`
}

type returnItemStatusResponse struct {
	BookingItemID int32  `json:"bookingItemId"`
	EquipmentID   int32  `json:"equipmentId"`
	EquipmentName string `json:"equipmentName"`
	Quantity      int    `json:"quantity"`
	ReturnedQty   int    `json:"returnedQty"`
	DamagedQty    int    `json:"damagedQty"`
	PendingQty    int    `json:"pendingQty"`
	IsComplete    bool   `json:"isComplete"`
}

type returnStatusSummaryResponse struct {
	TotalItems    int  `json:"totalItems"`
	TotalQuantity int  `json:"totalQuantity"`
	TotalReturned int  `json:"totalReturned"`
	TotalDamaged  int  `json:"totalDamaged"`
	TotalPending  int  `json:"totalPending"`
	IsComplete    bool `json:"isComplete"`
}

type returnStatusResponse struct {
	Booking bookingResponse             `json:"booking"`
	Items   []returnItemStatusResponse  `json:"items"`
	Summary returnStatusSummaryResponse `json:"summary"`
}

type equipmentResponse struct {
	ID               int32            `json:"id"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	PricePerDay      decimal.Decimal  `json:"pricePerDay"`
	PricePerHour     *decimal.Decimal `json:"pricePerHour,omitempty"`
	TotalStock       int              `json:"totalStock"`
	AvailableStock   int              `json:"availableStock"`
	ReservedStock    int              `json:"reservedStock"`
	MaintenanceStock int              `json:"maintenanceStock"`
	DamagedStock     int              `json:"damagedStock"`
	MinStockLevel    int              `json:"minStockLevel"`
	LowStock         bool             `json:"lowStock"`
}

type availabilityResponse struct {
	EquipmentID       int32  `json:"equipmentId"`
	Requested         int    `json:"requested"`
	Capacity          int    `json:"capacity"`
	ReservedInPeriod  int    `json:"reservedInPeriod"`
	AvailableInPeriod int    `json:"availableInPeriod"`
	LiveAvailable     int    `json:"liveAvailable"`
	Available         bool   `json:"available"`
	Message           string `json:"message,omitempty"`
}

func mapBooking(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:             b.ID,
		BookingNumber:  b.BookingNumber,
		CustomerID:     b.CustomerID,
		CustomerSiteID: b.CustomerSiteID,
		StartDate:      b.StartDate.Format(utils.DateLayout),
		EndDate:        b.EndDate.Format(utils.DateLayout),
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		TotalPrice:     b.TotalPrice,
		Status:         b.Status,
		Notes:          b.Notes,
		EquipmentID:    b.EquipmentID,
		PaidAt:         b.PaidAt,
		CreatedBy:      b.CreatedBy,
		Items:          make([]bookingItemResponse, 0, len(b.Items)),
		CreatedAt:      b.CreatedOn,
		UpdatedAt:      b.UpdatedOn,
	}
	if b.Customer != nil {
		resp.Customer = &customerResponse{
			ID:    b.Customer.ID,
			Name:  b.Customer.Name,
			Email: b.Customer.Email,
			Phone: b.Customer.Phone,
		}
	}
	for i := range b.Items {
		it := &b.Items[i]
		item := bookingItemResponse{
			ID:          it.ID,
			EquipmentID: it.EquipmentID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			ReturnedQty: it.ReturnedQty,
			DamagedQty:  it.DamagedQty,
			PendingQty:  it.PendingQty(),
			Notes:       it.Notes,
		}
		if it.Equipment != nil {
			item.Equipment = &equipmentSummary{
				ID:          it.Equipment.ID,
				Name:        it.Equipment.Name,
				Category:    it.Equipment.Category,
				PricePerDay: it.Equipment.PricePerDay,
			}
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func mapMovements(ms []domain.StockMovement) []movementResponse {
	out := make([]movementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, movementResponse{
			ID:            m.ID,
			EquipmentID:   m.EquipmentID,
			BookingID:     m.BookingID,
			UserID:        m.UserID,
			Type:          m.Type,
			Quantity:      m.Quantity,
			PreviousStock: m.PreviousStock,
			NewStock:      m.NewStock,
			Reason:        m.Reason,
			CreatedAt:     m.CreatedOn,
		})
	}
	return out
}

func mapReturnResult(r *domain.ReturnResult) returnResponse {
	msg := "Return processed"
	if r.Summary.Completed {
		msg = "All items returned, booking completed"
	}
	return returnResponse{
		Success: true,
		Message: msg,
		Summary: returnSummaryResponse{
			TotalReturned: r.Summary.TotalReturned,
			TotalDamaged:  r.Summary.TotalDamaged,
			Completed:     r.Summary.Completed,
		},
		Booking: mapBooking(r.Booking),
	}
}

func mapReturnStatus(s *domain.ReturnStatus) returnStatusResponse {
	resp := returnStatusResponse{
		Booking: mapBooking(s.Booking),
		Items:   make([]returnItemStatusResponse, 0, len(s.Items)),
		Summary: returnStatusSummaryResponse{
			TotalItems:    s.Summary.TotalItems,
			TotalQuantity: s.Summary.TotalQuantity,
			TotalReturned: s.Summary.TotalReturned,
			TotalDamaged:  s.Summary.TotalDamaged,
			TotalPending:  s.Summary.TotalPending,
			IsComplete:    s.Summary.IsComplete,
		},
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, returnItemStatusResponse(it))
	}
	return resp
}

func mapEquipment(e *domain.Equipment) equipmentResponse {
	return equipmentResponse{
		ID:               e.ID,
		Name:             e.Name,
		Category:         e.Category,
		PricePerDay:      e.PricePerDay,
		PricePerHour:     e.PricePerHour,
		TotalStock:       e.Stock.Total,
		AvailableStock:   e.Stock.Available,
		ReservedStock:    e.Stock.Reserved,
		MaintenanceStock: e.Stock.Maintenance,
		DamagedStock:     e.Stock.Damaged,
		MinStockLevel:    e.MinStockLevel,
		LowStock:         e.IsLowStock(),
	}
}

func mapAvailability(a *domain.Availability) availabilityResponse {
	return availabilityResponse(*a)
}
