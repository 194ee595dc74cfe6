package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementRentalOut    MovementType = "RENTAL_OUT"
	MovementRentalReturn MovementType = "RENTAL_RETURN"
	MovementDamage       MovementType = "DAMAGE"
	MovementAdjustment   MovementType = "ADJUSTMENT"
	MovementMaintenance  MovementType = "MAINTENANCE"
	MovementRepair       MovementType = "REPAIR"
)

// StockMovement is an immutable audit row for one counter change.
type StockMovement struct {
	ID            int32        `json:"id"`
	TenantID      int32        `json:"tenant_id"`
	EquipmentID   int32        `json:"equipment_id"`
	BookingID     *int32       `json:"booking_id,omitempty"`
	UserID        int32        `json:"user_id"`
	Type          MovementType `json:"type"`
	Quantity      int          `json:"quantity"`
	PreviousStock int          `json:"previous_stock"`
	NewStock      int          `json:"new_stock"`
	Reason        string       `json:"reason"`
	CreatedOn     time.Time    `json:"created_on"`
}

type CostType string

const CostTypeRepair CostType = "REPAIR"

type EquipmentCost struct {
	ID          int32           `json:"id"`
	TenantID    int32           `json:"tenant_id"`
	EquipmentID int32           `json:"equipment_id"`
	Type        CostType        `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	CreatedOn   time.Time       `json:"created_on"`
}

// Availability is the outcome of a stock check for one equipment.
type Availability struct {
	EquipmentID       int32  `json:"equipment_id"`
	Requested         int    `json:"requested"`
	Capacity          int    `json:"capacity"`
	ReservedInPeriod  int    `json:"reserved_in_period"`
	AvailableInPeriod int    `json:"available_in_period"`
	LiveAvailable     int    `json:"live_available"`
	Available         bool   `json:"available"`
	Message           string `json:"message,omitempty"`
}

type StockAdjustmentInput struct {
	Field  StockField
	Delta  int
	Reason string
}
