package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockLevels holds the aggregate counters of one equipment type.
// Invariant: Total == Available + Reserved + Maintenance + Damaged.
type StockLevels struct {
	Total       int `json:"total_stock"`
	Available   int `json:"available_stock"`
	Reserved    int `json:"reserved_stock"`
	Maintenance int `json:"maintenance_stock"`
	Damaged     int `json:"damaged_stock"`
}

// StockDelta is a signed change applied to StockLevels in one ledger step.
type StockDelta struct {
	Total       int
	Available   int
	Reserved    int
	Maintenance int
	Damaged     int
}

func (s StockLevels) Balanced() bool {
	return s.Total == s.Available+s.Reserved+s.Maintenance+s.Damaged
}

// Apply returns the counters after d. It refuses to produce negative or
// unbalanced counters.
func (s StockLevels) Apply(d StockDelta) (StockLevels, error) {
	next := StockLevels{
		Total:       s.Total + d.Total,
		Available:   s.Available + d.Available,
		Reserved:    s.Reserved + d.Reserved,
		Maintenance: s.Maintenance + d.Maintenance,
		Damaged:     s.Damaged + d.Damaged,
	}
	if next.Total < 0 || next.Available < 0 || next.Reserved < 0 || next.Maintenance < 0 || next.Damaged < 0 {
		return s, fmt.Errorf("stock counters would become negative: %+v", next)
	}
	if !next.Balanced() {
		return s, fmt.Errorf("stock counters would become unbalanced: %+v", next)
	}
	return next, nil
}

// Field returns the counter named by f.
func (s StockLevels) Field(f StockField) int {
	switch f {
	case StockFieldTotal:
		return s.Total
	case StockFieldReserved:
		return s.Reserved
	case StockFieldMaintenance:
		return s.Maintenance
	case StockFieldDamaged:
		return s.Damaged
	default:
		return s.Available
	}
}

type StockField string

const (
	StockFieldTotal       StockField = "total"
	StockFieldAvailable   StockField = "available"
	StockFieldReserved    StockField = "reserved"
	StockFieldMaintenance StockField = "maintenance"
	StockFieldDamaged     StockField = "damaged"
)

// ReserveDelta moves qty units from available to reserved.
func ReserveDelta(qty int) StockDelta {
	return StockDelta{Available: -qty, Reserved: qty}
}

// ReleaseDelta moves qty units from reserved back to available.
func ReleaseDelta(qty int) StockDelta {
	return StockDelta{Available: qty, Reserved: -qty}
}

// DamageDelta moves qty units from reserved to damaged.
func DamageDelta(qty int) StockDelta {
	return StockDelta{Reserved: -qty, Damaged: qty}
}

// AdjustmentDelta translates a manual correction on one bucket into a
// balanced delta. Units added to total land in available; units pulled
// into maintenance or damaged come out of available.
func AdjustmentDelta(field StockField, delta int) (StockDelta, error) {
	switch field {
	case StockFieldTotal:
		return StockDelta{Total: delta, Available: delta}, nil
	case StockFieldMaintenance:
		return StockDelta{Maintenance: delta, Available: -delta}, nil
	case StockFieldDamaged:
		return StockDelta{Damaged: delta, Available: -delta}, nil
	default:
		return StockDelta{}, fmt.Errorf("unsupported stock field %q", field)
	}
}

type Equipment struct {
	ID            int32            `json:"id"`
	TenantID      int32            `json:"tenant_id"`
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	PricePerDay   decimal.Decimal  `json:"price_per_day"`
	PricePerHour  *decimal.Decimal `json:"price_per_hour,omitempty"`
	Stock         StockLevels      `json:"stock"`
	MinStockLevel int              `json:"min_stock_level"`
	CreatedOn     time.Time        `json:"created_on"`
	UpdatedOn     time.Time        `json:"updated_on"`
}

// RentableCapacity is the number of units physically eligible for rental,
// ignoring reservations.
func (e *Equipment) RentableCapacity() int {
	return e.Stock.Total - e.Stock.Maintenance - e.Stock.Damaged
}

func (e *Equipment) IsLowStock() bool {
	return e.Stock.Available < e.MinStockLevel
}
