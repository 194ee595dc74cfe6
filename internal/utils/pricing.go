package utils

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"equipment-rental-backend/internal/domain"
)

// PriceQuote is the price of one booking line.
type PriceQuote struct {
	PricePerDay decimal.Decimal `json:"price_per_day"`
	Days        int             `json:"days"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// DailyPricing prices a line as pricePerDay * days * quantity.
type DailyPricing struct{}

func NewDailyPricing() *DailyPricing {
	return &DailyPricing{}
}

// CalculateRentalPrice quotes qty units of equipment for the given number
// of inclusive days.
func (p *DailyPricing) CalculateRentalPrice(ctx context.Context, equipment *domain.Equipment, days, quantity int) (*PriceQuote, error) {
	if days < 1 {
		return nil, fmt.Errorf("rental must last at least one day, got %d", days)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	return &PriceQuote{
		PricePerDay: equipment.PricePerDay,
		Days:        days,
		Quantity:    quantity,
		TotalPrice:  LineTotal(equipment.PricePerDay, quantity, days),
	}, nil
}

// LineTotal is unitPrice * quantity * days.
func LineTotal(unitPrice decimal.Decimal, quantity, days int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Mul(decimal.NewFromInt(int64(days)))
}
