package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockLevels_Apply(t *testing.T) {
	start := StockLevels{Total: 5, Available: 5}

	t.Run("Reserve then release round trip", func(t *testing.T) {
		reserved, err := start.Apply(ReserveDelta(3))
		assert.NoError(t, err)
		assert.Equal(t, 2, reserved.Available)
		assert.Equal(t, 3, reserved.Reserved)
		assert.True(t, reserved.Balanced())

		back, err := reserved.Apply(ReleaseDelta(3))
		assert.NoError(t, err)
		assert.Equal(t, start, back)
	})

	t.Run("Damage keeps the total", func(t *testing.T) {
		s := StockLevels{Total: 5, Available: 1, Reserved: 4}
		next, err := s.Apply(DamageDelta(1))
		assert.NoError(t, err)
		assert.Equal(t, 3, next.Reserved)
		assert.Equal(t, 1, next.Damaged)
		assert.Equal(t, 5, next.Total)
	})

	t.Run("Negative counter rejected", func(t *testing.T) {
		_, err := start.Apply(ReleaseDelta(1))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "negative")
	})

	t.Run("Unbalanced delta rejected", func(t *testing.T) {
		_, err := start.Apply(StockDelta{Available: -1})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unbalanced")
	})
}

func TestAdjustmentDelta(t *testing.T) {
	s := StockLevels{Total: 5, Available: 5}

	d, err := AdjustmentDelta(StockFieldMaintenance, 2)
	assert.NoError(t, err)
	next, err := s.Apply(d)
	assert.NoError(t, err)
	assert.Equal(t, StockLevels{Total: 5, Available: 3, Maintenance: 2}, next)

	d, err = AdjustmentDelta(StockFieldTotal, 3)
	assert.NoError(t, err)
	next, err = next.Apply(d)
	assert.NoError(t, err)
	assert.Equal(t, 8, next.Total)
	assert.Equal(t, 6, next.Available)

	_, err = AdjustmentDelta(StockFieldReserved, 1)
	assert.Error(t, err)
}

func TestEquipment_RentableCapacity(t *testing.T) {
	e := &Equipment{Stock: StockLevels{Total: 10, Available: 4, Reserved: 3, Maintenance: 2, Damaged: 1}, MinStockLevel: 5}
	assert.Equal(t, 7, e.RentableCapacity())
	assert.True(t, e.IsLowStock())
}
