// internal/models/pricing_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPriceTableSums(t *testing.T) {
	table := DefaultPriceTable()
	assert.NoError(t, table.Validate())

	assert.Equal(t, 2499, table[ProductTypeTshirt].Total)
	assert.Equal(t, 3999, table[ProductTypeHoodie].Total)
	assert.Equal(t, 1499, table[ProductTypeMug].Total)
}

func TestPriceTableValidateRejectsBrokenSum(t *testing.T) {
	table := DefaultPriceTable()
	table[ProductTypeHoodie] = PriceStructure{BasePrice: 2499, Markup: 1500, Total: 4000}

	err := table.Validate()
	assert.ErrorContains(t, err, "hoodie")
}

func TestPriceTableValidateRejectsMissingEntry(t *testing.T) {
	table := DefaultPriceTable()
	delete(table, ProductTypeMug)

	assert.ErrorContains(t, table.Validate(), "mug")
}

func TestTotalForFallsBackToTshirt(t *testing.T) {
	table := DefaultPriceTable()

	assert.Equal(t, 1499, table.TotalFor(ProductTypeMug))
	assert.Equal(t, 2499, table.TotalFor(ProductType("poster")))
}

func TestProductTypeValid(t *testing.T) {
	assert.True(t, ProductTypeTshirt.Valid())
	assert.True(t, ProductTypeHoodie.Valid())
	assert.True(t, ProductTypeMug.Valid())
	assert.False(t, ProductType("poster").Valid())
}

func TestValidApparelSize(t *testing.T) {
	for _, size := range ApparelSizes {
		assert.True(t, ValidApparelSize(size))
	}
	assert.False(t, ValidApparelSize("XXL"))
	assert.False(t, ValidApparelSize(SizeOneSize))
}
