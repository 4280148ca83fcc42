// internal/models/pricing.go
package models

import "fmt"

// PriceStructure holds USD cents per product type. Total is the
// customer-facing price and must equal BasePrice + Markup; the invariant
// is checked once at configuration time, not per request.
type PriceStructure struct {
	BasePrice int `json:"base_price"` // what the print provider charges us
	Markup    int `json:"markup"`     // our margin
	Total     int `json:"total"`      // what customers pay
}

type PriceTable map[ProductType]PriceStructure

func DefaultPriceTable() PriceTable {
	return PriceTable{
		ProductTypeTshirt: {BasePrice: 1499, Markup: 1000, Total: 2499},
		ProductTypeHoodie: {BasePrice: 2499, Markup: 1500, Total: 3999},
		ProductTypeMug:    {BasePrice: 999, Markup: 500, Total: 1499},
	}
}

func (t PriceTable) Validate() error {
	for _, pt := range []ProductType{ProductTypeTshirt, ProductTypeHoodie, ProductTypeMug} {
		p, ok := t[pt]
		if !ok {
			return fmt.Errorf("price table missing entry for %s", pt)
		}
		if p.Total != p.BasePrice+p.Markup {
			return fmt.Errorf("price table for %s: total %d != base %d + markup %d",
				pt, p.Total, p.BasePrice, p.Markup)
		}
	}
	return nil
}

// TotalFor returns the customer price for a product type, falling back to
// the t-shirt price for unknown types.
func (t PriceTable) TotalFor(pt ProductType) int {
	if p, ok := t[pt]; ok {
		return p.Total
	}
	return t[ProductTypeTshirt].Total
}
