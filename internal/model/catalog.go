package model

import "github.com/shopspring/decimal"

// CatalogItem is one sellable item as listed by the item search.
type CatalogItem struct {
	Code       string          `json:"code" yaml:"code"`
	Name       string          `json:"name" yaml:"name"`
	Category   string          `json:"category,omitempty" yaml:"category,omitempty"`
	Brand      string          `json:"brand,omitempty" yaml:"brand,omitempty"`
	Model      string          `json:"model,omitempty" yaml:"model,omitempty"`
	UnitSuffix string          `json:"unitSuffix,omitempty" yaml:"unit_suffix,omitempty"`
	UnitPrice  decimal.Decimal `json:"unitPrice" yaml:"unit_price"`
}

// LineItem starts a draft line for quantity units of the item at its list
// price.
func (c CatalogItem) LineItem(quantity decimal.Decimal) LineItem {
	return LineItem{
		ItemCode:   c.Code,
		ItemName:   c.Name,
		Category:   c.Category,
		Brand:      c.Brand,
		Model:      c.Model,
		UnitSuffix: c.UnitSuffix,
		Quantity:   quantity,
		UnitPrice:  c.UnitPrice,
	}
}
