package model

import "github.com/shopspring/decimal"

// LineItem is one row of a draft transaction.
type LineItem struct {
	ItemCode   string          `json:"itemCode" yaml:"item_code"`
	ItemName   string          `json:"itemName" yaml:"item_name"`
	Category   string          `json:"category,omitempty" yaml:"category,omitempty"`
	Brand      string          `json:"brand,omitempty" yaml:"brand,omitempty"`
	Model      string          `json:"model,omitempty" yaml:"model,omitempty"`
	UnitSuffix string          `json:"unitSuffix,omitempty" yaml:"unit_suffix,omitempty"`
	Quantity   decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice" yaml:"unit_price"`
}

// Total returns quantity × unit price. It is never stored.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// LevySelection is a named percentage charge applied to the net total.
type LevySelection struct {
	Label       string          `json:"label" yaml:"label"`
	RatePercent decimal.Decimal `json:"ratePercent" yaml:"rate"`
}

// LevyAmount is the computed charge for a single LevySelection.
type LevyAmount struct {
	Label       string          `json:"label"`
	RatePercent decimal.Decimal `json:"ratePercent"`
	Amount      decimal.Decimal `json:"amount"`
}

// Totals is derived from line items, discount and levies.
// Amounts carry full precision; round only for display.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	NetTotal       decimal.Decimal `json:"netTotal"`
	LevyAmount     decimal.Decimal `json:"levyAmount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	Levies         []LevyAmount    `json:"levies,omitempty"`
}
