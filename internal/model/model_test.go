package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineItemTotal(t *testing.T) {
	tests := []struct {
		qty, price string
		want       string
	}{
		{"3", "10.00", "30"},
		{"2", "5.00", "10"},
		{"1.5", "0.333", "0.4995"},
		{"4", "0", "0"},
	}
	for _, tt := range tests {
		item := LineItem{
			Quantity:  decimal.RequireFromString(tt.qty),
			UnitPrice: decimal.RequireFromString(tt.price),
		}
		assert.True(t, decimal.RequireFromString(tt.want).Equal(item.Total()), "%s x %s", tt.qty, tt.price)
	}
}

func TestAccountLevelValid(t *testing.T) {
	assert.True(t, LevelParent.Valid())
	assert.True(t, LevelSub.Valid())
	assert.True(t, LevelReal.Valid())
	assert.False(t, AccountLevel("leaf").Valid())
}

func TestPaymentTermValid(t *testing.T) {
	assert.True(t, TermFullPayment.Valid())
	assert.True(t, TermPartPayment.Valid())
	assert.True(t, TermCredit.Valid())
	assert.False(t, TermNone.Valid())
}

func TestDocumentKindDecreasesStock(t *testing.T) {
	assert.True(t, KindSale.DecreasesStock())
	assert.False(t, KindPurchase.DecreasesStock())
}

func TestCatalogItemLineItem(t *testing.T) {
	item := CatalogItem{Code: "S-1", Name: "Sprocket", Brand: "Gearco", UnitSuffix: "pcs", UnitPrice: decimal.RequireFromString("2.50")}

	line := item.LineItem(decimal.NewFromInt(4))
	assert.Equal(t, "S-1", line.ItemCode)
	assert.Equal(t, "Sprocket", line.ItemName)
	assert.Equal(t, "Gearco", line.Brand)
	assert.Equal(t, "pcs", line.UnitSuffix)
	assert.True(t, line.Total().Equal(decimal.NewFromInt(10)))
}
