// Package money computes invoice totals from line items, a discount
// percentage and any number of non-compounding levies.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// DisplayPlaces is the number of decimals shown for monetary figures.
const DisplayPlaces = 2

var (
	// ErrDiscountOutOfRange is returned for a discount outside [0, 100].
	ErrDiscountOutOfRange = errors.New("discount percent must be between 0 and 100")

	// ErrNegativeLevyRate is returned for a levy with a rate below zero.
	ErrNegativeLevyRate = errors.New("levy rate must not be negative")
)

var hundred = decimal.NewFromInt(100)

// Percent returns base × rate / 100.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// ComputeTotals derives Totals from its inputs. Levies are applied in
// parallel to the same net base; none of them taxes another. An empty
// item set yields all-zero totals.
//
// No rounding happens here. Callers round with Format when displaying.
func ComputeTotals(items []model.LineItem, discountPercent decimal.Decimal, levies []model.LevySelection) model.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total())
	}

	discount := Percent(subtotal, discountPercent)
	net := subtotal.Sub(discount)

	totals := model.Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		NetTotal:       net,
		LevyAmount:     decimal.Zero,
	}
	if len(levies) > 0 {
		totals.Levies = make([]model.LevyAmount, 0, len(levies))
	}
	for _, levy := range levies {
		amount := Percent(net, levy.RatePercent)
		totals.Levies = append(totals.Levies, model.LevyAmount{
			Label:       levy.Label,
			RatePercent: levy.RatePercent,
			Amount:      amount,
		})
		totals.LevyAmount = totals.LevyAmount.Add(amount)
	}
	totals.GrandTotal = net.Add(totals.LevyAmount)
	return totals
}

// ValidateDiscount checks that d lies in [0, 100].
func ValidateDiscount(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrDiscountOutOfRange, d)
	}
	return nil
}

// ValidateLevies checks every levy rate is non-negative. There is no upper
// bound; aggregate levies may exceed 100%.
func ValidateLevies(levies []model.LevySelection) error {
	for _, levy := range levies {
		if levy.RatePercent.IsNegative() {
			return fmt.Errorf("%w: %q is %s", ErrNegativeLevyRate, levy.Label, levy.RatePercent)
		}
	}
	return nil
}

// Format renders d with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces)
}

// Display is the rounded, printable form of Totals.
type Display struct {
	Subtotal       string
	DiscountAmount string
	NetTotal       string
	LevyAmount     string
	GrandTotal     string
	Levies         []DisplayLevy
}

// DisplayLevy is one levy line as shown to the user.
type DisplayLevy struct {
	Label  string
	Rate   string
	Amount string
}

// Render rounds every figure in t for display.
func Render(t model.Totals) Display {
	d := Display{
		Subtotal:       Format(t.Subtotal),
		DiscountAmount: Format(t.DiscountAmount),
		NetTotal:       Format(t.NetTotal),
		LevyAmount:     Format(t.LevyAmount),
		GrandTotal:     Format(t.GrandTotal),
	}
	for _, l := range t.Levies {
		d.Levies = append(d.Levies, DisplayLevy{
			Label:  l.Label,
			Rate:   l.RatePercent.String(),
			Amount: Format(l.Amount),
		})
	}
	return d
}

// Equal reports whether two Totals carry identical figures.
func Equal(a, b model.Totals) bool {
	if !a.Subtotal.Equal(b.Subtotal) ||
		!a.DiscountAmount.Equal(b.DiscountAmount) ||
		!a.NetTotal.Equal(b.NetTotal) ||
		!a.LevyAmount.Equal(b.LevyAmount) ||
		!a.GrandTotal.Equal(b.GrandTotal) {
		return false
	}
	return true
}

// EqualDisplayed reports whether a and b agree once rounded for display.
// Server totals are compared this way against the client preview.
func EqualDisplayed(a, b model.Totals) bool {
	ra, rb := Render(a), Render(b)
	return ra.NetTotal == rb.NetTotal && ra.GrandTotal == rb.GrandTotal
}
