package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

type recordingVerifier struct {
	available map[string]decimal.Decimal
	asked     []decimal.Decimal
	err       error
}

func (v *recordingVerifier) VerifyStockQuantity(ctx context.Context, location, item string, qty decimal.Decimal) (bool, error) {
	v.asked = append(v.asked, qty)
	if v.err != nil {
		return false, v.err
	}
	return qty.LessThanOrEqual(v.available[location+"/"+item]), nil
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(name, q string) model.LineItem {
	return model.LineItem{ItemName: name, Quantity: qty(q), UnitPrice: decimal.NewFromInt(1)}
}

func TestCheck_SubmitsAggregate(t *testing.T) {
	v := &recordingVerifier{available: map[string]decimal.Decimal{"Accra/Widget": qty("10")}}
	c := NewChecker(v)

	d, err := c.Check(context.Background(), Request{
		Location: "Accra",
		ItemName: "Widget",
		Quantity: qty("3"),
		Staged:   []model.LineItem{line("Widget", "5"), line("Gadget", "4")},
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	require.Len(t, v.asked, 1)
	assert.Equal(t, "8", v.asked[0].String(), "aggregate, not the candidate alone")
	assert.NoError(t, d.Err())
}

func TestCheck_Denied(t *testing.T) {
	v := &recordingVerifier{available: map[string]decimal.Decimal{"Accra/Widget": qty("7")}}
	c := NewChecker(v)

	d, err := c.Check(context.Background(), Request{
		Location: "Accra",
		ItemName: "Widget",
		Quantity: qty("3"),
		Staged:   []model.LineItem{line("Widget", "5")},
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err(), ErrInsufficientStock)
	assert.Contains(t, d.Reason, "8")
}

func TestCheck_EditExcludesReplacedLine(t *testing.T) {
	v := &recordingVerifier{available: map[string]decimal.Decimal{"Accra/Widget": qty("100")}}
	c := NewChecker(v)

	idx := 0
	_, err := c.Check(context.Background(), Request{
		Location:  "Accra",
		ItemName:  "Widget",
		Quantity:  qty("6"),
		Staged:    []model.LineItem{line("Widget", "5"), line("Widget", "2")},
		Replacing: &idx,
	})
	require.NoError(t, err)
	assert.Equal(t, "8", v.asked[0].String())
}

func TestCheck_CallFailure(t *testing.T) {
	v := &recordingVerifier{err: errors.New("timeout")}
	c := NewChecker(v)

	_, err := c.Check(context.Background(), Request{Location: "Accra", ItemName: "Widget", Quantity: qty("1")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
}

func TestAggregate(t *testing.T) {
	staged := []model.LineItem{line("Widget", "5"), line(" widget ", "1.5"), line("Gadget", "9")}
	assert.Equal(t, "9.5", Aggregate(staged, "Widget", qty("3"), nil).String())
	assert.Equal(t, "2", Aggregate(nil, "Widget", qty("2"), nil).String())

	skip := 2
	assert.Equal(t, "1", Aggregate(staged, "Gadget", qty("1"), &skip).String())
}
