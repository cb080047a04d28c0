// Package stock asks the inventory authority whether a sales line can be
// admitted into a draft. Sufficiency is never decided from local figures;
// stock moves under other sessions.
package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
)

// ErrInsufficientStock is the business denial for an admission check.
var ErrInsufficientStock = errors.New("insufficient stock")

// Verifier is the inventory authority.
type Verifier interface {
	VerifyStockQuantity(ctx context.Context, location, item string, quantity decimal.Decimal) (bool, error)
}

// Request is one admission check. Staged holds the lines already in the
// draft; when Replacing is set, the line at that index is being edited and
// does not count toward the aggregate.
type Request struct {
	Location  string
	ItemName  string
	Quantity  decimal.Decimal
	Staged    []model.LineItem
	Replacing *int
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Aggregate decimal.Decimal
	Reason    string
}

// Err returns ErrInsufficientStock wrapped with the reason for a denied
// decision, nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInsufficientStock, d.Reason)
}

// Aggregate sums the quantity of itemName across staged lines plus the
// candidate. The line at skip, if any, is left out.
func Aggregate(staged []model.LineItem, itemName string, candidate decimal.Decimal, skip *int) decimal.Decimal {
	total := candidate
	for i, line := range staged {
		if skip != nil && *skip == i {
			continue
		}
		if sameItem(line.ItemName, itemName) {
			total = total.Add(line.Quantity)
		}
	}
	return total
}

func sameItem(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Checker runs admission checks against a Verifier.
type Checker struct {
	verifier Verifier
	log      zerolog.Logger
}

// NewChecker creates a Checker.
func NewChecker(v Verifier) *Checker {
	return &Checker{verifier: v, log: logger.WithComponent("stock")}
}

// Check submits the aggregate quantity for req.ItemName at req.Location.
// A denial is a normal Decision, not an error; errors are reserved for
// failed calls.
func (c *Checker) Check(ctx context.Context, req Request) (Decision, error) {
	agg := Aggregate(req.Staged, req.ItemName, req.Quantity, req.Replacing)

	ok, err := c.verifier.VerifyStockQuantity(ctx, req.Location, req.ItemName, agg)
	if err != nil {
		return Decision{}, fmt.Errorf("verifying stock for %q at %s: %w", req.ItemName, req.Location, err)
	}

	d := Decision{Allowed: ok, Aggregate: agg}
	if !ok {
		d.Reason = fmt.Sprintf("%s of %q not available at %s", agg, req.ItemName, req.Location)
	}
	c.log.Debug().
		Str("location", req.Location).
		Str("item", req.ItemName).
		Str("aggregate", agg.String()).
		Bool("allowed", ok).
		Msg("admission check")
	return d, nil
}
