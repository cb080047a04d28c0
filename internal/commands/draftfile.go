package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/draft"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// draftFile is a draft written out as YAML, read by `totals` and
// `draft submit`.
type draftFile struct {
	Kind              model.DocumentKind    `yaml:"kind"`
	Location          string                `yaml:"location"`
	Counterpart       string                `yaml:"counterpart"`
	Term              model.PaymentTerm     `yaml:"term"`
	SettlementAccount string                `yaml:"settlement_account"`
	DueDate           *time.Time            `yaml:"due_date"`
	PartPayment       decimal.Decimal       `yaml:"part_payment"`
	Discount          decimal.Decimal       `yaml:"discount"`
	Levies            []model.LevySelection `yaml:"levies"`
	Lines             []model.LineItem      `yaml:"lines"`
}

func loadDraftFile(path string) (draftFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return draftFile{}, fmt.Errorf("reading draft: %w", err)
	}
	var df draftFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return draftFile{}, fmt.Errorf("parsing draft: %w", err)
	}
	if df.Kind == "" {
		df.Kind = model.KindSale
	}
	return df, nil
}

// levies returns the file's levies, or defaults when the file names
// none. An explicit empty list means no levies.
func (df draftFile) levies(defaults []model.LevySelection) []model.LevySelection {
	if df.Levies == nil {
		return defaults
	}
	return df.Levies
}

// apply replays the file onto b in the order a user would fill the form:
// header and terms first, then lines.
func (df draftFile) apply(ctx context.Context, b *draft.Builder) error {
	if err := b.SetLocation(df.Location); err != nil {
		return err
	}
	if err := b.SetCounterpart(df.Counterpart); err != nil {
		return err
	}
	if err := b.SetTerm(df.Term); err != nil {
		return err
	}
	if df.SettlementAccount != "" {
		if err := b.SetSettlementAccount(df.SettlementAccount); err != nil {
			return err
		}
	}
	if df.DueDate != nil {
		if err := b.SetDueDate(*df.DueDate); err != nil {
			return err
		}
	}
	if !df.PartPayment.IsZero() {
		if err := b.SetPartPayment(df.PartPayment); err != nil {
			return err
		}
	}
	if err := b.SetDiscount(df.Discount); err != nil {
		return err
	}
	if df.Levies != nil {
		if err := b.SetLevies(df.Levies); err != nil {
			return err
		}
	}
	for i, line := range df.Lines {
		if err := b.AddLine(ctx, line); err != nil {
			return fmt.Errorf("line %d (%s): %w", i+1, line.ItemName, err)
		}
	}
	return nil
}

func printTotals(w io.Writer, t model.Totals) {
	d := money.Render(t)
	row := func(label, amount string) {
		fmt.Fprintf(w, "%-20s %12s\n", label, amount)
	}
	row("Subtotal", d.Subtotal)
	row("Discount", d.DiscountAmount)
	row("Net total", d.NetTotal)
	for _, l := range d.Levies {
		row(fmt.Sprintf("%s (%s%%)", l.Label, l.Rate), l.Amount)
	}
	row("Grand total", d.GrandTotal)
}
