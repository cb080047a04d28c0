// Package terms decides which settlement fields a payment term requires
// and clears fields that stop applying when the term changes.
package terms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

var (
	// ErrNoTerm is returned when no payment term has been selected.
	ErrNoTerm = errors.New("payment term is required")

	// ErrUnknownTerm is returned for a term outside the closed set.
	ErrUnknownTerm = errors.New("unknown payment term")

	// ErrMissingField is returned when a field the term requires is empty.
	ErrMissingField = errors.New("required settlement field missing")
)

// Field names one term-dependent field.
type Field string

const (
	FieldSettlementAccount Field = "settlement_account"
	FieldDueDate           Field = "due_date"
	FieldPartPayment       Field = "part_payment"
)

// Requirements is one row of the required-field matrix.
type Requirements struct {
	SettlementAccount bool
	DueDate           bool
	PartPayment       bool
}

// Fields lists the required fields in matrix column order.
func (r Requirements) Fields() []Field {
	var out []Field
	if r.SettlementAccount {
		out = append(out, FieldSettlementAccount)
	}
	if r.DueDate {
		out = append(out, FieldDueDate)
	}
	if r.PartPayment {
		out = append(out, FieldPartPayment)
	}
	return out
}

var matrix = map[model.PaymentTerm]Requirements{
	model.TermFullPayment: {SettlementAccount: true},
	model.TermPartPayment: {SettlementAccount: true, DueDate: true, PartPayment: true},
	model.TermCredit:      {DueDate: true},
}

// Require returns the requirements row for term. TermNone requires
// nothing; it is rejected separately by Validate.
func Require(term model.PaymentTerm) Requirements {
	return matrix[term]
}

// State is the term selection plus its companion fields.
type State struct {
	settlement model.Settlement
}

// NewState starts with no term selected.
func NewState() State {
	return State{}
}

// FromSettlement wraps an existing settlement, clearing any field its
// term does not use.
func FromSettlement(s model.Settlement) State {
	return State{settlement: s}.WithTerm(s.Term)
}

// Term returns the selected term.
func (s State) Term() model.PaymentTerm {
	return s.settlement.Term
}

// Requirements returns the row of the matrix for the current term.
func (s State) Requirements() Requirements {
	return Require(s.settlement.Term)
}

// Settlement returns the current fields.
func (s State) Settlement() model.Settlement {
	out := s.settlement
	if out.DueDate != nil {
		d := *out.DueDate
		out.DueDate = &d
	}
	return out
}

// WithTerm switches terms. Any field the new term does not require is
// reset so no stale value from a previous term leaks into submission.
func (s State) WithTerm(term model.PaymentTerm) State {
	req := Require(term)
	out := State{settlement: s.Settlement()}
	out.settlement.Term = term
	if !req.SettlementAccount {
		out.settlement.SettlementAccount = ""
	}
	if !req.DueDate {
		out.settlement.DueDate = nil
	}
	if !req.PartPayment {
		out.settlement.PartPayment = decimal.Zero
	}
	return out
}

// WithSettlementAccount sets the account receiving payment. Ignored when
// the term does not use it.
func (s State) WithSettlementAccount(code string) State {
	if !s.Requirements().SettlementAccount {
		return s
	}
	out := State{settlement: s.Settlement()}
	out.settlement.SettlementAccount = strings.TrimSpace(code)
	return out
}

// WithDueDate sets the due date. Ignored when the term does not use it.
func (s State) WithDueDate(due time.Time) State {
	if !s.Requirements().DueDate {
		return s
	}
	out := State{settlement: s.Settlement()}
	out.settlement.DueDate = &due
	return out
}

// WithPartPayment sets the amount paid up front. Ignored unless the term
// is PartPayment.
func (s State) WithPartPayment(amount decimal.Decimal) State {
	if !s.Requirements().PartPayment {
		return s
	}
	out := State{settlement: s.Settlement()}
	out.settlement.PartPayment = amount
	return out
}

// Missing lists required fields that are empty.
func (s State) Missing() []Field {
	var missing []Field
	req := s.Requirements()
	if req.SettlementAccount && s.settlement.SettlementAccount == "" {
		missing = append(missing, FieldSettlementAccount)
	}
	if req.DueDate && (s.settlement.DueDate == nil || s.settlement.DueDate.IsZero()) {
		missing = append(missing, FieldDueDate)
	}
	if req.PartPayment && !s.settlement.PartPayment.IsPositive() {
		missing = append(missing, FieldPartPayment)
	}
	return missing
}

// Validate checks a term is selected and all of its fields are present.
func (s State) Validate() error {
	if s.settlement.Term == model.TermNone {
		return ErrNoTerm
	}
	if !s.settlement.Term.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTerm, s.settlement.Term)
	}
	if missing := s.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(names, ", "))
	}
	return nil
}
