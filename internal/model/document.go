package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes sales from purchases.
type DocumentKind string

const (
	KindSale     DocumentKind = "sale"
	KindPurchase DocumentKind = "purchase"
)

// DecreasesStock reports whether committing a document of this kind
// consumes inventory.
func (k DocumentKind) DecreasesStock() bool {
	return k == KindSale
}

// DocumentStatus is the lifecycle state of a submitted document.
// Reversed is terminal.
type DocumentStatus string

const (
	StatusActive   DocumentStatus = "active"
	StatusReversed DocumentStatus = "reversed"
)

// PaymentTerm selects which settlement fields a document needs.
type PaymentTerm string

const (
	TermNone        PaymentTerm = ""
	TermFullPayment PaymentTerm = "full_payment"
	TermPartPayment PaymentTerm = "part_payment"
	TermCredit      PaymentTerm = "credit"
)

// Valid reports whether t is a selectable term.
func (t PaymentTerm) Valid() bool {
	switch t {
	case TermFullPayment, TermPartPayment, TermCredit:
		return true
	}
	return false
}

// Settlement carries the term-specific companion fields.
type Settlement struct {
	Term              PaymentTerm     `json:"term"`
	SettlementAccount string          `json:"settlementAccount,omitempty"`
	DueDate           *time.Time      `json:"dueDate,omitempty"`
	PartPayment       decimal.Decimal `json:"partPayment"`
}

// TransactionDocument is a submitted sale or purchase. After submission the
// ledger owns it; the client only holds a read-only view.
type TransactionDocument struct {
	Code            string          `json:"code"`
	Kind            DocumentKind    `json:"kind"`
	Date            time.Time       `json:"date"`
	Location        string          `json:"location"`
	Counterpart     string          `json:"counterpart"`
	Settlement      Settlement      `json:"settlement"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	LevySelections  []LevySelection `json:"levySelections,omitempty"`
	LineItems       []LineItem      `json:"lineItems"`
	Totals          Totals          `json:"totals"`
	Status          DocumentStatus  `json:"status"`
}

// DueDate returns the settlement due date, or the zero time.
func (d TransactionDocument) DueDate() time.Time {
	if d.Settlement.DueDate == nil {
		return time.Time{}
	}
	return *d.Settlement.DueDate
}

// Reversed reports whether the document is in its terminal state.
func (d TransactionDocument) Reversed() bool {
	return d.Status == StatusReversed
}

// Receipt is the ledger's answer to a submission. Its totals are
// authoritative and may differ from the client preview.
type Receipt struct {
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	Totals    Totals    `json:"totals"`
}

// ReversalResult is the ledger's answer to a reversal request. A false
// Success with a Message is a business refusal, not a failed call.
type ReversalResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
