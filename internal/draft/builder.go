// Package draft accumulates line items, settlement terms, discount and
// levies for one in-progress sale or purchase and submits it to the
// ledger.
package draft

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/stock"
	"github.com/cleared-dev/tally/internal/terms"
)

// State is where a draft sits in its lifecycle.
type State int

const (
	StateEmpty State = iota
	StateAccumulating
	StateSubmittable
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateSubmittable:
		return "submittable"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Admitter decides whether a sales line may enter the draft.
type Admitter interface {
	Check(ctx context.Context, req stock.Request) (stock.Decision, error)
}

// Submitter hands a finished document to the ledger.
type Submitter interface {
	SubmitTransaction(ctx context.Context, doc model.TransactionDocument) (model.Receipt, error)
}

// Options configures a Builder.
type Options struct {
	Kind model.DocumentKind

	// Admission is required for kinds that decrease stock.
	Admission Admitter
	Submitter Submitter

	// PriceEditable is false when the user's role may not change prices;
	// line prices are then read-only, not zeroed.
	PriceEditable bool

	// DefaultLevies are applied to every new draft.
	DefaultLevies []model.LevySelection

	Now    func() time.Time
	Logger *zerolog.Logger
}

// Builder is one draft. It is safe for concurrent use; remote calls run
// without holding the lock and their results are checked against the
// draft's revision before being applied.
type Builder struct {
	kind          model.DocumentKind
	admission     Admitter
	submitter     Submitter
	priceEditable bool
	defaultLevies []model.LevySelection
	now           func() time.Time
	baseLog       zerolog.Logger

	mu          sync.Mutex
	log         zerolog.Logger
	id          uuid.UUID
	location    string
	counterpart string
	terms       terms.State
	lines       []model.LineItem
	discount    decimal.Decimal
	levies      []model.LevySelection
	revision    uint64
	submitting  bool
	submitted   bool
	lastReceipt *model.Receipt
}

// New creates an empty draft.
func New(opts Options) (*Builder, error) {
	switch opts.Kind {
	case model.KindSale, model.KindPurchase:
	default:
		return nil, fmt.Errorf("unknown document kind %q", opts.Kind)
	}
	if opts.Kind.DecreasesStock() && opts.Admission == nil {
		return nil, fmt.Errorf("%s drafts need an admission checker", opts.Kind)
	}
	if opts.Submitter == nil {
		return nil, errors.New("draft needs a submitter")
	}
	if err := money.ValidateLevies(opts.DefaultLevies); err != nil {
		return nil, err
	}

	b := &Builder{
		kind:          opts.Kind,
		admission:     opts.Admission,
		submitter:     opts.Submitter,
		priceEditable: opts.PriceEditable,
		defaultLevies: slices.Clone(opts.DefaultLevies),
		now:           opts.Now,
		baseLog:       logger.WithComponent("draft"),
	}
	if b.now == nil {
		b.now = time.Now
	}
	if opts.Logger != nil {
		b.baseLog = *opts.Logger
	}
	b.clear()
	return b, nil
}

// clear resets everything but configuration. Caller holds mu.
func (b *Builder) clear() {
	b.id = uuid.New()
	b.location = ""
	b.counterpart = ""
	b.terms = terms.NewState()
	b.lines = nil
	b.discount = decimal.Zero
	b.levies = slices.Clone(b.defaultLevies)
	b.revision++
	b.log = b.baseLog.With().Str("draft", b.id.String()).Logger()
}

// ID identifies the current draft. It changes after each submission.
func (b *Builder) ID() uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// Kind returns the document kind.
func (b *Builder) Kind() model.DocumentKind {
	return b.kind
}

// PriceEditable reports whether line prices may be changed.
func (b *Builder) PriceEditable() bool {
	return b.priceEditable
}

// State derives the lifecycle state.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state()
}

func (b *Builder) state() State {
	switch {
	case b.submitted:
		return StateSubmitted
	case len(b.lines) == 0:
		return StateEmpty
	case b.validate() == nil:
		return StateSubmittable
	}
	return StateAccumulating
}

// LastReceipt returns the receipt of the most recent successful submission.
func (b *Builder) LastReceipt() (model.Receipt, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastReceipt == nil {
		return model.Receipt{}, false
	}
	return *b.lastReceipt, true
}

// Lines returns a copy of the staged line items.
func (b *Builder) Lines() []model.LineItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.lines)
}

// Location returns the selected location.
func (b *Builder) Location() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.location
}

// Counterpart returns the selected customer or supplier.
func (b *Builder) Counterpart() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counterpart
}

// Terms returns the payment-term state.
func (b *Builder) Terms() terms.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terms
}

// Totals recomputes the preview from the current inputs.
func (b *Builder) Totals() model.Totals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totals()
}

func (b *Builder) totals() model.Totals {
	return money.ComputeTotals(b.lines, b.discount, b.levies)
}

// mutable is called with mu held before any change.
func (b *Builder) mutable() error {
	if b.submitting {
		return ErrSubmitInProgress
	}
	if b.submitted {
		b.submitted = false
	}
	return nil
}

// SetLocation selects where the transaction happens. A sales draft with
// staged lines keeps its location, since those lines were admitted
// against that location's stock.
func (b *Builder) SetLocation(location string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	location = strings.TrimSpace(location)
	if location == b.location {
		return nil
	}
	if b.kind.DecreasesStock() && len(b.lines) > 0 {
		return ErrLocationLocked
	}
	b.location = location
	b.revision++
	return nil
}

// SetCounterpart selects the customer or supplier.
func (b *Builder) SetCounterpart(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == b.counterpart {
		return nil
	}
	b.counterpart = name
	b.revision++
	return nil
}

// SetTerm switches the payment term, clearing fields the new term does
// not use.
func (b *Builder) SetTerm(term model.PaymentTerm) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	if term != model.TermNone && !term.Valid() {
		return fmt.Errorf("%w: %q", terms.ErrUnknownTerm, term)
	}
	if term == b.terms.Term() {
		return nil
	}
	b.terms = b.terms.WithTerm(term)
	b.revision++
	return nil
}

// SetSettlementAccount records the account the payment settles into.
func (b *Builder) SetSettlementAccount(code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	b.terms = b.terms.WithSettlementAccount(code)
	return nil
}

// SetDueDate records when an outstanding balance falls due.
func (b *Builder) SetDueDate(due time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	b.terms = b.terms.WithDueDate(due)
	return nil
}

// SetPartPayment records the amount paid up front.
func (b *Builder) SetPartPayment(amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	b.terms = b.terms.WithPartPayment(amount)
	return nil
}

// SetDiscount sets the discount percentage.
func (b *Builder) SetDiscount(percent decimal.Decimal) error {
	if err := money.ValidateDiscount(percent); err != nil {
		return ValidationErrors{{Field: "discount", Err: err}}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	b.discount = percent
	return nil
}

// Discount returns the discount percentage.
func (b *Builder) Discount() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.discount
}

// SetLevies replaces the selected levies.
func (b *Builder) SetLevies(levies []model.LevySelection) error {
	if err := money.ValidateLevies(levies); err != nil {
		return ValidationErrors{{Field: "levies", Err: err}}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	b.levies = slices.Clone(levies)
	return nil
}

// Levies returns the selected levies.
func (b *Builder) Levies() []model.LevySelection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.levies)
}

// checkLine validates a candidate line. Caller holds mu.
func (b *Builder) checkLine(item model.LineItem) ValidationErrors {
	var verrs ValidationErrors
	if b.location == "" {
		verrs = append(verrs, ValidationError{Field: "location", Err: ErrLocationRequired})
	}
	if b.counterpart == "" {
		verrs = append(verrs, ValidationError{Field: "counterpart", Err: ErrCounterpartRequired})
	}
	if b.terms.Term() == model.TermNone {
		verrs = append(verrs, ValidationError{Field: "term", Err: terms.ErrNoTerm})
	}
	if strings.TrimSpace(item.ItemName) == "" {
		verrs = append(verrs, ValidationError{Field: "item", Err: ErrItemRequired})
	}
	if item.Quantity.LessThan(decimal.NewFromInt(1)) {
		verrs = append(verrs, ValidationError{Field: "quantity", Err: ErrInvalidQuantity})
	}
	switch {
	case item.UnitPrice.IsNegative():
		verrs = append(verrs, ValidationError{Field: "unit_price", Err: ErrNegativePrice})
	case item.UnitPrice.IsZero() && b.priceEditable:
		// Only a read-only catalog price may be zero.
		verrs = append(verrs, ValidationError{Field: "unit_price", Err: ErrZeroPrice})
	}
	return verrs
}

// AddLine admits item into the draft. For sales the aggregate quantity of
// the item across the draft is checked with the inventory authority first;
// on denial the draft is left unchanged.
func (b *Builder) AddLine(ctx context.Context, item model.LineItem) error {
	return b.stage(ctx, item, nil)
}

// EditLine replaces the line at index. Sales edits are re-admitted.
func (b *Builder) EditLine(ctx context.Context, index int, item model.LineItem) error {
	return b.stage(ctx, item, &index)
}

func (b *Builder) stage(ctx context.Context, item model.LineItem, index *int) error {
	b.mu.Lock()
	if err := b.mutable(); err != nil {
		b.mu.Unlock()
		return err
	}
	if index != nil {
		if *index < 0 || *index >= len(b.lines) {
			b.mu.Unlock()
			return fmt.Errorf("%w %d", ErrLineIndex, *index)
		}
		if !b.priceEditable && !item.UnitPrice.Equal(b.lines[*index].UnitPrice) {
			b.mu.Unlock()
			return ValidationErrors{{Field: "unit_price", Err: ErrPriceReadOnly}}
		}
	}
	if verrs := b.checkLine(item); len(verrs) > 0 {
		b.mu.Unlock()
		return verrs
	}

	if !b.kind.DecreasesStock() {
		b.apply(item, index)
		b.mu.Unlock()
		return nil
	}

	rev := b.revision
	req := stock.Request{
		Location:  b.location,
		ItemName:  item.ItemName,
		Quantity:  item.Quantity,
		Staged:    slices.Clone(b.lines),
		Replacing: index,
	}
	b.mu.Unlock()

	decision, err := b.admission.Check(ctx, req)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revision != rev || b.submitting {
		b.log.Info().Str("item", item.ItemName).Msg("discarding admission result for changed draft")
		return ErrStaleAdmission
	}
	if !decision.Allowed {
		b.log.Info().Str("item", item.ItemName).Str("reason", decision.Reason).Msg("line denied")
		return decision.Err()
	}
	b.apply(item, index)
	return nil
}

// apply stages item. Caller holds mu.
func (b *Builder) apply(item model.LineItem, index *int) {
	if index != nil {
		b.lines[*index] = item
	} else {
		b.lines = append(b.lines, item)
	}
	b.revision++
	b.log.Debug().Str("item", item.ItemName).Str("quantity", item.Quantity.String()).Int("lines", len(b.lines)).Msg("line staged")
}

// RemoveLine drops the line at index.
func (b *Builder) RemoveLine(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mutable(); err != nil {
		return err
	}
	if index < 0 || index >= len(b.lines) {
		return fmt.Errorf("%w %d", ErrLineIndex, index)
	}
	b.lines = slices.Delete(b.lines, index, index+1)
	b.revision++
	return nil
}

// Validate reports every rule blocking submission.
func (b *Builder) Validate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validate()
}

func (b *Builder) validate() error {
	var verrs ValidationErrors
	if len(b.lines) == 0 {
		verrs = append(verrs, ValidationError{Field: "lines", Err: ErrNoLines})
	}
	if b.location == "" {
		verrs = append(verrs, ValidationError{Field: "location", Err: ErrLocationRequired})
	}
	if b.counterpart == "" {
		verrs = append(verrs, ValidationError{Field: "counterpart", Err: ErrCounterpartRequired})
	}
	if err := b.terms.Validate(); err != nil {
		verrs = append(verrs, ValidationError{Field: "term", Err: err})
	} else if b.terms.Requirements().PartPayment {
		paid := b.terms.Settlement().PartPayment
		if !paid.LessThan(b.totals().GrandTotal) {
			verrs = append(verrs, ValidationError{Field: "part_payment", Err: ErrPartPaymentRange})
		}
	}
	return verrs.orNil()
}

// Document builds the document that Submit would send.
func (b *Builder) Document() model.TransactionDocument {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.document()
}

func (b *Builder) document() model.TransactionDocument {
	return model.TransactionDocument{
		Kind:            b.kind,
		Date:            b.now(),
		Location:        b.location,
		Counterpart:     b.counterpart,
		Settlement:      b.terms.Settlement(),
		DiscountPercent: b.discount,
		LevySelections:  slices.Clone(b.levies),
		LineItems:       slices.Clone(b.lines),
		Totals:          b.totals(),
		Status:          model.StatusActive,
	}
}

// Submit sends the draft to the ledger. A second call while one is in
// flight returns ErrSubmitInProgress. On failure the draft is unchanged;
// on success it is cleared and the ledger's receipt returned.
func (b *Builder) Submit(ctx context.Context) (model.Receipt, error) {
	b.mu.Lock()
	if b.submitting {
		b.mu.Unlock()
		return model.Receipt{}, ErrSubmitInProgress
	}
	if err := b.validate(); err != nil {
		b.mu.Unlock()
		return model.Receipt{}, err
	}
	doc := b.document()
	b.submitting = true
	log := b.log
	b.mu.Unlock()

	log.Info().Str("kind", string(doc.Kind)).Int("lines", len(doc.LineItems)).Str("grand_total", money.Format(doc.Totals.GrandTotal)).Msg("submitting draft")
	receipt, err := b.submitter.SubmitTransaction(ctx, doc)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitting = false
	if err != nil {
		log.Error().Err(err).Msg("submission failed, draft kept")
		return model.Receipt{}, fmt.Errorf("submitting %s: %w", doc.Kind, err)
	}

	if !money.EqualDisplayed(doc.Totals, receipt.Totals) {
		log.Warn().
			Str("code", receipt.Code).
			Str("preview", money.Format(doc.Totals.GrandTotal)).
			Str("ledger", money.Format(receipt.Totals.GrandTotal)).
			Msg("ledger totals differ from preview")
	}
	log.Info().Str("code", receipt.Code).Msg("draft submitted")

	b.clear()
	b.submitted = true
	b.lastReceipt = &receipt
	return receipt, nil
}

// Reset discards the draft. It fails while a submission is in flight.
func (b *Builder) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitting {
		return ErrSubmitInProgress
	}
	b.clear()
	b.submitted = false
	return nil
}
