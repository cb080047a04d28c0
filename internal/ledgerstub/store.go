package ledgerstub

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/terms"
)

// DefaultPageSize is used when a page request names none.
const DefaultPageSize = 20

// Denial is a business refusal; the server reports it as such rather than
// as a failure.
type Denial struct {
	Message string
}

func (d *Denial) Error() string { return d.Message }

func deny(format string, args ...any) error {
	return &Denial{Message: fmt.Sprintf(format, args...)}
}

// ErrInvalid marks a request the ledger cannot interpret.
var ErrInvalid = errors.New("invalid request")

type stockKey struct {
	location string
	item     string
}

func keyFor(location, item string) stockKey {
	return stockKey{location: location, item: strings.ToLower(strings.TrimSpace(item))}
}

// Store is the ledger's state.
type Store struct {
	mu        sync.Mutex
	locations []string
	users     map[string]User
	stock     map[stockKey]decimal.Decimal
	catalog   []model.CatalogItem
	chart     *accounts.Chart
	docs      map[string]model.TransactionDocument
	seq       *id.Sequencer
	now       func() time.Time
}

// NewStore builds a Store from seed and an initial chart.
func NewStore(seed Seed, chart *accounts.Chart) *Store {
	s := &Store{
		locations: slices.Clone(seed.Locations),
		users:     make(map[string]User, len(seed.Users)),
		stock:     make(map[stockKey]decimal.Decimal, len(seed.Stock)),
		catalog:   slices.Clone(seed.Catalog),
		chart:     chart.Clone(),
		docs:      make(map[string]model.TransactionDocument),
		seq:       id.NewSequencer(),
		now:       time.Now,
	}
	for _, u := range seed.Users {
		s.users[u.Token] = u
	}
	for _, l := range seed.Stock {
		k := keyFor(l.Location, l.Item)
		s.stock[k] = s.stock[k].Add(l.Quantity)
	}
	slices.SortFunc(s.catalog, func(a, b model.CatalogItem) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return s
}

// SetClock replaces the store's clock.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Locations returns every location the ledger knows.
func (s *Store) Locations() []string {
	return slices.Clone(s.locations)
}

// User looks up the user holding token and the grant it carries.
func (s *Store) User(token string) (User, access.Grant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[token]
	if !ok {
		return User{}, access.Grant{}, false
	}
	return u, access.FromData(u.Grant, s.locations), true
}

// StockLevel returns the quantity of item on hand at location.
func (s *Store) StockLevel(location, item string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[keyFor(location, item)]
}

// VerifyStock reports whether quantity of item is on hand at location.
func (s *Store) VerifyStock(g access.Grant, location, item string, quantity decimal.Decimal) (bool, error) {
	if !g.HasLocation(location) {
		return false, deny("no access to location %s", location)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return quantity.LessThanOrEqual(s.stock[keyFor(location, item)]), nil
}

func createAction(kind model.DocumentKind) access.Action {
	if kind == model.KindPurchase {
		return access.CreatePurchase
	}
	return access.CreateSale
}

func viewAction(kind model.DocumentKind) access.Action {
	if kind == model.KindPurchase {
		return access.ViewPurchases
	}
	return access.ViewSales
}

func checkDocument(doc model.TransactionDocument) error {
	var problems []string
	switch doc.Kind {
	case model.KindSale, model.KindPurchase:
	default:
		problems = append(problems, fmt.Sprintf("unknown kind %q", doc.Kind))
	}
	if strings.TrimSpace(doc.Location) == "" {
		problems = append(problems, "location is required")
	}
	if strings.TrimSpace(doc.Counterpart) == "" {
		problems = append(problems, "counterpart is required")
	}
	if len(doc.LineItems) == 0 {
		problems = append(problems, "at least one line item is required")
	}
	for i, l := range doc.LineItems {
		if strings.TrimSpace(l.ItemName) == "" {
			problems = append(problems, fmt.Sprintf("line %d has no item", i+1))
		}
		if l.Quantity.LessThan(decimal.NewFromInt(1)) {
			problems = append(problems, fmt.Sprintf("line %d quantity must be at least 1", i+1))
		}
		if l.UnitPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("line %d price is negative", i+1))
		}
	}
	if err := terms.FromSettlement(doc.Settlement).Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if err := money.ValidateDiscount(doc.DiscountPercent); err != nil {
		problems = append(problems, err.Error())
	}
	if err := money.ValidateLevies(doc.LevySelections); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// aggregate sums line quantities per item.
func aggregate(location string, lines []model.LineItem) map[stockKey]decimal.Decimal {
	out := make(map[stockKey]decimal.Decimal)
	for _, l := range lines {
		k := keyFor(location, l.ItemName)
		out[k] = out[k].Add(l.Quantity)
	}
	return out
}

// Submit records doc, computing its totals and assigning its code.
func (s *Store) Submit(g access.Grant, doc model.TransactionDocument) (model.Receipt, error) {
	if err := checkDocument(doc); err != nil {
		return model.Receipt{}, err
	}
	if !access.Authorize(g, createAction(doc.Kind)) || !g.HasLocation(doc.Location) {
		return model.Receipt{}, deny("not permitted to record a %s at %s", doc.Kind, doc.Location)
	}

	totals := money.ComputeTotals(doc.LineItems, doc.DiscountPercent, doc.LevySelections)
	if doc.Settlement.Term == model.TermPartPayment && !doc.Settlement.PartPayment.LessThan(totals.GrandTotal) {
		return model.Receipt{}, fmt.Errorf("%w: part payment must be less than the grand total %s", ErrInvalid, money.Format(totals.GrandTotal))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	moves := aggregate(doc.Location, doc.LineItems)
	if doc.Kind.DecreasesStock() {
		for k, qty := range moves {
			if qty.GreaterThan(s.stock[k]) {
				return model.Receipt{}, deny("insufficient stock: %s of %s requested at %s, %s on hand", qty, k.item, k.location, s.stock[k])
			}
		}
	}

	now := s.now()
	if doc.Date.IsZero() {
		doc.Date = now
	}
	code, err := s.seq.Next(doc.Kind, doc.Date)
	if err != nil {
		return model.Receipt{}, err
	}

	for k, qty := range moves {
		if doc.Kind.DecreasesStock() {
			s.stock[k] = s.stock[k].Sub(qty)
		} else {
			s.stock[k] = s.stock[k].Add(qty)
		}
	}

	doc.Code = code
	doc.Totals = totals
	doc.Status = model.StatusActive
	doc.LineItems = slices.Clone(doc.LineItems)
	doc.LevySelections = slices.Clone(doc.LevySelections)
	s.docs[code] = doc

	return model.Receipt{Code: code, Timestamp: now, Totals: totals}, nil
}

// Transaction returns the document with code.
func (s *Store) Transaction(g access.Grant, code string) (model.TransactionDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[code]
	if !ok {
		return model.TransactionDocument{}, deny("no document %s", code)
	}
	if !g.IsAdmin() && (!access.Authorize(g, viewAction(doc.Kind)) || !g.HasLocation(doc.Location)) {
		return model.TransactionDocument{}, deny("not permitted to view %s", code)
	}
	return doc, nil
}

// Reverse voids the document with code and undoes its stock movement.
// Refusals come back as an unsuccessful result.
func (s *Store) Reverse(g access.Grant, code string) (model.ReversalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[code]
	if !ok {
		return model.ReversalResult{}, deny("no document %s", code)
	}
	if doc.Reversed() {
		return model.ReversalResult{Message: code + " is already reversed"}, nil
	}
	if !access.CanReverse(doc, g) {
		return model.ReversalResult{Message: "not permitted to reverse " + code}, nil
	}

	moves := aggregate(doc.Location, doc.LineItems)
	if !doc.Kind.DecreasesStock() {
		for k, qty := range moves {
			if qty.GreaterThan(s.stock[k]) {
				return model.ReversalResult{Message: fmt.Sprintf("%s received on %s has already left stock", k.item, code)}, nil
			}
		}
	}
	for k, qty := range moves {
		if doc.Kind.DecreasesStock() {
			s.stock[k] = s.stock[k].Add(qty)
		} else {
			s.stock[k] = s.stock[k].Sub(qty)
		}
	}

	doc.Status = model.StatusReversed
	s.docs[code] = doc
	return model.ReversalResult{Success: true, Message: code + " reversed"}, nil
}

// Accounts returns the chart of accounts.
func (s *Store) Accounts(g access.Grant) ([]model.Account, error) {
	if !access.Authorize(g, access.ViewAccounts) {
		return nil, deny("not permitted to view accounts")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chart.All(), nil
}

// CreateAccount applies req to the chart.
func (s *Store) CreateAccount(g access.Grant, req accounts.CreateRequest) ([]model.Account, error) {
	if !access.Authorize(g, access.CreateAccount) {
		return nil, deny("not permitted to create accounts")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.chart.Clone()
	created, err := next.Apply(req)
	if err != nil {
		return nil, deny("%v", err)
	}
	s.chart = next
	return created, nil
}

// UpdateAccount renames an account.
func (s *Store) UpdateAccount(g access.Grant, code, name, description string) (model.Account, error) {
	if !access.Authorize(g, access.EditAccount) {
		return model.Account{}, deny("not permitted to edit accounts")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.chart.Clone()
	acct, err := next.Rename(code, name, description)
	if err != nil {
		return model.Account{}, deny("%v", err)
	}
	s.chart = next
	return acct, nil
}

// ItemsPage returns page (from 1) of catalog items matching filter.
func (s *Store) ItemsPage(filter string, page, size int) ([]model.CatalogItem, bool, error) {
	if page < 1 {
		return nil, false, fmt.Errorf("%w: page must be at least 1", ErrInvalid)
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	q := strings.ToLower(strings.TrimSpace(filter))

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.CatalogItem
	for _, it := range s.catalog {
		if q == "" || itemMatches(it, q) {
			matched = append(matched, it)
		}
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []model.CatalogItem{}, false, nil
	}
	end := min(start+size, len(matched))
	return slices.Clone(matched[start:end]), end < len(matched), nil
}

func itemMatches(it model.CatalogItem, q string) bool {
	for _, f := range []string{it.Code, it.Name, it.Category, it.Brand, it.Model} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
