package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/draft"
	"github.com/cleared-dev/tally/internal/ledgerstub"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/pagination"
	"github.com/cleared-dev/tally/internal/remote"
	"github.com/cleared-dev/tally/internal/reversal"
	"github.com/cleared-dev/tally/internal/session"
	"github.com/cleared-dev/tally/internal/stock"
)

var (
	_ stock.Verifier  = (*remote.Client)(nil)
	_ draft.Submitter = (*remote.Client)(nil)
	_ accounts.Remote = (*remote.Client)(nil)
	_ reversal.Remote = (*remote.Client)(nil)
)

var _ pagination.FetchFunc[model.CatalogItem] = (*remote.Client)(nil).FetchItems

type invalidations struct {
	reasons []string
}

func (i *invalidations) Invalidate(reason string) { i.reasons = append(i.reasons, reason) }

func startStub(t *testing.T) (*httptest.Server, *ledgerstub.Store) {
	t.Helper()
	chart, err := accounts.NewChart(accounts.DefaultChart())
	require.NoError(t, err)
	store := ledgerstub.NewStore(ledgerstub.DefaultSeed(), chart)
	srv := httptest.NewServer(ledgerstub.NewServer(store))
	t.Cleanup(srv.Close)
	return srv, store
}

func newClient(t *testing.T, url string, inv session.Invalidator) *remote.Client {
	t.Helper()
	c, err := remote.NewClient(remote.Options{BaseURL: url, Invalidator: inv, PageSize: 2, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

// signIn resolves token into a session and returns a context carrying it.
func signIn(t *testing.T, c *remote.Client, token string) context.Context {
	t.Helper()
	s, err := c.FetchSession(context.Background(), token)
	require.NoError(t, err)
	return session.WithContext(context.Background(), s)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := remote.NewClient(remote.Options{BaseURL: "  "})
	assert.Error(t, err)
}

func TestFetchSession(t *testing.T) {
	srv, _ := startStub(t)
	c := newClient(t, srv.URL, nil)

	s, err := c.FetchSession(context.Background(), "clerk-token")
	require.NoError(t, err)
	assert.Equal(t, "u-clerk", s.UserID())
	assert.Equal(t, "clerk-token", s.Token())
	assert.True(t, s.Grant().HasLocation("Accra"))
	assert.False(t, s.Grant().HasLocation("Kumasi"))
	assert.Equal(t, []string{"Accra", "Kumasi"}, s.AllLocations())

	admin, err := c.FetchSession(context.Background(), "admin-token")
	require.NoError(t, err)
	assert.True(t, admin.Grant().IsAdmin())
	assert.True(t, admin.Grant().HasLocation("Kumasi"))
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	srv, _ := startStub(t)
	inv := &invalidations{}
	c := newClient(t, srv.URL, inv)

	_, err := c.FetchSession(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, remote.IsUnauthorized(err))
	assert.False(t, remote.IsDenial(err))
	assert.Len(t, inv.reasons, 1)

	_, err = c.FetchAccounts(context.Background())
	assert.True(t, remote.IsUnauthorized(err), "no token at all is a 401")
	assert.Len(t, inv.reasons, 2)
}

func TestDraftAgainstStub(t *testing.T) {
	srv, store := startStub(t)
	c := newClient(t, srv.URL, nil)
	ctx := signIn(t, c, "clerk-token")

	b, err := draft.New(draft.Options{
		Kind:          model.KindSale,
		Admission:     stock.NewChecker(c),
		Submitter:     c,
		PriceEditable: true,
	})
	require.NoError(t, err)
	require.NoError(t, b.SetLocation("Accra"))
	require.NoError(t, b.SetCounterpart("Kofi Traders"))
	require.NoError(t, b.SetTerm(model.TermFullPayment))
	require.NoError(t, b.SetSettlementAccount("1101"))

	widget := model.LineItem{ItemName: "Widget", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.RequireFromString("10.00")}
	require.NoError(t, b.AddLine(ctx, widget))

	widget.Quantity = decimal.NewFromInt(6)
	err = b.AddLine(ctx, widget)
	assert.ErrorIs(t, err, stock.ErrInsufficientStock, "aggregate 11 exceeds 10 on hand")
	assert.Len(t, b.Lines(), 1)

	widget.Quantity = decimal.NewFromInt(3)
	require.NoError(t, b.AddLine(ctx, widget))
	require.NoError(t, b.SetDiscount(decimal.NewFromInt(10)))
	require.NoError(t, b.SetLevies([]model.LevySelection{{Label: "VAT", RatePercent: decimal.NewFromInt(5)}}))

	receipt, err := b.Submit(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^SAL-\d{4}-\d{2}-0001$`, receipt.Code)
	assert.Equal(t, "75.60", money.Format(receipt.Totals.GrandTotal))
	assert.Equal(t, "2", store.StockLevel("Accra", "Widget").String())
	assert.Equal(t, draft.StateSubmitted, b.State())
}

func TestSubmitDenied(t *testing.T) {
	srv, _ := startStub(t)
	c := newClient(t, srv.URL, nil)
	ctx := signIn(t, c, "clerk-token")

	doc := model.TransactionDocument{
		Kind:        model.KindPurchase,
		Location:    "Accra",
		Counterpart: "Acme",
		Settlement:  model.Settlement{Term: model.TermCredit, DueDate: ptr(time.Now().AddDate(0, 1, 0))},
		LineItems:   []model.LineItem{{ItemName: "Widget", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	}
	_, err := c.SubmitTransaction(ctx, doc)
	require.Error(t, err)
	assert.True(t, remote.IsDenial(err))
	assert.False(t, remote.IsTransient(err))
}

func ptr[T any](v T) *T { return &v }

func TestReversalAgainstStub(t *testing.T) {
	srv, store := startStub(t)
	c := newClient(t, srv.URL, nil)
	admin := signIn(t, c, "admin-token")
	clerk := signIn(t, c, "clerk-token")

	doc := model.TransactionDocument{
		Kind:        model.KindSale,
		Location:    "Accra",
		Counterpart: "Kofi Traders",
		Settlement:  model.Settlement{Term: model.TermFullPayment, SettlementAccount: "1101"},
		LineItems:   []model.LineItem{{ItemName: "Gadget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(5)}},
	}
	receipt, err := c.SubmitTransaction(clerk, doc)
	require.NoError(t, err)
	assert.Equal(t, "3", store.StockLevel("Accra", "Gadget").String())

	svc := reversal.NewService(c)
	_, err = svc.Reverse(clerk, receipt.Code)
	assert.ErrorIs(t, err, reversal.ErrNotPermitted)

	reversed, err := svc.Reverse(admin, receipt.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReversed, reversed.Status)
	assert.Equal(t, "5", store.StockLevel("Accra", "Gadget").String())

	fetched, err := c.FetchTransaction(admin, receipt.Code)
	require.NoError(t, err)
	assert.True(t, fetched.Reversed())

	_, err = svc.Reverse(admin, receipt.Code)
	assert.ErrorIs(t, err, reversal.ErrAlreadyReversed)

	res, err := c.ReverseTransaction(admin, receipt.Code)
	require.NoError(t, err)
	assert.False(t, res.Success, "server enforces the terminal state too")
}

func TestDirectoryAgainstStub(t *testing.T) {
	srv, _ := startStub(t)
	c := newClient(t, srv.URL, nil)
	ctx := signIn(t, c, "admin-token")

	dir := accounts.NewDirectory(c)
	_, err := dir.Refresh(ctx)
	require.NoError(t, err)

	created, err := dir.Create(ctx, accounts.CreateRequest{ParentCode: "5000", SubName: "Travel", RealName: "Fuel"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, model.LevelSub, created[0].Level)
	assert.Equal(t, created[0].Code, created[1].ParentCode)

	renamed, err := dir.Rename(ctx, created[1].Code, "Fuel and Tolls", "")
	require.NoError(t, err)
	assert.Equal(t, "Fuel and Tolls", renamed.Name)

	nodes := dir.Search("toll")
	require.Len(t, nodes, 1)
	assert.Equal(t, "5000", nodes[0].Account.Code)

	_, err = c.CreateAccount(ctx, accounts.CreateRequest{ParentCode: "5000", SubCode: created[0].Code, RealName: "Fuel and Tolls"})
	assert.True(t, remote.IsDenial(err), "duplicate name is a business denial")
}

func TestItemsThroughLoader(t *testing.T) {
	srv, _ := startStub(t)
	c := newClient(t, srv.URL, nil)
	ctx := signIn(t, c, "clerk-token")

	l := pagination.NewLoader(c.FetchItems)
	require.NoError(t, l.SetFilter(ctx, ""))
	assert.Len(t, l.Items(), 2)
	require.NoError(t, l.LoadNext(ctx))
	assert.Len(t, l.Items(), 4)
	assert.ErrorIs(t, l.LoadNext(ctx), pagination.ErrNoMorePages)

	require.NoError(t, l.SetFilter(ctx, "gear"))
	require.Len(t, l.Items(), 1)
	assert.Equal(t, "Sprocket", l.Items()[0].Name)
}

func reply(build func(id string) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req remote.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(build(req.ID))
	}
}

func errorReply(id string, code int, msg string) any {
	return remote.Response{JSONRPC: "2.0", ID: id, Error: &remote.RPCError{Code: code, Message: msg}}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error, inv *invalidations)
	}{
		{
			name:    "http 401",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			check: func(t *testing.T, err error, inv *invalidations) {
				assert.True(t, remote.IsUnauthorized(err))
				assert.Len(t, inv.reasons, 1)
			},
		},
		{
			name:    "http 503",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			check: func(t *testing.T, err error, inv *invalidations) {
				assert.True(t, remote.IsTransient(err))
				assert.Empty(t, inv.reasons)
			},
		},
		{
			name:    "server error code",
			handler: reply(func(id string) any { return errorReply(id, remote.CodeInternal, "db down") }),
			check: func(t *testing.T, err error, inv *invalidations) {
				assert.True(t, remote.IsTransient(err))
			},
		},
		{
			name:    "unauthorized code",
			handler: reply(func(id string) any { return errorReply(id, remote.CodeUnauthorized, "expired") }),
			check: func(t *testing.T, err error, inv *invalidations) {
				assert.True(t, remote.IsUnauthorized(err))
				assert.Equal(t, []string{"expired"}, inv.reasons)
			},
		},
		{
			name:    "mismatched id",
			handler: reply(func(id string) any { return map[string]any{"jsonrpc": "2.0", "result": map[string]any{"accounts": []any{}}, "id": "other"} }),
			check: func(t *testing.T, err error, inv *invalidations) {
				assert.ErrorIs(t, err, remote.ErrMalformed)
			},
		},
		{
			name: "bad account level",
			handler: reply(func(id string) any {
				return map[string]any{"jsonrpc": "2.0", "id": id, "result": map[string]any{
					"accounts": []any{map[string]any{"code": "1000", "name": "Assets", "level": "galaxy"}},
				}}
			}),
			check: func(t *testing.T, err error, inv *invalidations) {
				assert.ErrorIs(t, err, remote.ErrMalformed)
			},
		},
		{
			name:    "null result",
			handler: reply(func(id string) any { return map[string]any{"jsonrpc": "2.0", "id": id, "result": nil} }),
			check: func(t *testing.T, err error, inv *invalidations) {
				assert.ErrorIs(t, err, remote.ErrMalformed)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			inv := &invalidations{}
			c := newClient(t, srv.URL, inv)

			_, err := c.FetchAccounts(session.WithContext(context.Background(), session.New("u", "U", "tok", access.NewGrant(nil, nil), nil)))
			require.Error(t, err)
			tt.check(t, err, inv)
		})
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url, nil)
	_, err := c.VerifyStockQuantity(context.Background(), "Accra", "Widget", decimal.NewFromInt(1))
	assert.True(t, remote.IsTransient(err))
}

func TestBearerToken(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		var req remote.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(remote.Response{JSONRPC: "2.0", ID: req.ID, Result: remote.StockResult{Sufficient: true}})
	}))
	defer srv.Close()

	c, err := remote.NewClient(remote.Options{BaseURL: srv.URL + "/", Token: "fallback"})
	require.NoError(t, err)

	_, err = c.VerifyStockQuantity(context.Background(), "Accra", "Widget", decimal.NewFromInt(1))
	require.NoError(t, err)
	ctx := session.WithContext(context.Background(), session.New("u", "U", "from-session", access.NewGrant(nil, nil), nil))
	_, err = c.VerifyStockQuantity(ctx, "Accra", "Widget", decimal.NewFromInt(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer fallback", "Bearer from-session"}, got)
}
