package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/pagination"
	"github.com/cleared-dev/tally/internal/session"
)

// VerifyStockQuantity asks whether quantity of item is available at
// location. An insufficient answer is a normal false, not an error.
func (c *Client) VerifyStockQuantity(ctx context.Context, location, item string, quantity decimal.Decimal) (bool, error) {
	var res StockResult
	err := c.call(ctx, MethodVerifyStock, StockParams{Location: location, Item: item, Quantity: quantity}, &res)
	if err != nil {
		return false, err
	}
	return res.Sufficient, nil
}

// SubmitTransaction records doc in the ledger. The receipt's totals are
// the ledger's and supersede the client preview.
func (c *Client) SubmitTransaction(ctx context.Context, doc model.TransactionDocument) (model.Receipt, error) {
	var receipt model.Receipt
	if err := c.call(ctx, MethodSubmitTransaction, SubmitParams{Document: doc}, &receipt); err != nil {
		return model.Receipt{}, err
	}
	if receipt.Code == "" {
		return model.Receipt{}, fmt.Errorf("%s: %w: receipt has no code", MethodSubmitTransaction, ErrMalformed)
	}
	return receipt, nil
}

// ReverseTransaction asks the ledger to void the document with code.
func (c *Client) ReverseTransaction(ctx context.Context, code string) (model.ReversalResult, error) {
	var res model.ReversalResult
	if err := c.call(ctx, MethodReverse, CodeParams{Code: code}, &res); err != nil {
		return model.ReversalResult{}, err
	}
	return res, nil
}

// FetchTransaction loads a submitted document.
func (c *Client) FetchTransaction(ctx context.Context, code string) (model.TransactionDocument, error) {
	var doc model.TransactionDocument
	if err := c.call(ctx, MethodGetTransaction, CodeParams{Code: code}, &doc); err != nil {
		return model.TransactionDocument{}, err
	}
	if doc.Code != code {
		return model.TransactionDocument{}, fmt.Errorf("%s: %w: asked for %s, got %q", MethodGetTransaction, ErrMalformed, code, doc.Code)
	}
	switch doc.Status {
	case model.StatusActive, model.StatusReversed:
	default:
		return model.TransactionDocument{}, fmt.Errorf("%s: %w: status %q", MethodGetTransaction, ErrMalformed, doc.Status)
	}
	return doc, nil
}

// FetchAccounts loads the whole chart of accounts.
func (c *Client) FetchAccounts(ctx context.Context) ([]model.Account, error) {
	var res AccountsResult
	if err := c.call(ctx, MethodListAccounts, nil, &res); err != nil {
		return nil, err
	}
	if err := checkAccounts(res.Accounts); err != nil {
		return nil, fmt.Errorf("%s: %w", MethodListAccounts, err)
	}
	return res.Accounts, nil
}

// CreateAccount creates the real account in req, and its sub account when
// req names a new one. The ledger assigns codes.
func (c *Client) CreateAccount(ctx context.Context, req accounts.CreateRequest) ([]model.Account, error) {
	var res AccountsResult
	if err := c.call(ctx, MethodCreateAccount, req, &res); err != nil {
		return nil, err
	}
	if len(res.Accounts) == 0 {
		return nil, fmt.Errorf("%s: %w: no accounts returned", MethodCreateAccount, ErrMalformed)
	}
	if err := checkAccounts(res.Accounts); err != nil {
		return nil, fmt.Errorf("%s: %w", MethodCreateAccount, err)
	}
	return res.Accounts, nil
}

// UpdateAccount changes an account's name and description.
func (c *Client) UpdateAccount(ctx context.Context, code, name, description string) (model.Account, error) {
	var acct model.Account
	err := c.call(ctx, MethodUpdateAccount, UpdateAccountParams{Code: code, Name: name, Description: description}, &acct)
	if err != nil {
		return model.Account{}, err
	}
	if acct.Code != code {
		return model.Account{}, fmt.Errorf("%s: %w: asked for %s, got %q", MethodUpdateAccount, ErrMalformed, code, acct.Code)
	}
	return acct, nil
}

// FetchItems loads one page of the item catalog matching filter. It has
// the shape of a pagination.FetchFunc.
func (c *Client) FetchItems(ctx context.Context, filter string, page int) (pagination.Page[model.CatalogItem], error) {
	var res PageResult
	params := PageParams{Filter: filter, Page: page, PageSize: c.pageSize}
	if err := c.call(ctx, MethodItemsPage, params, &res); err != nil {
		return pagination.Page[model.CatalogItem]{}, err
	}
	return pagination.Page[model.CatalogItem]{Items: res.Items, HasMore: res.HasMore}, nil
}

// FetchSession resolves token into the user's session.
func (c *Client) FetchSession(ctx context.Context, token string) (session.Session, error) {
	var res SessionResult
	if err := c.callWithToken(ctx, token, MethodGetSession, nil, &res); err != nil {
		return session.Session{}, err
	}
	if strings.TrimSpace(res.UserID) == "" {
		return session.Session{}, fmt.Errorf("%s: %w: no user", MethodGetSession, ErrMalformed)
	}
	grant := access.FromData(res.Grant, res.AllLocations)
	return session.New(res.UserID, res.UserName, token, grant, res.AllLocations), nil
}

func checkAccounts(accts []model.Account) error {
	for _, a := range accts {
		if a.Code == "" || !a.Level.Valid() {
			return fmt.Errorf("%w: account %q has code %q and level %q", ErrMalformed, a.Name, a.Code, a.Level)
		}
	}
	return nil
}
