// Package remote talks to the ledger service: JSON-RPC 2.0 over HTTP POST.
package remote

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/model"
)

// JSON-RPC 2.0 message types.

type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
// Result must NOT have omitempty; a null result is still a result.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result"`
	Error   *RPCError `json:"error,omitempty"`
	ID      string    `json:"id"`
}

// rawResponse defers decoding of the result until the caller knows its
// type.
type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      string          `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Error codes. The -32000 range is reserved by JSON-RPC for server errors.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32000
	CodeUnauthorized   = -32001
	CodeDenied         = -32010
)

// Method names.
const (
	MethodVerifyStock       = "stock.verify"
	MethodSubmitTransaction = "transaction.submit"
	MethodReverse           = "transaction.reverse"
	MethodGetTransaction    = "transaction.get"
	MethodListAccounts      = "accounts.list"
	MethodCreateAccount     = "accounts.create"
	MethodUpdateAccount     = "accounts.update"
	MethodItemsPage         = "items.page"
	MethodGetSession        = "session.get"
)

// Params and results, shared with the stub server.

type StockParams struct {
	Location string          `json:"location"`
	Item     string          `json:"item"`
	Quantity decimal.Decimal `json:"quantity"`
}

type StockResult struct {
	Sufficient bool `json:"sufficient"`
}

type SubmitParams struct {
	Document model.TransactionDocument `json:"document"`
}

type CodeParams struct {
	Code string `json:"code"`
}

type AccountsResult struct {
	Accounts []model.Account `json:"accounts"`
}

type UpdateAccountParams struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PageParams struct {
	Filter   string `json:"filter"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize,omitempty"`
}

type PageResult struct {
	Items   []model.CatalogItem `json:"items"`
	HasMore bool                `json:"hasMore"`
}

type SessionResult struct {
	UserID       string           `json:"userId"`
	UserName     string           `json:"userName"`
	Grant        access.GrantData `json:"grant"`
	AllLocations []string         `json:"allLocations"`
}
