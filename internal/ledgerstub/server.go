package ledgerstub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/remote"
)

// maxBody caps a request body.
const maxBody = 1 << 20

type handlerFunc func(u User, g access.Grant, params json.RawMessage) (any, error)

// Server serves a Store over HTTP.
type Server struct {
	store   *Store
	log     zerolog.Logger
	router  *mux.Router
	methods map[string]handlerFunc
}

// NewServer creates a Server for store.
func NewServer(store *Store) *Server {
	s := &Server{
		store:  store,
		log:    logger.WithComponent("ledgerstub"),
		router: mux.NewRouter(),
	}
	s.methods = map[string]handlerFunc{
		remote.MethodVerifyStock:       s.verifyStock,
		remote.MethodSubmitTransaction: s.submit,
		remote.MethodReverse:           s.reverse,
		remote.MethodGetTransaction:    s.transaction,
		remote.MethodListAccounts:      s.listAccounts,
		remote.MethodCreateAccount:     s.createAccount,
		remote.MethodUpdateAccount:     s.updateAccount,
		remote.MethodItemsPage:         s.itemsPage,
		remote.MethodGetSession:        s.session,
	}
	s.router.HandleFunc("/rpc", s.handleRPC).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return s
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      string          `json:"id"`
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, remote.Response{
			JSONRPC: "2.0",
			Error:   &remote.RPCError{Code: remote.CodeParseError, Message: err.Error()},
		})
		return
	}
	log := s.log.With().Str("method", req.Method).Str("id", req.ID).Logger()

	resp := remote.Response{JSONRPC: "2.0", ID: req.ID}
	u, grant, found := s.store.User(token)
	handler, known := s.methods[req.Method]
	switch {
	case req.JSONRPC != "2.0":
		resp.Error = &remote.RPCError{Code: remote.CodeInvalidRequest, Message: "jsonrpc must be 2.0"}
	case !found:
		resp.Error = &remote.RPCError{Code: remote.CodeUnauthorized, Message: "unknown or expired session"}
	case !known:
		resp.Error = &remote.RPCError{Code: remote.CodeMethodNotFound, Message: "method not found: " + req.Method}
	default:
		result, err := handler(u, grant, req.Params)
		if err != nil {
			resp.Error = rpcError(err)
			log.Info().Str("user", u.ID).Int("code", resp.Error.Code).Str("message", resp.Error.Message).Msg("request refused")
		} else {
			resp.Result = result
			log.Debug().Str("user", u.ID).Msg("request served")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func rpcError(err error) *remote.RPCError {
	var d *Denial
	switch {
	case errors.As(err, &d):
		return &remote.RPCError{Code: remote.CodeDenied, Message: d.Message}
	case errors.Is(err, ErrInvalid):
		return &remote.RPCError{Code: remote.CodeInvalidParams, Message: err.Error()}
	}
	return &remote.RPCError{Code: remote.CodeInternal, Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 {
		return v, ErrInvalid
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, errors.Join(ErrInvalid, err)
	}
	return v, nil
}

func (s *Server) verifyStock(_ User, g access.Grant, params json.RawMessage) (any, error) {
	p, err := decode[remote.StockParams](params)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.VerifyStock(g, p.Location, p.Item, p.Quantity)
	if err != nil {
		return nil, err
	}
	return remote.StockResult{Sufficient: ok}, nil
}

func (s *Server) submit(_ User, g access.Grant, params json.RawMessage) (any, error) {
	p, err := decode[remote.SubmitParams](params)
	if err != nil {
		return nil, err
	}
	return s.store.Submit(g, p.Document)
}

func (s *Server) reverse(_ User, g access.Grant, params json.RawMessage) (any, error) {
	p, err := decode[remote.CodeParams](params)
	if err != nil {
		return nil, err
	}
	return s.store.Reverse(g, p.Code)
}

func (s *Server) transaction(_ User, g access.Grant, params json.RawMessage) (any, error) {
	p, err := decode[remote.CodeParams](params)
	if err != nil {
		return nil, err
	}
	return s.store.Transaction(g, p.Code)
}

func (s *Server) listAccounts(_ User, g access.Grant, _ json.RawMessage) (any, error) {
	accts, err := s.store.Accounts(g)
	if err != nil {
		return nil, err
	}
	return remote.AccountsResult{Accounts: accts}, nil
}

func (s *Server) createAccount(_ User, g access.Grant, params json.RawMessage) (any, error) {
	req, err := decode[accounts.CreateRequest](params)
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreateAccount(g, req)
	if err != nil {
		return nil, err
	}
	return remote.AccountsResult{Accounts: created}, nil
}

func (s *Server) updateAccount(_ User, g access.Grant, params json.RawMessage) (any, error) {
	p, err := decode[remote.UpdateAccountParams](params)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateAccount(g, p.Code, p.Name, p.Description)
}

func (s *Server) itemsPage(_ User, _ access.Grant, params json.RawMessage) (any, error) {
	p, err := decode[remote.PageParams](params)
	if err != nil {
		return nil, err
	}
	items, more, err := s.store.ItemsPage(p.Filter, p.Page, p.PageSize)
	if err != nil {
		return nil, err
	}
	return remote.PageResult{Items: items, HasMore: more}, nil
}

func (s *Server) session(u User, g access.Grant, _ json.RawMessage) (any, error) {
	return remote.SessionResult{
		UserID:       u.ID,
		UserName:     u.Name,
		Grant:        g.Data(),
		AllLocations: s.store.Locations(),
	}, nil
}
