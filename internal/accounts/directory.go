package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
)

// Remote is the part of the ledger service the directory needs.
type Remote interface {
	FetchAccounts(ctx context.Context) ([]model.Account, error)
	CreateAccount(ctx context.Context, req CreateRequest) ([]model.Account, error)
	UpdateAccount(ctx context.Context, code, name, description string) (model.Account, error)
}

// Directory mirrors the ledger's chart of accounts. Creation is validated
// locally before it is sent; the ledger assigns codes and balances.
type Directory struct {
	remote Remote
	log    zerolog.Logger
	group  singleflight.Group

	mu    sync.RWMutex
	chart *Chart
}

// NewDirectory creates an empty Directory. Call Refresh to load it.
func NewDirectory(remote Remote) *Directory {
	empty, _ := NewChart(nil)
	return &Directory{
		remote: remote,
		log:    logger.WithComponent("accounts"),
		chart:  empty,
	}
}

// Chart returns the current snapshot.
func (d *Directory) Chart() *Chart {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.chart
}

// Refresh reloads the chart from the ledger. Concurrent callers share one
// fetch.
func (d *Directory) Refresh(ctx context.Context) (*Chart, error) {
	v, err, shared := d.group.Do("refresh", func() (any, error) {
		accts, err := d.remote.FetchAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching accounts: %w", err)
		}
		chart, err := NewChart(accts)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.chart = chart
		d.mu.Unlock()
		return chart, nil
	})
	if err != nil {
		return nil, err
	}
	d.log.Debug().Bool("shared", shared).Int("accounts", len(v.(*Chart).accounts)).Msg("chart refreshed")
	return v.(*Chart), nil
}

// Search filters the current snapshot.
func (d *Directory) Search(query string) []Node {
	return d.Chart().Search(query)
}

// Create validates req against the current snapshot, asks the ledger to
// create the accounts and merges what it returns.
func (d *Directory) Create(ctx context.Context, req CreateRequest) ([]model.Account, error) {
	chart := d.Chart()
	if err := req.Validate(chart); err != nil {
		return nil, err
	}

	created, err := d.remote.CreateAccount(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	next, err := NewChart(append(d.chart.All(), created...))
	if err != nil {
		return nil, fmt.Errorf("merging created accounts: %w", err)
	}
	d.chart = next
	for _, a := range created {
		d.log.Info().Str("code", a.Code).Str("name", a.Name).Str("level", string(a.Level)).Msg("account created")
	}
	return created, nil
}

// Rename changes an account's name and description.
func (d *Directory) Rename(ctx context.Context, code, name, description string) (model.Account, error) {
	if _, err := d.Chart().Clone().Rename(code, name, description); err != nil {
		return model.Account{}, err
	}

	updated, err := d.remote.UpdateAccount(ctx, code, name, description)
	if err != nil {
		return model.Account{}, fmt.Errorf("updating account: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	next, err := NewChart(d.chart.All())
	if err != nil {
		return model.Account{}, err
	}
	if err := next.Replace(updated); err != nil {
		return model.Account{}, err
	}
	d.chart = next
	return updated, nil
}
