// Package pagination accumulates search results page by page.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/logger"
)

var (
	// ErrFetchInFlight is returned when the requested page is already being
	// fetched.
	ErrFetchInFlight = errors.New("page fetch already in flight")

	// ErrNoMorePages is returned when the last response said there was
	// nothing further.
	ErrNoMorePages = errors.New("no more pages")

	// ErrStaleResponse is returned when a newer filter superseded the
	// fetch; the result was dropped.
	ErrStaleResponse = errors.New("response superseded by newer filter")

	// ErrSuperseded is returned by a debounced search that was replaced
	// or cancelled before it ran.
	ErrSuperseded = errors.New("search superseded before it ran")
)

// Page is one response from a paged listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"hasMore"`
}

// OnPageLoad merges a freshly loaded page into the current list. Page 1
// replaces the list; any later page is appended as is, without reordering
// or de-duplication.
func OnPageLoad[T any](current []T, page int, items []T) []T {
	if page <= 1 {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(current)+len(items))
	out = append(out, current...)
	return append(out, items...)
}

// FetchFunc loads one page for filter. Pages are numbered from 1.
type FetchFunc[T any] func(ctx context.Context, filter string, page int) (Page[T], error)

type fetchKey struct {
	gen  uint64
	page int
}

type options struct {
	debounce time.Duration
}

// Option configures a Loader.
type Option func(*options)

// WithDebounce makes Search wait until the filter has been quiet for d.
// Zero or negative searches immediately.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// Loader holds the accumulated results for the current filter.
type Loader[T any] struct {
	fetch    FetchFunc[T]
	log      zerolog.Logger
	debounce *Debouncer

	mu       sync.Mutex
	filter   string
	gen      uint64
	items    []T
	page     int
	hasMore  bool
	inflight map[fetchKey]bool
	pending  chan error
}

// NewLoader creates an empty Loader.
func NewLoader[T any](fetch FetchFunc[T], opts ...Option) *Loader[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	l := &Loader[T]{
		fetch:    fetch,
		log:      logger.WithComponent("pagination"),
		inflight: make(map[fetchKey]bool),
	}
	if o.debounce > 0 {
		l.debounce = NewDebouncer(o.debounce)
	}
	return l
}

// Search is SetFilter behind the debouncer. The returned channel yields
// the result of the filter change, or ErrSuperseded when a later Search
// or Cancel replaced it first.
func (l *Loader[T]) Search(ctx context.Context, filter string) <-chan error {
	done := make(chan error, 1)
	if l.debounce == nil {
		done <- l.SetFilter(ctx, filter)
		return done
	}

	l.mu.Lock()
	if l.pending != nil {
		l.pending <- ErrSuperseded
	}
	l.pending = done
	l.mu.Unlock()

	l.debounce.Trigger(func() {
		l.mu.Lock()
		if l.pending != done {
			l.mu.Unlock()
			return
		}
		l.pending = nil
		l.mu.Unlock()
		done <- l.SetFilter(ctx, filter)
	})
	return done
}

// Cancel drops a debounced search that has not started yet.
func (l *Loader[T]) Cancel() {
	if l.debounce == nil {
		return
	}
	l.debounce.Stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		l.pending <- ErrSuperseded
		l.pending = nil
	}
}

// SetFilter starts over with a new filter and loads its first page.
// Fetches still running for an older filter are discarded when they
// return.
func (l *Loader[T]) SetFilter(ctx context.Context, filter string) error {
	l.mu.Lock()
	l.gen++
	l.filter = filter
	l.items = nil
	l.page = 0
	l.hasMore = false
	gen := l.gen
	l.mu.Unlock()

	return l.load(ctx, gen, filter, 1)
}

// LoadNext fetches the page after the last one loaded.
func (l *Loader[T]) LoadNext(ctx context.Context) error {
	l.mu.Lock()
	if !l.hasMore {
		l.mu.Unlock()
		return ErrNoMorePages
	}
	gen, filter, page := l.gen, l.filter, l.page+1
	l.mu.Unlock()

	return l.load(ctx, gen, filter, page)
}

// ShouldLoadMore reports whether showing row index should request the
// next page: the row is second to last or later, more data exists, and
// that page is not already being fetched.
func (l *Loader[T]) ShouldLoadMore(index int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore &&
		index >= len(l.items)-2 &&
		!l.inflight[fetchKey{gen: l.gen, page: l.page + 1}]
}

// Observe is called as row index is shown. It loads the next page when
// ShouldLoadMore allows it and reports whether a fetch was made.
func (l *Loader[T]) Observe(ctx context.Context, index int) (bool, error) {
	if !l.ShouldLoadMore(index) {
		return false, nil
	}
	err := l.LoadNext(ctx)
	if errors.Is(err, ErrFetchInFlight) || errors.Is(err, ErrNoMorePages) {
		return false, nil
	}
	return true, err
}

func (l *Loader[T]) load(ctx context.Context, gen uint64, filter string, page int) error {
	key := fetchKey{gen: gen, page: page}

	l.mu.Lock()
	if l.inflight[key] {
		l.mu.Unlock()
		return ErrFetchInFlight
	}
	l.inflight[key] = true
	l.mu.Unlock()

	p, err := l.fetch(ctx, filter, page)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, key)
	if gen != l.gen {
		l.log.Debug().Str("filter", filter).Int("page", page).Msg("discarding stale page")
		return ErrStaleResponse
	}
	if err != nil {
		return fmt.Errorf("fetching page %d of %q: %w", page, filter, err)
	}
	l.items = OnPageLoad(l.items, page, p.Items)
	l.page = page
	l.hasMore = p.HasMore
	l.log.Debug().Str("filter", filter).Int("page", page).Int("items", len(l.items)).Bool("has_more", p.HasMore).Msg("page loaded")
	return nil
}

// Items returns a copy of the accumulated results.
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Filter returns the current filter.
func (l *Loader[T]) Filter() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Page returns the last page loaded for the current filter, 0 if none.
func (l *Loader[T]) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// HasMore reports whether the last response promised more data.
func (l *Loader[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// Loading reports whether any fetch for the current filter is running.
func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.inflight {
		if k.gen == l.gen {
			return true
		}
	}
	return false
}
