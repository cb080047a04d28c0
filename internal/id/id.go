// Package id formats and parses ledger document codes such as
// "SAL-2025-01-0001".
package id

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

const (
	PrefixSale     = "SAL"
	PrefixPurchase = "PUR"
)

// Code is a parsed document code.
type Code struct {
	Prefix string
	Year   int
	Month  int
	Seq    int
}

func (c Code) String() string {
	return FormatCode(c.Prefix, c.Year, c.Month, c.Seq)
}

// Kind returns the document kind the prefix stands for.
func (c Code) Kind() (model.DocumentKind, bool) {
	switch c.Prefix {
	case PrefixSale:
		return model.KindSale, true
	case PrefixPurchase:
		return model.KindPurchase, true
	}
	return "", false
}

// PrefixFor returns the code prefix for kind.
func PrefixFor(kind model.DocumentKind) (string, error) {
	switch kind {
	case model.KindSale:
		return PrefixSale, nil
	case model.KindPurchase:
		return PrefixPurchase, nil
	}
	return "", fmt.Errorf("no code prefix for document kind %q", kind)
}

// FormatCode returns a code like "SAL-2025-01-0001".
func FormatCode(prefix string, year, month, seq int) string {
	return fmt.Sprintf("%s-%04d-%02d-%04d", prefix, year, month, seq)
}

// ParseCode parses "SAL-2025-01-0001".
func ParseCode(s string) (Code, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return Code{}, fmt.Errorf("invalid document code format: %q", s)
	}

	c := Code{Prefix: parts[0]}
	if _, ok := c.Kind(); !ok {
		return Code{}, fmt.Errorf("unknown prefix in document code %q", s)
	}

	var err error
	c.Year, err = strconv.Atoi(parts[1])
	if err != nil {
		return Code{}, fmt.Errorf("invalid year in document code %q: %w", s, err)
	}

	c.Month, err = strconv.Atoi(parts[2])
	if err != nil {
		return Code{}, fmt.Errorf("invalid month in document code %q: %w", s, err)
	}
	if c.Month < 1 || c.Month > 12 {
		return Code{}, fmt.Errorf("month out of range in document code %q", s)
	}

	c.Seq, err = strconv.Atoi(parts[3])
	if err != nil {
		return Code{}, fmt.Errorf("invalid sequence in document code %q: %w", s, err)
	}
	if c.Seq < 1 {
		return Code{}, fmt.Errorf("sequence must be positive in document code %q", s)
	}

	return c, nil
}

type period struct {
	prefix      string
	year, month int
}

// Sequencer hands out consecutive codes per kind and calendar month.
type Sequencer struct {
	mu   sync.Mutex
	last map[period]int
}

// NewSequencer creates a Sequencer starting every period at 1.
func NewSequencer() *Sequencer {
	return &Sequencer{last: make(map[period]int)}
}

// Observe records an existing code so later codes follow it.
func (s *Sequencer) Observe(c Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := period{c.Prefix, c.Year, c.Month}
	if c.Seq > s.last[p] {
		s.last[p] = c.Seq
	}
}

// Next returns the next code for a document of kind dated at.
func (s *Sequencer) Next(kind model.DocumentKind, at time.Time) (string, error) {
	prefix, err := PrefixFor(kind)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := period{prefix, at.Year(), int(at.Month())}
	s.last[p]++
	return FormatCode(prefix, p.year, p.month, s.last[p]), nil
}
