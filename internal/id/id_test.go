package id

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestFormatCode(t *testing.T) {
	tests := []struct {
		prefix           string
		year, month, seq int
		want             string
	}{
		{PrefixSale, 2025, 1, 1, "SAL-2025-01-0001"},
		{PrefixPurchase, 2025, 12, 99, "PUR-2025-12-0099"},
		{PrefixSale, 2025, 1, 12345, "SAL-2025-01-12345"},
	}
	for _, tt := range tests {
		got := FormatCode(tt.prefix, tt.year, tt.month, tt.seq)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		input string
		want  Code
		kind  model.DocumentKind
	}{
		{"SAL-2025-01-0001", Code{PrefixSale, 2025, 1, 1}, model.KindSale},
		{"PUR-2024-11-0042", Code{PrefixPurchase, 2024, 11, 42}, model.KindPurchase},
	}
	for _, tt := range tests {
		got, err := ParseCode(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.input, got.String())
		kind, ok := got.Kind()
		assert.True(t, ok)
		assert.Equal(t, tt.kind, kind)
	}
}

func TestParseCode_Invalid(t *testing.T) {
	bad := []string{"", "SAL", "SAL-2025-01", "INV-2025-01-0001", "SAL-abcd-01-0001", "SAL-2025-13-0001", "SAL-2025-01-0000", "SAL-2025-01-x"}
	for _, s := range bad {
		_, err := ParseCode(s)
		assert.Error(t, err, "input: %q", s)
	}
}

func TestPrefixFor(t *testing.T) {
	p, err := PrefixFor(model.KindPurchase)
	require.NoError(t, err)
	assert.Equal(t, PrefixPurchase, p)

	_, err = PrefixFor("quote")
	assert.Error(t, err)
}

func TestSequencer(t *testing.T) {
	s := NewSequencer()
	jan := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	next := func(kind model.DocumentKind, at time.Time) string {
		code, err := s.Next(kind, at)
		require.NoError(t, err)
		return code
	}

	assert.Equal(t, "SAL-2025-01-0001", next(model.KindSale, jan))
	assert.Equal(t, "SAL-2025-01-0002", next(model.KindSale, jan))
	assert.Equal(t, "PUR-2025-01-0001", next(model.KindPurchase, jan))
	assert.Equal(t, "SAL-2025-02-0001", next(model.KindSale, feb))

	s.Observe(Code{PrefixSale, 2025, 1, 40})
	s.Observe(Code{PrefixSale, 2025, 1, 3})
	assert.Equal(t, "SAL-2025-01-0041", next(model.KindSale, jan))
}

func TestSequencer_Concurrent(t *testing.T) {
	s := NewSequencer()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := s.Next(model.KindSale, at)
			assert.NoError(t, err)
			mu.Lock()
			seen[code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}
