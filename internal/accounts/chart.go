// Package accounts maintains the three-tier chart of accounts
// (parent → sub → real) used to pick accounts on transactions and to
// create new ones.
package accounts

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// ErrInvalidChart is returned when accounts violate the hierarchy.
var ErrInvalidChart = errors.New("invalid chart of accounts")

// Chart provides in-memory lookup over the chart of accounts.
type Chart struct {
	accounts []model.Account
	byCode   map[string]int
}

// NewChart indexes accounts and checks the hierarchy: codes are unique,
// parents are top-level, subs sit under a parent and real accounts sit
// under a sub.
func NewChart(accounts []model.Account) (*Chart, error) {
	c := &Chart{byCode: make(map[string]int, len(accounts))}
	for _, a := range accounts {
		if a.Code == "" {
			return nil, fmt.Errorf("%w: account %q has no code", ErrInvalidChart, a.Name)
		}
		if _, dup := c.byCode[a.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate code %s", ErrInvalidChart, a.Code)
		}
		c.byCode[a.Code] = len(c.accounts)
		c.accounts = append(c.accounts, a)
	}
	for _, a := range c.accounts {
		if err := c.checkPlacement(a); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Chart) checkPlacement(a model.Account) error {
	want, ok := parentLevel(a.Level)
	if !ok {
		return fmt.Errorf("%w: account %s has level %q", ErrInvalidChart, a.Code, a.Level)
	}
	if a.Level == model.LevelParent {
		if a.ParentCode != "" {
			return fmt.Errorf("%w: parent account %s cannot have a parent", ErrInvalidChart, a.Code)
		}
		return nil
	}
	p, ok := c.Get(a.ParentCode)
	if !ok {
		return fmt.Errorf("%w: account %s references missing parent %q", ErrInvalidChart, a.Code, a.ParentCode)
	}
	if p.Level != want {
		return fmt.Errorf("%w: %s account %s must sit under a %s account, %s is %s",
			ErrInvalidChart, a.Level, a.Code, want, p.Code, p.Level)
	}
	return nil
}

func parentLevel(l model.AccountLevel) (model.AccountLevel, bool) {
	switch l {
	case model.LevelParent:
		return "", true
	case model.LevelSub:
		return model.LevelParent, true
	case model.LevelReal:
		return model.LevelSub, true
	}
	return "", false
}

// LoadFile reads a chart-of-accounts CSV from path.
func LoadFile(path string) (*Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewChart(accts)
}

// SaveFile writes the chart to path as CSV.
func (c *Chart) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, c.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}

// Clone returns an independent copy of c.
func (c *Chart) Clone() *Chart {
	out := &Chart{
		accounts: slices.Clone(c.accounts),
		byCode:   make(map[string]int, len(c.byCode)),
	}
	for k, v := range c.byCode {
		out.byCode[k] = v
	}
	return out
}

// All returns all accounts in insertion order.
func (c *Chart) All() []model.Account {
	return slices.Clone(c.accounts)
}

// Get returns an account by code.
func (c *Chart) Get(code string) (model.Account, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return model.Account{}, false
	}
	return c.accounts[i], true
}

// Exists reports whether an account code exists.
func (c *Chart) Exists(code string) bool {
	_, ok := c.byCode[code]
	return ok
}

// ByLevel returns all accounts on one tier.
func (c *Chart) ByLevel(level model.AccountLevel) []model.Account {
	var result []model.Account
	for _, a := range c.accounts {
		if a.Level == level {
			result = append(result, a)
		}
	}
	return result
}

// Children returns the direct children of code, ordered by code.
func (c *Chart) Children(code string) []model.Account {
	var result []model.Account
	for _, a := range c.accounts {
		if a.ParentCode == code && a.Level != model.LevelParent {
			result = append(result, a)
		}
	}
	slices.SortFunc(result, func(a, b model.Account) int { return cmp.Compare(a.Code, b.Code) })
	return result
}

// Postable returns the real accounts; only these accept postings.
func (c *Chart) Postable() []model.Account {
	return c.ByLevel(model.LevelReal)
}

// Insert adds an account after checking its placement. Used to merge
// accounts created by the ledger.
func (c *Chart) Insert(a model.Account) error {
	if c.Exists(a.Code) {
		return fmt.Errorf("%w: duplicate code %s", ErrInvalidChart, a.Code)
	}
	if err := c.checkPlacement(a); err != nil {
		return err
	}
	c.byCode[a.Code] = len(c.accounts)
	c.accounts = append(c.accounts, a)
	return nil
}

// Replace overwrites the account with a's code. Code, level and parent
// must match the stored account.
func (c *Chart) Replace(a model.Account) error {
	i, ok := c.byCode[a.Code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, a.Code)
	}
	cur := c.accounts[i]
	if cur.Level != a.Level || cur.ParentCode != a.ParentCode {
		return fmt.Errorf("%w: %s", ErrImmutableIdentity, a.Code)
	}
	c.accounts[i] = a
	return nil
}

// Rename returns the account with a new name and description. The code and
// position in the hierarchy never change.
func (c *Chart) Rename(code, name, description string) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, ErrNameRequired
	}
	a, ok := c.Get(code)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, code)
	}
	if c.nameTaken(a.ParentCode, a.Level, name, code) {
		return model.Account{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	a.Name = name
	a.Description = strings.TrimSpace(description)
	if err := c.Replace(a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func (c *Chart) nameTaken(parentCode string, level model.AccountLevel, name, exceptCode string) bool {
	for _, a := range c.accounts {
		if a.Code == exceptCode || a.Level != level || a.ParentCode != parentCode {
			continue
		}
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// codeStep is the numbering gap between siblings on each tier.
var codeStep = map[model.AccountLevel]int{
	model.LevelParent: 1000,
	model.LevelSub:    100,
	model.LevelReal:   1,
}

// NextCode proposes the code for a new account under parentCode. Codes
// are numeric: siblings step by 1000, 100 or 1 depending on the tier.
func (c *Chart) NextCode(level model.AccountLevel, parentCode string) (string, error) {
	step, ok := codeStep[level]
	if !ok {
		return "", fmt.Errorf("%w: level %q", ErrInvalidChart, level)
	}

	base := 0
	if parentCode != "" {
		n, err := strconv.Atoi(parentCode)
		if err != nil {
			return "", fmt.Errorf("parent code %q is not numeric: %w", parentCode, err)
		}
		base = n
	}

	highest := base
	for _, a := range c.accounts {
		if a.Level != level || a.ParentCode != parentCode {
			continue
		}
		n, err := strconv.Atoi(a.Code)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	next := highest + step
	if parentCode != "" && next >= base+codeStep[levelAbove(level)] {
		return "", fmt.Errorf("%w: no codes left under %s", ErrInvalidChart, parentCode)
	}
	return strconv.Itoa(next), nil
}

func levelAbove(l model.AccountLevel) model.AccountLevel {
	p, _ := parentLevel(l)
	return p
}
