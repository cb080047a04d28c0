package model

import "github.com/shopspring/decimal"

// AccountLevel is a node's tier in the chart of accounts.
type AccountLevel string

const (
	LevelParent AccountLevel = "parent"
	LevelSub    AccountLevel = "sub"
	LevelReal   AccountLevel = "real"
)

// Valid reports whether l is one of the three known tiers.
func (l AccountLevel) Valid() bool {
	switch l {
	case LevelParent, LevelSub, LevelReal:
		return true
	}
	return false
}

// Account is a node in the chart of accounts.
// Balance is computed by the ledger; for parent and sub nodes it is the
// aggregate of the descendant real accounts.
type Account struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Level       AccountLevel    `json:"level"`
	ParentCode  string          `json:"parentCode,omitempty"` // "" = top-level
	Description string          `json:"description,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
}
