package accounts

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// Node is an account with its nested children, as shown in listings.
type Node struct {
	Account  model.Account
	Children []Node
}

// Tree returns the full hierarchy ordered by code.
func (c *Chart) Tree() []Node {
	return c.Search("")
}

// Search filters the tree by a case-insensitive substring of name or
// code, across all three tiers at once. A row is kept when it matches or
// when any of its descendants does; kept rows nest only their kept
// descendants. An empty query keeps everything.
func (c *Chart) Search(query string) []Node {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Node
	parents := c.ByLevel(model.LevelParent)
	sortByCode(parents)
	for _, p := range parents {
		if n, ok := c.filter(p, q); ok {
			out = append(out, n)
		}
	}
	return out
}

func (c *Chart) filter(a model.Account, q string) (Node, bool) {
	n := Node{Account: a}
	for _, child := range c.Children(a.Code) {
		if cn, ok := c.filter(child, q); ok {
			n.Children = append(n.Children, cn)
		}
	}
	return n, matches(a, q) || len(n.Children) > 0
}

func matches(a model.Account, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Code), q)
}

// Flatten walks nodes depth-first.
func Flatten(nodes []Node) []model.Account {
	var out []model.Account
	for _, n := range nodes {
		out = append(out, n.Account)
		out = append(out, Flatten(n.Children)...)
	}
	return out
}

func sortByCode(accts []model.Account) {
	slices.SortFunc(accts, func(a, b model.Account) int { return cmp.Compare(a.Code, b.Code) })
}
