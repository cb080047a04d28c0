package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(nodes []Node) []string {
	var out []string
	for _, a := range Flatten(nodes) {
		out = append(out, a.Code)
	}
	return out
}

func TestTree_Full(t *testing.T) {
	c := defaultChart(t)
	tree := c.Tree()

	require.Len(t, tree, 5)
	assert.Equal(t, "1000", tree[0].Account.Code)
	require.Len(t, tree[0].Children, 2)
	assert.Len(t, tree[0].Children[0].Children, 3)
	assert.Len(t, Flatten(tree), len(DefaultChart()))
}

func TestSearch_RealMatchNestsUnderAncestors(t *testing.T) {
	c := defaultChart(t)
	got := c.Search("vat")

	require.Len(t, got, 1)
	assert.Equal(t, "2000", got[0].Account.Code)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, "2200", got[0].Children[0].Account.Code)
	require.Len(t, got[0].Children[0].Children, 1)
	assert.Equal(t, "2201", got[0].Children[0].Children[0].Account.Code)
}

func TestSearch_ByCode(t *testing.T) {
	c := defaultChart(t)
	assert.Equal(t, []string{"5000", "5200", "5201", "5202"}, codes(c.Search("520")))
}

func TestSearch_ParentMatchOnly(t *testing.T) {
	c := defaultChart(t)
	assert.Equal(t, []string{"3000"}, codes(c.Search("equity")))
}

func TestSearch_AcrossTiers(t *testing.T) {
	c := defaultChart(t)
	// Sales and Product Sales under Revenue, Cost of Sales under Expenses.
	assert.Equal(t, []string{"4000", "4100", "4101", "5000", "5100"}, codes(c.Search("SALES")))
}

func TestSearch_NoMatch(t *testing.T) {
	c := defaultChart(t)
	assert.Empty(t, c.Search("zzz"))
}
