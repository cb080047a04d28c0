// Package ledgerstub is an in-memory ledger service that speaks the same
// JSON-RPC contract as the real one. It backs local development and the
// client tests.
package ledgerstub

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/model"
)

// Seed is the initial state of a Store.
type Seed struct {
	Locations []string            `yaml:"locations"`
	Users     []User              `yaml:"users"`
	Stock     []StockLevel        `yaml:"stock"`
	Catalog   []model.CatalogItem `yaml:"catalog"`
}

// User is a token the stub accepts and what it grants.
type User struct {
	Token string           `yaml:"token"`
	ID    string           `yaml:"id"`
	Name  string           `yaml:"name"`
	Grant access.GrantData `yaml:"grant"`
}

// StockLevel is the quantity of one item on hand at one location.
type StockLevel struct {
	Location string          `yaml:"location"`
	Item     string          `yaml:"item"`
	Quantity decimal.Decimal `yaml:"quantity"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("reading seed: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parsing seed: %w", err)
	}
	return s, nil
}

// SaveSeed writes s to path as YAML.
func SaveSeed(path string, s Seed) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling seed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing seed: %w", err)
	}
	return nil
}

// DefaultSeed is a small two-location shop with an admin and a clerk.
func DefaultSeed() Seed {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return Seed{
		Locations: []string{"Accra", "Kumasi"},
		Users: []User{
			{Token: "admin-token", ID: "u-admin", Name: "Admin", Grant: access.GrantData{Admin: true}},
			{
				Token: "clerk-token", ID: "u-clerk", Name: "Clerk",
				Grant: access.GrantData{
					Locations: []string{"Accra"},
					Permissions: []access.Permission{
						{Module: access.ModuleSales, Capability: access.CapAccess},
						{Module: access.ModuleSales, Capability: access.CapCreate},
						{Module: access.ModuleAccounts, Capability: access.CapAccess},
						{Module: access.ModuleInventory, Capability: access.CapAccess},
					},
				},
			},
		},
		Stock: []StockLevel{
			{Location: "Accra", Item: "Widget", Quantity: decimal.NewFromInt(10)},
			{Location: "Accra", Item: "Gadget", Quantity: decimal.NewFromInt(5)},
			{Location: "Kumasi", Item: "Widget", Quantity: decimal.NewFromInt(2)},
		},
		Catalog: []model.CatalogItem{
			{Code: "W-1", Name: "Widget", Category: "Hardware", Brand: "Acme", UnitSuffix: "pcs", UnitPrice: price("10.00")},
			{Code: "G-1", Name: "Gadget", Category: "Hardware", Brand: "Acme", UnitSuffix: "pcs", UnitPrice: price("5.00")},
			{Code: "S-1", Name: "Sprocket", Category: "Parts", Brand: "Gearco", UnitSuffix: "pcs", UnitPrice: price("2.50")},
			{Code: "C-1", Name: "Cable 2m", Category: "Electrical", Brand: "Linko", UnitSuffix: "m", UnitPrice: price("1.20")},
		},
	}
}
