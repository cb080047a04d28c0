package access

import "github.com/cleared-dev/tally/internal/model"

// Module is a closed set of console areas guarded by permissions.
type Module string

const (
	ModuleSales     Module = "sales"
	ModulePurchases Module = "purchases"
	ModuleAccounts  Module = "accounts"
	ModuleInventory Module = "inventory"
)

// Modules lists every module in display order.
var Modules = []Module{ModuleSales, ModulePurchases, ModuleAccounts, ModuleInventory}

// Capability is one named flag within a module.
type Capability string

const (
	CapAccess  Capability = "access"
	CapCreate  Capability = "create"
	CapEdit    Capability = "edit"
	CapReverse Capability = "reverse"
)

// Capabilities lists every capability a module may grant.
var Capabilities = []Capability{CapAccess, CapCreate, CapEdit, CapReverse}

// Permission is a (module, capability) pair.
type Permission struct {
	Module     Module     `json:"module" yaml:"module"`
	Capability Capability `json:"capability" yaml:"capability"`
}

func (p Permission) String() string {
	return string(p.Module) + "." + string(p.Capability)
}

// AllPermissions returns every module × capability pair.
func AllPermissions() []Permission {
	perms := make([]Permission, 0, len(Modules)*len(Capabilities))
	for _, m := range Modules {
		for _, c := range Capabilities {
			perms = append(perms, Permission{Module: m, Capability: c})
		}
	}
	return perms
}

// Action is a user-facing operation that needs exactly one permission.
type Action int

const (
	ViewSales Action = iota
	CreateSale
	EditSale
	ReverseSale
	ViewPurchases
	CreatePurchase
	EditPurchase
	ReversePurchase
	ViewAccounts
	CreateAccount
	EditAccount
	ViewInventory
	EditPrices
)

var actionTable = map[Action]Permission{
	ViewSales:       {ModuleSales, CapAccess},
	CreateSale:      {ModuleSales, CapCreate},
	EditSale:        {ModuleSales, CapEdit},
	ReverseSale:     {ModuleSales, CapReverse},
	ViewPurchases:   {ModulePurchases, CapAccess},
	CreatePurchase:  {ModulePurchases, CapCreate},
	EditPurchase:    {ModulePurchases, CapEdit},
	ReversePurchase: {ModulePurchases, CapReverse},
	ViewAccounts:    {ModuleAccounts, CapAccess},
	CreateAccount:   {ModuleAccounts, CapCreate},
	EditAccount:     {ModuleAccounts, CapEdit},
	ViewInventory:   {ModuleInventory, CapAccess},
	EditPrices:      {ModuleInventory, CapEdit},
}

// Requirement returns the permission an action needs.
func Requirement(a Action) (Permission, bool) {
	p, ok := actionTable[a]
	return p, ok
}

// ModuleFor maps a document kind to the module that owns it.
func ModuleFor(kind model.DocumentKind) Module {
	if kind == model.KindPurchase {
		return ModulePurchases
	}
	return ModuleSales
}
