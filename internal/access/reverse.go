package access

import "github.com/cleared-dev/tally/internal/model"

// CanReverse decides whether the client offers reversal of doc.
// A reversed document can never be reversed again, even by an admin.
func CanReverse(doc model.TransactionDocument, g Grant) bool {
	if doc.Reversed() {
		return false
	}
	if g.IsAdmin() {
		return true
	}
	mod := ModuleFor(doc.Kind)
	return g.Has(Permission{Module: mod, Capability: CapAccess}) &&
		g.HasLocation(doc.Location) &&
		g.Has(Permission{Module: mod, Capability: CapReverse})
}

// CanEdit reports whether doc may be edited. Reversed documents are
// read-only.
func CanEdit(doc model.TransactionDocument, g Grant) bool {
	if doc.Reversed() {
		return false
	}
	mod := ModuleFor(doc.Kind)
	return g.IsAdmin() || (g.Has(Permission{Module: mod, Capability: CapEdit}) && g.HasLocation(doc.Location))
}
