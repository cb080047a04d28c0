// Package access models a user's permissions and decides whether an
// action is offered. These checks are a UX gate; the ledger enforces
// the same rules on its side.
package access

import (
	"cmp"
	"maps"
	"slices"
)

// Grant is an immutable set of permissions. Methods that change it return
// a new Grant.
type Grant struct {
	admin     bool
	locations map[string]bool
	flags     map[Permission]bool

	// explicit holds the non-admin values in force before admin was set,
	// so clearing admin restores them.
	explicit *snapshot
}

type snapshot struct {
	locations map[string]bool
	flags     map[Permission]bool
}

// NewGrant builds a non-admin grant from explicit flags and locations.
func NewGrant(flags []Permission, locations []string) Grant {
	g := Grant{
		locations: make(map[string]bool, len(locations)),
		flags:     make(map[Permission]bool, len(flags)),
	}
	for _, p := range flags {
		g.flags[p] = true
	}
	for _, l := range locations {
		g.locations[l] = true
	}
	return g
}

// AdminGrant returns a grant with admin set over the given locations.
func AdminGrant(allLocations []string) Grant {
	return SetAdmin(Grant{}, true, allLocations)
}

// IsAdmin reports whether the admin shortcut is set.
func (g Grant) IsAdmin() bool {
	return g.admin
}

// Has reports whether the grant holds p. Admin holds everything.
func (g Grant) Has(p Permission) bool {
	return g.admin || g.flags[p]
}

// HasLocation reports whether the grant covers a location.
func (g Grant) HasLocation(location string) bool {
	return g.locations[location]
}

// Locations returns the covered locations, sorted.
func (g Grant) Locations() []string {
	return slices.Sorted(maps.Keys(g.locations))
}

// Permissions returns the explicitly set flags, sorted by name.
func (g Grant) Permissions() []Permission {
	perms := make([]Permission, 0, len(g.flags))
	for p, ok := range g.flags {
		if ok {
			perms = append(perms, p)
		}
	}
	slices.SortFunc(perms, func(a, b Permission) int {
		return cmp.Compare(a.String(), b.String())
	})
	return perms
}

// WithPermission returns a copy of g with p set to on.
func (g Grant) WithPermission(p Permission, on bool) Grant {
	out := g.clone()
	if on {
		out.flags[p] = true
	} else {
		delete(out.flags, p)
	}
	return out
}

// WithLocation returns a copy of g with location set to on.
func (g Grant) WithLocation(location string, on bool) Grant {
	out := g.clone()
	if on {
		out.locations[location] = true
	} else {
		delete(out.locations, location)
	}
	return out
}

// SetAdmin flips the admin shortcut. Turning it on forces every flag and
// every location on and remembers the explicit values; turning it off
// restores those values rather than clearing everything.
func SetAdmin(g Grant, admin bool, allLocations []string) Grant {
	if g.admin == admin {
		return g
	}
	out := g.clone()
	if admin {
		out.explicit = &snapshot{
			locations: maps.Clone(g.locations),
			flags:     maps.Clone(g.flags),
		}
		out.admin = true
		out.flags = make(map[Permission]bool)
		for _, p := range AllPermissions() {
			out.flags[p] = true
		}
		out.locations = make(map[string]bool, len(allLocations))
		for _, l := range allLocations {
			out.locations[l] = true
		}
		return out
	}

	restored := Grant{}
	if g.explicit != nil {
		restored.flags = g.explicit.flags
		restored.locations = g.explicit.locations
	}
	return restored.clone()
}

func (g Grant) clone() Grant {
	out := Grant{
		admin:     g.admin,
		locations: maps.Clone(g.locations),
		flags:     maps.Clone(g.flags),
		explicit:  g.explicit,
	}
	if out.locations == nil {
		out.locations = make(map[string]bool)
	}
	if out.flags == nil {
		out.flags = make(map[Permission]bool)
	}
	return out
}

// Authorize reports whether g may perform a.
func Authorize(g Grant, a Action) bool {
	p, ok := Requirement(a)
	if !ok {
		return false
	}
	return g.Has(p)
}

// GrantData is the wire form of a Grant.
type GrantData struct {
	Admin       bool         `json:"admin" yaml:"admin"`
	Locations   []string     `json:"locations" yaml:"locations"`
	Permissions []Permission `json:"permissions" yaml:"permissions"`
}

// Data returns the wire form of g.
func (g Grant) Data() GrantData {
	return GrantData{
		Admin:       g.admin,
		Locations:   g.Locations(),
		Permissions: g.Permissions(),
	}
}

// FromData rebuilds a Grant. An admin grant covers allLocations.
func FromData(d GrantData, allLocations []string) Grant {
	g := NewGrant(d.Permissions, d.Locations)
	if d.Admin {
		return SetAdmin(g, true, allLocations)
	}
	return g
}
