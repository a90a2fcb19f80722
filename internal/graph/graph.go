// Package graph answers structural queries over the relationship and
// dependency edges held on each asset. Edges stay on the asset; there is no
// global adjacency index. A Scope is rebuilt from the full collection on
// every collection change, which is cheap at the scale this inventory runs
// at (thousands of assets, not millions).
package graph

import "github.com/complium/asset-inventory/internal/models"

// HasActiveDependencies reports whether any dependency edge is active.
func HasActiveDependencies(a *models.Asset) bool {
	for _, d := range a.Dependencies {
		if d.IsActive {
			return true
		}
	}
	return false
}

// IsIsolated reports whether the asset has neither relationships nor active
// dependencies.
func IsIsolated(a *models.Asset) bool {
	return len(a.Relationships) == 0 && !HasActiveDependencies(a)
}

// Scope indexes one collection for dependent lookups and id-to-name
// resolution. Dangling references are a display concern, not an error:
// Name returns "" for an unknown id and the edge still counts structurally.
type Scope struct {
	names      map[string]string
	dependents map[string]bool
}

// NewScope builds a scope over the collection. Dependent marks come from
// active dependency edges only.
func NewScope(assets []models.Asset) *Scope {
	s := &Scope{
		names:      make(map[string]string, len(assets)),
		dependents: make(map[string]bool),
	}
	for i := range assets {
		s.names[assets[i].ID] = assets[i].Name
	}
	for i := range assets {
		for _, d := range assets[i].Dependencies {
			if d.IsActive {
				s.dependents[d.DependsOnID] = true
			}
		}
	}
	return s
}

// Name resolves an asset id to its display name, falling back to "" when the
// reference dangles.
func (s *Scope) Name(id string) string {
	return s.names[id]
}

// HasDependents reports whether any asset in the scope actively depends on
// the given id.
func (s *Scope) HasDependents(id string) bool {
	return s.dependents[id]
}

// IsOnCriticalPath reports whether the asset has active dependencies and is
// either depended upon or itself critical. This is a one-hop heuristic for
// structural significance: it does not traverse transitively through other
// assets.
func (s *Scope) IsOnCriticalPath(a *models.Asset) bool {
	if !HasActiveDependencies(a) {
		return false
	}
	return s.HasDependents(a.ID) || models.CanonicalCriticality(a.Criticality) == models.CriticalityCritical
}
