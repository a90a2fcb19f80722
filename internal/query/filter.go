// Package query implements the in-memory filter, sort and stats engines
// applied to the full asset collection before any persistence call. All
// functions here are pure: they never mutate the input collection and never
// error for well-typed input.
package query

import (
	"strings"
	"time"

	"github.com/complium/asset-inventory/internal/graph"
	"github.com/complium/asset-inventory/internal/models"
)

// MinSearchLength disables free-text search below this many characters so
// partial keystrokes do not thrash the view.
const MinSearchLength = 2

// RiskRange is an inclusive [Min, Max] bound on the risk score.
type RiskRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Flags are the derived/structural predicates. Zero-valued flags are
// inactive; a set flag must hold for the asset to pass.
type Flags struct {
	HasVulnerabilities bool `json:"hasVulnerabilities,omitempty"`
	MissingCompliance  bool `json:"missingCompliance,omitempty"`
	OverdueAssessment  bool `json:"overdueAssessment,omitempty"`
	MultipleFrameworks bool `json:"multipleFrameworks,omitempty"`
	HasDependencies    bool `json:"hasDependencies,omitempty"`
	Isolated           bool `json:"isolated,omitempty"`
	CriticalPath       bool `json:"criticalPath,omitempty"`

	CreatedAfter       *time.Time `json:"createdAfter,omitempty"`
	LastAssessedBefore *time.Time `json:"lastAssessedBefore,omitempty"`
}

// Filters is the full filter specification. Dimensions combine with logical
// AND; within a multi-value dimension matching is logical OR against the
// allowed set, and an empty set passes everything.
type Filters struct {
	Search string `json:"search,omitempty"`

	Types                []string `json:"types,omitempty"`
	Categories           []string `json:"categories,omitempty"`
	Criticalities        []string `json:"criticalities,omitempty"`
	Owners               []string `json:"owners,omitempty"`
	Locations            []string `json:"locations,omitempty"`
	Statuses             []string `json:"status,omitempty"`
	DataClassifications  []string `json:"dataClassification,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	ComplianceFrameworks []string `json:"complianceFrameworks,omitempty"`

	RiskScoreRange *RiskRange `json:"riskScoreRange,omitempty"`

	Flags Flags `json:"metadata,omitzero"`
}

// Filter returns the subset of assets matching every active criterion. now
// anchors the date-relative flags (overdue assessment).
func Filter(assets []models.Asset, f Filters, now time.Time) []models.Asset {
	scope := graph.NewScope(assets)
	out := make([]models.Asset, 0, len(assets))
	for i := range assets {
		if matches(&assets[i], f, scope, now) {
			out = append(out, assets[i])
		}
	}
	return out
}

func matches(a *models.Asset, f Filters, scope *graph.Scope, now time.Time) bool {
	if !matchSearch(a, f.Search) {
		return false
	}
	if !inSet(a.Type, f.Types) {
		return false
	}
	if !inSet(a.Category, f.Categories) {
		return false
	}
	if !inCanonicalSet(a.Criticality, f.Criticalities) {
		return false
	}
	if !inSet(a.Owner, f.Owners) {
		return false
	}
	if !inSet(a.Location.String(), f.Locations) {
		return false
	}
	if !inCanonicalSet(a.Status, f.Statuses) {
		return false
	}
	if !inCanonicalSet(a.DataClassification, f.DataClassifications) {
		return false
	}
	if !intersects(a.Tags, f.Tags) {
		return false
	}
	if !intersects(a.ComplianceFrameworks, f.ComplianceFrameworks) {
		return false
	}
	if r := f.RiskScoreRange; r != nil {
		if a.RiskScore < r.Min || a.RiskScore > r.Max {
			return false
		}
	}
	return matchFlags(a, f.Flags, scope, now)
}

// matchSearch does a case-insensitive substring match against one joined
// searchable string. Queries shorter than MinSearchLength pass everything.
func matchSearch(a *models.Asset, q string) bool {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinSearchLength {
		return true
	}
	parts := []string{
		a.Name,
		a.Description,
		a.Owner,
		a.Location.String(),
		a.IPAddress,
		strings.Join(a.Tags, " "),
		strings.Join(a.ComplianceFrameworks, " "),
	}
	haystack := strings.ToLower(strings.Join(parts, " "))
	return strings.Contains(haystack, strings.ToLower(q))
}

// inSet passes when the set is empty or contains the value. An absent value
// ("") fails any non-empty set.
func inSet(value string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// inCanonicalSet is inSet for the dual-casing enum dimensions: both sides
// are canonicalized before comparing.
func inCanonicalSet(value string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	cv := models.Canonical(value)
	for _, s := range set {
		if models.Canonical(s) == cv {
			return true
		}
	}
	return false
}

// intersects passes when the set is empty or shares at least one element
// with the asset's values.
func intersects(values, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		for _, v := range values {
			if s == v {
				return true
			}
		}
	}
	return false
}

func matchFlags(a *models.Asset, fl Flags, scope *graph.Scope, now time.Time) bool {
	if fl.HasVulnerabilities && !a.HasOpenVulnerabilities() {
		return false
	}
	if fl.MissingCompliance && len(a.ComplianceFrameworks) != 0 {
		return false
	}
	if fl.OverdueAssessment {
		if a.NextReviewAt == nil || !a.NextReviewAt.Before(now) {
			return false
		}
	}
	if fl.MultipleFrameworks && len(a.ComplianceFrameworks) <= 1 {
		return false
	}
	if fl.HasDependencies && len(a.Dependencies) == 0 {
		return false
	}
	if fl.Isolated && !graph.IsIsolated(a) {
		return false
	}
	if fl.CriticalPath && !scope.IsOnCriticalPath(a) {
		return false
	}
	if t := fl.CreatedAfter; t != nil && a.CreatedAt.Before(*t) {
		return false
	}
	if t := fl.LastAssessedBefore; t != nil {
		if a.LastAssessedAt == nil || !a.LastAssessedAt.Before(*t) {
			return false
		}
	}
	return true
}
