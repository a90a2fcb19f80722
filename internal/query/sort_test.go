package query

import (
	"testing"
	"time"

	"github.com/complium/asset-inventory/internal/models"
)

func TestSort_RiskScoreBothDirections(t *testing.T) {
	now := time.Now()
	assets := fixture(now)

	asc := Sort(assets, "riskScore", Asc)
	if got := ids(asc); got[0] != "c" || got[1] != "b" || got[2] != "a" {
		t.Errorf("ascending by riskScore: %v, want [c b a]", got)
	}

	desc := Sort(assets, "riskScore", Desc)
	if got := ids(desc); got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("descending by riskScore: %v, want [a b c]", got)
	}
}

func TestSort_AbsentValuesAlwaysLast(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	assets := []models.Asset{
		{ID: "none1", Name: "n1"},
		{ID: "has", Name: "n2", LastAssessedAt: &past},
		{ID: "none2", Name: "n3"},
	}
	for _, dir := range []Direction{Asc, Desc} {
		got := ids(Sort(assets, "lastAssessedAt", dir))
		if got[0] != "has" {
			t.Errorf("dir %s: asset with a value must sort first, got %v", dir, got)
		}
		// Absent values keep input order (stable) at the end.
		if got[1] != "none1" || got[2] != "none2" {
			t.Errorf("dir %s: absent values must sit last in input order, got %v", dir, got)
		}
	}
}

func TestSort_StringsAndDates(t *testing.T) {
	now := time.Now()
	assets := []models.Asset{
		{ID: "1", Name: "zeta", CreatedAt: now.Add(-time.Hour)},
		{ID: "2", Name: "Alpha", CreatedAt: now},
		{ID: "3", Name: "beta", CreatedAt: now.Add(-2 * time.Hour)},
	}

	byName := ids(Sort(assets, "name", Asc))
	if byName[0] != "2" || byName[1] != "3" || byName[2] != "1" {
		t.Errorf("name asc should be case-insensitive locale order, got %v", byName)
	}

	byDate := ids(Sort(assets, "createdAt", Desc))
	if byDate[0] != "2" || byDate[1] != "1" || byDate[2] != "3" {
		t.Errorf("createdAt desc, got %v", byDate)
	}
}

func TestSort_ArraysByLengthOnly(t *testing.T) {
	assets := []models.Asset{
		{ID: "two", Vulnerabilities: []models.Vulnerability{{Title: "a"}, {Title: "b"}}},
		{ID: "zero"},
		{ID: "one", Vulnerabilities: []models.Vulnerability{{Title: "z"}}},
	}
	got := ids(Sort(assets, "vulnerabilities", Desc))
	if got[0] != "two" || got[1] != "one" || got[2] != "zero" {
		t.Errorf("vulnerabilities desc by count, got %v", got)
	}
}

func TestSort_CriticalityIgnoresCasing(t *testing.T) {
	assets := []models.Asset{
		{ID: "1", Criticality: "Medium"},
		{ID: "2", Criticality: "critical"},
		{ID: "3", Criticality: "Critical"},
	}
	got := Sort(assets, "criticality", Asc)
	// Canonical forms: both "critical" entries sort together before "medium",
	// preserving input order between equals.
	if got[0].ID != "2" || got[1].ID != "3" || got[2].ID != "1" {
		t.Errorf("criticality sort must compare canonical forms, got %v", ids(got))
	}
}

func TestSort_UnknownKeyKeepsOrder(t *testing.T) {
	now := time.Now()
	assets := fixture(now)
	got := ids(Sort(assets, "noSuchField", Asc))
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("unknown key must leave order unchanged, got %v", got)
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	assets := fixture(now)
	_ = Sort(assets, "riskScore", Asc)
	if assets[0].ID != "a" {
		t.Error("input slice mutated")
	}
}
