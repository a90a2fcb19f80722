package models

import (
	"encoding/json"
	"testing"
)

func TestAssetValidate_RiskScoreRange(t *testing.T) {
	a := Asset{Name: "db-1", Owner: "ops", RiskScore: 101}
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for riskScore > 100")
	}
	a.RiskScore = -1
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for riskScore < 0")
	}
	a.RiskScore = 100
	if err := a.Validate(); err != nil {
		t.Fatalf("riskScore 100 should be valid: %v", err)
	}
	a.RiskScore = 0
	if err := a.Validate(); err != nil {
		t.Fatalf("riskScore 0 should be valid: %v", err)
	}
}

func TestAssetValidate_LegacyCasing(t *testing.T) {
	a := Asset{Name: "db-1", Owner: "ops", Criticality: "Critical", Status: "Active", DataClassification: "Confidential"}
	if err := a.Validate(); err != nil {
		t.Fatalf("legacy-cased enums should validate: %v", err)
	}
	a.Criticality = "severe"
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for unknown criticality")
	}
}

func TestAssetNormalize_Dedup(t *testing.T) {
	a := Asset{
		Tags:                 []string{"prod", "pci", "prod", ""},
		ComplianceFrameworks: []string{"SOC2", "SOC2", "ISO27001"},
	}
	a.Normalize()
	if len(a.Tags) != 2 || a.Tags[0] != "prod" || a.Tags[1] != "pci" {
		t.Errorf("tags not deduped in order: %v", a.Tags)
	}
	if len(a.ComplianceFrameworks) != 2 {
		t.Errorf("frameworks not deduped: %v", a.ComplianceFrameworks)
	}
}

func TestHasOpenVulnerabilities(t *testing.T) {
	a := Asset{Vulnerabilities: []Vulnerability{
		{Title: "v1", Status: "resolved"},
		{Title: "v2", Status: "accepted"},
		{Title: "v3", Status: "false-positive"},
	}}
	if a.HasOpenVulnerabilities() {
		t.Error("resolved/accepted/false-positive must not count as open")
	}
	a.Vulnerabilities = append(a.Vulnerabilities, Vulnerability{Title: "v4", Status: "In-Progress"})
	if !a.HasOpenVulnerabilities() {
		t.Error("in-progress (any casing) counts as open")
	}
}

func TestLocation_StringAndDual(t *testing.T) {
	plain := Location{Text: "Frankfurt DC-2"}
	if plain.String() != "Frankfurt DC-2" {
		t.Errorf("plain location: %q", plain.String())
	}
	structured := Location{Site: "HQ", City: "Berlin", Country: "DE"}
	if structured.String() != "HQ, Berlin, DE" {
		t.Errorf("structured location: %q", structured.String())
	}
}

func TestLocation_UnmarshalBothShapes(t *testing.T) {
	var l Location
	if err := json.Unmarshal([]byte(`"rack 4"`), &l); err != nil {
		t.Fatalf("string form: %v", err)
	}
	if l.Text != "rack 4" {
		t.Errorf("unexpected: %+v", l)
	}
	if err := json.Unmarshal([]byte(`{"site":"HQ","country":"DE"}`), &l); err != nil {
		t.Fatalf("object form: %v", err)
	}
	if l.Site != "HQ" || l.Country != "DE" || l.Text != "" {
		t.Errorf("unexpected: %+v", l)
	}
}

func TestExtensions_AbsentStaysAbsent(t *testing.T) {
	a := Asset{ID: "x", Name: "n", Owner: "o"}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if _, present := raw["extensions"]; present {
		t.Error("empty extensions must be omitted, not an empty placeholder")
	}

	a.Extensions.Privacy = &PrivacyExtension{GDPRCompliant: true}
	b, _ = json.Marshal(a)
	var back Asset
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Extensions.Privacy == nil || !back.Extensions.Privacy.GDPRCompliant {
		t.Error("privacy extension lost in round trip")
	}
	if back.Extensions.Component != nil || back.Extensions.Vendor != nil {
		t.Error("unset extensions must stay nil")
	}
}

func TestPatchApply_PartialAndWholesaleEdges(t *testing.T) {
	a := Asset{
		ID: "a1", Name: "old", Owner: "ops", RiskScore: 10,
		Dependencies: []Dependency{{DependsOnID: "x", Type: "technical", IsActive: true}},
	}
	name := "new"
	score := 55.0
	p := AssetPatch{
		Name:         &name,
		RiskScore:    &score,
		Dependencies: []Dependency{{DependsOnID: "y", Type: "operational", IsActive: false}},
	}
	p.Apply(&a)
	if a.Name != "new" || a.RiskScore != 55 || a.Owner != "ops" {
		t.Errorf("patch applied wrong: %+v", a)
	}
	if len(a.Dependencies) != 1 || a.Dependencies[0].DependsOnID != "y" {
		t.Errorf("dependencies must be replaced wholesale: %+v", a.Dependencies)
	}
	if a.ID != "a1" {
		t.Error("identity must never change")
	}
}

func TestCanonicalEnums(t *testing.T) {
	cases := []struct {
		in   string
		want Criticality
	}{
		{"Critical", CriticalityCritical},
		{"critical", CriticalityCritical},
		{" HIGH ", CriticalityHigh},
	}
	for _, c := range cases {
		if got := CanonicalCriticality(c.in); got != c.want {
			t.Errorf("CanonicalCriticality(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if CanonicalStatus("In Procurement") != StatusInProcurement {
		t.Error("legacy spaced status should canonicalize")
	}
	if !ValidStatus("Active") || !ValidStatus("active") {
		t.Error("both casings of status must validate")
	}
}
