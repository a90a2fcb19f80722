package query

import (
	"testing"
	"time"

	"github.com/complium/asset-inventory/internal/models"
)

func TestCalculate_Scenario(t *testing.T) {
	now := time.Now()
	s := Calculate(fixture(now), now)
	if s.Total != 3 {
		t.Errorf("total = %d, want 3", s.Total)
	}
	if s.Critical != 1 {
		t.Errorf("critical = %d, want 1", s.Critical)
	}
	if s.Untagged != 2 {
		t.Errorf("untagged = %d, want 2 (A has no tags, C has empty tags)", s.Untagged)
	}
	if s.RecentlyAdded != 2 {
		t.Errorf("recentlyAdded = %d, want 2 (B is 40 days old)", s.RecentlyAdded)
	}
}

func TestCalculate_BucketSumsEqualTotal(t *testing.T) {
	now := time.Now()
	assets := fixture(now)
	// One asset without criticality or status lands in the unspecified bucket.
	assets = append(assets, models.Asset{ID: "d", Name: "blank", Owner: "o", CreatedAt: now})
	s := Calculate(assets, now)

	sum := 0
	for _, n := range s.ByCriticality {
		sum += n
	}
	if sum != s.Total {
		t.Errorf("sum(byCriticality) = %d, want total %d", sum, s.Total)
	}

	sum = 0
	for _, n := range s.ByStatus {
		sum += n
	}
	if sum != s.Total {
		t.Errorf("sum(byStatus) = %d, want total %d", sum, s.Total)
	}
}

func TestCalculate_BreakdownsUseCanonicalValues(t *testing.T) {
	now := time.Now()
	assets := []models.Asset{
		{ID: "1", Name: "a", Owner: "o", Criticality: "Critical", CreatedAt: now},
		{ID: "2", Name: "b", Owner: "o", Criticality: "critical", CreatedAt: now},
	}
	s := Calculate(assets, now)
	if s.ByCriticality["critical"] != 2 {
		t.Errorf("both casings must share one bucket: %v", s.ByCriticality)
	}
	if s.Critical != 2 {
		t.Errorf("critical = %d, want 2", s.Critical)
	}
}

func TestCalculate_PrivacyCounts(t *testing.T) {
	now := time.Now()
	assets := []models.Asset{
		{ID: "1", Name: "a", Owner: "o", Extensions: models.ProductExtensions{
			Privacy: &models.PrivacyExtension{GDPRCompliant: true, CrossBorderTransfer: true},
		}},
		{ID: "2", Name: "b", Owner: "o", Extensions: models.ProductExtensions{
			Privacy: &models.PrivacyExtension{GDPRCompliant: true, PIACompleted: true, ThirdPartySharing: true},
		}},
		{ID: "3", Name: "c", Owner: "o"}, // no privacy extension: skipped, not zero-valued
	}
	s := Calculate(assets, now)
	if s.GDPRCompliant != 2 || s.PIACompleted != 1 || s.CrossBorderTransfer != 1 || s.ThirdPartySharing != 1 {
		t.Errorf("privacy counts wrong: %+v", s)
	}
}

func TestCalculate_OptionalBreakdownsSkipAbsent(t *testing.T) {
	now := time.Now()
	assets := []models.Asset{
		{ID: "1", Name: "a", Owner: "o", DataClassification: "Confidential", EncryptionStatus: "encrypted"},
		{ID: "2", Name: "b", Owner: "o"},
	}
	s := Calculate(assets, now)
	if len(s.ByDataClassification) != 1 || s.ByDataClassification["confidential"] != 1 {
		t.Errorf("byDataClassification: %v", s.ByDataClassification)
	}
	if len(s.ByEncryptionStatus) != 1 || s.ByEncryptionStatus["encrypted"] != 1 {
		t.Errorf("byEncryptionStatus: %v", s.ByEncryptionStatus)
	}
}

func TestCalculate_EmptyCollection(t *testing.T) {
	s := Calculate(nil, time.Now())
	if s.Total != 0 || s.ByCriticality == nil {
		t.Errorf("empty collection must yield zero stats with non-nil maps: %+v", s)
	}
}
