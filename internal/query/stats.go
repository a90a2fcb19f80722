package query

import (
	"time"

	"github.com/complium/asset-inventory/internal/models"
)

// RecentWindow is how far back an asset's creation date may lie to count as
// recently added.
const RecentWindow = 30 * 24 * time.Hour

// unspecifiedBucket collects assets with no value in a breakdown dimension
// that must account for every asset (criticality, status, type), so bucket
// sums always equal the total.
const unspecifiedBucket = "unspecified"

// Stats is the single-pass summary over a collection.
type Stats struct {
	Total         int `json:"total"`
	Critical      int `json:"critical"`
	Untagged      int `json:"untagged"`
	RecentlyAdded int `json:"recentlyAdded"`

	ByType               map[string]int `json:"byType"`
	ByCriticality        map[string]int `json:"byCriticality"`
	ByStatus             map[string]int `json:"byStatus"`
	ByDataClassification map[string]int `json:"byDataClassification"`
	ByEncryptionStatus   map[string]int `json:"byEncryptionStatus"`

	GDPRCompliant       int `json:"gdprCompliant"`
	PIACompleted        int `json:"piaCompleted"`
	CrossBorderTransfer int `json:"crossBorderTransfer"`
	ThirdPartySharing   int `json:"thirdPartySharing"`
}

func zeroStats() Stats {
	return Stats{
		ByType:               map[string]int{},
		ByCriticality:        map[string]int{},
		ByStatus:             map[string]int{},
		ByDataClassification: map[string]int{},
		ByEncryptionStatus:   map[string]int{},
	}
}

// Calculate reduces the collection in one pass, O(n) time and O(k) space in
// the number of distinct breakdown values. Optional fields are skipped, not
// an error, and any panic during aggregation yields zero stats instead of
// propagating, so one malformed asset cannot blank the whole dashboard.
func Calculate(assets []models.Asset, now time.Time) (stats Stats) {
	defer func() {
		if r := recover(); r != nil {
			stats = zeroStats()
		}
	}()

	stats = zeroStats()
	cutoff := now.Add(-RecentWindow)

	for i := range assets {
		a := &assets[i]
		stats.Total++

		crit := string(models.CanonicalCriticality(a.Criticality))
		if crit == "" {
			crit = unspecifiedBucket
		}
		stats.ByCriticality[crit]++
		if crit == string(models.CriticalityCritical) {
			stats.Critical++
		}

		status := string(models.CanonicalStatus(a.Status))
		if status == "" {
			status = unspecifiedBucket
		}
		stats.ByStatus[status]++

		typ := a.Type
		if typ == "" {
			typ = unspecifiedBucket
		}
		stats.ByType[typ]++

		if c := string(models.CanonicalClassification(a.DataClassification)); c != "" {
			stats.ByDataClassification[c]++
		}
		if e := models.Canonical(a.EncryptionStatus); e != "" {
			stats.ByEncryptionStatus[e]++
		}

		if len(a.Tags) == 0 {
			stats.Untagged++
		}
		if !a.CreatedAt.IsZero() && !a.CreatedAt.Before(cutoff) {
			stats.RecentlyAdded++
		}

		if p := a.Extensions.Privacy; p != nil {
			if p.GDPRCompliant {
				stats.GDPRCompliant++
			}
			if p.PIACompleted {
				stats.PIACompleted++
			}
			if p.CrossBorderTransfer {
				stats.CrossBorderTransfer++
			}
			if p.ThirdPartySharing {
				stats.ThirdPartySharing++
			}
		}
	}
	return stats
}
