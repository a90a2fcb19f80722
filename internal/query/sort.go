package query

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/complium/asset-inventory/internal/models"
)

// Direction selects ascending or descending order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort returns a new slice ordered by a single key. Assets missing a value
// for the key always sort to the end: the absent-value rule is applied
// before the direction multiplier, so direction only flips the order of the
// present values. Only one key is active at a time; there is no secondary
// tie-break beyond input order (the sort is stable).
//
// Comparison is type-aware: dates by instant, strings locale-aware, numbers
// numerically, owned collections (relationships, dependencies,
// vulnerabilities, tags, frameworks) by length only, anything else by string
// coercion.
func Sort(assets []models.Asset, key string, dir Direction) []models.Asset {
	out := make([]models.Asset, len(assets))
	copy(out, assets)
	if key == "" {
		return out
	}
	coll := collate.New(language.Und, collate.Loose)
	sort.SliceStable(out, func(i, j int) bool {
		x := sortValue(&out[i], key)
		y := sortValue(&out[j], key)
		if x == nil && y == nil {
			return false
		}
		if x == nil {
			return false // absent is never less: sorts last either way
		}
		if y == nil {
			return true
		}
		c := compareValues(x, y, coll)
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// sortValue extracts the comparable value for a sort key, or nil when the
// asset has no value for it. Optional string fields report "" as absent.
func sortValue(a *models.Asset, key string) any {
	switch key {
	case "name":
		return stringOrNil(a.Name)
	case "description":
		return stringOrNil(a.Description)
	case "type":
		return stringOrNil(a.Type)
	case "category":
		return stringOrNil(a.Category)
	case "subcategory":
		return stringOrNil(a.Subcategory)
	case "owner":
		return stringOrNil(a.Owner)
	case "custodian":
		return stringOrNil(a.Custodian)
	case "location":
		return stringOrNil(a.Location.String())
	case "ipAddress":
		return stringOrNil(a.IPAddress)
	case "criticality":
		return stringOrNil(string(models.CanonicalCriticality(a.Criticality)))
	case "status":
		return stringOrNil(string(models.CanonicalStatus(a.Status)))
	case "dataClassification":
		return stringOrNil(string(models.CanonicalClassification(a.DataClassification)))
	case "businessValue":
		return stringOrNil(a.BusinessValue)
	case "encryptionStatus":
		return stringOrNil(a.EncryptionStatus)
	case "riskScore":
		return a.RiskScore
	case "createdAt":
		return timeOrNil(a.CreatedAt)
	case "updatedAt":
		return timeOrNil(a.UpdatedAt)
	case "lastAssessedAt":
		return timePtrOrNil(a.LastAssessedAt)
	case "lastReviewedAt":
		return timePtrOrNil(a.LastReviewedAt)
	case "nextReviewAt":
		return timePtrOrNil(a.NextReviewAt)
	case "relationships":
		return len(a.Relationships)
	case "dependencies":
		return len(a.Dependencies)
	case "vulnerabilities":
		return len(a.Vulnerabilities)
	case "tags":
		return len(a.Tags)
	case "complianceFrameworks":
		return len(a.ComplianceFrameworks)
	default:
		return nil
	}
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func timePtrOrNil(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

func compareValues(x, y any, coll *collate.Collator) int {
	switch xv := x.(type) {
	case time.Time:
		if yv, ok := y.(time.Time); ok {
			return xv.Compare(yv)
		}
	case string:
		if yv, ok := y.(string); ok {
			return coll.CompareString(xv, yv)
		}
	case float64:
		if yv, ok := y.(float64); ok {
			switch {
			case xv < yv:
				return -1
			case xv > yv:
				return 1
			}
			return 0
		}
	case int:
		if yv, ok := y.(int); ok {
			switch {
			case xv < yv:
				return -1
			case xv > yv:
				return 1
			}
			return 0
		}
	}
	// Mixed or unknown types: string coercion as the last resort.
	return coll.CompareString(fmt.Sprint(x), fmt.Sprint(y))
}
