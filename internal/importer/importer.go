// Package importer applies a sequence of already-parsed asset drafts to the
// store, one create per record. A bad record is rejected with a
// human-readable reason and never fails the rest of the batch.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/complium/asset-inventory/internal/metrics"
	"github.com/complium/asset-inventory/internal/models"
)

// MaxReportedErrors bounds the error list in a report; past it, failures are
// still counted but their reasons are dropped.
const MaxReportedErrors = 50

var validate = validator.New()

// Creator is the slice of the store contract the importer needs.
type Creator interface {
	CreateAsset(ctx context.Context, orgID string, draft models.AssetDraft) (models.Asset, error)
}

// Result records the outcome of one import record.
type Result struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	AssetID string `json:"assetId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes a bulk import.
type Report struct {
	Created  int      `json:"created"`
	Rejected int      `json:"rejected"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
	Results  []Result `json:"results"`
}

// Run imports drafts one at a time. Validation failures are rejected
// per-record; store failures are counted separately so callers can tell bad
// input from an unhealthy collaborator.
func Run(ctx context.Context, store Creator, orgID string, drafts []models.AssetDraft) Report {
	var rep Report
	for i, d := range drafts {
		res := Result{Index: i, Name: d.Name}
		if reason := checkDraft(&d); reason != "" {
			rep.Rejected++
			metrics.CountImport("rejected")
			res.Error = reason
			rep.addError(fmt.Sprintf("record %d (%s): %s", i, displayName(d.Name), reason))
			rep.Results = append(rep.Results, res)
			continue
		}
		asset, err := store.CreateAsset(ctx, orgID, d)
		if err != nil {
			rep.Failed++
			metrics.CountImport("failed")
			res.Error = "create failed: " + err.Error()
			rep.addError(fmt.Sprintf("record %d (%s): create failed", i, displayName(d.Name)))
			rep.Results = append(rep.Results, res)
			continue
		}
		rep.Created++
		metrics.CountImport("created")
		res.AssetID = asset.ID
		rep.Results = append(rep.Results, res)
	}
	return rep
}

func (r *Report) addError(msg string) {
	if len(r.Errors) < MaxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

func displayName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return name
}

// checkDraft returns "" when the draft is acceptable, otherwise a
// human-readable rejection reason.
func checkDraft(d *models.AssetDraft) string {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			reasons := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				reasons = append(reasons, fieldReason(fe))
			}
			return strings.Join(reasons, "; ")
		}
		return err.Error()
	}
	if err := d.Validate(); err != nil {
		return err.Error()
	}
	return ""
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s is too short (min %s)", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long (max %s)", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	case "ip":
		return fmt.Sprintf("%s is not a valid IP address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
