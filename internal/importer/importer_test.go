package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/complium/asset-inventory/internal/models"
)

type fakeCreator struct {
	created []models.AssetDraft
	failOn  string // name that triggers a store failure
}

func (f *fakeCreator) CreateAsset(ctx context.Context, orgID string, draft models.AssetDraft) (models.Asset, error) {
	if draft.Name == f.failOn {
		return models.Asset{}, errors.New("connection reset")
	}
	f.created = append(f.created, draft)
	return models.Asset{ID: fmt.Sprintf("id-%d", len(f.created)), Name: draft.Name}, nil
}

func TestRun_MixedOutcomes(t *testing.T) {
	store := &fakeCreator{failOn: "flaky"}
	drafts := []models.AssetDraft{
		{Name: "srv-1", Owner: "ops", Type: "server"},
		{Name: "x", Owner: "ops", Type: "server"},     // name too short
		{Name: "flaky", Owner: "ops", Type: "server"}, // store failure
		{Name: "srv-2", Owner: "ops", Type: "server", RiskScore: 42},
	}

	rep := Run(context.Background(), store, "default", drafts)

	if rep.Created != 2 || rep.Rejected != 1 || rep.Failed != 1 {
		t.Fatalf("report: created=%d rejected=%d failed=%d, want 2/1/1",
			rep.Created, rep.Rejected, rep.Failed)
	}
	if len(rep.Results) != len(drafts) {
		t.Fatalf("results: got %d, want %d", len(rep.Results), len(drafts))
	}
	if rep.Results[0].AssetID == "" || rep.Results[0].Error != "" {
		t.Errorf("record 0 should have succeeded: %+v", rep.Results[0])
	}
	if !strings.Contains(rep.Results[1].Error, "too short") {
		t.Errorf("record 1 reason: %q", rep.Results[1].Error)
	}
	if !strings.Contains(rep.Results[2].Error, "create failed") {
		t.Errorf("record 2 reason: %q", rep.Results[2].Error)
	}
	if len(store.created) != 2 {
		t.Errorf("store created %d assets, want 2", len(store.created))
	}
}

func TestRun_RejectsEnumAndRange(t *testing.T) {
	store := &fakeCreator{}
	drafts := []models.AssetDraft{
		{Name: "bad-ip", Owner: "ops", Type: "server", IPAddress: "999.1.1.1"},
		{Name: "bad-criticality", Owner: "ops", Type: "server", Criticality: "severe"},
	}

	rep := Run(context.Background(), store, "default", drafts)

	if rep.Rejected != 2 || rep.Created != 0 {
		t.Fatalf("report: created=%d rejected=%d, want 0/2", rep.Created, rep.Rejected)
	}
	if !strings.Contains(rep.Results[0].Error, "IP address") {
		t.Errorf("record 0 reason: %q", rep.Results[0].Error)
	}
	if !strings.Contains(rep.Results[1].Error, "criticality") {
		t.Errorf("record 1 reason: %q", rep.Results[1].Error)
	}
}

func TestRun_ErrorListBounded(t *testing.T) {
	store := &fakeCreator{}
	drafts := make([]models.AssetDraft, MaxReportedErrors+10)
	for i := range drafts {
		drafts[i] = models.AssetDraft{Name: "x"} // every record invalid
	}

	rep := Run(context.Background(), store, "default", drafts)

	if rep.Rejected != len(drafts) {
		t.Errorf("rejected=%d, want %d", rep.Rejected, len(drafts))
	}
	if len(rep.Errors) != MaxReportedErrors {
		t.Errorf("error list length %d, want %d", len(rep.Errors), MaxReportedErrors)
	}
}
