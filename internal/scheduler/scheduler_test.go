package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/complium/asset-inventory/internal/inventory"
	"github.com/complium/asset-inventory/internal/models"
)

type staticStore struct {
	assets []models.Asset
}

func (s *staticStore) FetchAssets(ctx context.Context, orgID string) ([]models.Asset, error) {
	return s.assets, nil
}

func (s *staticStore) FetchAssetDetail(ctx context.Context, id string) (*models.Asset, error) {
	return nil, nil
}

func (s *staticStore) CreateAsset(ctx context.Context, orgID string, draft models.AssetDraft) (models.Asset, error) {
	return models.Asset{}, nil
}

func (s *staticStore) UpdateAsset(ctx context.Context, id string, patch models.AssetPatch) (models.Asset, error) {
	return models.Asset{}, nil
}

func (s *staticStore) DeleteAssets(ctx context.Context, ids []string) error {
	return nil
}

func TestSweep_CountsOverdueAcrossSessions(t *testing.T) {
	now := time.Now()
	overdueAt := now.Add(-24 * time.Hour)
	futureAt := now.Add(24 * time.Hour)

	store := &staticStore{assets: []models.Asset{
		{ID: "a1", Name: "due", Owner: "ops", NextReviewAt: &overdueAt, CreatedAt: now},
		{ID: "a2", Name: "fine", Owner: "ops", NextReviewAt: &futureAt, CreatedAt: now},
		{ID: "a3", Name: "unscheduled", Owner: "ops", CreatedAt: now},
	}}
	mgr := inventory.NewManager(store, inventory.Options{Debounce: time.Millisecond})
	if _, err := mgr.Session(context.Background(), "default"); err != nil {
		t.Fatalf("session init: %v", err)
	}
	defer mgr.Teardown()

	sw := &Sweeper{Manager: mgr}
	if got := sw.Sweep(); got != 1 {
		t.Errorf("overdue count: got %d, want 1", got)
	}
}

func TestSweep_NoSessions(t *testing.T) {
	mgr := inventory.NewManager(&staticStore{}, inventory.Options{})
	sw := &Sweeper{Manager: mgr}
	if got := sw.Sweep(); got != 0 {
		t.Errorf("overdue count: got %d, want 0", got)
	}
}

func TestStart_RejectsBadExpr(t *testing.T) {
	sw := &Sweeper{Manager: inventory.NewManager(&staticStore{}, inventory.Options{})}
	if _, err := sw.Start("not a cron expr"); err == nil {
		t.Error("expected an error for a malformed cron expression")
	}
}
