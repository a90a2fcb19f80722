package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/complium/asset-inventory/internal/models"
	"github.com/complium/asset-inventory/internal/query"
)

// fakeStore is an in-memory Store with call counting.
type fakeStore struct {
	assets      map[string]models.Asset
	fetchCalls  int
	detailCalls int
	failFetch   bool
	failCreate  bool
}

func newFakeStore(assets ...models.Asset) *fakeStore {
	m := make(map[string]models.Asset, len(assets))
	for _, a := range assets {
		m[a.ID] = a
	}
	return &fakeStore{assets: m}
}

func (f *fakeStore) FetchAssets(ctx context.Context, orgID string) ([]models.Asset, error) {
	f.fetchCalls++
	if f.failFetch {
		return nil, errors.New("store unreachable")
	}
	out := make([]models.Asset, 0, len(f.assets))
	for _, a := range f.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) FetchAssetDetail(ctx context.Context, id string) (*models.Asset, error) {
	f.detailCalls++
	a, ok := f.assets[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeStore) CreateAsset(ctx context.Context, orgID string, draft models.AssetDraft) (models.Asset, error) {
	if f.failCreate {
		return models.Asset{}, errors.New("store unreachable")
	}
	a := models.Asset{
		ID: uuid.NewString(), OrganizationID: orgID,
		Name: draft.Name, Owner: draft.Owner, Type: draft.Type,
		RiskScore: draft.RiskScore, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.assets[a.ID] = a
	return a, nil
}

func (f *fakeStore) UpdateAsset(ctx context.Context, id string, patch models.AssetPatch) (models.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return models.Asset{}, errors.New("asset not found")
	}
	patch.Apply(&a)
	f.assets[id] = a
	return a, nil
}

func (f *fakeStore) DeleteAssets(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.assets, id)
	}
	return nil
}

func seedAssets(n int) []models.Asset {
	out := make([]models.Asset, n)
	for i := range out {
		out[i] = models.Asset{
			ID:        fmt.Sprintf("a%02d", i),
			Name:      fmt.Sprintf("asset-%02d", i),
			Owner:     "ops",
			Type:      "server",
			RiskScore: float64(i),
			CreatedAt: time.Now(),
		}
	}
	return out
}

func newTestSession(t *testing.T, store Store) *Session {
	t.Helper()
	s := New(store, "org-1", Options{Debounce: 10 * time.Millisecond, PageSize: 10})
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(s.Teardown)
	return s
}

func TestSession_InitComputesViewAndStats(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(25)...))
	if s.State() != StateReady {
		t.Fatalf("state = %v, want ready", s.State())
	}
	if got := len(s.View()); got != 25 {
		t.Errorf("view size = %d, want 25", got)
	}
	if s.Stats().Total != 25 {
		t.Errorf("stats total = %d, want 25", s.Stats().Total)
	}
	if got := len(s.Page()); got != 10 {
		t.Errorf("page size = %d, want 10", got)
	}
}

func TestSession_DebounceLastWriteWins(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(5)...))

	// Rapid mutations within the window: only the final filter state computes.
	s.SetSearch("asset-00")
	s.SetSearch("asset-01")
	s.SetSearch("asset-02")
	if s.State() != StateFiltering {
		t.Fatalf("state = %v, want filtering while debounce pending", s.State())
	}

	deadline := time.Now().Add(time.Second)
	for s.State() != StateReady {
		if time.Now().After(deadline) {
			t.Fatal("recompute never ran")
		}
		time.Sleep(2 * time.Millisecond)
	}
	view := s.View()
	if len(view) != 1 || view[0].ID != "a02" {
		t.Errorf("only the last search should apply, got %d assets", len(view))
	}
}

func TestSession_FlushRunsImmediately(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(5)...))
	s.SetFilters(query.Filters{Search: "asset-04"})
	s.Flush()
	if s.State() != StateReady {
		t.Fatalf("state after flush = %v", s.State())
	}
	if view := s.View(); len(view) != 1 || view[0].ID != "a04" {
		t.Errorf("flush did not apply pending filters: %v", len(view))
	}
}

func TestSession_RecomputeResetsPage(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(25)...))
	s.SetPage(3)
	if page, _, _, _ := s.PageInfo(); page != 3 {
		t.Fatalf("page = %d, want 3", page)
	}
	s.SetSort("riskScore", query.Desc)
	s.Flush()
	if page, _, _, _ := s.PageInfo(); page != 1 {
		t.Errorf("recompute must reset page to 1, got %d", page)
	}
}

func TestSession_PageSizeReclampsPage(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(25)...))
	s.SetPage(3) // pages of 10: 3 pages for 25 assets
	s.SetPageSize(30)
	page, size, filtered, total := s.PageInfo()
	if page != 1 || size != 30 || filtered != 25 || total != 25 {
		t.Errorf("page=%d size=%d filtered=%d total=%d", page, size, filtered, total)
	}
	if got := len(s.Page()); got != 25 {
		t.Errorf("page slice = %d, want 25", got)
	}
}

func TestSession_SetPageClampsIntoRange(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(25)...))
	s.SetPage(99)
	if page, _, _, _ := s.PageInfo(); page != 3 {
		t.Errorf("page = %d, want clamp to 3", page)
	}
	s.SetPage(-1)
	if page, _, _, _ := s.PageInfo(); page != 1 {
		t.Errorf("page = %d, want clamp to 1", page)
	}
}

func TestSession_SelectionSurvivesRecompute(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(25)...))
	s.Select("a03", true)
	s.Select("a17", true)
	s.SetFilters(query.Filters{Search: "asset-0"})
	s.Flush()
	sel := s.Selected()
	if len(sel) != 2 {
		t.Errorf("selection must survive refiltering, got %v", sel)
	}
}

func TestSession_SelectPageOnlyVisible(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(25)...))
	s.SelectPage(true)
	if got := len(s.Selected()); got != 10 {
		t.Errorf("select-all must only cover the visible page: %d", got)
	}
	s.SelectPage(false)
	if got := len(s.Selected()); got != 0 {
		t.Errorf("deselect page left %d", got)
	}
}

func TestSession_HydrateCachedWithinTTL(t *testing.T) {
	store := newFakeStore(seedAssets(3)...)
	s := newTestSession(t, store)

	first, err := s.Hydrate(context.Background(), "a01")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	second, err := s.Hydrate(context.Background(), "a01")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if store.detailCalls != 1 {
		t.Errorf("second hydration within TTL must not call the store: %d calls", store.detailCalls)
	}
	if first.ID != second.ID || first.Name != second.Name {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestSession_HydrateUnknownID(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(1)...))
	if _, err := s.Hydrate(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSession_CreateReloadsCollection(t *testing.T) {
	store := newFakeStore(seedAssets(2)...)
	s := newTestSession(t, store)
	_, err := s.Create(context.Background(), models.AssetDraft{Name: "new-db", Owner: "ops", Type: "database"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, _, total := s.PageInfo(); total != 3 {
		t.Errorf("collection after create = %d, want 3", total)
	}
}

func TestSession_CreateRejectsBadDraft(t *testing.T) {
	store := newFakeStore(seedAssets(1)...)
	s := newTestSession(t, store)
	_, err := s.Create(context.Background(), models.AssetDraft{Name: "x", Owner: "ops", RiskScore: 500})
	if err == nil {
		t.Fatal("out-of-range risk score must be rejected, not clamped")
	}
	if _, _, _, total := s.PageInfo(); total != 1 {
		t.Error("rejected create must not change the collection")
	}
}

func TestSession_StoreFailureLeavesCollection(t *testing.T) {
	store := newFakeStore(seedAssets(4)...)
	s := newTestSession(t, store)
	store.failCreate = true
	if _, err := s.Create(context.Background(), models.AssetDraft{Name: "new", Owner: "ops", Type: "server"}); err == nil {
		t.Fatal("expected collaborator failure to propagate")
	}
	if _, _, _, total := s.PageInfo(); total != 4 {
		t.Error("failed mutation must leave the in-memory collection unchanged")
	}
}

func TestSession_DeleteClearsSelectionAndCache(t *testing.T) {
	store := newFakeStore(seedAssets(3)...)
	s := newTestSession(t, store)
	s.Select("a01", true)
	if _, err := s.Hydrate(context.Background(), "a01"); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(context.Background(), []string{"a01"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Selected()) != 0 {
		t.Error("deleted asset must leave the selection")
	}
	// The cache was cleared: a re-hydration hits the store again (and misses).
	calls := store.detailCalls
	if _, err := s.Hydrate(context.Background(), "a01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("hydrating deleted asset: %v", err)
	}
	if store.detailCalls != calls+1 {
		t.Error("cache must be cleared after bulk delete")
	}
}

func TestSession_ImportPerRecordOutcomes(t *testing.T) {
	store := newFakeStore(seedAssets(1)...)
	s := newTestSession(t, store)
	rep := s.Import(context.Background(), []models.AssetDraft{
		{Name: "ok-1", Owner: "ops", Type: "server"},
		{Name: "", Owner: "ops", Type: "server"},  // missing name: rejected
		{Name: "ok-2", Owner: "", Type: "server"}, // missing owner: rejected
		{Name: "ok-3", Owner: "ops", Type: "server", RiskScore: 42},
	})
	if rep.Created != 2 || rep.Rejected != 2 || rep.Failed != 0 {
		t.Fatalf("report: %+v", rep)
	}
	if len(rep.Errors) != 2 {
		t.Errorf("want 2 human-readable reasons, got %v", rep.Errors)
	}
	if _, _, _, total := s.PageInfo(); total != 3 {
		t.Errorf("collection after import = %d, want 3", total)
	}
}

func TestSession_InitFailureStaysIdle(t *testing.T) {
	store := newFakeStore(seedAssets(1)...)
	store.failFetch = true
	s := New(store, "org-1", Options{Debounce: 5 * time.Millisecond})
	if err := s.Init(context.Background()); err == nil {
		t.Fatal("expected fetch failure")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle after failed init", s.State())
	}
}

func TestSession_SnapshotDoesNotTouchViewState(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(25)...))

	res := s.Snapshot(query.Filters{Search: "asset-1"}, "riskScore", query.Desc, 1, 5)
	if res.Filtered != 10 || res.Total != 25 {
		t.Fatalf("snapshot counts: filtered=%d total=%d, want 10/25", res.Filtered, res.Total)
	}
	if len(res.Assets) != 5 || res.Assets[0].ID != "a19" {
		t.Errorf("snapshot page: %+v", res.Assets)
	}

	// The shared view keeps its own configuration.
	if f, key, _ := s.Query(); f.Search != "" || key != "" {
		t.Errorf("snapshot leaked into view config: search=%q sort=%q", f.Search, key)
	}
	if got := len(s.View()); got != 25 {
		t.Errorf("view size = %d after snapshot, want 25", got)
	}
	if page, _, _, _ := s.PageInfo(); page != 1 {
		t.Errorf("page = %d after snapshot, want 1", page)
	}
}

func TestSession_SnapshotClampsPage(t *testing.T) {
	s := newTestSession(t, newFakeStore(seedAssets(7)...))

	res := s.Snapshot(query.Filters{}, "", query.Asc, 99, 5)
	if res.Page != 2 || len(res.Assets) != 2 {
		t.Errorf("page=%d len=%d, want page 2 with 2 assets", res.Page, len(res.Assets))
	}

	// pageSize <= 0 falls back to the session's configured size.
	res = s.Snapshot(query.Filters{}, "", query.Asc, 1, 0)
	if res.PageSize != 10 || len(res.Assets) != 7 {
		t.Errorf("pageSize=%d len=%d, want session default 10", res.PageSize, len(res.Assets))
	}
}
