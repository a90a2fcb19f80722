// Package inventory orchestrates the in-memory asset collection: a mutable,
// debounced view combining search, filter, sort, pagination and selection,
// backed by an external store for persistence and a TTL cache for per-asset
// hydration. The session always holds a complete collection: after every
// store mutation it reloads the whole org scope rather than patching
// locally, so readers see either the old or the new collection, never a
// partially-updated one.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/complium/asset-inventory/internal/cache"
	"github.com/complium/asset-inventory/internal/importer"
	"github.com/complium/asset-inventory/internal/metrics"
	"github.com/complium/asset-inventory/internal/models"
	"github.com/complium/asset-inventory/internal/query"
)

// DefaultDebounce is the settle window after a filter or sort mutation
// before the view recomputes. A mutation inside the window cancels and
// reschedules, so only the final state is ever computed.
const DefaultDebounce = 300 * time.Millisecond

// DefaultPageSize is the initial pagination size.
const DefaultPageSize = 25

// ErrNotFound is returned when a requested asset does not exist in the store.
var ErrNotFound = errors.New("asset not found")

// Store is the persistence collaborator contract. Implementations live
// outside the engine (internal/repo provides the postgres one).
type Store interface {
	FetchAssets(ctx context.Context, orgID string) ([]models.Asset, error)
	FetchAssetDetail(ctx context.Context, id string) (*models.Asset, error)
	CreateAsset(ctx context.Context, orgID string, draft models.AssetDraft) (models.Asset, error)
	UpdateAsset(ctx context.Context, id string, patch models.AssetPatch) (models.Asset, error)
	DeleteAssets(ctx context.Context, ids []string) error
}

// State is the session view state.
type State int

const (
	StateIdle      State = iota // before Init
	StateFiltering              // a recompute is pending or running
	StateReady                  // the view reflects the current filter/sort state
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFiltering:
		return "filtering"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options tunes a session. Zero values fall back to defaults.
type Options struct {
	Debounce time.Duration
	PageSize int
	CacheTTL time.Duration
	Clock    func() time.Time
	Logger   *slog.Logger
}

// Session holds the authoritative in-memory collection for one organization
// scope plus the current view configuration. All methods are safe for use
// from multiple goroutines; internally a single mutex serializes access, so
// readers always see a consistent snapshot.
type Session struct {
	store Store
	orgID string
	log   *slog.Logger

	mu     sync.Mutex
	state  State
	assets []models.Asset // full collection, replaced wholesale
	view   []models.Asset // filtered + sorted
	stats  query.Stats

	filters query.Filters
	sortKey string
	sortDir query.Direction

	page     int
	pageSize int
	selected map[string]bool

	detail *cache.Cache[string, models.Asset]

	debounce time.Duration
	timer    *time.Timer
	gen      uint64 // recompute generation; stale timers bail out
	now      func() time.Time
}

// New builds a session for one org scope. Call Init before reading.
func New(store Store, orgID string, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		store:    store,
		orgID:    orgID,
		log:      opts.Logger,
		state:    StateIdle,
		sortDir:  query.Asc,
		page:     1,
		pageSize: opts.PageSize,
		selected: make(map[string]bool),
		detail:   cache.New[string, models.Asset](opts.CacheTTL),
		debounce: opts.Debounce,
		now:      opts.Clock,
	}
}

// Init loads the collection and computes the initial view. A load failure
// leaves the session idle and empty.
func (s *Session) Init(ctx context.Context) error {
	return s.reload(ctx)
}

// Refresh reloads the collection from the store, keeping filter, sort and
// selection state. Used after out-of-band writes.
func (s *Session) Refresh(ctx context.Context) error {
	return s.reload(ctx)
}

// Assets returns a copy of the full collection, unfiltered.
func (s *Session) Assets() []models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Teardown cancels any pending recompute and drops the hydration cache.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.detail.Clear()
	s.state = StateIdle
}

// SetFilters replaces the filter specification and schedules a debounced
// recompute.
func (s *Session) SetFilters(f query.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.scheduleLocked()
}

// SetSearch updates only the free-text query, keeping other filters.
func (s *Session) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Search = q
	s.scheduleLocked()
}

// SetSort replaces the sort key and direction and schedules a debounced
// recompute.
func (s *Session) SetSort(key string, dir query.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey = key
	s.sortDir = dir
	s.scheduleLocked()
}

// scheduleLocked cancels any pending recompute and schedules a new one.
// Caller holds s.mu.
func (s *Session) scheduleLocked() {
	s.state = StateFiltering
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			return // superseded by a later mutation
		}
		s.recomputeLocked()
	})
}

// Flush runs any pending recompute immediately. Callers that cannot wait
// out the debounce window (request handlers, tests) use this after setting
// filter and sort state.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.recomputeLocked()
}

// recomputeLocked runs the pipeline: filter, sort, reset page. Caller holds
// s.mu.
func (s *Session) recomputeLocked() {
	start := time.Now()
	filtered := query.Filter(s.assets, s.filters, s.now())
	s.view = query.Sort(filtered, s.sortKey, s.sortDir)
	s.page = 1
	s.state = StateReady
	metrics.ObserveRecompute(time.Since(start).Seconds())
}

// State reports the current view state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Query returns the active filter/sort configuration.
func (s *Session) Query() (query.Filters, string, query.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters, s.sortKey, s.sortDir
}

// View returns the full filtered+sorted view.
func (s *Session) View() []models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Asset, len(s.view))
	copy(out, s.view)
	return out
}

// Page returns the current page slice of the view.
func (s *Session) Page() []models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo := (s.page - 1) * s.pageSize
	if lo >= len(s.view) {
		return nil
	}
	hi := lo + s.pageSize
	if hi > len(s.view) {
		hi = len(s.view)
	}
	out := make([]models.Asset, hi-lo)
	copy(out, s.view[lo:hi])
	return out
}

// PageInfo reports the current page, page size, filtered total and full
// collection total.
func (s *Session) PageInfo() (page, pageSize, filtered, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.pageSize, len(s.view), len(s.assets)
}

// PageResult is one computed page of a filtered, sorted view.
type PageResult struct {
	Assets   []models.Asset `json:"data"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Filtered int            `json:"filtered"`
	Total    int            `json:"total"`
}

// Snapshot computes one filtered, sorted page against the current
// collection without touching the shared view state, so concurrent callers
// with different criteria never observe each other's filters or leave them
// behind for the next caller. The debounced mutable view (SetFilters,
// SetSort, Page) remains for single-user callers. pageSize <= 0 falls back
// to the session's configured size.
func (s *Session) Snapshot(f query.Filters, key string, dir query.Direction, page, pageSize int) PageResult {
	s.mu.Lock()
	assets := s.assets // replaced wholesale, never mutated in place
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	s.mu.Unlock()

	start := time.Now()
	filtered := query.Filter(assets, f, s.now())
	view := query.Sort(filtered, key, dir)
	metrics.ObserveRecompute(time.Since(start).Seconds())

	page = clampPage(page, len(view), pageSize)
	lo := (page - 1) * pageSize
	hi := lo + pageSize
	if hi > len(view) {
		hi = len(view)
	}
	var out []models.Asset
	if lo < hi {
		out = view[lo:hi]
	}
	return PageResult{
		Assets:   out,
		Page:     page,
		PageSize: pageSize,
		Filtered: len(view),
		Total:    len(assets),
	}
}

// SetPage moves to page n, clamped into range. Pagination is a pure slice:
// no recompute happens.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = clampPage(n, len(s.view), s.pageSize)
}

// SetPageSize changes the page size and re-clamps the current page so it
// stays in range.
func (s *Session) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		n = DefaultPageSize
	}
	s.pageSize = n
	s.page = clampPage(s.page, len(s.view), s.pageSize)
}

func clampPage(page, viewLen, pageSize int) int {
	if page < 1 {
		return 1
	}
	max := (viewLen + pageSize - 1) / pageSize
	if max < 1 {
		max = 1
	}
	if page > max {
		return max
	}
	return page
}

// Stats returns the summary for the full collection. It is recomputed on
// every collection change, not per filter mutation.
func (s *Session) Stats() query.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Select marks or unmarks one asset id. Selection is independent of
// filtering and sorting and survives recomputes.
func (s *Session) Select(id string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.selected[id] = true
	} else {
		delete(s.selected, id)
	}
}

// SelectPage marks or unmarks every asset visible on the current page.
// "Select all" never reaches beyond the visible page.
func (s *Session) SelectPage(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo := (s.page - 1) * s.pageSize
	if lo >= len(s.view) {
		return
	}
	hi := lo + s.pageSize
	if hi > len(s.view) {
		hi = len(s.view)
	}
	for _, a := range s.view[lo:hi] {
		if on {
			s.selected[a.ID] = true
		} else {
			delete(s.selected, a.ID)
		}
	}
}

// ClearSelection drops all selected ids.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool)
}

// Selected returns the selected asset ids.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	return out
}

// Hydrate returns the fully hydrated asset (entity + edges +
// vulnerabilities), read through the TTL cache. Within the TTL window a
// second hydration of the same id never reaches the store.
func (s *Session) Hydrate(ctx context.Context, id string) (models.Asset, error) {
	if a, ok := s.detail.Get(id); ok {
		metrics.CacheHit()
		return a, nil
	}
	metrics.CacheMiss()
	a, err := s.store.FetchAssetDetail(ctx, id)
	if err != nil {
		return models.Asset{}, fmt.Errorf("hydrate %s: %w", id, err)
	}
	if a == nil {
		return models.Asset{}, ErrNotFound
	}
	s.detail.Set(id, *a)
	return *a, nil
}

// Create validates the draft, persists it and reloads the collection. A
// store failure leaves the in-memory collection unchanged.
func (s *Session) Create(ctx context.Context, draft models.AssetDraft) (models.Asset, error) {
	if err := draft.Validate(); err != nil {
		return models.Asset{}, err
	}
	created, err := s.store.CreateAsset(ctx, s.orgID, draft)
	if err != nil {
		return models.Asset{}, fmt.Errorf("create asset: %w", err)
	}
	if err := s.reload(ctx); err != nil {
		s.log.Error("reload after create failed", "error", err)
	}
	return created, nil
}

// Update persists a partial patch, invalidates the asset's cache entry and
// reloads the collection.
func (s *Session) Update(ctx context.Context, id string, patch models.AssetPatch) (models.Asset, error) {
	updated, err := s.store.UpdateAsset(ctx, id, patch)
	if err != nil {
		return models.Asset{}, fmt.Errorf("update asset %s: %w", id, err)
	}
	s.detail.Delete(id)
	if err := s.reload(ctx); err != nil {
		s.log.Error("reload after update failed", "error", err)
	}
	return updated, nil
}

// Delete removes the given assets, drops them from the selection, clears
// the whole hydration cache (bulk mutation: full clear over partial
// invalidation) and reloads.
func (s *Session) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.DeleteAssets(ctx, ids); err != nil {
		return fmt.Errorf("delete assets: %w", err)
	}
	s.mu.Lock()
	for _, id := range ids {
		delete(s.selected, id)
	}
	s.mu.Unlock()
	s.detail.Clear()
	if err := s.reload(ctx); err != nil {
		s.log.Error("reload after delete failed", "error", err)
	}
	return nil
}

// Import applies drafts one create per record, collecting per-record
// outcomes, then clears the cache and reloads once.
func (s *Session) Import(ctx context.Context, drafts []models.AssetDraft) importer.Report {
	rep := importer.Run(ctx, s.store, s.orgID, drafts)
	if rep.Created > 0 {
		s.detail.Clear()
		if err := s.reload(ctx); err != nil {
			s.log.Error("reload after import failed", "error", err)
		}
	}
	return rep
}

// reload replaces the collection wholesale and synchronously recomputes the
// view and the stats. On failure the previous collection stays in place.
func (s *Session) reload(ctx context.Context) error {
	assets, err := s.store.FetchAssets(ctx, s.orgID)
	if err != nil {
		return fmt.Errorf("fetch assets: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = assets
	s.stats = query.Calculate(assets, s.now())
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.recomputeLocked()
	return nil
}
