package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/complium/asset-inventory/internal/inventory"
	"github.com/complium/asset-inventory/internal/middleware"
	"github.com/complium/asset-inventory/internal/models"
	"github.com/complium/asset-inventory/internal/query"
	"github.com/complium/asset-inventory/internal/repo"
)

// DefaultOrg is the organization scope used when the client does not name one.
const DefaultOrg = "default"

var validate = validator.New()

// InventoryHandler exposes the inventory session over HTTP. Each org scope
// shares one session; list requests evaluate their filters, sort, and
// pagination against a snapshot of it without touching the session's view.
type InventoryHandler struct {
	Manager *inventory.Manager
	Audit   *repo.AuditRepo
}

func orgScope(r *http.Request) string {
	if org := r.URL.Query().Get("org"); org != "" {
		return org
	}
	return DefaultOrg
}

func (h *InventoryHandler) session(w http.ResponseWriter, r *http.Request) *inventory.Session {
	s, err := h.Manager.Session(r.Context(), orgScope(r))
	if err != nil {
		slog.Error("session load failed", "org", orgScope(r), "error", err)
		JSONError(w, "inventory unavailable", http.StatusServiceUnavailable)
		return nil
	}
	return s
}

//
// ==========================
// List / view configuration
// ==========================
//

// ListAssets evaluates the request's filter/sort/page criteria as a
// one-shot snapshot. The shared per-org session's own view state is never
// touched, so concurrent list requests with different criteria cannot
// observe or overwrite each other.
func (h *InventoryHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	q := r.URL.Query()
	key := q.Get("sort")
	dir := query.Asc
	if q.Get("dir") == string(query.Desc) {
		dir = query.Desc
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	JSON(w, s.Snapshot(parseFilters(r), key, dir, page, pageSize), http.StatusOK)
}

// parseFilters maps query parameters onto the engine filter spec.
// Multi-value dimensions accept comma-separated lists.
func parseFilters(r *http.Request) query.Filters {
	q := r.URL.Query()
	f := query.Filters{
		Search:               q.Get("search"),
		Types:                csv(q.Get("types")),
		Categories:           csv(q.Get("categories")),
		Criticalities:        csv(q.Get("criticalities")),
		Owners:               csv(q.Get("owners")),
		Locations:            csv(q.Get("locations")),
		Statuses:             csv(q.Get("status")),
		DataClassifications:  csv(q.Get("dataClassification")),
		Tags:                 csv(q.Get("tags")),
		ComplianceFrameworks: csv(q.Get("complianceFrameworks")),
	}

	minStr, maxStr := q.Get("riskMin"), q.Get("riskMax")
	if minStr != "" || maxStr != "" {
		rr := query.RiskRange{Min: 0, Max: 100}
		if v, err := strconv.ParseFloat(minStr, 64); err == nil {
			rr.Min = v
		}
		if v, err := strconv.ParseFloat(maxStr, 64); err == nil {
			rr.Max = v
		}
		f.RiskScoreRange = &rr
	}

	f.Flags = query.Flags{
		HasVulnerabilities: boolParam(q.Get("hasVulnerabilities")),
		MissingCompliance:  boolParam(q.Get("missingCompliance")),
		OverdueAssessment:  boolParam(q.Get("overdueAssessment")),
		MultipleFrameworks: boolParam(q.Get("multipleFrameworks")),
		HasDependencies:    boolParam(q.Get("hasDependencies")),
		Isolated:           boolParam(q.Get("isolated")),
		CriticalPath:       boolParam(q.Get("criticalPath")),
	}
	if t, err := time.Parse(time.RFC3339, q.Get("createdAfter")); err == nil {
		f.Flags.CreatedAfter = &t
	}
	if t, err := time.Parse(time.RFC3339, q.Get("lastAssessedBefore")); err == nil {
		f.Flags.LastAssessedBefore = &t
	}
	return f
}

func csv(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func boolParam(s string) bool {
	return s == "true" || s == "1"
}

//
// ==========================
// Refresh
// ==========================
//

// RefreshAssets reloads the org's collection from the store, picking up
// writes made outside this API (migrations, direct SQL, another instance).
func (h *InventoryHandler) RefreshAssets(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	if err := s.Refresh(r.Context()); err != nil {
		slog.Error("refresh failed", "org", orgScope(r), "error", err)
		JSONError(w, "failed to refresh inventory", http.StatusInternalServerError)
		return
	}
	JSON(w, map[string]any{"total": len(s.Assets())}, http.StatusOK)
}

//
// ==========================
// Stats
// ==========================
//

func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	JSON(w, s.Stats(), http.StatusOK)
}

//
// ==========================
// Detail (cached hydration)
// ==========================
//

func (h *InventoryHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	id := chi.URLParam(r, "id")
	asset, err := s.Hydrate(r.Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			JSONError(w, "asset not found", http.StatusNotFound)
			return
		}
		slog.Error("hydrate failed", "id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, asset, http.StatusOK)
}

//
// ==========================
// Create
// ==========================
//

func (h *InventoryHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var draft models.AssetDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(draft); err != nil {
		JSONValidationError(w, "validation failed", validationReasons(err), http.StatusBadRequest)
		return
	}

	asset, err := s.Create(r.Context(), draft)
	if err != nil {
		if errors.Is(err, models.ErrInvalid) {
			JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("create failed", "error", err)
		JSONError(w, "failed to create asset", http.StatusInternalServerError)
		return
	}
	h.audit(r, "create", asset.ID, asset.Name)
	JSON(w, asset, http.StatusCreated)
}

//
// ==========================
// Update
// ==========================
//

func (h *InventoryHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	id := chi.URLParam(r, "id")

	var patch models.AssetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(patch); err != nil {
		JSONValidationError(w, "validation failed", validationReasons(err), http.StatusBadRequest)
		return
	}

	asset, err := s.Update(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrNotFound):
			JSONError(w, "asset not found", http.StatusNotFound)
		case errors.Is(err, models.ErrInvalid):
			JSONError(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("update failed", "id", id, "error", err)
			JSONError(w, "failed to update asset", http.StatusInternalServerError)
		}
		return
	}
	h.audit(r, "update", id, asset.Name)
	JSON(w, asset, http.StatusOK)
}

//
// ==========================
// Bulk delete
// ==========================
//

func (h *InventoryHandler) DeleteAssets(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var input struct {
		IDs []string `json:"ids" validate:"required,min=1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(input.IDs) == 0 {
		JSONError(w, "ids is required", http.StatusBadRequest)
		return
	}

	if err := s.Delete(r.Context(), input.IDs); err != nil {
		slog.Error("delete failed", "error", err)
		JSONError(w, "failed to delete assets", http.StatusInternalServerError)
		return
	}
	h.audit(r, "delete", strings.Join(input.IDs, ","), fmt.Sprintf("%d assets", len(input.IDs)))
	w.WriteHeader(http.StatusNoContent)
}

//
// ==========================
// Bulk import
// ==========================
//

func (h *InventoryHandler) ImportAssets(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var drafts []models.AssetDraft
	if err := json.NewDecoder(r.Body).Decode(&drafts); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(drafts) == 0 {
		JSONError(w, "no records to import", http.StatusBadRequest)
		return
	}

	rep := s.Import(r.Context(), drafts)
	h.audit(r, "import", "", fmt.Sprintf("%d created, %d rejected, %d failed", rep.Created, rep.Rejected, rep.Failed))
	JSON(w, rep, http.StatusOK)
}

//
// ==========================
// Selection
// ==========================
//

func (h *InventoryHandler) Selection(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	switch r.Method {
	case http.MethodGet:
		JSON(w, map[string]any{"selected": s.Selected()}, http.StatusOK)
		return
	case http.MethodDelete:
		s.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var input struct {
		ID       string `json:"id"`
		Selected bool   `json:"selected"`
		AllPage  bool   `json:"allPage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.AllPage {
		s.SelectPage(input.Selected)
	} else if input.ID != "" {
		s.Select(input.ID, input.Selected)
	}
	JSON(w, map[string]any{"selected": s.Selected()}, http.StatusOK)
}

func (h *InventoryHandler) audit(r *http.Request, action, assetID, details string) {
	if h.Audit == nil {
		return
	}
	userID := middleware.UserID(r.Context())
	if err := h.Audit.Log(r.Context(), userID, action, assetID, details); err != nil {
		slog.Error("audit log failed", "action", action, "error", err)
	}
}

// validationReasons flattens go-playground/validator errors into
// human-readable per-field reasons for the response body.
func validationReasons(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			reasons = append(reasons, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			reasons = append(reasons, fmt.Sprintf("%s is too short (min %s)", fe.Field(), fe.Param()))
		case "max":
			reasons = append(reasons, fmt.Sprintf("%s is too long (max %s)", fe.Field(), fe.Param()))
		case "gte", "lte":
			reasons = append(reasons, fmt.Sprintf("%s is out of range", fe.Field()))
		case "ip":
			reasons = append(reasons, fmt.Sprintf("%s is not a valid IP address", fe.Field()))
		default:
			reasons = append(reasons, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return reasons
}
