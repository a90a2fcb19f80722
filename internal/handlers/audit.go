package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/complium/asset-inventory/internal/repo"
)

type AuditHandler struct {
	Repo *repo.AuditRepo
}

// List returns the most recent audit entries, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 1000 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	entries, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("audit list failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, entries, http.StatusOK)
}
