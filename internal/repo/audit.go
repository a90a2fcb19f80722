package repo

import (
	"context"
	"database/sql"

	"github.com/complium/asset-inventory/internal/models"
)

// AuditRepo persists the inventory audit trail: who created, updated,
// deleted or imported assets, and when.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Log records an audit entry. action is create|update|delete|import|review-overdue.
func (r *AuditRepo) Log(ctx context.Context, userID int, action, assetID, details string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, asset_id, details) VALUES ($1, $2, $3, $4)`,
		userID, action, assetID, details,
	)
	return err
}

// List returns recent audit entries, newest first.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, action, COALESCE(asset_id,''), COALESCE(details,''), created_at
		 FROM audit_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.AssetID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
