package models

import "time"

// AuditEntry represents one audit log row.
type AuditEntry struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"` // create, update, delete, import, review-overdue
	AssetID   string    `json:"asset_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an API account. The password hash never serializes.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
