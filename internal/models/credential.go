// Package models provides data model definitions for the syncdesk core.
package models

// RemoteCredential stores the remote API endpoint and its encrypted key.
// The key is AES-256-GCM encrypted with a machine-derived secret before it
// ever touches the local store.
type RemoteCredential struct {
	ID              UUID   `db:"id" json:"id"`
	BaseURL         string `db:"base_url" json:"base_url"`
	APIKeyEncrypted string `db:"api_key_encrypted" json:"-"`
	IsEnabled       bool   `db:"is_enabled" json:"is_enabled"`
	CreatedAt       int64  `db:"created_at" json:"created_at"`
	UpdatedAt       int64  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for RemoteCredential.
func (RemoteCredential) TableName() string {
	return "remote_credentials"
}
