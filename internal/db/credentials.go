// Package db provides the durable local store backing the offline data layer.
package db

import (
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
	"github.com/jchang/syncdesk/internal/uuid"
)

// GetRemoteCredential retrieves the currently enabled remote API credential.
func (s *Store) GetRemoteCredential() (*models.RemoteCredential, error) {
	query := `SELECT id, base_url, api_key_encrypted, is_enabled, created_at, updated_at
			  FROM remote_credentials WHERE is_enabled = 1 LIMIT 1`

	var cred models.RemoteCredential
	err := s.db.QueryRow(query).Scan(
		&cred.ID, &cred.BaseURL, &cred.APIKeyEncrypted,
		&cred.IsEnabled, &cred.CreatedAt, &cred.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrSyncNotConfigured, "no remote credential configured")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to read remote credential", err)
	}
	return &cred, nil
}

// SaveRemoteCredential saves a new remote API credential.
func (s *Store) SaveRemoteCredential(cred *models.RemoteCredential) error {
	cred.ID = models.UUID(uuid.New())
	now := time.Now().Unix()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	query := `INSERT INTO remote_credentials (id, base_url, api_key_encrypted, is_enabled, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query,
		cred.ID, cred.BaseURL, cred.APIKeyEncrypted,
		cred.IsEnabled, cred.CreatedAt, cred.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to save remote credential", err)
	}
	return nil
}

// DeleteRemoteCredential deletes a remote credential by ID.
func (s *Store) DeleteRemoteCredential(id string) error {
	_, err := s.db.Exec(`DELETE FROM remote_credentials WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to delete remote credential", err)
	}
	return nil
}

// DisableAllRemoteCredentials disables all credentials (used when setting a
// new one).
func (s *Store) DisableAllRemoteCredentials() error {
	_, err := s.db.Exec(`UPDATE remote_credentials SET is_enabled = 0 WHERE is_enabled = 1`)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to disable remote credentials", err)
	}
	return nil
}
