// Package db provides the durable local store backing the offline data layer.
package db

import (
	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
)

// EstimateUsage reports how much of the configured storage quota the store
// consumes. QuotaBytes is zero when no quota is configured.
func (s *Store) EstimateUsage() (models.StorageStats, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return models.StorageStats{}, errors.Wrap(errors.ErrStorage, "failed to read page count", err)
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return models.StorageStats{}, errors.Wrap(errors.ErrStorage, "failed to read page size", err)
	}

	return models.StorageStats{
		UsedBytes:  pageCount * pageSize,
		QuotaBytes: s.db.quotaBytes,
	}, nil
}

// QuotaExceeded reports whether adding extra bytes would exceed the quota.
// Always false when no quota is configured.
func (s *Store) QuotaExceeded(extra int64) (bool, error) {
	if s.db.quotaBytes <= 0 {
		return false, nil
	}
	usage, err := s.EstimateUsage()
	if err != nil {
		return false, err
	}
	return usage.UsedBytes+extra > s.db.quotaBytes, nil
}
