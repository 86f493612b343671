// Package models provides data model definitions for the syncdesk core.
package models

// SyncStats summarizes queue and sync health for the UI. It is derived
// state: recomputed from the action queue plus running counters, never
// treated as a source of truth.
type SyncStats struct {
	TotalActions    int `json:"total_actions"`
	SuccessfulSyncs int `json:"successful_syncs"`
	FailedSyncs     int `json:"failed_syncs"`
	PendingActions  int `json:"pending_actions"`
}

// StorageStats reports local store usage against the configured quota.
type StorageStats struct {
	UsedBytes  int64 `json:"used_bytes"`
	QuotaBytes int64 `json:"quota_bytes"`
}
