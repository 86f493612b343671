package sync

import (
	"fmt"

	"github.com/jchang/syncdesk/internal/models"
)

// HealthColor is the coarse health indicator shown in the UI.
type HealthColor string

const (
	HealthGreen  HealthColor = "green"
	HealthYellow HealthColor = "yellow"
	HealthRed    HealthColor = "red"
	HealthGray   HealthColor = "gray"
)

// Status is the derived, human-readable sync state.
type Status struct {
	Online  bool                `json:"online"`
	Syncing bool                `json:"syncing"`
	Message string              `json:"message"`
	Health  HealthColor         `json:"health"`
	Stats   models.SyncStats    `json:"stats"`
	Storage models.StorageStats `json:"storage"`
}

// DeriveStatus computes the display status. Precedence: offline beats
// everything, then terminal failures, then work in progress or queued, then
// all clear.
func DeriveStatus(online, syncing bool, stats models.SyncStats) (string, HealthColor) {
	switch {
	case !online:
		if stats.PendingActions > 0 {
			return fmt.Sprintf("Offline, %d changes waiting to sync", stats.PendingActions), HealthGray
		}
		return "Offline", HealthGray
	case stats.FailedSyncs > 0:
		return fmt.Sprintf("%d changes failed to sync", stats.FailedSyncs), HealthRed
	case syncing:
		return "Syncing...", HealthYellow
	case stats.PendingActions > 0:
		return fmt.Sprintf("%d changes pending", stats.PendingActions), HealthYellow
	default:
		return "All changes synced", HealthGreen
	}
}
