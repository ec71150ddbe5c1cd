package domain

import "time"

// SnapshotHandle references a point-in-time chain state. Only the host that
// created it knows what the points mean.
type SnapshotHandle struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	CreatedAt time.Time         `json:"createdAt"`
	Points    map[string]string `json:"points,omitempty"` // keyed by node instance name
}
