package domain

import "time"

// Delivery log statuses and actions. The log is an append-only audit trail
// consumed by analytics only; delivery correctness never depends on it.
const (
	LogStatusCreated   = "created"
	LogStatusDelivered = "delivered"
	LogStatusQueued    = "queued"
	LogStatusBroadcast = "broadcast"

	LogActionRead     = "read"
	LogActionReadAll  = "read_all"
	LogActionArchived = "archived"
	LogActionDeleted  = "deleted"
)

// DeliveryLogEntry records one lifecycle event for a notification.
type DeliveryLogEntry struct {
	LogID          string    `json:"id"`
	NotificationID string    `json:"notification_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Action         string    `json:"action,omitempty"`
	BroadcastID    string    `json:"broadcast_id,omitempty"`
	RecipientCount int       `json:"recipient_count,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// DeliveryStats is a pure aggregation over the in-memory delivery log.
type DeliveryStats struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	ByAction  map[string]int `json:"by_action"`
	Today     int            `json:"today"`
	Last7Days int            `json:"last_7_days"`
}

// LogListOptions controls filtering and pagination of delivery log queries.
type LogListOptions struct {
	UserID string
	Limit  int
	Offset int
}

// SystemStats is the operational snapshot exposed on the admin surface.
type SystemStats struct {
	StoredNotifications int        `json:"stored_notifications"`
	UnreadTotal         int        `json:"unread_total"`
	QueueDepth          int        `json:"queue_depth"`
	ConnectedClients    int        `json:"connected_clients"`
	DeliveryLogSize     int        `json:"delivery_log_size"`
	LastSnapshotAt      *time.Time `json:"last_snapshot_at,omitempty"`
}
