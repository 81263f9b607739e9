package domain

import "time"

// Notification types drive client-side rendering (icon, colour).
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Notification is a single user-facing message record. Once created it is only
// mutated by its owning user's actions (read/archive/delete) or the retention
// cleanup job.
type Notification struct {
	NotificationID string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Type           string     `json:"type"`
	Action         string     `json:"action,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	Archived       bool       `json:"archived"`
	Sound          bool       `json:"sound"`
	Desktop        bool       `json:"desktop"`
	BroadcastID    string     `json:"broadcast_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateNotificationRequest is the inbound payload from business modules
// (booking reminders, sale receipts, stock alerts). Only UserID and Message
// are mandatory. Email and Phone are optional side-channel addresses; when
// absent the corresponding channel is skipped regardless of preferences.
type CreateNotificationRequest struct {
	UserID  string   `json:"user_id" validate:"required"`
	Title   string   `json:"title"`
	Message string   `json:"message" validate:"required"`
	Type    string   `json:"type" validate:"omitempty,oneof=info success warning error"`
	Action  string   `json:"action"`
	Tags    []string `json:"tags"`
	Sound   *bool    `json:"sound"`
	Desktop *bool    `json:"desktop"`
	Email   string   `json:"email" validate:"omitempty,email"`
	Phone   string   `json:"phone" validate:"omitempty,e164"`
}

// BroadcastRequest fans one payload out to many recipients under a shared
// broadcast ID. When TargetUsers is empty the fan-out goes to all
// currently-connected users.
type BroadcastRequest struct {
	Title       string   `json:"title"`
	Message     string   `json:"message" validate:"required"`
	Type        string   `json:"type" validate:"omitempty,oneof=info success warning error"`
	Action      string   `json:"action"`
	Tags        []string `json:"tags"`
	TargetUsers []string `json:"target_users"`
}

// BroadcastResult reports the outcome of a fan-out. Per-recipient failures do
// not abort the rest, so Results may mix successes and errors.
type BroadcastResult struct {
	BroadcastID    string            `json:"broadcast_id"`
	RecipientCount int               `json:"recipient_count"`
	Results        []RecipientResult `json:"results"`
}

// RecipientResult is the per-recipient outcome of a broadcast.
type RecipientResult struct {
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// List filters select which lifecycle slice of a user's notifications to return.
const (
	FilterAll      = "all"
	FilterUnread   = "unread"
	FilterRead     = "read"
	FilterArchived = "archived"
)

// ListOptions controls filtering and pagination of a user's notifications.
type ListOptions struct {
	Filter string
	Limit  int
	Offset int
}
