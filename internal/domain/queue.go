package domain

import "time"

// QueueEntry buffers a notification for a currently-offline recipient.
// Entries leave the queue when flushed on reconnect, when FIFO-evicted at
// capacity, or when Retries exceeds MaxRetries after failed flush pushes.
type QueueEntry struct {
	UserID       string       `json:"user_id"`
	Notification Notification `json:"notification"`
	EnqueuedAt   time.Time    `json:"enqueued_at"`
	Retries      int          `json:"retries"`
	MaxRetries   int          `json:"max_retries"`
}
