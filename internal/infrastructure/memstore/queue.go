package memstore

import (
	"sync"
	"time"

	"github.com/glowdesk/notify/internal/domain"
)

// DeliveryQueue buffers notifications for offline recipients. The capacity
// bound is global across all users: enqueuing at capacity evicts the single
// oldest entry regardless of its owner. It is best-effort buffering, not a
// durable message log.
type DeliveryQueue struct {
	mu         sync.Mutex
	entries    []domain.QueueEntry
	capacity   int
	maxRetries int
}

func NewDeliveryQueue(capacity, maxRetries int) *DeliveryQueue {
	return &DeliveryQueue{capacity: capacity, maxRetries: maxRetries}
}

// Enqueue appends an entry for the user, evicting the oldest entry first when
// the queue is at capacity. Evicted entries are dropped, not retried.
func (q *DeliveryQueue) Enqueue(userID string, n domain.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.capacity {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, domain.QueueEntry{
		UserID:       userID,
		Notification: n,
		EnqueuedAt:   time.Now().UTC(),
		MaxRetries:   q.maxRetries,
	})
}

// Requeue puts a failed entry back with its retry count incremented. Entries
// that have exhausted MaxRetries are dropped and false is returned.
func (q *DeliveryQueue) Requeue(entry domain.QueueEntry) bool {
	entry.Retries++
	if entry.Retries > entry.MaxRetries {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.capacity {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
	return true
}

// Drain removes and returns all entries for the user in enqueue order.
func (q *DeliveryQueue) Drain(userID string) []domain.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var drained []domain.QueueEntry
	remaining := q.entries[:0]
	for _, e := range q.entries {
		if e.UserID == userID {
			drained = append(drained, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	q.entries = remaining
	return drained
}

// PendingFor counts queued entries belonging to the user.
func (q *DeliveryQueue) PendingFor(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for _, e := range q.entries {
		if e.UserID == userID {
			count++
		}
	}
	return count
}

// Len returns the total queue depth across all users.
func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
