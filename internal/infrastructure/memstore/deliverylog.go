package memstore

import (
	"sync"
	"time"

	"github.com/glowdesk/notify/internal/domain"
	"github.com/glowdesk/notify/internal/pkg/id"
)

// DeliveryLog is the append-only audit trail of notification lifecycle
// events, bounded to the most recent maxEntries with oldest-first truncation.
// It feeds the analytics surface only; delivery never consults it.
type DeliveryLog struct {
	mu         sync.RWMutex
	entries    []domain.DeliveryLogEntry
	maxEntries int
}

func NewDeliveryLog(maxEntries int) *DeliveryLog {
	return &DeliveryLog{maxEntries: maxEntries}
}

// Append stamps the entry with a generated ID and timestamp and appends it,
// truncating the oldest entries past the bound.
func (l *DeliveryLog) Append(entry domain.DeliveryLogEntry) {
	entry.LogID = id.New()
	entry.Timestamp = time.Now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
	}
}

// List returns entries newest-first, optionally filtered by user, paginated.
func (l *DeliveryLog) List(opts domain.LogListOptions) []domain.DeliveryLogEntry {
	l.mu.RLock()
	matched := make([]domain.DeliveryLogEntry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if opts.UserID != "" && e.UserID != opts.UserID {
			continue
		}
		matched = append(matched, e)
	}
	l.mu.RUnlock()

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []domain.DeliveryLogEntry{}
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched
}

// Stats aggregates the log, optionally scoped to one user.
func (l *DeliveryLog) Stats(userID string) domain.DeliveryStats {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.AddDate(0, 0, -7)

	stats := domain.DeliveryStats{
		ByStatus: make(map[string]int),
		ByAction: make(map[string]int),
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if userID != "" && e.UserID != userID {
			continue
		}
		stats.Total++
		if e.Status != "" {
			stats.ByStatus[e.Status]++
		}
		if e.Action != "" {
			stats.ByAction[e.Action]++
		}
		if !e.Timestamp.Before(startOfDay) {
			stats.Today++
		}
		if !e.Timestamp.Before(weekAgo) {
			stats.Last7Days++
		}
	}
	return stats
}

// Len returns the current number of retained entries.
func (l *DeliveryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Export returns a copy of the retained log tail for snapshotting.
func (l *DeliveryLog) Export() []domain.DeliveryLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.DeliveryLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Restore replaces the log contents, re-applying the retention bound.
func (l *DeliveryLog) Restore(entries []domain.DeliveryLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(entries) > l.maxEntries {
		entries = entries[len(entries)-l.maxEntries:]
	}
	l.entries = make([]domain.DeliveryLogEntry, len(entries))
	copy(l.entries, entries)
}
