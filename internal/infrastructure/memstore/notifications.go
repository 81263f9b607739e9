package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/glowdesk/notify/internal/domain"
)

// NotificationStore is the authoritative in-memory record of all
// notifications, independent of delivery status. It is safe for concurrent
// use; the process owns a single instance wired through DI.
type NotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notifications: make(map[string]*domain.Notification)}
}

// Put stores a notification by ID, overwriting any previous record.
func (s *NotificationStore) Put(n *domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.NotificationID] = &cp
}

// Get returns the notification only when it exists and userID owns it.
// A copy is returned so callers cannot mutate stored state.
func (s *NotificationStore) Get(notificationID, userID string) (*domain.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return nil, false
	}
	cp := *n
	return &cp, true
}

// List returns the user's notifications filtered per opts, sorted by
// CreatedAt descending, paginated by Limit/Offset. The unread filter
// additionally excludes archived records.
func (s *NotificationStore) List(userID string, opts domain.ListOptions) []domain.Notification {
	s.mu.RLock()
	matched := make([]domain.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		switch opts.Filter {
		case domain.FilterUnread:
			if n.Read || n.Archived {
				continue
			}
		case domain.FilterRead:
			if !n.Read {
				continue
			}
		case domain.FilterArchived:
			if !n.Archived {
				continue
			}
		}
		matched = append(matched, *n)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []domain.Notification{}
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched
}

// UnreadCount counts unarchived unread notifications for the user.
func (s *NotificationStore) UnreadCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read && !n.Archived {
			count++
		}
	}
	return count
}

// MarkRead sets read=true; ReadAt is stamped only on the false→true
// transition, so repeated calls never move it. Returns false when the record
// does not exist or userID does not own it.
func (s *NotificationStore) MarkRead(notificationID, userID string, at time.Time) (*domain.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return nil, false
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &at
	}
	cp := *n
	return &cp, true
}

// MarkAllRead marks every unread notification of the user and returns the
// count affected.
func (s *NotificationStore) MarkAllRead(userID string, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			t := at
			n.ReadAt = &t
			count++
		}
	}
	return count
}

// Archive flags the notification as archived under the same ownership check.
func (s *NotificationStore) Archive(notificationID, userID string) (*domain.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return nil, false
	}
	n.Archived = true
	cp := *n
	return &cp, true
}

// Delete hard-removes the notification (no tombstone).
func (s *NotificationStore) Delete(notificationID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return false
	}
	delete(s.notifications, notificationID)
	return true
}

// Len returns the total number of stored notifications.
func (s *NotificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

// TotalUnread counts unarchived unread notifications across all users.
func (s *NotificationStore) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if !n.Read && !n.Archived {
			count++
		}
	}
	return count
}

// Cleanup removes notifications older than cutoff that are both read and
// archived. Unread or unarchived records are never removed regardless of age.
// Returns the number removed.
func (s *NotificationStore) Cleanup(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for notifID, n := range s.notifications {
		if n.Read && n.Archived && n.CreatedAt.Before(cutoff) {
			delete(s.notifications, notifID)
			removed++
		}
	}
	return removed
}

// Export returns a copy of every stored notification for snapshotting.
func (s *NotificationStore) Export() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, *n)
	}
	return out
}

// Restore replaces the store contents with the given records.
func (s *NotificationStore) Restore(records []domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make(map[string]*domain.Notification, len(records))
	for i := range records {
		n := records[i]
		s.notifications[n.NotificationID] = &n
	}
}
