package delivery

import (
	"context"
	"time"

	"github.com/glowdesk/notify/internal/domain"
)

// Service exposes the read-side analytics over the delivery log plus the
// operational system stats. It never feeds back into delivery decisions.
type Service interface {
	Stats(ctx context.Context, userID string) domain.DeliveryStats
	Logs(ctx context.Context, opts domain.LogListOptions) []domain.DeliveryLogEntry
	SystemStats(ctx context.Context) domain.SystemStats
}

type deliveryLog interface {
	Stats(userID string) domain.DeliveryStats
	List(opts domain.LogListOptions) []domain.DeliveryLogEntry
	Len() int
}

type notificationStore interface {
	Len() int
	TotalUnread() int
}

type deliveryQueue interface {
	Len() int
}

type connectionCounter interface {
	Count() int
}

type snapshotClock interface {
	LastSavedAt() *time.Time
}

// ServiceDeps wires the analytics sources. Conns and Snapshots may be nil in
// tests; the corresponding stats stay zero.
type ServiceDeps struct {
	Log       deliveryLog
	Store     notificationStore
	Queue     deliveryQueue
	Conns     connectionCounter
	Snapshots snapshotClock
}

type service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{deps: deps}
}

func (s *service) Stats(_ context.Context, userID string) domain.DeliveryStats {
	return s.deps.Log.Stats(userID)
}

func (s *service) Logs(_ context.Context, opts domain.LogListOptions) []domain.DeliveryLogEntry {
	return s.deps.Log.List(opts)
}

func (s *service) SystemStats(_ context.Context) domain.SystemStats {
	stats := domain.SystemStats{
		StoredNotifications: s.deps.Store.Len(),
		UnreadTotal:         s.deps.Store.TotalUnread(),
		QueueDepth:          s.deps.Queue.Len(),
		DeliveryLogSize:     s.deps.Log.Len(),
	}
	if s.deps.Conns != nil {
		stats.ConnectedClients = s.deps.Conns.Count()
	}
	if s.deps.Snapshots != nil {
		stats.LastSnapshotAt = s.deps.Snapshots.LastSavedAt()
	}
	return stats
}
