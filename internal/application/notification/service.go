package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/glowdesk/notify/internal/domain"
	"github.com/glowdesk/notify/internal/pkg/id"
	"github.com/glowdesk/notify/internal/pkg/validate"
)

// Service is the notification delivery engine: authoritative store writes,
// live push or offline queueing, broadcast fan-out, and retention cleanup.
type Service interface {
	Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error)
	List(ctx context.Context, userID string, opts domain.ListOptions) []domain.Notification
	UnreadCount(ctx context.Context, userID string) int
	Unread(ctx context.Context, userID string) []domain.Notification
	MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) int
	Archive(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	Delete(ctx context.Context, notificationID, userID string) error
	Broadcast(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error)
	FlushQueue(userID string) int
	Cleanup() int
}

type notificationStore interface {
	Put(n *domain.Notification)
	List(userID string, opts domain.ListOptions) []domain.Notification
	UnreadCount(userID string) int
	MarkRead(notificationID, userID string, at time.Time) (*domain.Notification, bool)
	MarkAllRead(userID string, at time.Time) int
	Archive(notificationID, userID string) (*domain.Notification, bool)
	Delete(notificationID, userID string) bool
	Len() int
	Cleanup(cutoff time.Time) int
}

type deliveryQueue interface {
	Enqueue(userID string, n domain.Notification)
	Requeue(entry domain.QueueEntry) bool
	Drain(userID string) []domain.QueueEntry
}

type deliveryLog interface {
	Append(entry domain.DeliveryLogEntry)
}

type preferenceStore interface {
	Get(userID string) *domain.UserPreferences
}

// Pusher is the live-push side of the transport gateway. Push is best-effort:
// false means the user was offline or the write failed, and the caller falls
// back to the delivery queue.
type Pusher interface {
	Push(userID, event string, data any) bool
	IsConnected(userID string) bool
	ConnectedUsers() []string
}

// Mailer sends the email side channel.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// SMSSender sends the sms side channel.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// ServiceDeps wires the engine's collaborators. Mailer and SMSSender may be
// nil when the corresponding channel is not configured.
type ServiceDeps struct {
	Store       notificationStore
	Queue       deliveryQueue
	Log         deliveryLog
	Preferences preferenceStore
	Pusher      Pusher
	Mailer      Mailer
	SMSSender   SMSSender

	// MaxStored triggers an opportunistic cleanup pass on create when the
	// store grows past it; RetentionDays is the cleanup age cutoff.
	MaxStored     int
	RetentionDays int
}

type service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{deps: deps}
}

// Create validates, stores and logs the notification, then delivers it: a
// live push when the user is connected, otherwise an entry in the offline
// queue. Side channels (email/sms) are fired best-effort behind the user's
// preference and quiet-hours gates. Push and channel failures are invisible
// to the caller; the record is stored and queryable regardless.
func (s *service) Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	n := s.build(req, "")
	s.deps.Store.Put(n)
	s.deps.Log.Append(domain.DeliveryLogEntry{
		NotificationID: n.NotificationID,
		UserID:         n.UserID,
		Status:         domain.LogStatusCreated,
	})

	s.deliver(n)
	s.dispatchChannels(ctx, n, req.Email, req.Phone)

	if s.deps.MaxStored > 0 && s.deps.Store.Len() > s.deps.MaxStored {
		s.Cleanup()
	}
	return n, nil
}

// build applies field defaults and allocates the ID.
func (s *service) build(req domain.CreateNotificationRequest, broadcastID string) *domain.Notification {
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         req.UserID,
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		Action:         req.Action,
		Tags:           req.Tags,
		Sound:          true,
		Desktop:        true,
		BroadcastID:    broadcastID,
		CreatedAt:      time.Now().UTC(),
	}
	if n.Title == "" {
		n.Title = "Notification"
	}
	if n.Type == "" {
		n.Type = domain.TypeInfo
	}
	if req.Sound != nil {
		n.Sound = *req.Sound
	}
	if req.Desktop != nil {
		n.Desktop = *req.Desktop
	}
	return n
}

// deliver pushes to a connected user or enqueues for an offline one.
func (s *service) deliver(n *domain.Notification) {
	if s.deps.Pusher != nil && s.deps.Pusher.Push(n.UserID, "notification", n) {
		s.deps.Log.Append(domain.DeliveryLogEntry{
			NotificationID: n.NotificationID,
			UserID:         n.UserID,
			Status:         domain.LogStatusDelivered,
			BroadcastID:    n.BroadcastID,
		})
		return
	}
	s.deps.Queue.Enqueue(n.UserID, *n)
	s.deps.Log.Append(domain.DeliveryLogEntry{
		NotificationID: n.NotificationID,
		UserID:         n.UserID,
		Status:         domain.LogStatusQueued,
		BroadcastID:    n.BroadcastID,
	})
}

// dispatchChannels fires the email/sms side channels when an address was
// supplied and the user's preferences allow it. Quiet hours suppress
// intrusive channels only; in-app storage and queueing are never suppressed.
func (s *service) dispatchChannels(ctx context.Context, n *domain.Notification, email, phone string) {
	if email == "" && phone == "" {
		return
	}
	prefs := s.deps.Preferences.Get(n.UserID)
	if !prefs.CategoryEnabled(n.Tags) || prefs.InQuietHours(time.Now()) {
		return
	}
	if email != "" && prefs.Email && s.deps.Mailer != nil {
		if err := s.deps.Mailer.SendEmail(email, n.Title, n.Message); err != nil {
			log.Printf("notification: email to %s failed: %v", n.UserID, err)
		}
	}
	if phone != "" && prefs.SMS && s.deps.SMSSender != nil {
		if err := s.deps.SMSSender.SendSMS(ctx, phone, n.Message); err != nil {
			log.Printf("notification: sms to %s failed: %v", n.UserID, err)
		}
	}
}

func (s *service) List(_ context.Context, userID string, opts domain.ListOptions) []domain.Notification {
	return s.deps.Store.List(userID, opts)
}

func (s *service) UnreadCount(_ context.Context, userID string) int {
	return s.deps.Store.UnreadCount(userID)
}

func (s *service) Unread(_ context.Context, userID string) []domain.Notification {
	return s.deps.Store.List(userID, domain.ListOptions{Filter: domain.FilterUnread})
}

func (s *service) MarkRead(_ context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, ok := s.deps.Store.MarkRead(notificationID, userID, time.Now().UTC())
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	s.deps.Log.Append(domain.DeliveryLogEntry{
		NotificationID: notificationID,
		UserID:         userID,
		Action:         domain.LogActionRead,
	})
	return n, nil
}

func (s *service) MarkAllRead(_ context.Context, userID string) int {
	count := s.deps.Store.MarkAllRead(userID, time.Now().UTC())
	if count > 0 {
		s.deps.Log.Append(domain.DeliveryLogEntry{
			UserID:         userID,
			Action:         domain.LogActionReadAll,
			RecipientCount: count,
		})
	}
	return count
}

func (s *service) Archive(_ context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, ok := s.deps.Store.Archive(notificationID, userID)
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	s.deps.Log.Append(domain.DeliveryLogEntry{
		NotificationID: notificationID,
		UserID:         userID,
		Action:         domain.LogActionArchived,
	})
	return n, nil
}

func (s *service) Delete(_ context.Context, notificationID, userID string) error {
	if !s.deps.Store.Delete(notificationID, userID) {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	s.deps.Log.Append(domain.DeliveryLogEntry{
		NotificationID: notificationID,
		UserID:         userID,
		Action:         domain.LogActionDeleted,
	})
	return nil
}

// Broadcast creates one notification per recipient under a shared broadcast
// ID. Default recipients are all currently-connected users. Fan-out is
// sequential and non-atomic: one recipient failing does not abort the rest.
func (s *service) Broadcast(_ context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	targets := req.TargetUsers
	if len(targets) == 0 && s.deps.Pusher != nil {
		targets = s.deps.Pusher.ConnectedUsers()
	}

	result := &domain.BroadcastResult{BroadcastID: id.New()}
	for _, userID := range targets {
		n := s.build(domain.CreateNotificationRequest{
			UserID:  userID,
			Title:   req.Title,
			Message: req.Message,
			Type:    req.Type,
			Action:  req.Action,
			Tags:    req.Tags,
		}, result.BroadcastID)
		s.deps.Store.Put(n)
		s.deps.Log.Append(domain.DeliveryLogEntry{
			NotificationID: n.NotificationID,
			UserID:         userID,
			Status:         domain.LogStatusCreated,
			BroadcastID:    result.BroadcastID,
		})
		s.deliver(n)
		result.Results = append(result.Results, domain.RecipientResult{
			UserID:         userID,
			NotificationID: n.NotificationID,
		})
		result.RecipientCount++
	}

	s.deps.Log.Append(domain.DeliveryLogEntry{
		Status:         domain.LogStatusBroadcast,
		BroadcastID:    result.BroadcastID,
		RecipientCount: result.RecipientCount,
	})
	return result, nil
}

// FlushQueue delivers every queued entry for the user via the gateway and
// returns the count flushed. A failed push re-queues the entry with its retry
// count incremented until MaxRetries is exhausted; the client's unread
// re-query on connect covers anything dropped.
func (s *service) FlushQueue(userID string) int {
	flushed := 0
	for _, entry := range s.deps.Queue.Drain(userID) {
		if s.deps.Pusher != nil && s.deps.Pusher.Push(userID, "notification", entry.Notification) {
			s.deps.Log.Append(domain.DeliveryLogEntry{
				NotificationID: entry.Notification.NotificationID,
				UserID:         userID,
				Status:         domain.LogStatusDelivered,
				BroadcastID:    entry.Notification.BroadcastID,
			})
			flushed++
			continue
		}
		if !s.deps.Queue.Requeue(entry) {
			log.Printf("notification: dropping %s for %s after %d retries",
				entry.Notification.NotificationID, userID, entry.Retries)
		}
	}
	return flushed
}

// Cleanup removes notifications older than the retention window that are both
// read and archived. Unread or unarchived records survive regardless of age.
func (s *service) Cleanup() int {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.deps.RetentionDays)
	removed := s.deps.Store.Cleanup(cutoff)
	if removed > 0 {
		log.Printf("notification: cleanup removed %d records older than %d days", removed, s.deps.RetentionDays)
	}
	return removed
}
