package memstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/glowdesk/notify/internal/domain"
	"github.com/glowdesk/notify/internal/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotification(userID string, createdAt time.Time) *domain.Notification {
	return &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Title:          "Appointment",
		Message:        "Cita en 1h",
		Type:           domain.TypeInfo,
		Sound:          true,
		Desktop:        true,
		CreatedAt:      createdAt,
	}
}

func TestGet_OwnershipEnforced(t *testing.T) {
	s := NewNotificationStore()
	n := newNotification("u1", time.Now().UTC())
	s.Put(n)

	_, ok := s.Get(n.NotificationID, "u2")
	assert.False(t, ok)
	got, ok := s.Get(n.NotificationID, "u1")
	require.True(t, ok)
	assert.Equal(t, n.NotificationID, got.NotificationID)
}

func TestMarkRead_WrongUserLeavesRecordUntouched(t *testing.T) {
	s := NewNotificationStore()
	n := newNotification("u1", time.Now().UTC())
	s.Put(n)

	_, ok := s.MarkRead(n.NotificationID, "u2", time.Now().UTC())
	assert.False(t, ok)
	_, ok = s.Archive(n.NotificationID, "u2")
	assert.False(t, ok)
	assert.False(t, s.Delete(n.NotificationID, "u2"))

	got, ok := s.Get(n.NotificationID, "u1")
	require.True(t, ok)
	assert.False(t, got.Read)
	assert.Nil(t, got.ReadAt)
	assert.False(t, got.Archived)
}

func TestMarkRead_ReadAtSetOnce(t *testing.T) {
	s := NewNotificationStore()
	n := newNotification("u1", time.Now().UTC())
	s.Put(n)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	got, ok := s.MarkRead(n.NotificationID, "u1", first)
	require.True(t, ok)
	require.NotNil(t, got.ReadAt)
	assert.Equal(t, first, *got.ReadAt)

	// Repeated calls are harmless and never move ReadAt.
	later := first.Add(time.Hour)
	got, ok = s.MarkRead(n.NotificationID, "u1", later)
	require.True(t, ok)
	assert.Equal(t, first, *got.ReadAt)
}

func TestList_UnreadExcludesArchived(t *testing.T) {
	s := NewNotificationStore()
	now := time.Now().UTC()

	unread := newNotification("u1", now)
	s.Put(unread)

	read := newNotification("u1", now.Add(-time.Minute))
	s.Put(read)
	_, ok := s.MarkRead(read.NotificationID, "u1", now)
	require.True(t, ok)

	archived := newNotification("u1", now.Add(-2*time.Minute))
	s.Put(archived)
	_, ok = s.Archive(archived.NotificationID, "u1")
	require.True(t, ok)

	other := newNotification("u2", now)
	s.Put(other)

	got := s.List("u1", domain.ListOptions{Filter: domain.FilterUnread})
	require.Len(t, got, 1)
	assert.Equal(t, unread.NotificationID, got[0].NotificationID)

	assert.Len(t, s.List("u1", domain.ListOptions{Filter: domain.FilterAll}), 3)
	assert.Len(t, s.List("u1", domain.ListOptions{Filter: domain.FilterRead}), 1)
	assert.Len(t, s.List("u1", domain.ListOptions{Filter: domain.FilterArchived}), 1)
	assert.Equal(t, 1, s.UnreadCount("u1"))
}

func TestList_NewestFirstAndPaginated(t *testing.T) {
	s := NewNotificationStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		n := newNotification("u1", base.Add(time.Duration(i)*time.Minute))
		n.Message = fmt.Sprintf("msg-%d", i)
		s.Put(n)
	}

	got := s.List("u1", domain.ListOptions{Filter: domain.FilterAll, Limit: 2})
	require.Len(t, got, 2)
	assert.Equal(t, "msg-4", got[0].Message)
	assert.Equal(t, "msg-3", got[1].Message)

	got = s.List("u1", domain.ListOptions{Filter: domain.FilterAll, Limit: 2, Offset: 4})
	require.Len(t, got, 1)
	assert.Equal(t, "msg-0", got[0].Message)

	got = s.List("u1", domain.ListOptions{Filter: domain.FilterAll, Offset: 10})
	assert.Empty(t, got)
}

func TestMarkAllRead(t *testing.T) {
	s := NewNotificationStore()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		s.Put(newNotification("u1", now))
	}
	s.Put(newNotification("u2", now))

	assert.Equal(t, 3, s.MarkAllRead("u1", now))
	for _, n := range s.List("u1", domain.ListOptions{Filter: domain.FilterAll}) {
		assert.True(t, n.Read)
		assert.NotNil(t, n.ReadAt)
	}
	assert.Equal(t, 1, s.UnreadCount("u2"))
}

func TestCleanup_OnlyReadAndArchivedBeyondCutoff(t *testing.T) {
	s := NewNotificationStore()
	old := time.Now().UTC().AddDate(0, 0, -40)

	stale := newNotification("u1", old)
	s.Put(stale)
	_, ok := s.MarkRead(stale.NotificationID, "u1", time.Now().UTC())
	require.True(t, ok)
	_, ok = s.Archive(stale.NotificationID, "u1")
	require.True(t, ok)

	unreadOld := newNotification("u1", old)
	s.Put(unreadOld)

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	assert.Equal(t, 1, s.Cleanup(cutoff))

	_, ok = s.Get(stale.NotificationID, "u1")
	assert.False(t, ok)
	_, ok = s.Get(unreadOld.NotificationID, "u1")
	assert.True(t, ok)
}

func TestExportRestore(t *testing.T) {
	s := NewNotificationStore()
	n := newNotification("u1", time.Now().UTC())
	s.Put(n)

	fresh := NewNotificationStore()
	fresh.Restore(s.Export())
	got, ok := fresh.Get(n.NotificationID, "u1")
	require.True(t, ok)
	assert.Equal(t, n.Message, got.Message)
	assert.Equal(t, 1, fresh.Len())
}
