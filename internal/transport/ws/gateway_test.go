package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glowdesk/notify/internal/application/notification"
	"github.com/glowdesk/notify/internal/domain"
	"github.com/glowdesk/notify/internal/infrastructure/memstore"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireEvent mirrors the server frame with the payload left raw for
// per-event decoding.
type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type testSession struct {
	t    *testing.T
	conn *websocket.Conn
	svc  notification.Service
}

func newTestSession(t *testing.T) *testSession {
	t.Helper()

	store := memstore.NewNotificationStore()
	registry := NewRegistry()
	svc := notification.NewService(notification.ServiceDeps{
		Store:         store,
		Queue:         memstore.NewDeliveryQueue(100, 3),
		Log:           memstore.NewDeliveryLog(1000),
		Preferences:   memstore.NewPreferenceStore(),
		Pusher:        registry,
		MaxStored:     100,
		RetentionDays: 30,
	})
	gw := NewGateway(registry, svc)

	srv := httptest.NewServer(http.HandlerFunc(gw.Handle))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testSession{t: t, conn: conn, svc: svc}
}

func (s *testSession) send(event string, data any) {
	s.t.Helper()
	require.NoError(s.t, s.conn.WriteJSON(Event{Event: event, Data: data}))
}

func (s *testSession) read() wireEvent {
	s.t.Helper()
	require.NoError(s.t, s.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev wireEvent
	require.NoError(s.t, s.conn.ReadJSON(&ev))
	return ev
}

func TestGateway_AuthFlushesQueueBeforeUnreadCount(t *testing.T) {
	s := newTestSession(t)

	// Created while nobody is connected: stored unread and queued.
	_, err := s.svc.Create(context.Background(), domain.CreateNotificationRequest{
		UserID:  "u1",
		Message: "Cita mañana a las 10",
	})
	require.NoError(t, err)

	s.send(EventAuth, map[string]string{"user_id": "u1"})

	// The queued notification arrives first, then the readiness count.
	first := s.read()
	assert.Equal(t, EventNotification, first.Event)
	var n domain.Notification
	require.NoError(t, json.Unmarshal(first.Data, &n))
	assert.Equal(t, "Cita mañana a las 10", n.Message)

	second := s.read()
	assert.Equal(t, EventUnreadCount, second.Event)
	var count map[string]int
	require.NoError(t, json.Unmarshal(second.Data, &count))
	assert.Equal(t, 1, count["count"])
}

func TestGateway_MarkReadConfirms(t *testing.T) {
	s := newTestSession(t)

	n, err := s.svc.Create(context.Background(), domain.CreateNotificationRequest{
		UserID:  "u1",
		Message: "m",
	})
	require.NoError(t, err)

	s.send(EventAuth, map[string]string{"user_id": "u1"})
	s.read() // notification (flush)
	s.read() // unread_count

	s.send(EventMarkRead, map[string]string{"notification_id": n.NotificationID})
	ev := s.read()
	assert.Equal(t, EventReadConfirmed, ev.Event)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, n.NotificationID, payload["notification_id"])

	assert.Empty(t, s.svc.Unread(context.Background(), "u1"))
}

func TestGateway_GetUnreadReturnsList(t *testing.T) {
	s := newTestSession(t)

	s.send(EventAuth, map[string]string{"user_id": "u1"})
	s.read() // unread_count, queue empty

	_, err := s.svc.Create(context.Background(), domain.CreateNotificationRequest{
		UserID:  "u1",
		Message: "en vivo",
	})
	require.NoError(t, err)
	live := s.read()
	assert.Equal(t, EventNotification, live.Event)

	s.send(EventGetUnread, map[string]string{"user_id": "u1"})
	ev := s.read()
	assert.Equal(t, EventUnreadList, ev.Event)
	var list []domain.Notification
	require.NoError(t, json.Unmarshal(ev.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "en vivo", list[0].Message)
}

func TestGateway_EventsBeforeAuthIgnored(t *testing.T) {
	s := newTestSession(t)

	s.send(EventGetUnread, map[string]string{"user_id": "u1"})
	s.send(EventAuth, map[string]string{"user_id": "u1"})

	// Only the auth response arrives; the pre-auth query was dropped.
	ev := s.read()
	assert.Equal(t, EventUnreadCount, ev.Event)
}
