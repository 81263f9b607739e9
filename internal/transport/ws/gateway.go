package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/glowdesk/notify/internal/application/notification"
	"github.com/gorilla/websocket"
)

const (
	readLimit    = 4096
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// incoming is the client→server frame shape; Data stays raw until the event
// name selects the payload type.
type incoming struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type authPayload struct {
	UserID string `json:"user_id"`
}

type markReadPayload struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
}

type getUnreadPayload struct {
	UserID string `json:"user_id"`
}

// Gateway upgrades HTTP requests to WebSocket sessions and runs the per-user
// event loop: auth handshake, queue flush, read acknowledgements, unread
// queries. One goroutine per connection; pings keep half-open sockets from
// lingering.
type Gateway struct {
	registry *Registry
	svc      notification.Service
}

func NewGateway(registry *Registry, svc notification.Service) *Gateway {
	return &Gateway{registry: registry, svc: svc}
}

// Handle is the WebSocket entrypoint. The session starts unauthenticated and
// must send an auth frame before any other event is honoured.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	go g.serve(sock)
}

func (g *Gateway) serve(sock *websocket.Conn) {
	var conn *Conn
	defer func() {
		g.registry.Remove(conn)
		_ = sock.Close()
	}()

	sock.SetReadLimit(readLimit)
	_ = sock.SetReadDeadline(time.Now().Add(pongWait))
	sock.SetPongHandler(func(string) error {
		return sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go g.pingLoop(sock, stopPing)

	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			return
		}
		var msg incoming
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("ws: bad frame: %v", err)
			continue
		}
		conn = g.dispatch(conn, sock, msg)
	}
}

// dispatch handles one inbound frame and returns the (possibly newly
// registered) connection.
func (g *Gateway) dispatch(conn *Conn, sock *websocket.Conn, msg incoming) *Conn {
	switch msg.Event {
	case EventAuth:
		var p authPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.UserID == "" {
			log.Printf("ws: invalid auth payload")
			return conn
		}
		return g.authenticate(sock, p.UserID)

	case EventMarkRead:
		if conn == nil {
			return nil
		}
		var p markReadPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.NotificationID == "" {
			log.Printf("ws: invalid mark_read payload")
			return conn
		}
		// The session's authenticated user is authoritative, not the payload.
		if _, err := g.svc.MarkRead(context.Background(), p.NotificationID, conn.UserID); err != nil {
			log.Printf("ws: mark_read %s for %s: %v", p.NotificationID, conn.UserID, err)
			return conn
		}
		_ = conn.Send(EventReadConfirmed, map[string]string{"notification_id": p.NotificationID})
		return conn

	case EventGetUnread:
		if conn == nil {
			return nil
		}
		_ = conn.Send(EventUnreadList, g.svc.Unread(context.Background(), conn.UserID))
		return conn

	default:
		log.Printf("ws: unhandled event %q", msg.Event)
		return conn
	}
}

// authenticate registers the connection (overwriting any previous one for the
// user), flushes the offline queue, and only then reports the unread count:
// a client that sees unread_count knows its queue is empty.
func (g *Gateway) authenticate(sock *websocket.Conn, userID string) *Conn {
	conn := g.registry.Register(userID, sock)
	flushed := g.svc.FlushQueue(userID)
	if flushed > 0 {
		log.Printf("ws: flushed %d queued notifications to %s", flushed, userID)
	}
	_ = conn.Send(EventUnreadCount, map[string]int{"count": g.svc.UnreadCount(context.Background(), userID)})
	return conn
}

func (g *Gateway) pingLoop(sock *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
