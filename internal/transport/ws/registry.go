package ws

import (
	"log"
	"sync"
	"time"
)

// Event is the wire envelope for every server→client and client→server frame.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Server→client event names.
const (
	EventNotification  = "notification"
	EventUnreadCount   = "unread_count"
	EventReadConfirmed = "read_confirmed"
	EventUnreadList    = "unread_notifications"
)

// Client→server event names.
const (
	EventAuth      = "auth"
	EventMarkRead  = "mark_read"
	EventGetUnread = "get_unread"
)

// Socket is the minimal transport surface the registry needs. Satisfied by
// *websocket.Conn; tests substitute an in-memory fake.
type Socket interface {
	WriteJSON(v any) error
	Close() error
}

// Conn is one registered live connection. Writes are serialized per
// connection because gorilla conns allow only one concurrent writer.
type Conn struct {
	UserID      string
	ConnectedAt time.Time

	mu   sync.Mutex
	sock Socket
}

// Send writes one event frame on the connection.
func (c *Conn) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(Event{Event: event, Data: data})
}

// Registry maps user IDs to live connections. At most one connection per user
// is live at a time: registering again overwrites (and closes) the previous
// one, so only the most recently connected tab or device receives pushes.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Register records the connection for userID, closing any previous one.
func (r *Registry) Register(userID string, sock Socket) *Conn {
	c := &Conn{UserID: userID, ConnectedAt: time.Now().UTC(), sock: sock}
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = c
	r.mu.Unlock()
	if prev != nil {
		_ = prev.sock.Close()
	}
	log.Printf("ws: connected user=%s", userID)
	return c
}

// Remove unregisters the connection. The close event is keyed by the handle,
// not the user, so removal only happens when the registry still maps the user
// to this exact connection. A newer registration must not be torn down.
func (r *Registry) Remove(c *Conn) bool {
	if c == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[c.UserID]; ok && cur == c {
		delete(r.conns, c.UserID)
		log.Printf("ws: disconnected user=%s", c.UserID)
		return true
	}
	return false
}

// IsConnected reports whether the user has a live connection.
func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Push sends one event to the user's connection. Returns false when the user
// has no registered connection or the write fails; offline delivery is the
// queue's job, push is best-effort.
func (r *Registry) Push(userID, event string, data any) bool {
	r.mu.RLock()
	c, ok := r.conns[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if err := c.Send(event, data); err != nil {
		log.Printf("ws: push to %s failed: %v", userID, err)
		return false
	}
	return true
}

// PushMany pushes to each listed user; partial delivery is expected and not
// rolled back. Returns the number of successful pushes.
func (r *Registry) PushMany(userIDs []string, event string, data any) int {
	sent := 0
	for _, u := range userIDs {
		if r.Push(u, event, data) {
			sent++
		}
	}
	return sent
}

// Broadcast pushes one event to every connected user.
func (r *Registry) Broadcast(event string, data any) int {
	return r.PushMany(r.ConnectedUsers(), event, data)
}

// ConnectedUsers returns the IDs of all currently connected users.
func (r *Registry) ConnectedUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.conns))
	for u := range r.conns {
		users = append(users, u)
	}
	return users
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
