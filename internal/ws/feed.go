package ws

import (
	"encoding/json"
	"sync"

	"nice/internal/realtime"
)

// feedViewCap bounds the snapshot a room keeps for replay to new
// subscribers. Older history is served over REST.
const feedViewCap = 100

// FeedRoom is one change-feed scope (a message thread or a forum). It
// holds the recent view, reconciled through realtime.Merge, and fans
// events out to subscribed clients. A client joining first receives the
// snapshot so its local state starts consistent.
type FeedRoom struct {
	Key string

	mu      sync.RWMutex
	clients map[*Client]struct{}
	view    []realtime.Row
}

func NewFeedRoom(key string) *FeedRoom {
	return &FeedRoom{
		Key:     key,
		clients: make(map[*Client]struct{}),
	}
}

// Seed installs the initial snapshot, typically loaded from the store
// when the room is first created. Overwrites any existing view.
func (r *FeedRoom) Seed(view []realtime.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view = view
}

// Join subscribes a client and sends it the current snapshot.
func (r *FeedRoom) Join(c *Client) {
	r.mu.Lock()
	snapshot := make([]realtime.Row, len(r.view))
	copy(snapshot, r.view)
	r.clients[c] = struct{}{}
	r.mu.Unlock()

	data, _ := json.Marshal(map[string]interface{}{"type": "snapshot", "rows": snapshot})
	select {
	case c.Send <- data:
	default:
	}
}

func (r *FeedRoom) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *FeedRoom) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Publish merges the event into the room view and broadcasts it.
func (r *FeedRoom) Publish(ev realtime.Event) {
	r.mu.Lock()
	r.view = realtime.Merge(r.view, ev)
	if len(r.view) > feedViewCap {
		r.view = r.view[len(r.view)-feedViewCap:]
	}
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	data, _ := json.Marshal(map[string]interface{}{"type": "event", "event": ev})
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// View returns a copy of the current snapshot.
func (r *FeedRoom) View() []realtime.Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]realtime.Row, len(r.view))
	copy(out, r.view)
	return out
}

// FeedHub holds feed rooms by scope key.
type FeedHub struct {
	mu    sync.RWMutex
	rooms map[string]*FeedRoom
}

func NewFeedHub() *FeedHub {
	return &FeedHub{rooms: make(map[string]*FeedRoom)}
}

// GetOrCreateRoom returns the room for key, creating and seeding it via
// seed (may be nil) on first use.
func (h *FeedHub) GetOrCreateRoom(key string, seed func() []realtime.Row) *FeedRoom {
	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if ok {
		return r
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[key]; ok {
		return r
	}
	r = NewFeedRoom(key)
	if seed != nil {
		r.Seed(seed())
	}
	h.rooms[key] = r
	return r
}

// GetRoom returns the room for key, or nil when nobody ever subscribed;
// mutations then have no feed to publish to, which is fine.
func (h *FeedHub) GetRoom(key string) *FeedRoom {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[key]
}

// Publish forwards the event to the room for key if one exists.
func (h *FeedHub) Publish(key string, ev realtime.Event) {
	if r := h.GetRoom(key); r != nil {
		r.Publish(ev)
	}
}

// RemoveRoom drops an idle room.
func (h *FeedHub) RemoveRoom(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, key)
}
