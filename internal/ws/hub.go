package ws

import "sync"

// conn is the subset of clientConn the hub needs; tests substitute stubs.
type conn interface {
	writeJSON(v any) error
	close()
}

// Hub keeps every live connection keyed by session id. Room membership lives
// in the registry; the hub only resolves ids to sockets at delivery time, so
// a member that disconnected between the membership read and the emit is
// silently skipped.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]conn)}
}

func (h *Hub) Register(id string, c conn) {
	h.mu.Lock()
	h.conns[id] = c
	h.mu.Unlock()
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// EmitTo delivers to a single connection. Best-effort.
func (h *Hub) EmitTo(id string, v any) {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.writeJSON(v); err != nil {
		h.drop(id, c)
	}
}

// EmitToAll delivers to every connection, the global channel of the system.
func (h *Hub) EmitToAll(excludeID string, v any) {
	h.mu.RLock()
	targets := make([]target, 0, len(h.conns))
	for id, c := range h.conns {
		if id == excludeID {
			continue
		}
		targets = append(targets, target{id: id, c: c})
	}
	h.mu.RUnlock()

	h.deliver(targets, v)
}

// EmitToMembers delivers to the given membership snapshot. Ids with no live
// connection are skipped.
func (h *Hub) EmitToMembers(ids []string, excludeID string, v any) {
	h.mu.RLock()
	targets := make([]target, 0, len(ids))
	for _, id := range ids {
		if id == excludeID {
			continue
		}
		if c, ok := h.conns[id]; ok {
			targets = append(targets, target{id: id, c: c})
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, v)
}

type target struct {
	id string
	c  conn
}

// deliver does the I/O outside any lock and prunes writers that failed.
func (h *Hub) deliver(targets []target, v any) {
	var failed []target
	for _, t := range targets {
		if err := t.c.writeJSON(v); err != nil {
			failed = append(failed, t)
		}
	}
	for _, t := range failed {
		h.drop(t.id, t.c)
	}
}

func (h *Hub) drop(id string, c conn) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
	c.close()
}
