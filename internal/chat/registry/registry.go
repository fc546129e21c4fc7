package registry

import (
	"errors"
	"sync"

	"github.com/karthikeya-tummala/echo-chat/internal/chat/roomcode"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyMember = errors.New("already a member")
	ErrNotMember     = errors.New("not a member")
)

type room struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

func newRoom() *room { return &room{members: map[string]struct{}{}} }

// Registry is the authoritative in-memory map of room code to membership.
// The registry lock guards the room map and code allocation; each room has
// its own lock for membership so unrelated rooms never contend. Rooms are
// never removed once created, even when their member set drains to zero.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room

	sessMu  sync.Mutex
	current map[string]string // session id -> current room code
}

func New() *Registry {
	return &Registry{
		rooms:   map[string]*room{},
		current: map[string]string{},
	}
}

// Create allocates a fresh code and registers an empty room. Allocation and
// registration happen under the registry lock, so two concurrent creates can
// never be handed the same code.
func (r *Registry) Create() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := roomcode.Generate(func(c string) bool {
		_, taken := r.rooms[c]
		return taken
	})
	if err != nil {
		return "", err
	}
	r.rooms[code] = newRoom()
	return code, nil
}

func (r *Registry) Exists(code string) bool {
	_, ok := r.lookup(code)
	return ok
}

// AddMember adds id to the room, rejecting double-joins. The existence check
// and the insert share the room lock so two racing joins cannot both pass.
func (r *Registry) AddMember(code, id string) error {
	rm, ok := r.lookup(code)
	if !ok {
		return ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, in := rm.members[id]; in {
		return ErrAlreadyMember
	}
	rm.members[id] = struct{}{}
	return nil
}

func (r *Registry) RemoveMember(code, id string) error {
	rm, ok := r.lookup(code)
	if !ok {
		return ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, in := rm.members[id]; !in {
		return ErrNotMember
	}
	delete(rm.members, id)
	return nil
}

func (r *Registry) IsMember(code, id string) bool {
	rm, ok := r.lookup(code)
	if !ok {
		return false
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, in := rm.members[id]
	return in
}

// Members returns a snapshot of the room's member ids. Broadcast callers may
// read slightly stale membership; delivery is best-effort anyway.
func (r *Registry) Members(code string) []string {
	rm, ok := r.lookup(code)
	if !ok {
		return nil
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]string, 0, len(rm.members))
	for id := range rm.members {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Count(code string) int {
	rm, ok := r.lookup(code)
	if !ok {
		return 0
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members)
}

func (r *Registry) lookup(code string) (*room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[code]
	return rm, ok
}

// SetCurrent records code as the session's current room and returns the room
// it replaces, if any. One current room per session; the service layer uses
// the returned value to vacate the previous membership.
func (r *Registry) SetCurrent(id, code string) (prev string) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	prev = r.current[id]
	r.current[id] = code
	return prev
}

func (r *Registry) Current(id string) (string, bool) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	code, ok := r.current[id]
	return code, ok
}

// ClearCurrent drops the session's current room only if it still equals code.
func (r *Registry) ClearCurrent(id, code string) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	if r.current[id] == code {
		delete(r.current, id)
	}
}

// DropSession removes the session's current-room record and returns what it
// was. Safe to call for unknown or already-dropped sessions.
func (r *Registry) DropSession(id string) (prev string) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	prev = r.current[id]
	delete(r.current, id)
	return prev
}
