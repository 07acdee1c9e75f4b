/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"strings"
	"sync"
)

// Registry holds every live room keyed by code, plus a reverse mapping from
// connection identity to room code so a connection can never be seated in
// two rooms at once.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	seated map[string]string // identity -> room code
}

func newRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		seated: make(map[string]string),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(code)
}

// CreateOrGet returns the room for code, creating an empty one if the code
// has not been seen. Codes are case-insensitive.
func (reg *Registry) CreateOrGet(code string) *Room {
	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, ok := reg.rooms[code]; ok {
		return room
	}

	room := newRoom(code)
	reg.rooms[code] = room
	return room
}

// Bind records that identity is seated in code. It fails if the identity is
// already bound anywhere, including to the same room.
func (reg *Registry) Bind(identity, code string) error {
	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.seated[identity]; ok {
		return errAlreadySeated
	}

	reg.seated[identity] = code
	return nil
}

// Unbind drops the identity's binding; no-op if absent.
func (reg *Registry) Unbind(identity string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.seated, identity)
}

// RoomOf resolves the room an identity is currently bound to.
func (reg *Registry) RoomOf(identity string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.seated[identity]
	if !ok {
		return nil, false
	}

	room, ok := reg.rooms[code]
	return room, ok
}

// Exists reports whether a live room is using code.
func (reg *Registry) Exists(code string) bool {
	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	_, ok := reg.rooms[code]
	return ok
}

// Join binds identity, resolves or creates the room, and takes the seat as
// one step under the registry mutex, so a concurrent leave can never destroy
// the room between resolution and seating.
func (reg *Registry) Join(cfg *Config, c *Client, code, name string) error {
	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.seated[c.id]; ok {
		return errAlreadySeated
	}

	room, ok := reg.rooms[code]
	if !ok {
		room = newRoom(code)
		reg.rooms[code] = room
	}

	if err := room.join(cfg, c, name); err != nil {
		if room.seatCount() == 0 {
			delete(reg.rooms, code)
		}
		return err
	}

	reg.seated[c.id] = code
	return nil
}

// Leave vacates the identity's seat, drops its binding, and destroys the
// room once its last seat is gone, all under the registry mutex. No-op for
// identities that never joined.
func (reg *Registry) Leave(cfg *Config, identity string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.seated[identity]
	if !ok {
		return
	}
	delete(reg.seated, identity)

	room, ok := reg.rooms[code]
	if !ok {
		return
	}

	if room.leave(cfg, identity) {
		delete(reg.rooms, code)
	}
}

// DestroyIfEmpty removes the room entry once its last seat is gone, so no
// empty room persists. A later join to the same code recreates it from
// scratch.
func (reg *Registry) DestroyIfEmpty(code string) {
	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return
	}

	if room.seatCount() == 0 {
		delete(reg.rooms, code)
	}
}
