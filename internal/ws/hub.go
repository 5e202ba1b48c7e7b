package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub is the room registry: document id -> present members, plus a reverse
// index from connection to room for O(1) cleanup on disconnect. Joins and
// leaves on the same room are serialized by the hub mutex so roster updates
// are never lost; broadcast I/O happens outside the lock.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]*room
	byConn map[*clientConn]string // conn -> document id
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]*room),
		byConn: make(map[*clientConn]string),
	}
}

// Join registers c in documentID's room and returns the updated roster.
// A connection belongs to at most one room: any prior membership is
// dropped in the same critical section, and the departed room's id and
// remaining roster are reported so the caller can announce the move.
func (h *Hub) Join(documentID string, c *clientConn, u RoomUser) (roster []RoomUser, prevID string, prevRoster []RoomUser, moved bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.byConn[c]; ok {
		if prev == documentID && h.rooms[prev].has(c) {
			return h.rooms[prev].roster(), "", nil, false // already there
		}
		h.removeLocked(c, prev)
		prevID = prev
		moved = true
		if pr, alive := h.rooms[prev]; alive {
			prevRoster = pr.roster()
		}
	}

	r, ok := h.rooms[documentID]
	if !ok {
		r = newRoom()
		h.rooms[documentID] = r
	}
	r.add(c, u)
	h.byConn[c] = documentID
	return r.roster(), prevID, prevRoster, moved
}

// Leave drops c's membership. It reports the room it left, the remaining
// roster, and whether the room is now empty (and has been discarded).
func (h *Hub) Leave(c *clientConn) (documentID string, roster []RoomUser, ok bool, empty bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	documentID, ok = h.byConn[c]
	if !ok {
		return "", nil, false, false
	}
	h.removeLocked(c, documentID)

	r, alive := h.rooms[documentID]
	if !alive {
		return documentID, nil, true, true
	}
	return documentID, r.roster(), true, false
}

// RoomOf reports the room c is currently registered in, if any.
func (h *Hub) RoomOf(c *clientConn) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.byConn[c]
	return id, ok
}

// Roster returns the present users of documentID's room in join order.
func (h *Hub) Roster(documentID string) []RoomUser {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[documentID]; ok {
		return r.roster()
	}
	return nil
}

// broadcast fans a single event out to every room member except `except`
// (nil to reach everyone). Connections that fail to take the write are
// closed; their reader loops run the usual disconnect cleanup.
func (h *Hub) broadcast(documentID string, except *clientConn, event string, body any) {
	h.mu.Lock()
	r, ok := h.rooms[documentID]
	if !ok {
		h.mu.Unlock()
		return
	}
	conns := r.conns(except)
	h.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	data, err := json.Marshal(outEnvelope{Event: event, Body: body})
	if err != nil {
		zap.L().Error("ws.broadcast_marshal", zap.String("event", event), zap.Error(err))
		return
	}
	for _, c := range conns {
		if err := c.write(websocket.TextMessage, data); err != nil {
			c.close()
		}
	}
}

// removeLocked deletes c from documentID's room, discarding the room once
// its last member leaves. Callers hold h.mu.
func (h *Hub) removeLocked(c *clientConn, documentID string) {
	delete(h.byConn, c)
	r, ok := h.rooms[documentID]
	if !ok {
		return
	}
	r.remove(c)
	if len(r.members) == 0 {
		delete(h.rooms, documentID)
	}
}
