package ws

// emitter is the seam between protocol logic and the transport. The real
// implementation writes websocket frames through the hub; tests substitute
// a recorder so the state machine is checked without sockets.
type emitter interface {
	// ToConn emits to a single connection (the "error"/"load_room" channel).
	ToConn(c *clientConn, event string, body any)
	// ToRoom emits to every member of the room, sender included.
	ToRoom(documentID, event string, body any)
	// ToOthers emits to every member except the sender.
	ToOthers(documentID string, sender *clientConn, event string, body any)
}

type hubEmitter struct {
	hub *Hub
}

var _ emitter = (*hubEmitter)(nil)

func (e *hubEmitter) ToConn(c *clientConn, event string, body any) {
	if err := c.emit(event, body); err != nil {
		c.close()
	}
}

func (e *hubEmitter) ToRoom(documentID, event string, body any) {
	e.hub.broadcast(documentID, nil, event, body)
}

func (e *hubEmitter) ToOthers(documentID string, sender *clientConn, event string, body any) {
	e.hub.broadcast(documentID, sender, event, body)
}
