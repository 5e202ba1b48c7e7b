package ws

// member is one connection's presence in a room.
type member struct {
	conn *clientConn
	user RoomUser
}

// room holds the members editing one document, in join order.
type room struct {
	members []*member
}

func newRoom() *room { return &room{} }

func (r *room) add(c *clientConn, u RoomUser) {
	r.members = append(r.members, &member{conn: c, user: u})
}

func (r *room) remove(c *clientConn) bool {
	for i, m := range r.members {
		if m.conn == c {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

func (r *room) has(c *clientConn) bool {
	for _, m := range r.members {
		if m.conn == c {
			return true
		}
	}
	return false
}

func (r *room) roster() []RoomUser {
	out := make([]RoomUser, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.user)
	}
	return out
}

func (r *room) conns(except *clientConn) []*clientConn {
	out := make([]*clientConn, 0, len(r.members))
	for _, m := range r.members {
		if m.conn == except {
			continue
		}
		out = append(out, m.conn)
	}
	return out
}
