package ws

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"collabdocs/internal/services/comment"
	"collabdocs/internal/services/document"
	sessionsvc "collabdocs/internal/services/session"
)

// connState tracks where a connection is in its lifecycle. The handshake
// already authenticated it, so the machine starts at stateAuthenticated.
type connState int

const (
	stateAuthenticated connState = iota
	stateInRoom
	stateClosed
)

var errNotInRoom = errors.New("not in a room")

// collabDeps bundles the collaborators the protocol logic calls out to.
type collabDeps struct {
	hub      *Hub
	em       emitter
	saver    *Saver
	docs     document.IDocumentService
	comments comment.ICommentService
}

// connSession owns the protocol state machine for one authenticated
// connection. All handlers run on the connection's reader goroutine, so
// state transitions never race with each other; only calls into the stores
// suspend, and membership is re-checked after each one.
type connSession struct {
	conn       *clientConn
	user       sessionsvc.UserDTO
	deps       *collabDeps
	state      connState
	documentID string // valid while state == stateInRoom
}

func newConnSession(conn *clientConn, user sessionsvc.UserDTO, deps *collabDeps) *connSession {
	return &connSession{conn: conn, user: user, deps: deps, state: stateAuthenticated}
}

// joinRoom gates the request, registers the member, and announces the new
// roster. On denial the caller alone hears about it and the session stays
// in its prior state, current room included. A connection collaborates on
// one document at a time, so a granted join moves it out of the old room.
func (cs *connSession) joinRoom(ctx context.Context, body JoinRoomBody) error {
	doc, err := cs.deps.docs.FetchDocument(ctx, body.DocumentID)
	if errors.Is(err, document.ErrNotFound) {
		return ErrDocumentNotFound
	}
	if err != nil {
		zap.L().Error("ws.fetch_document",
			zap.String("document_id", body.DocumentID), zap.Error(err))
		return ErrDocumentNotFound
	}

	dec, err := EvaluateAccess(doc, body.User)
	if err != nil {
		return err
	}

	// The fetch awaited I/O; the socket may have died meanwhile.
	if cs.conn.isClosed() {
		return nil
	}

	roster, prevID, prevRoster, moved := cs.deps.hub.Join(body.DocumentID, cs.conn, RoomUser{
		ID:       body.User.ID,
		Email:    body.User.Email,
		Name:     body.User.Name,
		CanWrite: dec.CanWrite,
	})
	cs.state = stateInRoom
	cs.documentID = body.DocumentID

	if moved {
		if len(prevRoster) == 0 {
			cs.deps.saver.Cancel(prevID)
		} else {
			cs.deps.em.ToRoom(prevID, evtUsersChanged, prevRoster)
		}
	}
	cs.deps.em.ToRoom(body.DocumentID, evtUsersChanged, roster)
	cs.deps.em.ToConn(cs.conn, evtLoadRoom, doc)

	zap.L().Info("ws.joined_room",
		zap.String("conn_id", cs.conn.id),
		zap.String("document_id", body.DocumentID),
		zap.Bool("can_write", dec.CanWrite))
	return nil
}

// leaveRoom deregisters the member and tells the remaining roster. The last
// one out also disarms the room's pending save. No-op outside a room.
func (cs *connSession) leaveRoom() {
	if cs.state != stateInRoom {
		return
	}
	documentID, roster, ok, empty := cs.deps.hub.Leave(cs.conn)
	cs.state = stateAuthenticated
	cs.documentID = ""
	if !ok {
		return
	}
	if empty {
		cs.deps.saver.Cancel(documentID)
		return
	}
	cs.deps.em.ToRoom(documentID, evtUsersChanged, roster)
}

// sendChanges relays the delta to the rest of the room and schedules the
// debounced save. The relay is content-agnostic: a read-only collaborator's
// edits are forwarded and persisted just like anyone else's (matching the
// frontend, which disables editing client-side).
func (cs *connSession) sendChanges(body ChangesBody) error {
	if cs.state != stateInRoom {
		return errNotInRoom
	}
	cs.deps.em.ToOthers(cs.documentID, cs.conn, evtReceiveChanges, body.Content)
	cs.deps.saver.Schedule(cs.documentID, body.Title, body.Content)
	return nil
}

// cursorPending fans the cursor position out to the other members, tagged
// with the sender's stable color.
func (cs *connSession) cursorPending(body CursorBody) error {
	if cs.state != stateInRoom {
		return errNotInRoom
	}
	cs.deps.em.ToOthers(cs.documentID, cs.conn, evtCursorChanged, CursorBroadcast{
		Range:        body.Range,
		UserID:       body.UserID,
		UserName:     body.UserName,
		ColorDetails: nameColor(body.UserName),
	})
	return nil
}

// sendComment persists the comment, then notifies the other members. A
// failed write is logged and swallowed; the room keeps editing.
func (cs *connSession) sendComment(ctx context.Context, body CommentBody) error {
	if cs.state != stateInRoom {
		return errNotInRoom
	}
	documentID := cs.documentID

	_, err := cs.deps.comments.CreateComment(ctx, comment.CreateCommentParams{
		Position:   fmt.Sprintf("%d:%d", body.Index, body.Length),
		Content:    body.Text,
		DocumentID: documentID,
		UserID:     cs.user.ID,
	})
	if err != nil {
		zap.L().Error("ws.comment_create",
			zap.String("document_id", documentID), zap.Error(err))
		return nil
	}

	if cs.conn.isClosed() {
		return nil
	}
	cs.deps.em.ToOthers(documentID, cs.conn, evtReceiveComment, body)
	return nil
}

// sendMessage is room chat: everyone hears it, sender included.
func (cs *connSession) sendMessage(body MessageBody) error {
	if cs.state != stateInRoom {
		return errNotInRoom
	}
	cs.deps.em.ToRoom(cs.documentID, evtReceiveMessage, body.Message)
	return nil
}

// disconnect is the terminal transition: implicit leave, then closed.
func (cs *connSession) disconnect() {
	cs.leaveRoom()
	cs.state = stateClosed
}
