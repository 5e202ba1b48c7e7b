package ws

import "encoding/json"

// Inbound event names ── the contract with the editor frontend.
const (
	evtJoinRoom      = "join_room"
	evtLeaveRoom     = "leave_room"
	evtSendChanges   = "send_changes"
	evtCursorPending = "cursor_pending"
	evtSendComment   = "send_comment"
	evtSendMessage   = "send_message"
)

// Outbound event names.
const (
	evtLoadRoom       = "load_room"
	evtUsersChanged   = "users_changed"
	evtReceiveChanges = "receive_changes"
	evtCursorChanged  = "cursor_changed"
	evtReceiveComment = "receive_comment"
	evtReceiveMessage = "receive_message"
	evtSavePending    = "save_pending"
	evtSaveSuccess    = "save_success"
	evtError          = "error"
)

// Envelope wraps every inbound WS frame.
type Envelope struct {
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// outEnvelope is the outbound counterpart; Body is marshalled as-is.
type outEnvelope struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// ──────────────────────────── Request DTOs ───────────────────────────────────

// UserRef identifies the user a client claims to act as when joining.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// JoinRoomBody is the body for "join_room".
type JoinRoomBody struct {
	DocumentID string   `json:"document_id"`
	User       *UserRef `json:"user"`
}

// ChangesBody is the body for "send_changes". A nil Title leaves the stored
// title untouched.
type ChangesBody struct {
	Title   *string `json:"title,omitempty"`
	Content string  `json:"content"`
}

// CursorBody is the body for "cursor_pending". Range is opaque editor state
// and forwarded untouched.
type CursorBody struct {
	Range    json.RawMessage `json:"range"`
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
}

// CommentBody is the body for "send_comment".
type CommentBody struct {
	Text   string `json:"text"`
	Index  int    `json:"index"`
	Length int    `json:"length"`
}

// MessageBody is the body for "send_message" (room chat).
type MessageBody struct {
	Message string `json:"message"`
}

// ──────────────────────────── Broadcast DTOs ─────────────────────────────────

// CursorBroadcast is fanned out as "cursor_changed".
type CursorBroadcast struct {
	Range        json.RawMessage `json:"range"`
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name"`
	ColorDetails ColorDetails    `json:"color_details"`
}

// RoomUser is one roster entry in "users_changed".
type RoomUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	CanWrite bool   `json:"can_write"`
}
