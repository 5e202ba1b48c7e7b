package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"collabdocs/internal/services/comment"
	"collabdocs/internal/services/document"
	sessionsvc "collabdocs/internal/services/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second // must be < pongWait

	// Document contents ride on send_changes frames.
	maxMessageSize = 256 << 10

	dispatchTimeout = 5 * time.Second

	refreshCookieName = "refreshToken"
)

type WsServer struct {
	hub      *Hub
	router   *Router
	saver    *Saver
	deps     *collabDeps
	sessions sessionsvc.ISessionService
	upgrader websocket.Upgrader
}

func NewWsServer(
	hub *Hub,
	sessions sessionsvc.ISessionService,
	docs document.IDocumentService,
	comments comment.ICommentService,
	saveDelay time.Duration,
) *WsServer {
	em := &hubEmitter{hub: hub}
	saver := NewSaver(docs, em, saveDelay)

	srv := &WsServer{
		hub:      hub,
		router:   NewRouter(),
		saver:    saver,
		sessions: sessions,
		deps: &collabDeps{
			hub:      hub,
			em:       em,
			saver:    saver,
			docs:     docs,
			comments: comments,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
		},
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle authenticates the handshake and upgrades the connection. A missing
// or invalid refresh cookie refuses the connection before any events flow.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	token, err := ginCtx.Cookie(refreshCookieName)
	if err != nil || token == "" {
		ginCtx.JSON(http.StatusUnauthorized, gin.H{"error": "no refresh token provided"})
		return
	}

	user, err := s.sessions.VerifyRefreshToken(ginCtx.Request.Context(), token)
	if err != nil {
		ginCtx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxMessageSize)

	conn := newClientConn(rawConn)
	zap.L().Info("ws.connected",
		zap.String("conn_id", conn.id), zap.String("user_id", user.ID))

	go s.reader(conn, *user)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, evtJoinRoom,
		func(ctx context.Context, cs *connSession, req JoinRoomBody) error {
			return cs.joinRoom(ctx, req)
		})
	Register(s.router, evtLeaveRoom,
		func(_ context.Context, cs *connSession, _ JoinRoomBody) error {
			cs.leaveRoom()
			return nil
		})
	Register(s.router, evtSendChanges,
		func(_ context.Context, cs *connSession, req ChangesBody) error {
			return cs.sendChanges(req)
		})
	Register(s.router, evtCursorPending,
		func(_ context.Context, cs *connSession, req CursorBody) error {
			return cs.cursorPending(req)
		})
	Register(s.router, evtSendComment,
		func(ctx context.Context, cs *connSession, req CommentBody) error {
			return cs.sendComment(ctx, req)
		})
	Register(s.router, evtSendMessage,
		func(_ context.Context, cs *connSession, req MessageBody) error {
			return cs.sendMessage(req)
		})
}

// reader is the single ordered event stream for one connection. Everything
// the connection does, including its disconnect cleanup, runs here.
func (s *WsServer) reader(conn *clientConn, user sessionsvc.UserDTO) {
	cs := newConnSession(conn, user, s.deps)

	defer func() {
		cs.disconnect()
		conn.close()
		zap.L().Info("ws.disconnected", zap.String("conn_id", conn.id))
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err := s.router.dispatch(ctx, cs, env)
		cancel()

		// Errors are scoped to the offending connection, never broadcast.
		if err != nil {
			s.deps.em.ToConn(conn, evtError, err.Error())
		}
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.close()
			return
		}
	}
}
