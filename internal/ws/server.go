package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/karthikeya-tummala/echo-chat/internal/chat/registry"
	"github.com/karthikeya-tummala/echo-chat/internal/chat/validate"
	chatsvc "github.com/karthikeya-tummala/echo-chat/internal/services/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must be < pongWait

	maxFrameSize    = 4096
	dispatchTimeout = 2 * time.Second // bounds the store call during a send
)

// globalRoom is the implicit channel every connection belongs to. It has no
// code, no persistence and is not addressable by the room events.
const globalRoom = "global_room"

type WsServer struct {
	hub      *Hub
	router   *Router
	reg      *registry.Registry
	chatSvc  chatsvc.IChatService
	upgrader websocket.Upgrader
}

func NewWsServer(h *Hub, reg *registry.Registry, chatSvc chatsvc.IChatService) *WsServer {
	srv := &WsServer{
		hub:     h,
		router:  NewRouter(),
		reg:     reg,
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true }, // CORS handled upstream
		},
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	// ─────────────────── Client joined ────────────────────────
	conn := newClientConn(uuid.NewString(), rawConn)
	s.hub.Register(conn.id, conn)
	s.hub.EmitToAll(conn.id,
		envelope(evUserJoined, fmt.Sprintf("%s joined the room: %s", conn.id, globalRoom)))

	go s.reader(conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Event handlers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 room:create ----------------------------------------------------------
	Register(s.router, evRoomCreate,
		func(ctx context.Context, cc *ConnContext, _ struct{}) error {
			res, err := s.chatSvc.CreateRoom(ctx, cc.SessionID)
			if err != nil {
				s.hub.EmitTo(cc.SessionID, envelope(evRoomFailed, err.Error()))
				return nil
			}
			s.notifyVacated(cc.SessionID, res.Left)
			s.hub.EmitTo(cc.SessionID, envelope(evRoomCreated,
				fmt.Sprintf("You joined a new room with the name %s", res.Code)))
			return nil
		},
	)

	// 🔹 room:join ------------------------------------------------------------
	Register(s.router, evRoomJoin,
		func(ctx context.Context, cc *ConnContext, req JoinRoomRequest) error {
			if req.RoomName == "" {
				s.hub.EmitTo(cc.SessionID, envelope(evRoomFailed, "Invalid payload"))
				return nil
			}

			res, err := s.chatSvc.JoinRoom(ctx, cc.SessionID, req.RoomName)
			s.notifyVacated(cc.SessionID, res.Left)
			if err != nil {
				s.hub.EmitTo(cc.SessionID, envelope(evRoomFailed, err.Error()))
				return nil
			}

			s.hub.EmitTo(cc.SessionID, envelope(evRoomJoined,
				fmt.Sprintf("You joined the room %s", res.Code)))
			s.hub.EmitTo(cc.SessionID, envelope(evRoomHistory, res.History))
			s.hub.EmitToMembers(s.reg.Members(res.Code), cc.SessionID,
				envelope(evRoomUserJoined,
					fmt.Sprintf("%s joined the room %s", cc.SessionID, res.Code)))
			return nil
		},
	)

	// 🔹 room:message ---------------------------------------------------------
	Register(s.router, evRoomMessage,
		func(ctx context.Context, cc *ConnContext, req RoomMessageRequest) error {
			if req.RoomName == "" || req.Message == "" {
				s.hub.EmitTo(cc.SessionID,
					envelope(evRoomFailed, "Missing required fields: roomName or message"))
				return nil
			}

			msg, err := s.chatSvc.SendMessage(ctx, cc.SessionID, req.RoomName, req.Message)
			if err != nil {
				// Body faults go out on their own channel so clients can
				// tell them apart from room-level rejections.
				if validate.IsBodyError(err) {
					s.hub.EmitTo(cc.SessionID, envelope(evRoomMessageError, err.Error()))
				} else {
					s.hub.EmitTo(cc.SessionID, envelope(evRoomFailed, err.Error()))
				}
				return nil
			}

			// Sender included: the full persisted message fans out to the
			// whole room.
			s.hub.EmitToMembers(s.reg.Members(msg.Room), "", envelope(evRoomNewMessage, msg))
			return nil
		},
	)

	// 🔹 room:leave -----------------------------------------------------------
	Register(s.router, evRoomLeave,
		func(ctx context.Context, cc *ConnContext, req LeaveRoomRequest) error {
			if req.RoomName == "" {
				s.hub.EmitTo(cc.SessionID, envelope(evRoomFailed, "Invalid payload"))
				return nil
			}

			code, err := s.chatSvc.LeaveRoom(ctx, cc.SessionID, req.RoomName)
			if err != nil {
				s.hub.EmitTo(cc.SessionID, envelope(evRoomFailed, err.Error()))
				return nil
			}

			s.hub.EmitTo(cc.SessionID, envelope(evRoomLeft,
				fmt.Sprintf("You left the room %s", code)))
			s.hub.EmitToMembers(s.reg.Members(code), cc.SessionID,
				envelope(evRoomUserLeft, fmt.Sprintf("%s left the room", cc.SessionID)))
			return nil
		},
	)

	// 🔹 chat:globalMessage ---------------------------------------------------
	Register(s.router, evGlobalMessage,
		func(ctx context.Context, cc *ConnContext, message string) error {
			s.hub.EmitToAll(cc.SessionID, envelope(evGlobalNewMessage, GlobalMessagePayload{
				Sender:    cc.SessionID,
				Message:   message,
				TimeStamp: time.Now().UnixMilli(),
			}))
			return nil
		},
	)
}

// notifyVacated tells the remaining members of a room that the session was
// implicitly removed from it by joining another one.
func (s *WsServer) notifyVacated(sessionID, left string) {
	if left == "" {
		return
	}
	s.hub.EmitToMembers(s.reg.Members(left), sessionID,
		envelope(evRoomUserLeft, fmt.Sprintf("%s left the room", sessionID)))
}

// ---------------------------------------------------------------------------
//  Connection lifecycle
// ---------------------------------------------------------------------------

func (s *WsServer) reader(conn *clientConn) {
	defer s.teardown(conn)

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{SessionID: conn.id}

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err := s.router.dispatch(ctx, cc, env)
		cancel()
		if err == nil {
			continue
		}

		if errors.Is(err, errBadPayload) {
			s.hub.EmitTo(conn.id, envelope(evRoomFailed, "Invalid payload"))
			continue
		}
		s.hub.EmitTo(conn.id, envelope("error", ErrorBody{Error: err.Error()}))
	}
}

// teardown runs once per connection when its reader exits. Cleanup tolerates
// memberships that are already gone.
func (s *WsServer) teardown(conn *clientConn) {
	// No room-level departure notice on disconnect; only the global channel
	// is told.
	_ = s.chatSvc.Disconnect(conn.id)
	s.hub.Unregister(conn.id)
	s.hub.EmitToAll(conn.id, envelope(evUserLeft, conn.id+" left the chat"))
	conn.close()
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				conn.close()
				return
			}
		}
	}
}
