package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karthikeya-tummala/echo-chat/internal/chat/registry"
	"github.com/karthikeya-tummala/echo-chat/internal/chat/validate"
	"github.com/karthikeya-tummala/echo-chat/internal/store/messagestore"
)

// Error texts are forwarded to the offending client verbatim.
var (
	ErrRoomNotFound  = errors.New("Room doesn't exist")
	ErrAlreadyInRoom = errors.New("You are already in the room")
	ErrCreateFailed  = errors.New("Failed to create room.")
	ErrJoinHistory   = errors.New("Failed to join room properly.")
	ErrSendFailed    = errors.New("Failed to send message. Try again.")
)

// CreateResult reports the allocated code and, under the one-room-at-a-time
// policy, the room the session implicitly vacated.
type CreateResult struct {
	Code string
	Left string
}

type JoinResult struct {
	Code    string // canonicalized
	History []messagestore.Message // oldest first
	Left    string
}

// IChatService is the per-connection event state machine: it validates
// inbound events, mutates the registry and the message store, and hands
// structured results back to the transport layer, which performs the
// emissions.
type IChatService interface {
	CreateRoom(ctx context.Context, sessionID string) (CreateResult, error)
	JoinRoom(ctx context.Context, sessionID, code string) (JoinResult, error)
	SendMessage(ctx context.Context, sessionID, code, body string) (messagestore.Message, error)
	LeaveRoom(ctx context.Context, sessionID, code string) (string, error)
	Disconnect(sessionID string) string
}

type chatService struct {
	reg          *registry.Registry
	store        messagestore.IMessageStore
	historyLimit int
}

func NewChatService(reg *registry.Registry, store messagestore.IMessageStore, historyLimit int) IChatService {
	return &chatService{
		reg:          reg,
		store:        store,
		historyLimit: historyLimit,
	}
}

func (svc *chatService) CreateRoom(_ context.Context, sessionID string) (CreateResult, error) {
	code, err := svc.reg.Create()
	if err != nil {
		zap.L().Error("chat.create_room", zap.String("session", sessionID), zap.Error(err))
		return CreateResult{}, ErrCreateFailed
	}
	if err := svc.reg.AddMember(code, sessionID); err != nil {
		zap.L().Error("chat.create_join", zap.String("room", code), zap.Error(err))
		return CreateResult{}, ErrCreateFailed
	}
	return CreateResult{Code: code, Left: svc.vacatePrevious(sessionID, code)}, nil
}

func (svc *chatService) JoinRoom(ctx context.Context, sessionID, code string) (JoinResult, error) {
	code = strings.ToUpper(code)
	if err := validate.RoomCode(code); err != nil {
		return JoinResult{}, err
	}

	switch err := svc.reg.AddMember(code, sessionID); {
	case errors.Is(err, registry.ErrRoomNotFound):
		return JoinResult{}, ErrRoomNotFound
	case errors.Is(err, registry.ErrAlreadyMember):
		return JoinResult{}, ErrAlreadyInRoom
	case err != nil:
		return JoinResult{}, err
	}

	res := JoinResult{Code: code, Left: svc.vacatePrevious(sessionID, code)}

	// Membership is already established; a history fault leaves the member
	// in the room and only fails the read back to the joiner.
	recent, err := svc.store.FindRecent(ctx, code, svc.historyLimit)
	if err != nil {
		zap.L().Error("chat.join_history",
			zap.String("room", code), zap.String("session", sessionID), zap.Error(err))
		return res, ErrJoinHistory
	}
	res.History = messagestore.Chronological(recent)
	return res, nil
}

func (svc *chatService) SendMessage(ctx context.Context, sessionID, code, body string) (messagestore.Message, error) {
	code = strings.ToUpper(code)
	if err := validate.RoomCode(code); err != nil {
		return messagestore.Message{}, err
	}

	if !svc.reg.IsMember(code, sessionID) {
		return messagestore.Message{}, fmt.Errorf("You must join the room %s before sending messages.", code)
	}

	body = strings.TrimSpace(body)
	if err := validate.MessageBody(body); err != nil {
		return messagestore.Message{}, err
	}

	// The store call runs without any room lock held; the dispatch context
	// bounds it, and a failed save never reaches the broadcast path.
	msg, err := svc.store.Save(ctx, code, sessionID, body)
	if err != nil {
		zap.L().Error("chat.save_message",
			zap.String("room", code), zap.String("session", sessionID), zap.Error(err))
		return messagestore.Message{}, ErrSendFailed
	}
	return msg, nil
}

func (svc *chatService) LeaveRoom(_ context.Context, sessionID, code string) (string, error) {
	code = strings.ToUpper(code)
	if err := validate.RoomCode(code); err != nil {
		return "", err
	}

	if err := svc.reg.RemoveMember(code, sessionID); err != nil {
		return "", fmt.Errorf("You aren’t in the room %s", code)
	}
	svc.reg.ClearCurrent(sessionID, code)
	return code, nil
}

// Disconnect tears the session's room membership down and returns the room
// it was in, if any. Idempotent: a second call for the same session is a
// no-op, and an already-removed membership is tolerated.
func (svc *chatService) Disconnect(sessionID string) string {
	prev := svc.reg.DropSession(sessionID)
	if prev != "" {
		_ = svc.reg.RemoveMember(prev, sessionID)
	}
	return prev
}

// vacatePrevious enforces single-room membership: entering a new room
// implicitly removes the session from the one it was in.
func (svc *chatService) vacatePrevious(sessionID, code string) string {
	prev := svc.reg.SetCurrent(sessionID, code)
	if prev == "" || prev == code {
		return ""
	}
	_ = svc.reg.RemoveMember(prev, sessionID)
	return prev
}
