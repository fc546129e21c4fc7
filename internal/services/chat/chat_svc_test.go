package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthikeya-tummala/echo-chat/internal/chat/registry"
	"github.com/karthikeya-tummala/echo-chat/internal/chat/validate"
	"github.com/karthikeya-tummala/echo-chat/internal/services/chat"
	"github.com/karthikeya-tummala/echo-chat/internal/store/messagestore"
)

type stubStore struct {
	saved   []messagestore.Message
	recent  []messagestore.Message
	saveErr error
	findErr error

	lastLimit int
}

func (s *stubStore) Save(_ context.Context, room, sender, body string) (messagestore.Message, error) {
	if s.saveErr != nil {
		return messagestore.Message{}, s.saveErr
	}
	m := messagestore.Message{
		ID:        int64(len(s.saved) + 1),
		Room:      room,
		Sender:    sender,
		Body:      body,
		Timestamp: time.Now().UTC(),
	}
	s.saved = append(s.saved, m)
	return m, nil
}

func (s *stubStore) FindRecent(_ context.Context, _ string, limit int) ([]messagestore.Message, error) {
	s.lastLimit = limit
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.recent, nil
}

func newService(store *stubStore) (chat.IChatService, *registry.Registry) {
	reg := registry.New()
	return chat.NewChatService(reg, store, 50), reg
}

func TestCreateRoom(t *testing.T) {
	svc, reg := newService(&stubStore{})

	res, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	assert.Len(t, res.Code, 6)
	assert.Empty(t, res.Left)
	assert.True(t, reg.IsMember(res.Code, "a"))
}

func TestCreateTwiceVacatesFirstRoom(t *testing.T) {
	svc, reg := newService(&stubStore{})

	first, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)
	second, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, first.Code, second.Left)
	assert.False(t, reg.IsMember(first.Code, "a"))
	assert.True(t, reg.IsMember(second.Code, "a"))
	// vacated rooms are retained
	assert.True(t, reg.Exists(first.Code))
}

func TestJoinRoom(t *testing.T) {
	store := &stubStore{recent: []messagestore.Message{
		{ID: 2, Body: "newer"},
		{ID: 1, Body: "older"},
	}}
	svc, reg := newService(store)

	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	res, err := svc.JoinRoom(context.Background(), "b", strings.ToLower(created.Code))
	require.NoError(t, err)

	assert.Equal(t, created.Code, res.Code, "code canonicalized to uppercase")
	assert.True(t, reg.IsMember(created.Code, "b"))
	assert.Equal(t, 50, store.lastLimit)

	// history handed back oldest first
	require.Len(t, res.History, 2)
	assert.Equal(t, "older", res.History[0].Body)
	assert.Equal(t, "newer", res.History[1].Body)
}

func TestJoinRoomRejections(t *testing.T) {
	svc, reg := newService(&stubStore{})
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	_, err = svc.JoinRoom(context.Background(), "b", "ABC")
	assert.ErrorIs(t, err, validate.ErrCodeLength)

	_, err = svc.JoinRoom(context.Background(), "b", "QQQQQQ")
	assert.ErrorIs(t, err, chat.ErrRoomNotFound)
	assert.False(t, reg.IsMember("QQQQQQ", "b"))

	_, err = svc.JoinRoom(context.Background(), "a", created.Code)
	assert.ErrorIs(t, err, chat.ErrAlreadyInRoom)
}

func TestJoinRoomHistoryFailureKeepsMembership(t *testing.T) {
	store := &stubStore{findErr: errors.New("db down")}
	svc, reg := newService(store)
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	res, err := svc.JoinRoom(context.Background(), "b", created.Code)
	assert.ErrorIs(t, err, chat.ErrJoinHistory)
	assert.Equal(t, created.Code, res.Code)
	assert.True(t, reg.IsMember(created.Code, "b"))
}

func TestSendMessage(t *testing.T) {
	store := &stubStore{}
	svc, _ := newService(store)
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	msg, err := svc.SendMessage(context.Background(), "a", created.Code, "  hi there  ")
	require.NoError(t, err)

	assert.Equal(t, "hi there", msg.Body, "body trimmed before persistence")
	assert.Equal(t, created.Code, msg.Room)
	assert.Equal(t, "a", msg.Sender)
	require.Len(t, store.saved, 1)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	store := &stubStore{}
	svc, _ := newService(store)
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), "b", created.Code, "hi")
	require.Error(t, err)
	assert.Equal(t,
		"You must join the room "+created.Code+" before sending messages.",
		err.Error())
	assert.Empty(t, store.saved, "no side effects on rejection")
}

func TestSendMessageBodyValidation(t *testing.T) {
	store := &stubStore{}
	svc, _ := newService(store)
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), "a", created.Code, "   \t  ")
	assert.ErrorIs(t, err, validate.ErrBodyEmpty)

	_, err = svc.SendMessage(context.Background(), "a", created.Code, strings.Repeat("x", 501))
	assert.ErrorIs(t, err, validate.ErrBodyTooLong)

	ok, err := svc.SendMessage(context.Background(), "a", created.Code, strings.Repeat("x", 500))
	require.NoError(t, err)
	assert.Len(t, ok.Body, 500)

	assert.Len(t, store.saved, 1)
}

func TestSendMessageStoreFailure(t *testing.T) {
	store := &stubStore{saveErr: errors.New("timeout")}
	svc, _ := newService(store)
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), "a", created.Code, "hi")
	assert.ErrorIs(t, err, chat.ErrSendFailed)
}

func TestLeaveRoom(t *testing.T) {
	svc, reg := newService(&stubStore{})
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	code, err := svc.LeaveRoom(context.Background(), "a", strings.ToLower(created.Code))
	require.NoError(t, err)
	assert.Equal(t, created.Code, code)
	assert.False(t, reg.IsMember(created.Code, "a"))

	_, err = svc.LeaveRoom(context.Background(), "a", created.Code)
	require.Error(t, err)
	assert.Equal(t, "You aren’t in the room "+created.Code, err.Error())
}

func TestDisconnect(t *testing.T) {
	svc, reg := newService(&stubStore{})
	created, err := svc.CreateRoom(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, created.Code, svc.Disconnect("a"))
	assert.False(t, reg.IsMember(created.Code, "a"))

	// idempotent
	assert.Empty(t, svc.Disconnect("a"))
	assert.Empty(t, svc.Disconnect("never-connected"))
}
