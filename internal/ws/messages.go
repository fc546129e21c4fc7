package ws

import "encoding/json"

// Envelope wraps every WS frame in both directions.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "room:join"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON
}

// Inbound events.
const (
	evRoomCreate    = "room:create"
	evRoomJoin      = "room:join"
	evRoomMessage   = "room:message"
	evRoomLeave     = "room:leave"
	evGlobalMessage = "chat:globalMessage"
)

// Outbound events.
const (
	evRoomCreated      = "room:created"
	evRoomJoined       = "room:joined"
	evRoomHistory      = "room:history"
	evRoomNewMessage   = "room:newMessage"
	evRoomUserJoined   = "room:userJoined"
	evRoomUserLeft     = "room:userLeft"
	evRoomLeft         = "room:left"
	evRoomFailed       = "room:failed"
	evRoomMessageError = "room:messageError"
	evGlobalNewMessage = "chat:newGlobalMessage"
	evUserJoined       = "user:joined"
	evUserLeft         = "user:left"
)

// ──────────────────────────── Request / payload DTOs ─────────────────────────

type JoinRoomRequest struct {
	RoomName string `json:"roomName"`
}

type RoomMessageRequest struct {
	RoomName string `json:"roomName"`
	Message  string `json:"message"`
}

type LeaveRoomRequest struct {
	RoomName string `json:"roomName"`
}

// GlobalMessagePayload is the body of "chat:newGlobalMessage". The field
// spelling of TimeStamp is part of the wire contract.
type GlobalMessagePayload struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	TimeStamp int64  `json:"timeStamp"`
}

// ErrorBody is returned for protocol-level failures.
type ErrorBody struct {
	Error string `json:"error"`
}

func envelope(event string, body any) map[string]any {
	env := map[string]any{"event": event}
	if body != nil {
		env["body"] = body
	}
	return env
}
