package validate

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Validation failures are sent to clients verbatim, so the texts here are the
// exact user-facing messages.
var (
	ErrCodeEmpty  = errors.New("Room name cannot be empty.")
	ErrCodeLength = errors.New("Room name must be exactly 6 characters long.")
	ErrCodeCase   = errors.New("Room name must be uppercase.")

	ErrBodyEmpty    = errors.New("Message cannot be empty.")
	ErrBodyTooShort = errors.New("Message must be at least 1 character long.")
	ErrBodyTooLong  = errors.New("Message must be less than or equal to 500 characters.")
)

var v = validator.New()

type roomCodeFields struct {
	RoomName string `validate:"required,len=6,uppercase"`
}

type messageFields struct {
	Message string `validate:"required,min=1,max=500"`
}

// RoomCode checks the shape of an already-canonicalized (uppercased) room
// code. Pure; callers forward the returned error text to the sender.
func RoomCode(code string) error {
	err := v.Struct(roomCodeFields{RoomName: code})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrCodeEmpty
	}
	switch verrs[0].Tag() {
	case "required":
		return ErrCodeEmpty
	case "len":
		return ErrCodeLength
	default:
		return ErrCodeCase
	}
}

// MessageBody checks an already-trimmed message body.
func MessageBody(body string) error {
	err := v.Struct(messageFields{Message: body})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrBodyEmpty
	}
	switch verrs[0].Tag() {
	case "required":
		return ErrBodyEmpty
	case "min":
		return ErrBodyTooShort
	default:
		return ErrBodyTooLong
	}
}

// IsBodyError reports whether err is a message-body validation failure, which
// clients receive on a separate channel from room-level rejections.
func IsBodyError(err error) bool {
	return errors.Is(err, ErrBodyEmpty) ||
		errors.Is(err, ErrBodyTooShort) ||
		errors.Is(err, ErrBodyTooLong)
}
