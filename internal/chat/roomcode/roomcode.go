package roomcode

import (
	"errors"
	"math/rand/v2"
)

// CodeLength is the fixed length of every room code.
const CodeLength = 6

const (
	alphabet    = "QWERTYUIOPASDFGHJKLZXCVBNM"
	maxAttempts = 1000
)

// ErrSpaceExhausted is returned when maxAttempts candidates in a row were
// already taken. With 26^6 possible codes this only happens when the taken
// check is broken, so callers treat it as an internal error.
var ErrSpaceExhausted = errors.New("room code space exhausted")

// Generate draws uppercase codes uniformly at random until taken reports one
// as unused.
func Generate(taken func(string) bool) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code := randomCode()
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrSpaceExhausted
}

func randomCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}
