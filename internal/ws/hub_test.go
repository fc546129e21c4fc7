package ws

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubConn struct {
	got    []any
	fail   bool
	closed bool
}

func (c *stubConn) writeJSON(v any) error {
	if c.fail {
		return errors.New("write failed")
	}
	c.got = append(c.got, v)
	return nil
}

func (c *stubConn) close() { c.closed = true }

func TestEmitTo(t *testing.T) {
	h := NewHub()
	a := &stubConn{}
	h.Register("a", a)

	h.EmitTo("a", "hello")
	h.EmitTo("ghost", "lost") // unknown id is a no-op

	assert.Equal(t, []any{"hello"}, a.got)
}

func TestEmitToAllExcludesSender(t *testing.T) {
	h := NewHub()
	a, b, c := &stubConn{}, &stubConn{}, &stubConn{}
	h.Register("a", a)
	h.Register("b", b)
	h.Register("c", c)

	h.EmitToAll("a", "announce")

	assert.Empty(t, a.got)
	assert.Equal(t, []any{"announce"}, b.got)
	assert.Equal(t, []any{"announce"}, c.got)
}

func TestEmitToMembersSkipsDisconnected(t *testing.T) {
	h := NewHub()
	a, b := &stubConn{}, &stubConn{}
	h.Register("a", a)
	h.Register("b", b)

	// "gone" left between the membership read and the emit
	h.EmitToMembers([]string{"a", "b", "gone"}, "", "msg")

	assert.Equal(t, []any{"msg"}, a.got)
	assert.Equal(t, []any{"msg"}, b.got)
}

func TestFailedWriterIsDropped(t *testing.T) {
	h := NewHub()
	a := &stubConn{fail: true}
	b := &stubConn{}
	h.Register("a", a)
	h.Register("b", b)

	h.EmitToAll("", "first")
	assert.True(t, a.closed)
	assert.Equal(t, []any{"first"}, b.got)

	// the broken conn is gone; nothing panics and b still receives
	h.EmitToAll("", "second")
	assert.Equal(t, []any{"first", "second"}, b.got)
}

func TestUnregister(t *testing.T) {
	h := NewHub()
	a := &stubConn{}
	h.Register("a", a)
	h.Unregister("a")

	h.EmitTo("a", "gone")
	assert.Empty(t, a.got)
}
