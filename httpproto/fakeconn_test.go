package httpproto

import "github.com/turnerm/ember/transport"

// fakeConn is an in-memory transport.Conn stand-in for tests that exercise
// Client without a real socket.
type fakeConn struct {
	recvQueue [][]byte
	sent      []byte
	alive     bool
	sendSpace int
}

func newFakeConn(recv ...string) *fakeConn {
	c := &fakeConn{alive: true, sendSpace: 1 << 20}
	for _, r := range recv {
		c.recvQueue = append(c.recvQueue, []byte(r))
	}
	return c
}

func (c *fakeConn) Recv(buf []byte) (int, error) {
	if len(c.recvQueue) == 0 {
		return 0, nil
	}
	chunk := c.recvQueue[0]
	c.recvQueue = c.recvQueue[1:]
	n := copy(buf, chunk)
	return n, nil
}

func (c *fakeConn) Send(buf []byte) (int, error) {
	c.sent = append(c.sent, buf...)
	return len(buf), nil
}

func (c *fakeConn) SendSpace() int { return c.sendSpace }
func (c *fakeConn) Alive() bool    { return c.alive }
func (c *fakeConn) Close() error   { c.alive = false; return nil }
func (c *fakeConn) Fd() uintptr    { return 0 }

var _ transport.Conn = (*fakeConn)(nil)
