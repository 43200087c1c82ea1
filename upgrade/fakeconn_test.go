package upgrade

import "github.com/turnerm/ember/transport"

type fakeConn struct {
	sent  []byte
	alive bool
}

func newFakeConn() *fakeConn { return &fakeConn{alive: true} }

func (c *fakeConn) Recv(buf []byte) (int, error) { return 0, nil }
func (c *fakeConn) Send(buf []byte) (int, error) {
	c.sent = append(c.sent, buf...)
	return len(buf), nil
}
func (c *fakeConn) SendSpace() int { return 1 << 20 }
func (c *fakeConn) Alive() bool    { return c.alive }
func (c *fakeConn) Close() error   { c.alive = false; return nil }
func (c *fakeConn) Fd() uintptr    { return 0 }

var _ transport.Conn = (*fakeConn)(nil)
