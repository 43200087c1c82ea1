package wsproto

import "github.com/turnerm/ember/transport"

type fakeConn struct {
	recvQueue [][]byte
	sent      []byte
	alive     bool
	sendSpace int
}

func newFakeConn(recv ...[]byte) *fakeConn {
	return &fakeConn{recvQueue: recv, alive: true, sendSpace: 1 << 20}
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

// maskedFrame builds a client-to-server frame: fin+opcode, masked length,
// mask key, masked payload — mirroring what a real websocket client sends.
func maskedFrame(opcode Opcode, payload []byte, maskKey [4]byte) []byte {
	var hdr []byte
	switch {
	case len(payload) < 126:
		hdr = []byte{0x80 | byte(opcode), 0x80 | byte(len(payload))}
	case len(payload) < 65536:
		hdr = []byte{0x80 | byte(opcode), 0x80 | 126, byte(len(payload) >> 8), byte(len(payload))}
	default:
		panic("maskedFrame: payload too large for this test helper")
	}
	hdr = append(hdr, maskKey[:]...)
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ maskKey[i%4]
	}
	return append(hdr, masked...)
}
