// Package wsproto implements Ember's websocket frame engine (spec.md C6):
// decoding incoming frames from the shared receive buffer, dispatching by
// opcode to application handlers, and framing outgoing messages.
//
// Grounded throughout on original_source/src/websocketd.c. Masking is
// implemented as a standard RFC 6455 per-byte XOR against the 4-byte mask
// key rather than the original's 16-bit-word-stride XOR
// (prvMaskPayload) — the two produce bit-identical results on the wire, and
// the stride version only exists in the original as a microcontroller-scale
// optimization that depends on the target's native integer width; it isn't
// meaningful in Go. See DESIGN.md.
package wsproto

import (
	"encoding/binary"

	"github.com/turnerm/ember/iobuf"
	"github.com/turnerm/ember/transport"
)

// Opcode is a websocket frame opcode.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// CloseCode is an RFC 6455 connection close status code.
type CloseCode int

const (
	CloseNormal          CloseCode = 1000
	CloseProtocolError   CloseCode = 1002
	CloseUnsupportedData CloseCode = 1003
	CloseMessageTooBig   CloseCode = 1009
	CloseInternalError   CloseCode = 1011
)

var closeText = map[CloseCode]string{
	CloseNormal:          "normal closure",
	CloseProtocolError:   "protocol error",
	CloseUnsupportedData: "unsupported data",
	CloseMessageTooBig:   "message too big",
	CloseInternalError:   "internal error",
}

func (c CloseCode) String() string {
	if t, ok := closeText[c]; ok {
		return t
	}
	return "unknown"
}

// Handler services a decoded text or binary message. A negative return (or
// an error) drops the connection, matching the HTTP Handler convention.
type Handler func(c *Client) (int, error)

// Client is one upgraded websocket connection's frame state.
type Client struct {
	conn        transport.Conn
	route       string
	textHandler Handler
	binHandler  Handler

	buf *iobuf.Buffers

	fin       bool
	opcode    Opcode
	payload   []byte
	headerLen int
}

// NewClient constructs a websocket client over an already-upgraded
// connection. route carries the original HTTP route the client upgraded
// from, mirroring WebsocketClient_t.pcRoute.
func NewClient(conn transport.Conn, route string, textHandler, binHandler Handler) *Client {
	return &Client{conn: conn, route: route, textHandler: textHandler, binHandler: binHandler}
}

// Conn exposes the underlying transport connection.
func (c *Client) Conn() transport.Conn { return c.conn }

// Route is the HTTP route the client upgraded from.
func (c *Client) Route() string { return c.route }

// Opcode is the most recently decoded frame's opcode.
func (c *Client) Opcode() Opcode { return c.opcode }

// Payload is the most recently decoded frame's (unmasked) payload.
func (c *Client) Payload() []byte { return c.payload }

// Close is a no-op: a websocket client holds no resources of its own beyond
// the shared connection, which the dispatcher closes separately.
func (c *Client) Close() error { return nil }

// Work reads and dispatches one frame. It never blocks: a zero-byte recv
// with no error means no frame is available yet and Work returns (0, nil).
// Grounded on xWebsocketWork.
func (c *Client) Work(buf *iobuf.Buffers) (int, error) {
	c.buf = buf
	n, err := c.conn.Recv(buf.Rcv)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	data := buf.Rcv[:n]
	if len(data) < 2 {
		return 0, nil
	}

	payLen := int(data[1] & 0x7F)
	var ok bool
	switch {
	case payLen < 126:
		ok = c.parseShort(data, payLen)
	case payLen == 126:
		ok = c.parseX16(data)
	default:
		// A real 64-bit extended length frame: never accepted.
		c.sendClose(CloseMessageTooBig)
		return -1, nil
	}
	if !ok {
		return -1, nil
	}

	switch c.opcode {
	case OpContinuation:
		return 0, nil
	case OpText:
		if c.textHandler == nil {
			c.sendClose(CloseUnsupportedData)
			return -1, nil
		}
		return c.textHandler(c)
	case OpBinary:
		if c.binHandler == nil {
			c.sendClose(CloseUnsupportedData)
			return -1, nil
		}
		return c.binHandler(c)
	case OpClose:
		c.echoClose()
		return -1, nil
	case OpPing:
		return c.sendPong()
	case OpPong:
		return 0, nil
	default:
		c.sendClose(CloseProtocolError)
		return -1, nil
	}
}

// parseShort decodes a frame whose 7-bit payLen field carries the actual
// length (< 126). Grounded on prvParseFrame.
func (c *Client) parseShort(data []byte, payLen int) bool {
	const headerSz = 6 // 2 flag bytes + 4-byte mask key
	if len(data) < headerSz+payLen {
		return false
	}
	c.decodeHeader(data)
	c.headerLen = headerSz
	maskKey := data[2:6]
	payload := data[headerSz : headerSz+payLen]
	unmask(payload, maskKey)
	c.payload = payload
	return true
}

// parseX16 decodes a frame with a 16-bit extended length (payLen == 126).
// Grounded on prvParseFrameX16: a frame that wouldn't fit in the receive
// buffer alongside its header is rejected with a 1009 close rather than
// accepted and truncated.
func (c *Client) parseX16(data []byte) bool {
	const headerSz = 8 // 2 flag bytes + 2-byte extended length + 4-byte mask key
	if len(data) < headerSz {
		return false
	}
	extLen := int(binary.BigEndian.Uint16(data[2:4]))
	if extLen > len(c.buf.Rcv)-headerSz {
		c.sendClose(CloseMessageTooBig)
		return false
	}
	if len(data) < headerSz+extLen {
		return false
	}
	c.decodeHeader(data)
	c.headerLen = headerSz
	maskKey := data[4:8]
	payload := data[headerSz : headerSz+extLen]
	unmask(payload, maskKey)
	c.payload = payload
	return true
}

func (c *Client) decodeHeader(data []byte) {
	c.fin = data[0]&0x80 != 0
	c.opcode = Opcode(data[0] & 0x0F)
}

func unmask(payload, maskKey []byte) {
	for i := range payload {
		payload[i] ^= maskKey[i%4]
	}
}

// sendClose sends an unmasked close frame whose payload is code as a 2-byte
// status followed by a short status-text reason. Grounded on prvSendClose.
func (c *Client) sendClose(code CloseCode) (int, error) {
	reason := closeMessage(code)
	frame := make([]byte, 4, 4+len(reason))
	frame[0] = 0x80 | byte(OpClose)
	frame[1] = byte(2 + len(reason))
	binary.BigEndian.PutUint16(frame[2:4], uint16(code))
	frame = append(frame, reason...)
	return c.conn.Send(frame)
}

func closeMessage(code CloseCode) string {
	return itoa(int(code)) + " " + code.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// echoClose forces the fin bit on the received close frame and echoes it
// back verbatim, matching the original's in-place header mutation and
// re-send (a stale mask bit/key is preserved in the echo, as in the
// original — see DESIGN.md).
func (c *Client) echoClose() {
	frame := c.buf.Rcv[:c.headerLen+len(c.payload)]
	frame[0] |= 0x80
	c.conn.Send(frame)
}

// sendPong flips a received ping frame's opcode to Pong, forces fin, and
// echoes it back. Grounded on xWebsocketWork's eWSOp_Ping case.
func (c *Client) sendPong() (int, error) {
	frame := c.buf.Rcv[:c.headerLen+len(c.payload)]
	frame[0] = (frame[0] & 0xF0) | byte(OpPong)
	frame[0] |= 0x80
	return c.conn.Send(frame)
}
