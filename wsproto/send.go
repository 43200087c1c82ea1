package wsproto

import "encoding/binary"

// SendHeader transmits a frame header for an upcoming payload of size n.
// Server-to-client frames are always sent unmasked and fin=1 (Ember never
// fragments outbound messages). Grounded on prvSendMessageHeader.
func (c *Client) SendHeader(code Opcode, n int) (int, error) {
	switch {
	case n < 126:
		hdr := [2]byte{0x80 | byte(code), byte(n)}
		return c.conn.Send(hdr[:])
	case n < 65536:
		var hdr [4]byte
		hdr[0] = 0x80 | byte(code)
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:4], uint16(n))
		return c.conn.Send(hdr[:])
	default:
		c.sendClose(CloseInternalError)
		return -1, nil
	}
}

// SendPayload transmits raw payload bytes immediately following a header
// sent by SendHeader.
func (c *Client) SendPayload(payload []byte) (int, error) {
	return c.conn.Send(payload)
}

// SendTextMessage sends a complete text message as a single frame.
func (c *Client) SendTextMessage(msg []byte) (int, error) {
	n, err := c.SendHeader(OpText, len(msg))
	if err != nil || n < 0 {
		return n, err
	}
	m, err := c.SendPayload(msg)
	return n + m, err
}

// SendBinaryMessage sends a complete binary message as a single frame.
func (c *Client) SendBinaryMessage(msg []byte) (int, error) {
	n, err := c.SendHeader(OpBinary, len(msg))
	if err != nil || n < 0 {
		return n, err
	}
	m, err := c.SendPayload(msg)
	return n + m, err
}
