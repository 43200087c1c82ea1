package wsproto

import (
	"bytes"
	"testing"

	"github.com/turnerm/ember/iobuf"
)

func TestUnmaskRoundTrip(t *testing.T) {
	key := []byte{0x11, 0x22, 0x33, 0x44}
	payload := []byte("hello, websocket")
	masked := append([]byte(nil), payload...)
	unmask(masked, key)
	unmask(masked, key) // masking is its own inverse
	if !bytes.Equal(masked, payload) {
		t.Fatalf("double unmask = %q, want %q", masked, payload)
	}
}

func TestWorkShortFrameTextEcho(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	frame := maskedFrame(OpText, []byte("hi"), key)
	conn := newFakeConn(frame)
	c := NewClient(conn, "/ws", func(c *Client) (int, error) {
		return c.SendTextMessage(c.Payload())
	}, nil)

	n, err := c.Work(iobuf.New(4096, 4096, 64))
	if err != nil || n < 0 {
		t.Fatalf("Work = (%d,%v), want success", n, err)
	}
	if c.Opcode() != OpText {
		t.Fatalf("Opcode = %v, want OpText", c.Opcode())
	}
	if string(c.Payload()) != "hi" {
		t.Fatalf("Payload = %q, want hi", c.Payload())
	}
	if !bytes.Contains(conn.sent, []byte("hi")) {
		t.Fatalf("expected echoed payload in sent bytes, got %v", conn.sent)
	}
}

func TestWorkNoHandlerClosesUnsupported(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	frame := maskedFrame(OpText, []byte("hi"), key)
	conn := newFakeConn(frame)
	c := NewClient(conn, "/ws", nil, nil)

	n, _ := c.Work(iobuf.New(4096, 4096, 64))
	if n >= 0 {
		t.Fatalf("Work with no handler = %d, want negative (drop)", n)
	}
	if !bytes.Contains(conn.sent, []byte(CloseUnsupportedData.String())) {
		t.Fatalf("expected close reason in sent bytes, got %q", conn.sent)
	}
}

func TestWorkX64NeverAccepted(t *testing.T) {
	// payLen field == 127 signals a real 64-bit extended length frame,
	// which Ember always rejects with 1009 and drops the connection.
	frame := []byte{0x80 | byte(OpBinary), 0x80 | 127, 0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4}
	conn := newFakeConn(frame)
	c := NewClient(conn, "/ws", nil, func(c *Client) (int, error) { return 0, nil })

	n, err := c.Work(iobuf.New(4096, 4096, 64))
	if err != nil {
		t.Fatalf("Work: %v", err)
	}
	if n >= 0 {
		t.Fatalf("Work on 64-bit-length frame = %d, want negative (drop)", n)
	}
	if !bytes.Contains(conn.sent, []byte(CloseMessageTooBig.String())) {
		t.Fatalf("expected 1009 close reason, got %q", conn.sent)
	}
}

func TestEchoCloseUsesCorrectHeaderLength(t *testing.T) {
	key := [4]byte{9, 9, 9, 9}
	payload := []byte("bye")
	frame := maskedFrame(OpClose, payload, key)
	conn := newFakeConn(frame)
	c := NewClient(conn, "/ws", nil, nil)

	n, _ := c.Work(iobuf.New(4096, 4096, 64))
	if n >= 0 {
		t.Fatal("expected Work to report a drop after a close frame")
	}
	if len(conn.sent) != len(frame) {
		t.Fatalf("echoed close frame length = %d, want %d", len(conn.sent), len(frame))
	}
	if conn.sent[0]&0x80 == 0 {
		t.Fatal("echoed close frame must have fin bit set")
	}
}

func TestEchoPingUsesX16HeaderLength(t *testing.T) {
	key := [4]byte{5, 5, 5, 5}
	payload := bytes.Repeat([]byte{'a'}, 200) // forces the X16 header branch
	frame := maskedFrame(OpPing, payload, key)
	conn := newFakeConn(frame)
	c := NewClient(conn, "/ws", nil, nil)

	n, err := c.Work(iobuf.New(4096, 4096, 64))
	if err != nil || n < 0 {
		t.Fatalf("Work on ping = (%d,%v), want success", n, err)
	}
	if len(conn.sent) != len(frame) {
		t.Fatalf("echoed pong frame length = %d, want %d (X16 header)", len(conn.sent), len(frame))
	}
	if Opcode(conn.sent[0]&0x0F) != OpPong {
		t.Fatalf("echoed opcode = %v, want OpPong", Opcode(conn.sent[0]&0x0F))
	}
}

func TestSendHeaderSizeBranches(t *testing.T) {
	conn := newFakeConn()
	c := NewClient(conn, "/ws", nil, nil)

	if _, err := c.SendHeader(OpText, 10); err != nil {
		t.Fatalf("short header: %v", err)
	}
	if len(conn.sent) != 2 {
		t.Fatalf("short header length = %d, want 2", len(conn.sent))
	}

	conn2 := newFakeConn()
	c2 := NewClient(conn2, "/ws", nil, nil)
	if _, err := c2.SendHeader(OpBinary, 300); err != nil {
		t.Fatalf("medium header: %v", err)
	}
	if len(conn2.sent) != 4 {
		t.Fatalf("medium header length = %d, want 4", len(conn2.sent))
	}

	conn3 := newFakeConn()
	c3 := NewClient(conn3, "/ws", nil, nil)
	n, _ := c3.SendHeader(OpBinary, 1<<20)
	if n >= 0 {
		t.Fatal("oversized frame header must report a drop")
	}
}
