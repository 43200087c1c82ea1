package ember

import (
	"github.com/turnerm/ember/iobuf"
	"github.com/turnerm/ember/transport"
)

// Client is anything the dispatcher can drive: an HTTP connection, an
// upgraded websocket connection, or any other protocol wired through a
// Protocol descriptor. Grounded on TCPClient_t's shared xWork/xDelete
// function-pointer pair; here that's just two interface methods.
type Client interface {
	// Work services one cooperative cycle. A negative return (or a
	// non-nil error) tells the dispatcher to drop the client.
	Work(buf *iobuf.Buffers) (int, error)
	// Close releases any resources the client holds open (file handles,
	// etc) before it is removed from the list.
	Close() error
	// Conn is the client's underlying transport connection.
	Conn() transport.Conn
}

// upgradeable is implemented by clients that can hand the dispatcher a
// replacement Client mid-cycle (httpproto.Client, on a successful websocket
// upgrade). Matched structurally so ember never imports httpproto.
type upgradeable interface {
	TakeUpgraded() any
}

// node is one entry in the server's intrusive doubly-linked client list.
// The client field is swapped in place on upgrade so the node itself (and
// its position in the list) never changes — the Go equivalent of the
// original's single-allocation client-record type mutation.
type node struct {
	client     Client
	prev, next *node
}
