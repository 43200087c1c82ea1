// Package upgrade bridges an HTTP connection to a websocket connection
// (spec.md C7): validating the upgrade request's headers, computing the
// Sec-WebSocket-Accept value, sending the fixed handshake response, and
// producing the wsproto.Client that replaces the httpproto.Client in the
// server's client list.
//
// Grounded on original_source/src/httpd.c's xUpgradeToWebsocket and
// prvSendWebsocketUpgradeHeaders. sha1+base64 are treated as pure
// functions external to Ember's own design (spec.md's framing), so this is
// the one place in the transformed tree that reaches for crypto/sha1 and
// encoding/base64 from the standard library rather than a pack dependency —
// none of the example repos wire a third-party SHA-1/base64 implementation,
// and the stdlib ones are the canonical choice for RFC 6455.
package upgrade

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/turnerm/ember/httpproto"
	"github.com/turnerm/ember/wsproto"
)

const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const upgradeResponsePrefix = "HTTP/1.1 101 Switching Protocols\r\n" +
	"Connection: Upgrade\r\n" +
	"Upgrade: websocket\r\n" +
	"Sec-WebSocket-Accept: "

// Do validates c's request as a websocket upgrade, and on success sends the
// 101 handshake response and records a *wsproto.Client (via
// c.SetUpgraded) for the dispatcher to swap in. On failure it renders a 400
// with httpproto.DefaultErrorHandler and returns its result; an
// ErrorHandler set in c's httpproto.Config is not used here.
//
// route is carried onto the resulting websocket client as the route it
// upgraded from (WebsocketClient_t.pcRoute).
func Do(c *httpproto.Client, route string, textHandler, binHandler wsproto.Handler) (int, error) {
	if c.Verb() != httpproto.VerbGet {
		return httpproto.DefaultErrorHandler(c, httpproto.StatusBadRequest)
	}

	host, hostOK := c.Header("Host")
	conn, connOK := c.Header("Connection")
	upg, upgOK := c.Header("Upgrade")
	ver, verOK := c.Header("Sec-Websocket-Version")
	key, keyOK := c.Header("Sec-Websocket-Key")
	_ = host
	if !hostOK || !connOK || !upgOK || !verOK || !keyOK {
		return httpproto.DefaultErrorHandler(c, httpproto.StatusBadRequest)
	}
	if !containsFold(conn, "upgrade") || !containsFold(upg, "websocket") || !containsFold(ver, "13") {
		return httpproto.DefaultErrorHandler(c, httpproto.StatusBadRequest)
	}

	accept := acceptKey(key)
	n, err := c.SendRaw([]byte(upgradeResponsePrefix + accept + "\r\n\r\n"))
	if err != nil || n <= 0 {
		return n, err
	}

	ws := wsproto.NewClient(c.Conn(), route, textHandler, binHandler)
	c.SetUpgraded(ws)
	return n, nil
}

func acceptKey(key string) string {
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
