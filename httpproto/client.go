// Package httpproto implements Ember's HTTP/1.1 parser, router and
// responder (spec.md C5): request-line and header parsing, chunked and
// content-length body resolution, route matching against a static table,
// response construction, and bounded file streaming.
//
// Grounded throughout on original_source/src/httpd.c. Parsing is done with
// direct slice/index scans against the server's shared receive buffer rather
// than net/http.ReadRequest, since net/http always allocates a *http.Request
// and its own body reader per call; that conflicts with Ember's single
// shared per-cycle receive buffer and its one-client-at-a-time invariant.
package httpproto

import (
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/turnerm/ember/iobuf"
	"github.com/turnerm/ember/route"
	"github.com/turnerm/ember/transport"
)

// Handler services a matched route or an upgraded-to-websocket request. It
// returns the number of bytes written (>= 0) or a negative value / error to
// signal that the client should be dropped.
type Handler func(c *Client) (int, error)

// ErrorHandler renders a response for a status that doesn't carry a route
// handler (unmatched route, malformed request, etc).
type ErrorHandler func(c *Client, status Status) (int, error)

// Blob is an open file-like resource, sized up front so response headers
// can carry a Content-Length before any bytes are read.
type Blob interface {
	io.Reader
	io.Closer
	Size() int64
}

// BlobSource resolves a route's resolved filesystem path to a Blob. Static
// file routes use this instead of talking to os.Open directly so tests can
// substitute an in-memory source.
type BlobSource interface {
	Open(path string) (Blob, error)
}

// Config is shared, read-only configuration for every HTTPClient created
// against one set of routes (spec.md's RouteConfig equivalent).
type Config struct {
	// Routes is the ordered route table; the first match wins.
	Routes route.Table[Handler]
	// Delims is the set of bytes that separate route/param path parts.
	Delims string
	// MaxRouteParts and MaxParamParts bound how many parts resolveURLParts
	// will split out before folding the remainder into the final part.
	MaxRouteParts int
	MaxParamParts int
	// MaxHeaders bounds how many recognized headers are retained per
	// request.
	MaxHeaders int
	// FileChunkSize bounds how many bytes SendResponseFile/
	// continueSendFile will push in a single work cycle.
	FileChunkSize int
	// Blobs resolves static file routes to readable content.
	Blobs BlobSource
	// ErrorHandler renders non-route responses (400/404/...). Defaults to
	// DefaultErrorHandler when nil.
	ErrorHandler ErrorHandler

	Logger hclog.Logger
}

func (cfg *Config) errorHandler() ErrorHandler {
	if cfg.ErrorHandler != nil {
		return cfg.ErrorHandler
	}
	return DefaultErrorHandler
}

func (cfg *Config) logger() hclog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return hclog.NewNullLogger()
}

type headerEntry struct {
	name  string
	value string
}

// Client is one HTTP/1.1 connection's parse/response state. It is rebuilt
// from scratch on every request (spec.md's request-scoped client fields);
// only fileInProgress/bytesLeft/blob survive across Work calls while a
// static file response is streaming.
type Client struct {
	conn transport.Conn
	cfg  *Config
	log  hclog.Logger

	verb       Verb
	routeParts []string
	paramParts []string
	headers    []headerEntry
	body       []byte

	fileInProgress bool
	blob           Blob
	bytesLeft      int64

	// buf is the server-wide shared buffer pair for the duration of the
	// current Work call, set at entry and used by every Send* method so
	// handlers (whose signature carries no buf parameter, matching
	// xRouteHandler) can still construct responses.
	buf *iobuf.Buffers

	// upgraded holds a *wsproto.Client set by the upgrade package via
	// SetUpgraded. It is typed any so this package never imports wsproto,
	// avoiding an import cycle; ember type-asserts it back after Work.
	upgraded any
}

// NewClient constructs an HTTP client bound to conn using cfg's routes and
// limits.
func NewClient(conn transport.Conn, cfg *Config) *Client {
	return &Client{conn: conn, cfg: cfg, log: cfg.logger()}
}

// Conn exposes the underlying transport connection; the upgrade package
// uses this to build the websocket client that replaces this one in the
// client list.
func (c *Client) Conn() transport.Conn { return c.conn }

// Verb is the verb of the most recently parsed request.
func (c *Client) Verb() Verb { return c.verb }

// RouteParts are the most recently parsed request's path segments.
func (c *Client) RouteParts() []string { return c.routeParts }

// ParamParts are the most recently parsed request's query segments.
func (c *Client) ParamParts() []string { return c.paramParts }

// Body is the most recently parsed request's body, or nil.
func (c *Client) Body() []byte { return c.body }

// Header looks up a recognized request header by name, case-insensitively.
func (c *Client) Header(name string) (string, bool) {
	for _, h := range c.headers {
		if equalFold(h.name, name) {
			return h.value, true
		}
	}
	return "", false
}

// SetUpgraded records the replacement client produced by a successful
// websocket upgrade. Called only from package upgrade.
func (c *Client) SetUpgraded(next any) { c.upgraded = next }

// TakeUpgraded returns and clears any pending upgrade replacement. Called by
// the dispatcher immediately after Work returns.
func (c *Client) TakeUpgraded() any {
	u := c.upgraded
	c.upgraded = nil
	return u
}

// Work services one cooperative cycle: continuing a streamed file response
// if one is in progress, otherwise trying to read and service a new
// request. It never blocks.
func (c *Client) Work(buf *iobuf.Buffers) (int, error) {
	c.buf = buf
	if c.fileInProgress {
		return c.continueSendFile()
	}
	return c.serviceRequest()
}

// Close releases any open file handle (xHttpDelete's equivalent).
func (c *Client) Close() error {
	if c.blob != nil {
		err := c.blob.Close()
		c.blob = nil
		return err
	}
	return nil
}

func (c *Client) serviceRequest() (int, error) {
	n, err := c.conn.Recv(c.buf.Rcv)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	cmd := c.buf.Rcv[:n]

	verb, urlStart, ok := findVerb(cmd)
	if !ok {
		return c.cfg.errorHandler()(c, StatusBadRequest)
	}
	c.verb = verb

	urlEnd := indexAny(cmd[urlStart:], " \t\n")
	if urlEnd < 0 {
		return c.cfg.errorHandler()(c, StatusBadRequest)
	}
	urlEnd += urlStart

	c.routeParts, c.paramParts = resolveURLParts(
		string(cmd[urlStart:urlEnd]), c.cfg.Delims, c.cfg.MaxRouteParts, c.cfg.MaxParamParts)

	headers, bodyOffset, ok := resolveHeaders(cmd, urlEnd, c.cfg.MaxHeaders)
	if !ok {
		return c.cfg.errorHandler()(c, StatusBadRequest)
	}
	c.headers = headers

	body, ok := resolveBody(cmd, bodyOffset, headers)
	if !ok {
		return c.cfg.errorHandler()(c, StatusBadRequest)
	}
	c.body = body

	handler, ok := c.cfg.Routes.Match(c.routeParts)
	if !ok {
		return c.cfg.errorHandler()(c, StatusNotFound)
	}
	return handler(c)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func indexAny(data []byte, chars string) int {
	for i, b := range data {
		for j := 0; j < len(chars); j++ {
			if b == chars[j] {
				return i
			}
		}
	}
	return -1
}
