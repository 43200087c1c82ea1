package httpproto

import (
	"fmt"
	"strings"
)

// ResponseOptions selects exactly one body-framing mode for
// SendResponseHeaders: a known Content-Length, or chunked transfer
// encoding. Grounded on httpd.h's ResponseOptions_t bitfield.
type ResponseOptions struct {
	ContentLength bool
	Chunked       bool
}

// SendResponseHeaders constructs and transmits the status line and headers
// for a response. extra, if non-empty, is appended verbatim (a trailing
// "\r\n" is added if missing), matching prvConstructHeaders.
func (c *Client) SendResponseHeaders(status Status, opts ResponseOptions, contentLen int, contentType, extra string) (int, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, status.String())
	b.WriteString("Accept-Encoding: identity\r\nConnection: close\r\n")
	if contentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	}
	switch {
	case opts.ContentLength:
		fmt.Fprintf(&b, "Content-Length: %d\r\n", contentLen)
	case opts.Chunked:
		b.WriteString("Transfer-Encoding: chunked\r\n")
	}
	if extra != "" {
		b.WriteString(extra)
		if !strings.HasSuffix(extra, "\r\n") {
			b.WriteString("\r\n")
		}
	}
	b.WriteString("\r\n")
	return c.sendAll([]byte(b.String()))
}

// sendAll writes data to the connection in SendSpace-bounded blocks,
// matching xSendHttpResponseContent's send loop.
func (c *Client) sendAll(data []byte) (int, error) {
	sent := 0
	for sent < len(data) {
		space := c.conn.SendSpace()
		block := len(data) - sent
		if block > space {
			block = space
		}
		if block == 0 {
			break
		}
		n, err := c.conn.Send(data[sent : sent+block])
		if err != nil {
			return sent, err
		}
		if n == 0 {
			break
		}
		sent += n
	}
	return sent, nil
}

// SendResponseContent transmits a block of a Content-Length-framed body.
func (c *Client) SendResponseContent(content []byte) (int, error) {
	return c.sendAll(content)
}

// SendResponseChunk transmits one chunk of a chunked-transfer body. A nil
// content terminates the stream with the zero-size closing chunk.
func (c *Client) SendResponseChunk(content []byte) (int, error) {
	if content == nil {
		return c.sendAll([]byte("0\r\n\r\n"))
	}
	sent := 0
	n, err := c.sendAll([]byte(fmt.Sprintf("%x\r\n", len(content))))
	sent += n
	if err != nil {
		return sent, err
	}
	n, err = c.sendAll(content)
	sent += n
	if err != nil {
		return sent, err
	}
	n, err = c.sendAll([]byte("\r\n"))
	sent += n
	return sent, err
}

// SendResponseFile streams blob's contents as the response body, bounded by
// cfg.FileChunkSize bytes per work cycle; if the whole file doesn't fit in
// one cycle, the client is marked fileInProgress and the stream resumes on
// the next Work call via continueSendFile. Grounded on
// xSendHttpResponseFile/prvContinueSendFile.
func (c *Client) SendResponseFile(blob Blob) (int, error) {
	c.blob = blob
	c.bytesLeft = blob.Size()
	c.fileInProgress = true
	return c.pumpFile(c.cfg.FileChunkSize)
}

func (c *Client) continueSendFile() (int, error) {
	if c.blob == nil {
		c.fileInProgress = false
		return 0, nil
	}
	return c.pumpFile(c.cfg.FileChunkSize)
}

func (c *Client) pumpFile(chunkBudget int) (int, error) {
	sent := 0
	for c.bytesLeft > 0 && sent < chunkBudget {
		space := c.conn.SendSpace()
		count := c.bytesLeft
		if int64(space) < count {
			count = int64(space)
		}
		if count > int64(len(c.buf.Snd)) {
			count = int64(len(c.buf.Snd))
		}
		if count <= 0 {
			break
		}
		n, rerr := c.blob.Read(c.buf.Snd[:count])
		if n <= 0 {
			if rerr != nil {
				c.finishFile()
				return sent, rerr
			}
			break
		}
		c.bytesLeft -= int64(n)
		wn, werr := c.conn.Send(c.buf.Snd[:n])
		if werr != nil {
			c.finishFile()
			return sent, werr
		}
		if wn <= 0 {
			break
		}
		sent += wn
	}
	if c.bytesLeft <= 0 {
		c.finishFile()
	}
	return sent, nil
}

func (c *Client) finishFile() {
	if c.blob != nil {
		c.blob.Close()
		c.blob = nil
	}
	c.fileInProgress = false
}

// SendRaw writes data directly to the connection with no framing. Used only
// by package upgrade to send the fixed websocket-handshake response.
func (c *Client) SendRaw(data []byte) (int, error) {
	return c.sendAll(data)
}

// DefaultErrorHandler renders a minimal text/html body naming the status.
// Grounded on prvDefaultErrorHandler.
func DefaultErrorHandler(c *Client, status Status) (int, error) {
	text := status.String()
	n, err := c.SendResponseHeaders(status, ResponseOptions{ContentLength: true}, len(text), "text/html", "")
	if err != nil {
		return n, err
	}
	n2, err := c.SendResponseContent([]byte(text))
	return n + n2, err
}

// PrintRoute renders route parts back into a "/a/b/c" path, the inverse of
// the route half of resolveURLParts. Grounded on xPrintRoute.
func PrintRoute(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}

// PrintParams renders param parts back into a "?a&b&c" query string, or ""
// when there are none. Grounded on xPrintParams, including the documented
// choice to write nothing (not a stray "?") when parts is empty.
func PrintParams(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}
