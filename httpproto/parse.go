package httpproto

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/turnerm/ember/route"
)

// Grounded on original_source/src/httpd.c's pxRcvdHeaderDescs table. Only
// these headers are retained; everything else is parsed past but dropped.
var recognizedHeaders = []string{
	"Accept",
	"Content-Length",
	"Content-Type",
	"Host",
	"Connection",
	"Transfer-Encoding",
	"Upgrade",
	"Sec-Websocket-Version",
	"Sec-Websocket-Key",
}

func isRecognizedHeader(name string) bool {
	for _, h := range recognizedHeaders {
		if equalFold(h, name) {
			return true
		}
	}
	return false
}

// resolveURLParts splits a raw URL (already stripped of the verb and the
// trailing HTTP version) into route and param parts, URL-decoding the
// params. Grounded on prvResolveUrlParts: a leading slash is discarded, the
// URL is split on the first '?' into route/param sections, and each section
// is split on cfg.Delims up to the configured cap.
//
// Route parts are NOT URL-decoded, matching prvResolveUrlParts's own
// commented-out decode step for routes ("I don't think it should be
// decoded?") — only params are.
func resolveURLParts(url, delims string, maxRouteParts, maxParamParts int) (routeParts, paramParts []string) {
	url = strings.TrimPrefix(url, "/")

	var paramStr string
	hasParams := false
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		paramStr = url[idx+1:]
		url = url[:idx]
		hasParams = true
	}

	routeParts = route.SplitParts(url, delims, maxRouteParts)

	if !hasParams {
		return routeParts, nil
	}
	paramParts = route.SplitParts(paramStr, delims, maxParamParts)
	for i, p := range paramParts {
		paramParts[i] = urlDecode(p)
	}
	return routeParts, paramParts
}

func hexVal(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'f':
		return int(b-'a') + 10
	case 'A' <= b && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}

// urlDecode decodes %HH escapes and '+' as space. Grounded on prvUrlDecode;
// unlike the original's caller loop (which re-decoded paramParts[0] forever
// instead of advancing), every param part here is decoded exactly once.
func urlDecode(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '%':
			if i+2 >= len(s) {
				b.WriteString(s[i:])
				return b.String()
			}
			hi, lo := hexVal(s[i+1]), hexVal(s[i+2])
			if hi < 0 || lo < 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteByte(byte(hi<<4 | lo))
			i += 2
		case '+':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// resolveHeaders scans cmd for the "HTTP/1.1\r\n" request-line terminator
// starting at urlEnd, then reads recognized headers up to the blank line
// that ends the header block. It returns the retained headers and the
// offset of the first body byte. Grounded on prvResolveHeaders.
func resolveHeaders(cmd []byte, urlEnd, maxHeaders int) (headers []headerEntry, bodyOffset int, ok bool) {
	marker := []byte("HTTP/1.1\r\n")
	idx := bytes.Index(cmd[urlEnd:], marker)
	if idx < 0 {
		return nil, 0, false
	}
	cur := urlEnd + idx + len(marker)

	for {
		nl := bytes.Index(cmd[cur:], []byte("\r\n"))
		if nl < 0 {
			return nil, 0, false
		}
		if nl == 0 {
			return headers, cur + 2, true
		}
		line := cmd[cur : cur+nl]
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return nil, 0, false
		}
		name := strings.TrimSpace(string(line[:colon]))
		value := strings.TrimSpace(string(line[colon+1:]))
		if name == "" {
			return nil, 0, false
		}
		if isRecognizedHeader(name) && len(headers) < maxHeaders-1 {
			headers = append(headers, headerEntry{name: name, value: value})
		}
		cur += nl + 2
	}
}

func findHeader(headers []headerEntry, name string) (string, bool) {
	for _, h := range headers {
		if equalFold(h.name, name) {
			return h.value, true
		}
	}
	return "", false
}

// resolveBody resolves the request body from the header-indicated transfer
// mode. Transfer-Encoding: chunked takes priority over Content-Length,
// matching prvResolveBody. A request with no body-indicating headers and no
// body bytes resolves to an empty body; one with body bytes but no
// indicating header is rejected, same as the original.
func resolveBody(cmd []byte, bodyOffset int, headers []headerEntry) ([]byte, bool) {
	raw := cmd[bodyOffset:]

	if te, ok := findHeader(headers, "Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		return decodeChunked(raw)
	}
	if cl, ok := findHeader(headers, "Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return nil, false
		}
		// The entire declared body must already be present in this single
		// recv — Ember never reassembles a request across work cycles.
		if len(raw) != n {
			return nil, false
		}
		return raw, true
	}
	if len(raw) == 0 {
		return nil, true
	}
	return nil, false
}

// decodeChunked unwraps "SIZE\r\n<bytes>\r\n" segments until a zero-size
// chunk terminates the stream, per prvResolveBody's chunked branch.
func decodeChunked(data []byte) ([]byte, bool) {
	var out []byte
	for {
		nl := bytes.Index(data, []byte("\r\n"))
		if nl < 0 {
			return nil, false
		}
		sz, err := strconv.ParseInt(string(data[:nl]), 16, 64)
		if err != nil || sz < 0 {
			return nil, false
		}
		data = data[nl+2:]
		if sz == 0 {
			return out, true
		}
		if int64(len(data)) < sz+2 {
			return nil, false
		}
		out = append(out, data[:sz]...)
		data = data[sz+2:]
	}
}
