// Package route implements Ember's route matcher (spec.md C4): matching a
// parsed URL's path parts against a static, ordered route table with
// wildcard and trailing-slash tolerance.
//
// Grounded on original_source/src/httpd.c's prvMatchRoute. The C version
// walks two null-sentinel-terminated arrays in lockstep; here the sentinel
// is simply a Go slice's length, and the handler carried by a matching item
// is generic so this package has no dependency on the HTTP or WebSocket
// client types that use it.
package route

import (
	"path/filepath"
	"strings"
)

// Options are per-item matching flags (spec.md §3 "Route item").
type Options uint8

const (
	// IgnoreTrailingSlash tolerates exactly one extra empty trailing part on
	// either side (a request or a table entry ending in "/").
	IgnoreTrailingSlash Options = 1 << iota
	// AllowWildcards enables shell-glob part matching and the "%" part that
	// consumes the remainder of the request path.
	AllowWildcards
)

// Item is one entry in a route table.
type Item[H any] struct {
	Options Options
	Handler H
	Parts   []string
}

// Table is an ordered, static route table; the first matching Item wins, so
// table order defines priority.
type Table[H any] struct {
	Delims string
	Items  []Item[H]
}

// Match walks reqParts against the table in order and returns the handler of
// the first matching item. ok is false when nothing matched, at which point
// the caller is expected to invoke its own 404 handling.
func (t Table[H]) Match(reqParts []string) (handler H, ok bool) {
	for _, item := range t.Items {
		if matchItem(item, reqParts) {
			return item.Handler, true
		}
	}
	var zero H
	return zero, false
}

func matchItem[H any](item Item[H], req []string) bool {
	j := 0
	for {
		reqDone := j == len(req)
		itemDone := j == len(item.Parts)

		if reqDone && itemDone {
			return true
		}

		if item.Options&IgnoreTrailingSlash != 0 {
			// request has one extra empty trailing part past the table entry
			if !reqDone && j+1 == len(req) && req[j] == "" && itemDone {
				return true
			}
			// table entry has one extra empty trailing part past the request
			if reqDone && !itemDone && j+1 == len(item.Parts) && item.Parts[j] == "" {
				return true
			}
		}

		if reqDone || itemDone {
			return false
		}

		p := item.Parts[j]
		r := req[j]

		if item.Options&AllowWildcards != 0 {
			if ok, _ := filepath.Match(p, r); ok {
				j++
				continue
			}
			if p == "%" {
				return true
			}
		}

		if !strings.EqualFold(p, r) {
			return false
		}
		j++
	}
}

// SplitParts splits s on any byte in delims, preserving empty segments (so
// a trailing delimiter yields a trailing "" part, as IgnoreTrailingSlash
// matching requires) and capping at maxParts parts total — the remainder of
// s, delimiters included, becomes the final part. This mirrors
// prvResolveUrlParts's bounded strpbrk loop (spec.md §4.3 step 5) rather
// than strings.FieldsFunc, which silently drops empty tokens.
func SplitParts(s, delims string, maxParts int) []string {
	parts := make([]string, 0, 4)
	for len(parts) < maxParts-1 {
		idx := strings.IndexAny(s, delims)
		if idx < 0 {
			break
		}
		parts = append(parts, s[:idx])
		s = s[idx+1:]
	}
	parts = append(parts, s)
	return parts
}
