package httpproto

import "bytes"

// Verb is an HTTP request method.
type Verb int

const (
	VerbUnknown Verb = iota - 1
	VerbGet
	VerbHead
	VerbPost
	VerbPut
	VerbDelete
	VerbTrace
	VerbOptions
	VerbConnect
	VerbPatch
)

func (v Verb) String() string {
	switch v {
	case VerbGet:
		return "GET"
	case VerbHead:
		return "HEAD"
	case VerbPost:
		return "POST"
	case VerbPut:
		return "PUT"
	case VerbDelete:
		return "DELETE"
	case VerbTrace:
		return "TRACE"
	case VerbOptions:
		return "OPTIONS"
	case VerbConnect:
		return "CONNECT"
	case VerbPatch:
		return "PATCH"
	default:
		return "UNKNOWN"
	}
}

// Grounded on original_source/src/inc/httpd.h's xHttpVerbs table. Each entry
// is matched as a byte prefix including the trailing space that separates
// the verb from the URL, mirroring prvFindHTTPVerb's strncmp-plus-one-byte
// offset.
var verbTable = []struct {
	prefix string
	verb   Verb
}{
	{"GET ", VerbGet},
	{"HEAD ", VerbHead},
	{"POST ", VerbPost},
	{"PUT ", VerbPut},
	{"DELETE ", VerbDelete},
	{"TRACE ", VerbTrace},
	{"OPTIONS ", VerbOptions},
	{"CONNECT ", VerbConnect},
	{"PATCH ", VerbPatch},
}

// findVerb scans cmd for a recognized verb prefix and returns the verb plus
// the byte offset of the first character following the verb and its
// separating space (where the URL begins).
func findVerb(cmd []byte) (Verb, int, bool) {
	for _, v := range verbTable {
		if bytes.HasPrefix(cmd, []byte(v.prefix)) {
			return v.verb, len(v.prefix), true
		}
	}
	return VerbUnknown, 0, false
}
