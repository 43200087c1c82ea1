package httpproto

import "strings"

// Grounded on original_source/src/httpd.c's pxTypeCouples table.
var extensionTypes = map[string]string{
	"html": "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"json": "application/json",
	"txt":  "text/plain",
	"mp3":  "audio/mpeg3",
	"wav":  "audio/wav",
	"flac": "audio/ogg",
	"pdf":  "application/pdf",
	"ttf":  "application/x-font-ttf",
	"ttc":  "application/x-font-ttf",
}

// ContentType infers a Content-Type value from a file path's extension,
// falling back to text/html when the extension is absent or unrecognized
// (matching pcGetContentsType's default).
func ContentType(path string) string {
	dot := strings.LastIndexByte(path, '.')
	slash := strings.LastIndexByte(path, '/')
	if dot <= slash {
		return "text/html"
	}
	if t, ok := extensionTypes[strings.ToLower(path[dot+1:])]; ok {
		return t
	}
	return "text/html"
}
