package httpproto

// Status is an HTTP response status code. Only the codes Ember itself ever
// sends are enumerated; a handler is free to use any other int status, in
// which case String returns an empty reason phrase.
type Status int

const (
	StatusSwitchingProtocols Status = 101
	StatusOK                 Status = 200
	StatusNoContent          Status = 204
	StatusBadRequest         Status = 400
	StatusUnauthorized       Status = 401
	StatusNotFound           Status = 404
	StatusNotAllowed         Status = 405
	StatusGone               Status = 410
	StatusPreconditionFailed Status = 412
	StatusPayloadTooLarge    Status = 413
	StatusHeaderTooLarge     Status = 431
	StatusInternalError      Status = 500
)

// Grounded on original_source/src/inc/httpd.h's xHttpStatuses table.
var statusText = map[Status]string{
	StatusSwitchingProtocols: "switching protocols",
	StatusOK:                 "OK",
	StatusNoContent:          "no content",
	StatusBadRequest:         "bad request",
	StatusUnauthorized:       "not authorized",
	StatusNotFound:           "not found",
	StatusNotAllowed:         "not allowed",
	StatusGone:               "gone!",
	StatusPreconditionFailed: "precondition failed",
	StatusPayloadTooLarge:    "payload too large",
	StatusHeaderTooLarge:     "headers too large",
	StatusInternalError:      "internal server error",
}

func (s Status) String() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return ""
}
