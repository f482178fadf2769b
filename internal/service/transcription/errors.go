package transcription

import "net/http"

// Error is an API-visible failure carrying the HTTP status it maps to.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// InvalidArgument marks a user-correctable request error (400).
func InvalidArgument(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// Unavailable marks a transient not-ready condition (503).
func Unavailable(detail string) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Detail: detail}
}

// Internal marks an opaque processing failure (500).
func Internal(detail string) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail}
}
