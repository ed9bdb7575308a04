package adapter

import "errors"

var (
	// ErrTransport wraps failures that never produced an HTTP response
	// (dial errors, timeouts, reset connections).
	ErrTransport = errors.New("remote service unreachable")
	// ErrServerUnavailable marks 5xx answers. Together with ErrTransport it
	// counts as a network failure for connectivity tracking.
	ErrServerUnavailable = errors.New("remote service unavailable")

	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")

	// ErrInvalidResponse is returned when a 2xx body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid response from remote service")
)

// IsUnreachable reports whether err means the remote service could not serve
// the request at all, as opposed to answering it with a client error.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrServerUnavailable)
}
