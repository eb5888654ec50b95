package remote

import "errors"

// Failure kinds returned by remote store calls.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, remote.ErrTransport) {
//	    // Network or HTTP-level failure; the request may never have
//	    // reached the backend.
//	}
var (
	// ErrTransport is returned when the request could not complete at
	// the HTTP level: connection failure, timeout, or a non-2xx status.
	ErrTransport = errors.New("remote transport failure")

	// ErrProtocol is returned when the response body is not a valid
	// JSON envelope, typically an HTML error page from the hosting
	// layer. The body is never parsed further.
	ErrProtocol = errors.New("remote protocol failure")

	// ErrApplication is returned when the backend answered with a
	// well-formed envelope carrying status "error". The server-provided
	// message is included in the wrapped error text.
	ErrApplication = errors.New("remote application error")
)

// IsTransport returns true if the error is an HTTP or network-level
// failure. Transport failures may succeed on an explicit retry; nothing
// in this package retries automatically.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsProtocol returns true if the error came from an unparseable
// response body. Protocol failures usually mean a misconfigured
// endpoint URL or a hosting-layer outage page.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// IsApplication returns true if the backend itself rejected the
// request. The wrapped message is the server's own explanation and is
// safe to surface to the operator.
func IsApplication(err error) bool {
	return errors.Is(err, ErrApplication)
}
