package probe

import (
	"errors"
	"fmt"
)

// Probe errors.
var (
	// ErrTargetSuppressed is returned when a request targets a scheme that
	// has no forwarding entry, e.g. plain HTTP in HTTPS-only mode.
	ErrTargetSuppressed = errors.New("forwarding target suppressed")

	// ErrAbandoned is returned by Probe when the context ended before the
	// probe produced a classified outcome.
	ErrAbandoned = errors.New("probe abandoned")

	// ErrUnsupportedScheme is returned by the factory for unknown proxy schemes.
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")
)

// dialError marks a failure to open the TCP connection to the proxy itself.
type dialError struct {
	err error
}

func (e *dialError) Error() string {
	return fmt.Sprintf("dial proxy: %v", e.err)
}

func (e *dialError) Unwrap() error {
	return e.err
}

// rejectedError marks a proxy that was reached but refused to forward:
// a non-200 CONNECT answer or a failed SOCKS handshake.
type rejectedError struct {
	status string
	err    error
}

func (e *rejectedError) Error() string {
	if e.status != "" {
		return "proxy rejected CONNECT: " + e.status
	}
	return fmt.Sprintf("proxy rejected request: %v", e.err)
}

func (e *rejectedError) Unwrap() error {
	return e.err
}
