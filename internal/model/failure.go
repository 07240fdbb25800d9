package model

import (
	"fmt"
	"strconv"
	"strings"
)

// FailureKind classifies why a probe did not count as accepted.
// The set is closed: errors that match no specific kind fold into
// FailureUnknown instead of introducing new categories.
type FailureKind int

const (
	// FailureNone is the zero value and marks an accepted outcome.
	FailureNone FailureKind = iota

	// FailureInvalidFormat means the input line could not be parsed.
	// Such lines never reach the network.
	FailureInvalidFormat

	// FailureConnectTimeout means the TCP connection to the proxy timed out.
	FailureConnectTimeout

	// FailureReadTimeout means the proxy accepted the connection but the
	// response did not arrive in time.
	FailureReadTimeout

	// FailureProxyError means the proxy rejected the request: a failed
	// CONNECT, a SOCKS handshake error, or 407 Proxy Authentication Required.
	FailureProxyError

	// FailureConnectionError covers refused, reset, unreachable and DNS failures.
	FailureConnectionError

	// FailureHTTPStatus means the test endpoint answered with a non-2xx status.
	FailureHTTPStatus

	// FailureUnknown is any error that matched nothing above.
	FailureUnknown
)

var failureKindNames = map[FailureKind]string{
	FailureNone:            "none",
	FailureInvalidFormat:   "invalid_format",
	FailureConnectTimeout:  "connect_timeout",
	FailureReadTimeout:     "read_timeout",
	FailureProxyError:      "proxy_error",
	FailureConnectionError: "connection_error",
	FailureHTTPStatus:      "http_status",
	FailureUnknown:         "unknown",
}

// String returns the snake_case name of the kind.
func (k FailureKind) String() string {
	if name, ok := failureKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// AllFailureKinds lists every failure kind in report order.
func AllFailureKinds() []FailureKind {
	return []FailureKind{
		FailureInvalidFormat,
		FailureConnectTimeout,
		FailureReadTimeout,
		FailureProxyError,
		FailureConnectionError,
		FailureHTTPStatus,
		FailureUnknown,
	}
}

// Failure is a FailureKind plus the status code for FailureHTTPStatus.
// It is comparable and used as the key of the failure tally.
type Failure struct {
	Kind       FailureKind
	StatusCode int
}

// HTTPStatus returns the failure for a non-2xx response.
func HTTPStatus(code int) Failure {
	return Failure{Kind: FailureHTTPStatus, StatusCode: code}
}

// String renders the failure, e.g. "connect_timeout" or "http_status(503)".
func (f Failure) String() string {
	if f.Kind == FailureHTTPStatus {
		return fmt.Sprintf("%s(%d)", f.Kind, f.StatusCode)
	}
	return f.Kind.String()
}

// IsConnectionCategory reports whether the failure happened while reaching
// or talking to the proxy, as opposed to input or endpoint problems.
func (f Failure) IsConnectionCategory() bool {
	switch f.Kind {
	case FailureConnectTimeout, FailureReadTimeout, FailureProxyError, FailureConnectionError:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler so a tally map encodes as a JSON object.
func (f Failure) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Failure) UnmarshalText(text []byte) error {
	parsed, err := ParseFailure(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFailure parses the output of Failure.String.
func ParseFailure(s string) (Failure, error) {
	if rest, ok := strings.CutPrefix(s, FailureHTTPStatus.String()+"("); ok {
		code, err := strconv.Atoi(strings.TrimSuffix(rest, ")"))
		if err != nil || !strings.HasSuffix(rest, ")") {
			return Failure{}, fmt.Errorf("invalid failure %q", s)
		}
		return HTTPStatus(code), nil
	}
	for kind, name := range failureKindNames {
		if name == s && kind != FailureHTTPStatus {
			return Failure{Kind: kind}, nil
		}
	}
	return Failure{}, fmt.Errorf("invalid failure %q", s)
}
