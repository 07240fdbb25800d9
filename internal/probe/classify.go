package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/nao1215/proxycheck/internal/model"
)

// Classify maps a request error to a failure kind.
//
// connected tells whether the TCP connection to the proxy was established
// during the failing attempt. It separates connect timeouts from read
// timeouts, because the HTTP client reports both as the same deadline error.
func Classify(err error, connected bool) model.Failure {
	var (
		de *dialError
		re *rejectedError
	)

	switch {
	case err == nil:
		return model.Failure{}
	case errors.Is(err, ErrTargetSuppressed), errors.As(err, &re):
		return model.Failure{Kind: model.FailureProxyError}
	case isTimeout(err):
		if connected {
			return model.Failure{Kind: model.FailureReadTimeout}
		}
		return model.Failure{Kind: model.FailureConnectTimeout}
	case errors.As(err, &de):
		return model.Failure{Kind: model.FailureConnectionError}
	case isProxyConnect(err):
		return model.Failure{Kind: model.FailureProxyError}
	case isConnectionFailure(err):
		return model.Failure{Kind: model.FailureConnectionError}
	default:
		return model.Failure{Kind: model.FailureUnknown}
	}
}

// ClassifyStatus maps a completed response to an outcome failure.
// The zero Failure means the status is accepted.
func ClassifyStatus(code int) model.Failure {
	switch {
	case code >= 200 && code < 300:
		return model.Failure{}
	case code == 407:
		return model.Failure{Kind: model.FailureProxyError}
	default:
		return model.HTTPStatus(code)
	}
}

// isTimeout walks the whole chain. errors.As would stop at the outer
// *url.Error, which hides timeouts wrapped by dialError.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
		return true
	}

	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return isTimeout(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if isTimeout(e) {
				return true
			}
		}
	}
	return false
}

// isProxyConnect reports errors the HTTP transport tags as happening while
// talking to the proxy, such as a failed TLS handshake with an https proxy.
func isProxyConnect(err error) bool {
	var oe *net.OpError
	return errors.As(err, &oe) && oe.Op == "proxyconnect"
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}

	var (
		oe  *net.OpError
		dns *net.DNSError
	)
	return errors.As(err, &oe) || errors.As(err, &dns)
}
