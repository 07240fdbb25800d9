package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/corpix/uarand"
	"github.com/go-resty/resty/v2"
	"github.com/nao1215/proxycheck/internal/model"
	"golang.org/x/net/proxy"
)

// Client defaults.
const (
	// DefaultTimeout bounds one request attempt.
	DefaultTimeout = 5 * time.Second

	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3

	// DefaultRetryWait is the initial backoff between attempts.
	DefaultRetryWait = 100 * time.Millisecond

	// DefaultRetryMaxWait caps the backoff between attempts.
	DefaultRetryMaxWait = 2 * time.Second
)

// retryableStatus lists the status codes that trigger another attempt.
var retryableStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// ClientOptions configures every client built by a ClientFactory.
type ClientOptions struct {
	// Timeout bounds each attempt, including reading the body.
	Timeout time.Duration

	// Retries is how many times a failed GET is repeated. Zero disables retries.
	Retries int

	// RetryWait and RetryMaxWait bound the exponential backoff window.
	RetryWait    time.Duration
	RetryMaxWait time.Duration

	// UserAgent is sent with every request. Empty picks a random browser
	// User-Agent per client.
	UserAgent string

	// HTTPSOnly drops the plain HTTP forwarding target.
	HTTPSOnly bool

	// Logger receives the HTTP library's retry messages at debug level.
	Logger *slog.Logger
}

// ClientFactory builds one isolated Client per probe.
type ClientFactory struct {
	opts ClientOptions
}

// NewClientFactory returns a factory, filling zero durations with defaults.
// A negative Retries is treated as zero.
func NewClientFactory(opts ClientOptions) *ClientFactory {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = DefaultRetryWait
	}
	if opts.RetryMaxWait < opts.RetryWait {
		opts.RetryMaxWait = max(DefaultRetryMaxWait, opts.RetryWait)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ClientFactory{opts: opts}
}

// Options returns the effective options.
func (f *ClientFactory) Options() ClientOptions {
	return f.opts
}

// Client is an HTTP client bound to a single proxy.
// It owns its transport; nothing is shared with other clients.
type Client struct {
	http       *resty.Client
	transport  *http.Transport
	forwarding map[string]*url.URL
	userAgent  string

	// connected is true once the TCP connection to the proxy of the
	// current attempt was established.
	connected atomic.Bool
}

// New builds a client that sends every request through desc.
func (f *ClientFactory) New(desc *model.ProxyDescriptor) (*Client, error) {
	forwarding := desc.Forwarding()
	if f.opts.HTTPSOnly {
		delete(forwarding, "http")
	}

	c := &Client{
		forwarding: forwarding,
		userAgent:  f.opts.UserAgent,
	}
	if c.userAgent == "" {
		c.userAgent = uarand.GetRandom()
	}

	c.transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // probe traffic only
		},
		DisableKeepAlives:   true,
		TLSHandshakeTimeout: f.opts.Timeout,
		OnProxyConnectResponse: func(_ context.Context, _ *url.URL, _ *http.Request, resp *http.Response) error {
			if resp.StatusCode != http.StatusOK {
				return &rejectedError{status: resp.Status}
			}
			return nil
		},
	}

	switch desc.Scheme {
	case "", model.SchemeHTTP, model.SchemeHTTPS:
		c.transport.Proxy = func(req *http.Request) (*url.URL, error) {
			return c.forwarding[req.URL.Scheme], nil
		}
		c.transport.DialContext = c.dialProxy
	case model.SchemeSOCKS5:
		d, err := proxy.FromURL(desc.ProxyURL(), proxyDialer{c: c})
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("%w: socks5 dialer has no context support", ErrUnsupportedScheme)
		}
		c.transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := cd.DialContext(ctx, network, addr)
			if err != nil {
				var de *dialError
				if errors.As(err, &de) || isTimeout(err) || ctx.Err() != nil {
					return nil, err
				}
				return nil, &rejectedError{err: err}
			}
			return conn, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, desc.Scheme)
	}

	hc := &http.Client{
		Transport: &forwardingTransport{base: c.transport, forwarding: forwarding},
	}

	c.http = resty.NewWithClient(hc).
		SetLogger(newRestyLogger(f.opts.Logger)).
		SetTimeout(f.opts.Timeout).
		SetRetryCount(f.opts.Retries).
		SetRetryWaitTime(f.opts.RetryWait).
		SetRetryMaxWaitTime(f.opts.RetryMaxWait).
		AddRetryCondition(shouldRetry).
		SetHeader("User-Agent", c.userAgent)

	return c, nil
}

// Get issues a GET for target through the proxy.
func (c *Client) Get(ctx context.Context, target string) (*resty.Response, error) {
	return c.http.R().SetContext(ctx).Get(target)
}

// Connected reports whether the latest attempt reached the proxy.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// UserAgent returns the User-Agent sent by this client.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Close releases the client's connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// dialProxy opens the TCP connection to the proxy. Errors are wrapped in
// dialError so classification can tell them apart from later failures.
func (c *Client) dialProxy(ctx context.Context, network, addr string) (net.Conn, error) {
	c.connected.Store(false)

	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &dialError{err: err}
	}

	c.connected.Store(true)
	return conn, nil
}

// proxyDialer adapts dialProxy to proxy.Dialer and proxy.ContextDialer.
type proxyDialer struct {
	c *Client
}

func (d proxyDialer) Dial(network, addr string) (net.Conn, error) {
	return d.c.dialProxy(context.Background(), network, addr)
}

func (d proxyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return d.c.dialProxy(ctx, network, addr)
}

// forwardingTransport refuses requests whose scheme has no forwarding entry.
type forwardingTransport struct {
	base       http.RoundTripper
	forwarding map[string]*url.URL
}

// RoundTrip implements http.RoundTripper.
func (t *forwardingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := t.forwarding[req.URL.Scheme]; !ok {
		if req.Body != nil {
			_ = req.Body.Close() //nolint:errcheck // request is rejected anyway
		}
		return nil, fmt.Errorf("%w: %s", ErrTargetSuppressed, req.URL.Scheme)
	}
	return t.base.RoundTrip(req)
}

// shouldRetry retries transport errors and retryable statuses of GET requests.
func shouldRetry(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, ErrTargetSuppressed) && !errors.Is(err, context.Canceled)
	}
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	_, ok := retryableStatus[r.StatusCode()]
	return ok
}
