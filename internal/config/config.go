package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/proxycheck/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "proxycheck"

	// DefaultMaxWorkers is the number of probes allowed in flight at once.
	// This is the main backpressure against the test endpoint and the
	// local file descriptor limit.
	DefaultMaxWorkers = 20

	// MinMaxWorkers is the smallest accepted worker count.
	MinMaxWorkers = 2

	// DefaultTimeout bounds one request attempt through a proxy.
	DefaultTimeout = 5 * time.Second

	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3

	// DefaultRetryWait is the initial backoff between attempts.
	DefaultRetryWait = 100 * time.Millisecond

	// DefaultRetryMaxWait caps the backoff between attempts.
	DefaultRetryMaxWait = 2 * time.Second

	// DefaultJitterMin and DefaultJitterMax bound the random delay before
	// each probe so that workers do not hit the endpoint in lockstep.
	DefaultJitterMin = 50 * time.Millisecond
	DefaultJitterMax = 250 * time.Millisecond

	// DefaultTestEndpointHTTP answers with the caller's address as JSON.
	DefaultTestEndpointHTTP = "http://httpbin.org/ip"

	// DefaultTestEndpointHTTPS is the TLS variant of DefaultTestEndpointHTTP.
	DefaultTestEndpointHTTPS = "https://httpbin.org/ip"

	// DefaultScheme is the protocol spoken to the proxies.
	DefaultScheme = "http"
)

// Config holds all options of a validation run.
// It is populated from defaults, then the config file, then CLI flags,
// and passed down explicitly rather than kept in global state.
type Config struct {
	// InputFile is the candidate list, one proxy per line.
	InputFile string

	// OutputFile receives the accepted proxies. It is overwritten each run.
	OutputFile string

	// MaxWorkers is the concurrency limit. Must be at least MinMaxWorkers.
	MaxWorkers int

	// Timeout applies to each request attempt, not to the whole run.
	Timeout time.Duration

	// Retries is the number of retries per probe inside the HTTP client.
	Retries int

	// RetryWait and RetryMaxWait bound the backoff between retries.
	RetryWait    time.Duration
	RetryMaxWait time.Duration

	// JitterMin and JitterMax bound the pre-request delay.
	JitterMin time.Duration
	JitterMax time.Duration

	// TestEndpointHTTP is requested through every proxy in round one.
	TestEndpointHTTP string

	// TestEndpointHTTPS is used when HTTPSOnly is set and in round two.
	TestEndpointHTTPS string

	// HTTPSOnly suppresses the plain HTTP forwarding target so only the
	// HTTPS endpoint is exercised.
	HTTPSOnly bool

	// VerifyHTTPSAfterAccept re-checks the accepted proxies against the
	// HTTPS endpoint in a second round.
	VerifyHTTPSAfterAccept bool

	// Scheme is the protocol spoken to the proxies: http, https or socks5.
	Scheme string

	// UserAgent is sent with every probe. Empty picks a random browser
	// User-Agent per probe.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// Quiet disables the progress bar.
	Quiet bool

	// ConfigFilePath is an explicit configuration file. When empty the
	// default locations are searched.
	ConfigFilePath string

	// JSONReport and MarkdownReport select the summary format.
	// They are mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// DBDir is where the run history database lives.
	DBDir string

	// SaveToDB records the run summary in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxWorkers:        DefaultMaxWorkers,
		Timeout:           DefaultTimeout,
		Retries:           DefaultRetries,
		RetryWait:         DefaultRetryWait,
		RetryMaxWait:      DefaultRetryMaxWait,
		JitterMin:         DefaultJitterMin,
		JitterMax:         DefaultJitterMax,
		TestEndpointHTTP:  DefaultTestEndpointHTTP,
		TestEndpointHTTPS: DefaultTestEndpointHTTPS,
		Scheme:            DefaultScheme,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for proxycheck.
// On Linux: ~/.local/share/proxycheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for proxycheck.
// On Linux: ~/.config/proxycheck
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Endpoint returns the test endpoint for round one.
func (c *Config) Endpoint() string {
	if c.HTTPSOnly {
		return c.TestEndpointHTTPS
	}
	return c.TestEndpointHTTP
}

// ProxyScheme returns the parsed Scheme. Call Validate first.
func (c *Config) ProxyScheme() model.Scheme {
	s, err := model.ParseScheme(c.Scheme)
	if err != nil {
		return model.SchemeHTTP
	}
	return s
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return ErrNoInput
	}
	if c.OutputFile == "" {
		return ErrNoOutput
	}
	if c.MaxWorkers < MinMaxWorkers {
		return ErrInvalidMaxWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.RetryWait < 0 || c.RetryMaxWait < c.RetryWait {
		return ErrInvalidRetryWait
	}
	if c.JitterMin < 0 || c.JitterMax < c.JitterMin {
		return ErrInvalidJitter
	}
	if !validEndpoint(c.TestEndpointHTTP, "http", "https") {
		return ErrInvalidEndpoint
	}
	if !validEndpoint(c.TestEndpointHTTPS, "https") {
		return ErrInvalidHTTPSEndpoint
	}
	if _, err := model.ParseScheme(c.Scheme); err != nil {
		return ErrInvalidScheme
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

func validEndpoint(raw string, schemes ...string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return true
		}
	}
	return false
}
