package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoInput is returned when no candidate list is given.
	ErrNoInput = errors.New("no input file specified")

	// ErrNoOutput is returned when no output file is given.
	ErrNoOutput = errors.New("no output file specified")

	// ErrInvalidMaxWorkers is returned when fewer than two workers are requested.
	ErrInvalidMaxWorkers = errors.New("invalid max workers: must be at least 2")

	// ErrInvalidTimeout is returned when the per-attempt timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidRetryWait is returned when the backoff window is negative or inverted.
	ErrInvalidRetryWait = errors.New("invalid retry wait: must be non-negative and not exceed the max wait")

	// ErrInvalidJitter is returned when the jitter window is negative or inverted.
	ErrInvalidJitter = errors.New("invalid jitter: min must be non-negative and not exceed max")

	// ErrInvalidEndpoint is returned when the HTTP test endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid test endpoint: must be an absolute http or https URL")

	// ErrInvalidHTTPSEndpoint is returned when the HTTPS test endpoint is not an absolute https URL.
	ErrInvalidHTTPSEndpoint = errors.New("invalid https test endpoint: must be an absolute https URL")

	// ErrInvalidScheme is returned for proxy schemes other than http, https and socks5.
	ErrInvalidScheme = errors.New("invalid proxy scheme: must be http, https or socks5")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
