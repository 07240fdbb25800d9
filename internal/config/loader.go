package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up in the
// current and home directories.
const DefaultConfigFile = ".proxycheck.yaml"

// XDGConfigFile is the file name inside the XDG config directory.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file. Unset keys leave the current value
// untouched, so every field is a pointer. Durations are in seconds.
type File struct {
	MaxWorkers             *int     `yaml:"max_workers,omitempty"`
	TimeoutPerAttempt      *float64 `yaml:"timeout_per_attempt,omitempty"`
	RetriesPerAttempt      *int     `yaml:"retries_per_attempt,omitempty"`
	RetryWait              *float64 `yaml:"retry_wait,omitempty"`
	RetryMaxWait           *float64 `yaml:"retry_max_wait,omitempty"`
	JitterMin              *float64 `yaml:"jitter_min,omitempty"`
	JitterMax              *float64 `yaml:"jitter_max,omitempty"`
	TestEndpointHTTP       *string  `yaml:"test_endpoint_http,omitempty"`
	TestEndpointHTTPS      *string  `yaml:"test_endpoint_https,omitempty"`
	HTTPSOnly              *bool    `yaml:"https_only,omitempty"`
	VerifyHTTPSAfterAccept *bool    `yaml:"verify_https_after_accept,omitempty"`
	Scheme                 *string  `yaml:"scheme,omitempty"`
	UserAgent              *string  `yaml:"user_agent,omitempty"`
	DBDir                  *string  `yaml:"db_dir,omitempty"`
}

// Apply copies every key set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	setInt(&cfg.MaxWorkers, f.MaxWorkers)
	setInt(&cfg.Retries, f.RetriesPerAttempt)
	setSeconds(&cfg.Timeout, f.TimeoutPerAttempt)
	setSeconds(&cfg.RetryWait, f.RetryWait)
	setSeconds(&cfg.RetryMaxWait, f.RetryMaxWait)
	setSeconds(&cfg.JitterMin, f.JitterMin)
	setSeconds(&cfg.JitterMax, f.JitterMax)
	setString(&cfg.TestEndpointHTTP, f.TestEndpointHTTP)
	setString(&cfg.TestEndpointHTTPS, f.TestEndpointHTTPS)
	setString(&cfg.Scheme, f.Scheme)
	setString(&cfg.UserAgent, f.UserAgent)
	setString(&cfg.DBDir, f.DBDir)
	if f.HTTPSOnly != nil {
		cfg.HTTPSOnly = *f.HTTPSOnly
	}
	if f.VerifyHTTPSAfterAccept != nil {
		cfg.VerifyHTTPSAfterAccept = *f.VerifyHTTPSAfterAccept
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, v *float64) {
	if v != nil {
		*dst = time.Duration(*v * float64(time.Second))
	}
}

// LoadConfigFile reads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. .proxycheck.yaml in the current directory
// 3. .proxycheck.yaml in the user's home directory
// 4. config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
