package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/proxycheck/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default MaxWorkers is 20", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxWorkers != 20 {
			t.Errorf("expected MaxWorkers to be 20, got %d", cfg.MaxWorkers)
		}
	})

	t.Run("default Timeout is 5 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected Timeout to be 5s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Retries is 3", func(t *testing.T) {
		t.Parallel()
		if cfg.Retries != 3 {
			t.Errorf("expected Retries to be 3, got %d", cfg.Retries)
		}
	})

	t.Run("default endpoints", func(t *testing.T) {
		t.Parallel()
		if cfg.TestEndpointHTTP != "http://httpbin.org/ip" {
			t.Errorf("unexpected http endpoint %q", cfg.TestEndpointHTTP)
		}
		if cfg.TestEndpointHTTPS != "https://httpbin.org/ip" {
			t.Errorf("unexpected https endpoint %q", cfg.TestEndpointHTTPS)
		}
	})

	t.Run("https flags are off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.HTTPSOnly || cfg.VerifyHTTPSAfterAccept {
			t.Error("expected HTTPSOnly and VerifyHTTPSAfterAccept to be false")
		}
	})

	t.Run("default jitter window is 50-250ms", func(t *testing.T) {
		t.Parallel()
		if cfg.JitterMin != 50*time.Millisecond || cfg.JitterMax != 250*time.Millisecond {
			t.Errorf("unexpected jitter window [%v, %v]", cfg.JitterMin, cfg.JitterMax)
		}
	})

	t.Run("history is saved to the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.InputFile = "proxies.txt"
		cfg.OutputFile = "working.txt"
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"missing input", func(c *Config) { c.InputFile = "" }, ErrNoInput},
		{"missing output", func(c *Config) { c.OutputFile = "" }, ErrNoOutput},
		{"one worker", func(c *Config) { c.MaxWorkers = 1 }, ErrInvalidMaxWorkers},
		{"zero workers", func(c *Config) { c.MaxWorkers = 0 }, ErrInvalidMaxWorkers},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"negative retries", func(c *Config) { c.Retries = -1 }, ErrInvalidRetries},
		{"inverted retry window", func(c *Config) { c.RetryMaxWait = c.RetryWait - 1 }, ErrInvalidRetryWait},
		{"negative jitter", func(c *Config) { c.JitterMin = -1 }, ErrInvalidJitter},
		{"inverted jitter", func(c *Config) { c.JitterMax = c.JitterMin - 1 }, ErrInvalidJitter},
		{"relative http endpoint", func(c *Config) { c.TestEndpointHTTP = "/ip" }, ErrInvalidEndpoint},
		{"ftp http endpoint", func(c *Config) { c.TestEndpointHTTP = "ftp://example.com/ip" }, ErrInvalidEndpoint},
		{"plain http as https endpoint", func(c *Config) { c.TestEndpointHTTPS = "http://example.com/ip" }, ErrInvalidHTTPSEndpoint},
		{"unknown scheme", func(c *Config) { c.Scheme = "socks4" }, ErrInvalidScheme},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("zero retries and zero jitter are valid", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Retries = 0
		cfg.JitterMin, cfg.JitterMax = 0, 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestConfigEndpoint tests endpoint and scheme selection.
func TestConfigEndpoint(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.Endpoint() != cfg.TestEndpointHTTP {
		t.Errorf("expected http endpoint, got %q", cfg.Endpoint())
	}

	cfg.HTTPSOnly = true
	if cfg.Endpoint() != cfg.TestEndpointHTTPS {
		t.Errorf("expected https endpoint in https-only mode, got %q", cfg.Endpoint())
	}

	cfg.Scheme = "socks5"
	if cfg.ProxyScheme() != model.SchemeSOCKS5 {
		t.Errorf("expected socks5, got %q", cfg.ProxyScheme())
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.proxycheck.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("applies only the keys present", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `max_workers: 8
timeout_per_attempt: 2.5
retries_per_attempt: 0
jitter_max: 0.1
test_endpoint_https: "https://example.com/ip"
https_only: true
scheme: socks5
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		file.Apply(cfg)

		if cfg.MaxWorkers != 8 {
			t.Errorf("expected MaxWorkers 8, got %d", cfg.MaxWorkers)
		}
		if cfg.Timeout != 2500*time.Millisecond {
			t.Errorf("expected Timeout 2.5s, got %v", cfg.Timeout)
		}
		if cfg.Retries != 0 {
			t.Errorf("expected Retries 0, got %d", cfg.Retries)
		}
		if cfg.JitterMax != 100*time.Millisecond {
			t.Errorf("expected JitterMax 100ms, got %v", cfg.JitterMax)
		}
		if cfg.JitterMin != DefaultJitterMin {
			t.Errorf("JitterMin should keep its default, got %v", cfg.JitterMin)
		}
		if cfg.TestEndpointHTTPS != "https://example.com/ip" {
			t.Errorf("unexpected https endpoint %q", cfg.TestEndpointHTTPS)
		}
		if cfg.TestEndpointHTTP != DefaultTestEndpointHTTP {
			t.Errorf("http endpoint should keep its default, got %q", cfg.TestEndpointHTTP)
		}
		if !cfg.HTTPSOnly {
			t.Error("expected HTTPSOnly")
		}
		if cfg.Scheme != "socks5" {
			t.Errorf("expected scheme socks5, got %q", cfg.Scheme)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for wrong value types", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("max_workers: many\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for non-numeric max_workers")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("max_workers: 4\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("finds the file in the current directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		configPath := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("max_workers: 4\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		result := FindConfigFile("")
		resolved, err := filepath.EvalSymlinks(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want, err := filepath.EvalSymlinks(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolved != want {
			t.Errorf("expected %q, got %q", want, resolved)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if XDGDataDir() == "" {
		t.Error("expected non-empty XDG data dir")
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("expected config dir to end in %q, got %q", AppName, XDGConfigDir())
	}
}
