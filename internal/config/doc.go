// Package config provides the run configuration for proxycheck: defaults,
// the optional YAML configuration file, and validation.
package config
