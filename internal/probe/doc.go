// Package probe validates a single proxy by sending a real request through it.
//
// A ClientFactory builds one isolated HTTP client per proxy. Each client has
// its own transport, retries transport errors and the statuses 429, 500, 502,
// 503 and 504, and skips certificate verification for probe traffic. The
// Executor applies a small random delay, sends one GET to the test endpoint
// and turns the result into a model.ProbeOutcome using Classify.
//
// HTTP and HTTPS proxies are used through the standard transport; SOCKS5
// proxies go through golang.org/x/net/proxy.
package probe
