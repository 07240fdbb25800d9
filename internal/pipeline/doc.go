// Package pipeline runs validation rounds: it fans candidate proxies out to a
// bounded pool of probes and folds the outcomes into a report.
//
// A round moves through Pending, Dispatching and Draining to Done, or to
// Cancelled when its context ends early. The pool is an errgroup with a
// concurrency limit, refilled as probes finish. Outcomes travel over a
// channel to one collector goroutine, so the Aggregator has a single writer
// and the final report does not depend on completion order.
//
// An optional second round re-checks the accepted proxies against an HTTPS
// endpoint. It starts with an empty accepted set and keeps the first
// round's failures.
package pipeline
