package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/nao1215/proxycheck/internal/model"
)

// Default pre-request jitter window.
const (
	DefaultJitterMin = 50 * time.Millisecond
	DefaultJitterMax = 250 * time.Millisecond
)

// Prober validates one proxy against one test endpoint.
//
// Probe returns exactly one classified outcome, or ErrAbandoned when ctx
// ended before an outcome existed.
type Prober interface {
	Probe(ctx context.Context, desc *model.ProxyDescriptor, target string) (model.ProbeOutcome, error)
}

// Executor is the network Prober. It is safe for concurrent use; every
// call builds its own client from the factory.
type Executor struct {
	factory   *ClientFactory
	jitterMin time.Duration
	jitterMax time.Duration
	logger    *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger used for probe events.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithJitter sets the pre-request delay window. Zero values disable the delay.
func WithJitter(minDelay, maxDelay time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.jitterMin = max(minDelay, 0)
		e.jitterMax = max(maxDelay, e.jitterMin)
	}
}

// NewExecutor returns an Executor that builds clients with factory.
func NewExecutor(factory *ClientFactory, opts ...ExecutorOption) *Executor {
	e := &Executor{
		factory:   factory,
		jitterMin: DefaultJitterMin,
		jitterMax: DefaultJitterMax,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Probe sends one GET to target through desc and classifies the result.
// Any 2xx accepts the proxy; retries happen inside the client.
func (e *Executor) Probe(ctx context.Context, desc *model.ProxyDescriptor, target string) (model.ProbeOutcome, error) {
	line := desc.Line()

	client, err := e.factory.New(desc)
	if err != nil {
		e.logger.Warn("failed to build probe client",
			"proxy", desc.String(),
			"error", err,
		)
		return model.NewRejectedWithDetail(line, model.Failure{Kind: model.FailureUnknown}, err.Error()), nil
	}
	defer client.Close()

	if err := sleep(ctx, e.jitter()); err != nil {
		return model.ProbeOutcome{}, fmt.Errorf("%w: %w", ErrAbandoned, err)
	}

	start := time.Now()
	resp, err := client.Get(ctx, target)
	latency := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return model.ProbeOutcome{}, fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())
		}
		failure := Classify(err, client.Connected())
		e.logger.Debug("probe failed",
			"proxy", desc.String(),
			"failure", failure.String(),
			"error", err,
		)
		return model.NewRejectedWithDetail(line, failure, err.Error()), nil
	}

	if failure := ClassifyStatus(resp.StatusCode()); failure.Kind != model.FailureNone {
		e.logger.Debug("probe rejected",
			"proxy", desc.String(),
			"failure", failure.String(),
			"status", resp.StatusCode(),
		)
		return model.NewRejectedWithDetail(line, failure, resp.Status()), nil
	}

	origin := parseOrigin(resp.Body())
	e.logger.Debug("probe accepted",
		"proxy", desc.String(),
		"latency", latency,
		"origin", origin,
	)
	return model.NewAccepted(line, latency, origin), nil
}

func (e *Executor) jitter() time.Duration {
	spread := e.jitterMax - e.jitterMin
	if spread <= 0 {
		return e.jitterMin
	}
	return e.jitterMin + rand.N(spread+1)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseOrigin extracts the exit address from an httpbin-style body,
// e.g. {"origin": "1.2.3.4"}. Non-JSON bodies yield "".
func parseOrigin(body []byte) string {
	var payload struct {
		Origin string `json:"origin"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Origin)
}
