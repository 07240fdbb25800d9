package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/nao1215/proxycheck/internal/config"
	"github.com/nao1215/proxycheck/internal/model"
	"github.com/nao1215/proxycheck/internal/probe"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs validation rounds over a bounded worker pool.
//
// Workers never touch the report. They send outcomes over a channel to a
// single collector goroutine, which is the only writer into the Aggregator.
type Coordinator struct {
	// prober overrides the network Executor. When nil, Run builds an
	// Executor from the run's client settings.
	prober probe.Prober

	observer Observer
	logger   *slog.Logger

	// state holds a model.RunState.
	state atomic.Int32
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for the coordinator and the probes it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithProber replaces the network prober, typically with a fake in tests.
func WithProber(p probe.Prober) Option {
	return func(c *Coordinator) {
		c.prober = p
	}
}

// WithObserver registers an observer for progress events.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		observer: nopObserver{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// State returns the state of the current or last round.
func (c *Coordinator) State() model.RunState {
	return model.RunState(c.state.Load())
}

func (c *Coordinator) setState(s model.RunState) {
	c.state.Store(int32(s)) //nolint:gosec // RunState has a handful of values
}

// Run executes one validation round.
//
// Up to run.MaxWorkers probes are in flight at any time; each finished
// probe frees a slot for the next descriptor. When ctx is cancelled no new
// probe starts, probes interrupted mid-request are dropped, and Run returns
// the partial report together with ctx.Err(). The report is never nil.
func (c *Coordinator) Run(ctx context.Context, run *ValidationRun) (*model.ValidationReport, error) {
	c.setState(model.RunPending)

	agg := NewAggregator(run.Round)
	if run.Previous != nil {
		agg = NewRoundAggregator(run.Previous)
	}
	agg.SetTotal(run.Total())

	workers := max(run.MaxWorkers, 1)
	prober := c.proberFor(run)

	c.logger.Info("starting validation round",
		"round", run.Round,
		"candidates", len(run.Descriptors),
		"invalid", len(run.Invalid),
		"workers", workers,
		"endpoint", run.Endpoint,
	)

	c.observer.RoundStarted(run.Round, run.Total())

	outcomes := make(chan model.ProbeOutcome, workers)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for o := range outcomes {
			agg.Add(o)
			c.observer.ProbeFinished(o)
		}
	}()

	for _, o := range run.Invalid {
		outcomes <- o
	}

	c.setState(model.RunDispatching)

	var g errgroup.Group
	g.SetLimit(workers)

	for _, d := range run.Descriptors {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			c.observer.ProbeStarted(d)

			outcome, err := prober.Probe(ctx, d, run.Endpoint)
			if err != nil {
				c.logger.Debug("probe abandoned",
					"proxy", d.String(),
					"error", err,
				)
				return nil
			}

			outcomes <- outcome
			return nil
		})
	}

	c.setState(model.RunDraining)
	_ = g.Wait() //nolint:errcheck // workers never return errors
	close(outcomes)
	<-collected

	state := model.RunDone
	if ctx.Err() != nil && agg.Completed() < run.Total() {
		state = model.RunCancelled
	}
	c.setState(state)

	report := agg.Report(state)

	c.logger.Info("validation round complete",
		"round", report.Round,
		"state", report.State,
		"accepted", report.AcceptedCount(),
		"rejected", report.RejectedCount(),
		"pending", report.Pending(),
		"elapsed", report.Elapsed,
	)

	if state == model.RunCancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// Validate runs round one over lines and, when cfg.VerifyHTTPSAfterAccept
// is set, a second round over the accepted proxies against the HTTPS
// endpoint. It returns the report of every round that ran; the last one
// is the final result. A cancelled round ends the sequence.
func (c *Coordinator) Validate(ctx context.Context, cfg *config.Config, lines []string) ([]*model.ValidationReport, error) {
	run := NewRun(cfg, lines)

	report, err := c.Run(ctx, run)
	reports := []*model.ValidationReport{report}
	if err != nil || !cfg.VerifyHTTPSAfterAccept {
		return reports, err
	}

	second, err := c.Run(ctx, run.NextRound(report, cfg.TestEndpointHTTPS))
	return append(reports, second), err
}

// proberFor returns the injected prober or a network Executor for run.
func (c *Coordinator) proberFor(run *ValidationRun) probe.Prober {
	if c.prober != nil {
		return c.prober
	}

	factory := probe.NewClientFactory(probe.ClientOptions{
		Timeout:      run.Timeout,
		Retries:      run.Retries,
		RetryWait:    run.RetryWait,
		RetryMaxWait: run.RetryMaxWait,
		UserAgent:    run.UserAgent,
		HTTPSOnly:    run.HTTPSOnly,
		Logger:       c.logger,
	})
	return probe.NewExecutor(factory,
		probe.WithJitter(run.JitterMin, run.JitterMax),
		probe.WithLogger(c.logger),
	)
}
