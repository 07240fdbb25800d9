package main

import (
	"fmt"
	"io"

	"github.com/nao1215/proxycheck/internal/model"
	"github.com/nao1215/proxycheck/internal/pipeline"
	"github.com/schollz/progressbar/v3"
)

// progressObserver draws one progress bar per validation round.
// It ticks once per finished candidate, invalid lines included.
type progressObserver struct {
	output io.Writer
	bar    *progressbar.ProgressBar
}

var _ pipeline.Observer = (*progressObserver)(nil)

func newProgressObserver(output io.Writer) *progressObserver {
	return &progressObserver{output: output}
}

// RoundStarted finishes the previous bar and starts a new one.
func (p *progressObserver) RoundStarted(round, total int) {
	p.Finish()

	description := "Checking proxies"
	if round > 1 {
		description = fmt.Sprintf("Re-checking over HTTPS (round %d)", round)
	}

	p.bar = progressbar.NewOptions64(int64(total),
		progressbar.OptionSetWriter(p.output),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.output)
		}),
	)
}

// ProbeStarted is a no-op; the bar only counts finished probes.
func (p *progressObserver) ProbeStarted(*model.ProxyDescriptor) {}

// ProbeFinished advances the bar.
func (p *progressObserver) ProbeFinished(model.ProbeOutcome) {
	if p.bar != nil {
		_ = p.bar.Add(1) //nolint:errcheck // drawing errors are not actionable
	}
}

// Finish completes the current bar, if any. Interrupted rounds leave it
// short of the total.
func (p *progressObserver) Finish() {
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		_ = p.bar.Exit() //nolint:errcheck // drawing errors are not actionable
	}
	p.bar = nil
}
