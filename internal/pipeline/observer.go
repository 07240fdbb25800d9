package pipeline

import "github.com/nao1215/proxycheck/internal/model"

// Observer receives progress events from a running Coordinator.
//
// RoundStarted and ProbeFinished are called from a single goroutine at a
// time. ProbeStarted is called from worker goroutines and must be safe for
// concurrent use. ProbeFinished fires once per outcome, including
// InvalidFormat outcomes.
type Observer interface {
	RoundStarted(round, total int)
	ProbeStarted(desc *model.ProxyDescriptor)
	ProbeFinished(outcome model.ProbeOutcome)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Round    func(round, total int)
	Started  func(desc *model.ProxyDescriptor)
	Finished func(outcome model.ProbeOutcome)
}

// RoundStarted implements Observer.
func (o ObserverFuncs) RoundStarted(round, total int) {
	if o.Round != nil {
		o.Round(round, total)
	}
}

// ProbeStarted implements Observer.
func (o ObserverFuncs) ProbeStarted(desc *model.ProxyDescriptor) {
	if o.Started != nil {
		o.Started(desc)
	}
}

// ProbeFinished implements Observer.
func (o ObserverFuncs) ProbeFinished(outcome model.ProbeOutcome) {
	if o.Finished != nil {
		o.Finished(outcome)
	}
}

type nopObserver struct{}

func (nopObserver) RoundStarted(int, int)                {}
func (nopObserver) ProbeStarted(*model.ProxyDescriptor) {}
func (nopObserver) ProbeFinished(model.ProbeOutcome)    {}
