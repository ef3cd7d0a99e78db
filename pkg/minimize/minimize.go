// Package minimize drives a shrinking engine across every argument of a
// falsified property until no position can be reduced any further.
package minimize

import (
	"context"

	"github.com/nomagicln/propshrink/internal/logging"
	"github.com/nomagicln/propshrink/pkg/property"
	"github.com/nomagicln/propshrink/pkg/runner"
	"github.com/nomagicln/propshrink/pkg/shrink"
	"github.com/sirupsen/logrus"
)

// Runner executes a property and reports falsification as an outcome.
type Runner interface {
	Run(p property.Property, opts runner.Options) (*runner.Outcome, error)
}

// Orchestrator wraps a Runner and minimizes the counterexamples it finds.
// It is not safe for concurrent use.
type Orchestrator struct {
	engine    shrink.Engine
	runner    Runner
	maxSweeps int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the default property runner.
func WithRunner(r Runner) Option {
	return func(o *Orchestrator) {
		o.runner = r
	}
}

// WithMaxSweeps caps the number of sweeps per convergence. Zero means no cap.
func WithMaxSweeps(n int) Option {
	return func(o *Orchestrator) {
		o.maxSweeps = n
	}
}

// New creates an Orchestrator using engine. A nil engine selects the
// default rule set.
func New(engine shrink.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{runner: runner.New()}
	o.SetEngine(engine)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetEngine replaces the shrinking engine. The new engine is used from the
// next engine invocation on.
func (o *Orchestrator) SetEngine(engine shrink.Engine) {
	if engine == nil {
		engine = shrink.Default()
	}
	o.engine = engine
}

// Engine returns the current shrinking engine.
func (o *Orchestrator) Engine() shrink.Engine {
	return o.engine
}

// MaxSweeps returns the sweep cap.
func (o *Orchestrator) MaxSweeps() int {
	return o.maxSweeps
}

// Run executes the property through the runner. Passing and exhausted
// outcomes and runner errors are returned untouched. A falsified outcome is
// minimized in place: the failure keeps its identity, its Counterexample is
// replaced by the minimized tuple, Original holds the tuple as generated and
// Shrinks the number of reductions. An error raised while shrinking is
// returned instead of the outcome.
func (o *Orchestrator) Run(ctx context.Context, p property.Property, opts runner.Options) (*runner.Outcome, error) {
	outcome, err := o.runner.Run(p, opts)
	if err != nil || !outcome.Falsified() {
		return outcome, err
	}

	f := outcome.Failure
	f.Original = f.Counterexample.Clone()

	ctx, log := logging.LoggerWithFields(ctx, logrus.Fields{"seed": f.Seed, "trial": f.Trial})
	res, err := o.ConvergeDetailed(ctx, p, f.Counterexample)
	if err != nil {
		log.WithError(err).Debug("shrinking aborted")
		return nil, err
	}

	f.Shrinks = res.Shrinks
	f.GaveUp = res.GaveUp
	f.Shrunk = true

	log.WithFields(logrus.Fields{"shrinks": res.Shrinks, "sweeps": res.Sweeps}).Info("counterexample minimized")
	return outcome, nil
}

// ConvergeResult summarizes a convergence.
type ConvergeResult struct {
	// Shrinks is the sum of engine iterations over every sweep and position.
	Shrinks int

	// Sweeps counts the sweeps executed, including the final empty one.
	Sweeps int

	// GaveUp is set when the sweep cap stopped a convergence that was
	// still making progress.
	GaveUp bool
}

// Converge minimizes ce in place and returns the number of reductions.
func (o *Orchestrator) Converge(ctx context.Context, p property.Property, ce property.Counterexample) (int, error) {
	res, err := o.ConvergeDetailed(ctx, p, ce)
	return res.Shrinks, err
}

// ConvergeDetailed repeats sweeps over ce until one commits nothing. On
// error the reductions committed so far stay in ce and are counted in the
// returned result.
func (o *Orchestrator) ConvergeDetailed(ctx context.Context, p property.Property, ce property.Counterexample) (ConvergeResult, error) {
	log := logging.Logger(ctx)
	var res ConvergeResult

	for {
		if o.maxSweeps > 0 && res.Sweeps >= o.maxSweeps {
			res.GaveUp = true
			log.WithFields(logrus.Fields{"sweeps": res.Sweeps, "shrinks": res.Shrinks}).Warn("shrinking gave up at sweep limit")
			return res, nil
		}

		shrinks, err := o.sweep(p, ce)
		res.Sweeps++
		res.Shrinks += shrinks
		if err != nil {
			return res, err
		}

		log.WithFields(logrus.Fields{"sweep": res.Sweeps, "shrinks": shrinks}).Debug("sweep complete")
		if shrinks == 0 {
			return res, nil
		}
	}
}

// sweep calls the engine once per position, in ascending order, and commits
// every reduction it reports.
func (o *Orchestrator) sweep(p property.Property, ce property.Counterexample) (int, error) {
	shrinks := 0
	for i := range ce {
		res, err := o.Engine().Shrink(ce[i], stillFailing(p, ce, i))
		if err != nil {
			return shrinks, err
		}
		if res.Iterations > 0 {
			ce[i] = res.Data
			shrinks += res.Iterations
		}
	}
	return shrinks, nil
}

// stillFailing checks candidates for position i against the current tuple.
func stillFailing(p property.Property, ce property.Counterexample, i int) shrink.Check {
	return func(candidate any) (bool, error) {
		holds, err := p.Holds(ce.With(i, candidate))
		if err != nil {
			return false, err
		}
		return !holds, nil
	}
}
