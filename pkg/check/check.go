// Package check runs a textual property against named generators and
// minimizes any counterexample it finds. It is the shared backend of the
// command line and the MCP server.
package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomagicln/propshrink/internal/logging"
	"github.com/nomagicln/propshrink/pkg/config"
	"github.com/nomagicln/propshrink/pkg/expr"
	"github.com/nomagicln/propshrink/pkg/gens"
	"github.com/nomagicln/propshrink/pkg/history"
	"github.com/nomagicln/propshrink/pkg/minimize"
	"github.com/nomagicln/propshrink/pkg/runner"
	"github.com/nomagicln/propshrink/pkg/shrink"
	"github.com/sirupsen/logrus"
)

// Request describes one check.
type Request struct {
	Name       string
	Expression string
	Generators []string

	Trials          int
	Seed            int64
	MinSize         int
	MaxSize         int
	MaxDiscardRatio float64

	MaxSweeps int
	MaxSteps  int
}

// NewRequest returns a request carrying the run settings of cfg.
func NewRequest(cfg *config.Config) Request {
	return Request{
		Trials:          cfg.Trials,
		Seed:            cfg.Seed,
		MinSize:         cfg.MinSize,
		MaxSize:         cfg.MaxSize,
		MaxDiscardRatio: cfg.MaxDiscardRatio,
		MaxSweeps:       cfg.MaxSweeps,
		MaxSteps:        cfg.MaxSteps,
	}
}

// FromRecord rebuilds the request that produced r. The seed is kept so
// that the run draws the same arguments again.
func FromRecord(r *history.Record, base Request) Request {
	req := base
	req.Name = r.Name
	req.Expression = r.Expression
	req.Generators = append([]string(nil), r.Generators...)
	req.Seed = r.Seed
	if r.Trials > 0 {
		req.Trials = r.Trials
	}
	if r.MaxSize > 0 || r.MinSize > 0 {
		req.MinSize, req.MaxSize = r.MinSize, r.MaxSize
	}
	return req
}

// Validate reports request mistakes that can be found before running.
func (r Request) Validate() error {
	if r.Expression == "" {
		return errors.New("an expression is required")
	}
	if len(r.Generators) == 0 {
		return errors.New("at least one generator is required")
	}
	if r.MaxSweeps < 0 || r.MaxSteps < 0 {
		return errors.New("sweep and step limits must not be negative")
	}
	return nil
}

// Compiled is a request resolved into a property and runner options.
type Compiled struct {
	Property *expr.Property
	Options  runner.Options
}

// Compile resolves the expression and generators of r.
func Compile(r Request) (*Compiled, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	generators, err := gens.ParseAll(r.Generators)
	if err != nil {
		return nil, err
	}
	p, err := expr.Compile(r.Expression, len(generators))
	if err != nil {
		return nil, err
	}

	opts := runner.DefaultOptions()
	opts.Generators = generators
	opts.Seed = r.Seed
	if r.Trials > 0 {
		opts.Trials = r.Trials
	}
	if r.MinSize > 0 || r.MaxSize > 0 {
		opts.MinSize, opts.MaxSize = r.MinSize, r.MaxSize
	}
	if r.MaxDiscardRatio > 0 {
		opts.MaxDiscardRatio = r.MaxDiscardRatio
	}
	return &Compiled{Property: p, Options: opts}, nil
}

// Run compiles r, runs it and minimizes a counterexample if one is found.
func Run(ctx context.Context, r Request) (*runner.Outcome, error) {
	c, err := Compile(r)
	if err != nil {
		return nil, err
	}

	ctx, log := logging.LoggerWithFields(ctx, logrus.Fields{"property": r.Name, "expression": r.Expression})
	engine := shrink.Default(shrink.WithMaxSteps(r.MaxSteps))
	o := minimize.New(engine, minimize.WithMaxSweeps(r.MaxSweeps))

	outcome, err := o.Run(ctx, c.Property, c.Options)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", r.DisplayName(), err)
	}
	log.WithFields(logrus.Fields{"status": outcome.Status.String(), "passed": outcome.Passed}).Debug("check finished")
	return outcome, nil
}

// Record builds a history record for a falsified outcome of r.
func Record(r Request, o *runner.Outcome) (*history.Record, error) {
	rec, err := history.NewRecord(r.DisplayName(), r.Expression, r.Generators, o)
	if err != nil {
		return nil, err
	}
	c, err := Compile(r)
	if err != nil {
		return nil, err
	}
	rec.Trials = c.Options.Trials
	rec.MinSize = c.Options.MinSize
	rec.MaxSize = c.Options.MaxSize
	return rec, nil
}

// DisplayName returns the name used in reports.
func (r Request) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Expression
}
