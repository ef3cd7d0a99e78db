// Package runner executes a property against generated arguments and
// reports the first falsifying tuple it finds.
package runner

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/leanovate/gopter"
	"github.com/nomagicln/propshrink/pkg/property"
)

// Status tags the variant of an Outcome.
type Status int

const (
	// StatusPassed means every trial satisfied the property.
	StatusPassed Status = iota
	// StatusFalsified means a trial produced a counterexample.
	StatusFalsified
	// StatusExhausted means too many generated values were discarded.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFalsified:
		return "falsified"
	case StatusExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Failure describes a falsified trial. Counterexample is the live tuple and
// is replaced by its minimized form once shrinking has run.
type Failure struct {
	// Counterexample is the tuple that falsifies the property.
	Counterexample property.Counterexample

	// Original is the tuple as generated, before any shrinking.
	Original property.Counterexample

	// Shrinks is the total number of accepted reductions.
	Shrinks int

	// Trial is the zero-based index of the falsifying trial.
	Trial int

	// Seed reproduces the run that produced this failure.
	Seed int64

	// Shrunk reports whether shrinking ran to completion.
	Shrunk bool

	// GaveUp reports that shrinking stopped at the sweep limit while it
	// was still making progress.
	GaveUp bool
}

// Outcome is the result of a run.
type Outcome struct {
	Status    Status
	Passed    int
	Discarded int
	Seed      int64
	Failure   *Failure
}

// Falsified reports whether the outcome carries a failure.
func (o *Outcome) Falsified() bool {
	return o != nil && o.Status == StatusFalsified && o.Failure != nil
}

// Options configures a run.
type Options struct {
	// Trials is the number of successful trials required to pass.
	Trials int

	// Seed makes the run reproducible. Zero picks a seed from the clock.
	Seed int64

	// MinSize and MaxSize bound the generator size. The size grows linearly
	// across trials.
	MinSize int
	MaxSize int

	// MaxDiscardRatio bounds discarded draws relative to Trials.
	MaxDiscardRatio float64

	// Generators supplies one generator per property argument.
	Generators []gopter.Gen
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Trials:          100,
		MinSize:         0,
		MaxSize:         100,
		MaxDiscardRatio: 5,
	}
}

// Runner executes properties.
type Runner struct {
	now func() time.Time
}

// New creates a Runner.
func New() *Runner {
	return &Runner{now: time.Now}
}

// Run draws arguments from the generators and evaluates the property until
// it is falsified or Trials trials have passed. Errors raised by the property
// and configuration mistakes are returned as errors, never as outcomes.
func (r *Runner) Run(p property.Property, opts Options) (*Outcome, error) {
	if p == nil {
		return nil, fmt.Errorf("property cannot be nil")
	}
	if len(opts.Generators) != p.Arity() {
		return nil, fmt.Errorf("property takes %d arguments but %d generators were given", p.Arity(), len(opts.Generators))
	}
	if opts.Trials <= 0 {
		opts.Trials = DefaultOptions().Trials
	}
	if opts.MinSize < 0 {
		return nil, fmt.Errorf("min size must not be negative, got %d", opts.MinSize)
	}
	if opts.MaxSize < opts.MinSize {
		return nil, fmt.Errorf("max size %d is smaller than min size %d", opts.MaxSize, opts.MinSize)
	}
	if opts.MaxDiscardRatio <= 0 {
		opts.MaxDiscardRatio = DefaultOptions().MaxDiscardRatio
	}

	seed := opts.Seed
	if seed == 0 {
		seed = r.now().UnixNano()
	}
	params := gopter.DefaultGenParameters().CloneWithSeed(seed)
	params.MinSize = opts.MinSize
	params.MaxSize = opts.MaxSize

	outcome := &Outcome{Status: StatusPassed, Seed: seed}
	maxDiscarded := int(float64(opts.Trials) * opts.MaxDiscardRatio)

	for trial := 0; outcome.Passed < opts.Trials; trial++ {
		size := sizeAt(opts.MinSize, opts.MaxSize, outcome.Passed, opts.Trials)
		args, ok := draw(opts.Generators, params.WithSize(size))
		if !ok {
			outcome.Discarded++
			if outcome.Discarded > maxDiscarded {
				outcome.Status = StatusExhausted
				return outcome, nil
			}
			continue
		}

		holds, err := p.Holds(args)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		if !holds {
			outcome.Status = StatusFalsified
			outcome.Failure = &Failure{
				Counterexample: args,
				Trial:          trial,
				Seed:           seed,
			}
			return outcome, nil
		}
		outcome.Passed++
	}

	return outcome, nil
}

func draw(generators []gopter.Gen, params *gopter.GenParameters) (property.Counterexample, bool) {
	args := make(property.Counterexample, len(generators))
	for i, g := range generators {
		v, ok := g(params).Retrieve()
		if !ok {
			return nil, false
		}
		args[i] = v
	}
	return args, true
}

// sizeAt interpolates the generator size for the given number of passed
// trials. The product is taken in 128 bits so large sizes and trial counts
// cannot overflow; passed < trials keeps the quotient below max-min.
func sizeAt(minSize, maxSize, passed, trials int) int {
	if passed <= 0 || trials <= 0 {
		return minSize
	}
	if passed >= trials {
		return maxSize
	}
	hi, lo := bits.Mul64(uint64(maxSize-minSize), uint64(passed))
	q, _ := bits.Div64(hi, lo, uint64(trials))
	return minSize + int(q)
}
