// Package loop runs the emulator's control loop: sample the inputs, let the
// application logic compute the outputs, compose them onto the pins, repeat.
package loop

import (
	"context"
	"fmt"

	"github.com/sweeney/mh106/internal/logic"
	"github.com/sweeney/mh106/internal/shiftreg"
	"github.com/sweeney/mh106/internal/signal"
)

// Sampler reads the control inputs.
type Sampler interface {
	Sample() signal.InputSnapshot
}

// Composer pushes one output snapshot to the pins.
type Composer interface {
	Compose(outs signal.OutputSnapshot) (shiftreg.Frame, error)
}

// Blanker drives every output off.
type Blanker interface {
	Clear() error
}

// Cycle describes one completed iteration.
type Cycle struct {
	N       uint64
	Inputs  signal.InputSnapshot
	Outputs signal.OutputSnapshot
	Frame   shiftreg.Frame
}

// Observer is told about every completed iteration. It runs on the loop's
// goroutine and must not block.
type Observer interface {
	Observe(c Cycle)
}

// Loop owns one pass of sample, evaluate, compose at a time.
// It is not safe for concurrent use.
type Loop struct {
	sampler  Sampler
	logic    logic.Logic
	composer Composer
	blanker  Blanker
	observer Observer
	n        uint64
}

// New creates a Loop.
func New(s Sampler, l logic.Logic, c Composer, b Blanker) *Loop {
	return &Loop{sampler: s, logic: l, composer: c, blanker: b}
}

// SetObserver installs an observer; nil removes it.
func (l *Loop) SetObserver(o Observer) {
	l.observer = o
}

// Iterations returns the number of completed iterations.
func (l *Loop) Iterations() uint64 {
	return l.n
}

// Boot blanks all outputs so the display starts from a known state.
func (l *Loop) Boot() error {
	if err := l.blanker.Clear(); err != nil {
		return fmt.Errorf("boot clear: %w", err)
	}
	return nil
}

// Step runs exactly one iteration.
func (l *Loop) Step() error {
	in := l.sampler.Sample()

	outs, err := l.logic.Evaluate(in)
	if err != nil {
		return fmt.Errorf("iteration %d: evaluate: %w", l.n, err)
	}

	f, err := l.composer.Compose(outs)
	if err != nil {
		return fmt.Errorf("iteration %d: compose: %w", l.n, err)
	}

	l.n++
	if l.observer != nil {
		l.observer.Observe(Cycle{N: l.n, Inputs: in, Outputs: outs, Frame: f})
	}
	return nil
}

// Run boots, then iterates until ctx is cancelled or an iteration fails.
// There is no pacing: the loop re-evaluates as fast as the pins allow.
// Cancellation is only observed between iterations, never inside a shift
// sequence. Run returns nil when cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Boot(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := l.Step(); err != nil {
			return err
		}
	}
}
