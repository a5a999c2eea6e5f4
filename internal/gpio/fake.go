package gpio

import "github.com/sweeney/mh106/internal/signal"

// FakeLine is a test double usable as both an input and an output line.
type FakeLine struct {
	// Name is used in test failure messages.
	Name string

	// L is the current level. Read returns it; Out overwrites it.
	L Level

	// Record enables History.
	Record bool

	// History contains every level written by Out while Record is set.
	History []Level

	// Writes counts calls to Out.
	Writes int

	// OutError, if set, will be returned by Out.
	OutError error
}

// NewFakeLine creates a FakeLine at the given level.
func NewFakeLine(name string, l Level) *FakeLine {
	return &FakeLine{Name: name, L: l}
}

// Read returns the scripted level.
func (f *FakeLine) Read() Level {
	return f.L
}

// Out records the level.
func (f *FakeLine) Out(l Level) error {
	if f.OutError != nil {
		return f.OutError
	}
	f.L = l
	f.Writes++
	if f.Record {
		f.History = append(f.History, l)
	}
	return nil
}

// Reset clears recorded writes.
func (f *FakeLine) Reset() {
	f.History = nil
	f.Writes = 0
	f.OutError = nil
}

// FakeInputs returns one FakeLine per input, all low, in catalog order.
func FakeInputs() []*FakeLine {
	lines := make([]*FakeLine, signal.NumInputs)
	for i := range lines {
		lines[i] = NewFakeLine(signal.Input(i).String(), Low)
	}
	return lines
}

// InputLines converts fakes to the InputLine slice NewSampler expects.
func InputLines(fakes []*FakeLine) []InputLine {
	lines := make([]InputLine, len(fakes))
	for i, f := range fakes {
		lines[i] = f
	}
	return lines
}

// FakeBoard is a Board backed by fake lines. Output lines default to
// FakeLines but may be replaced (e.g. by a simulated register chain).
type FakeBoard struct {
	In     []*FakeLine
	Out    Lines
	Closed bool
}

// NewFakeBoard creates a board with low inputs and recording-free outputs.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{
		In: FakeInputs(),
		Out: Lines{
			Data:   NewFakeLine("DATA", Low),
			Clock:  NewFakeLine("SRCK", Low),
			Latch:  NewFakeLine("RCK", Low),
			CAL:    NewFakeLine("CAL", Low),
			Strobe: NewFakeLine("STROBE_OUT", Low),
		},
	}
}

// Lines returns the board's pin set.
func (b *FakeBoard) Lines() Lines {
	l := b.Out
	l.Inputs = InputLines(b.In)
	return l
}

// Close marks the board as closed.
func (b *FakeBoard) Close() error {
	b.Closed = true
	return nil
}
