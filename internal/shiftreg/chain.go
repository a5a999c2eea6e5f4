package shiftreg

import (
	"sync"

	"github.com/sweeney/mh106/internal/gpio"
)

// Chain simulates the TPIC6C595 cascade as seen from its three control
// lines. A rising shift-clock edge moves the data level into the shift
// stage; a rising latch edge copies the shift stage to the outputs.
// It doubles as the readback harness in tests and as the output side of the
// simulated board.
type Chain struct {
	mu sync.Mutex

	shift   Frame // shift stage, index 0 = oldest bit
	latched Frame

	data, clock, latch gpio.Level

	shiftEdges      int
	latchEdges      int
	sinceLatch      int
	partialLatches  int
	setupViolations int
	record          bool
	history         []Frame
}

// NewChain creates a chain with all outputs off.
func NewChain() *Chain {
	return &Chain{}
}

// Record enables or disables the latch history.
func (c *Chain) Record(on bool) {
	c.mu.Lock()
	c.record = on
	c.mu.Unlock()
}

// Attach replaces the data, clock and latch lines in lines with the chain's
// own and returns the result.
func (c *Chain) Attach(lines gpio.Lines) gpio.Lines {
	lines.Data = chainLine{c, lineData}
	lines.Clock = chainLine{c, lineClock}
	lines.Latch = chainLine{c, lineLatch}
	return lines
}

type lineID int

const (
	lineData lineID = iota
	lineClock
	lineLatch
)

type chainLine struct {
	c  *Chain
	id lineID
}

func (l chainLine) Out(level gpio.Level) error {
	l.c.drive(l.id, level)
	return nil
}

func (c *Chain) drive(id lineID, level gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch id {
	case lineData:
		// Data must be stable while the shift clock is high.
		if level != c.data && c.clock == gpio.High {
			c.setupViolations++
		}
		c.data = level

	case lineClock:
		if level == gpio.High && c.clock == gpio.Low {
			copy(c.shift[:], c.shift[1:])
			c.shift[FrameBits-1] = bool(c.data)
			c.shiftEdges++
			c.sinceLatch++
		}
		c.clock = level

	case lineLatch:
		if level == gpio.High && c.latch == gpio.Low {
			if c.sinceLatch != FrameBits {
				c.partialLatches++
			}
			c.latched = c.shift
			c.latchEdges++
			c.sinceLatch = 0
			if c.record {
				c.history = append(c.history, c.latched)
			}
		}
		c.latch = level
	}
}

// Latched returns the frame currently presented on the register outputs,
// in shift order.
func (c *Chain) Latched() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latched
}

// Pending returns the shift stage, which is not yet visible on the outputs.
func (c *Chain) Pending() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shift
}

// Outputs returns the output pins Q0..Q7 of register reg, where register 1
// is the one fed directly by the data line. A set bit means the open-drain
// output is sinking.
func (c *Chain) Outputs(reg int) [8]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var q [8]bool
	if reg < 1 || reg > Registers {
		return q
	}
	for k := range q {
		q[k] = c.latched[FrameBits-1-((reg-1)*8+k)]
	}
	return q
}

// History returns the frames latched since recording was enabled.
func (c *Chain) History() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.history...)
}

// Stats reports edge counters.
type Stats struct {
	ShiftEdges      int
	LatchEdges      int
	PartialLatches  int // latch edges not preceded by exactly FrameBits shifts
	SetupViolations int // data changes while the shift clock was high
}

// Stats returns the edge counters.
func (c *Chain) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		ShiftEdges:      c.shiftEdges,
		LatchEdges:      c.latchEdges,
		PartialLatches:  c.partialLatches,
		SetupViolations: c.setupViolations,
	}
}
