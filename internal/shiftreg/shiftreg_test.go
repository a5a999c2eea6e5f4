package shiftreg

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/sweeney/mh106/internal/gpio"
)

// newTestDriver returns a driver wired to a simulated chain and fake FET lines.
func newTestDriver(t *testing.T) (*Driver, *Chain, *gpio.FakeBoard) {
	t.Helper()
	board := gpio.NewFakeBoard()
	chain := NewChain()
	chain.Record(true)
	d, err := NewDriver(chain.Attach(board.Lines()))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d, chain, board
}

func fetLevels(b *gpio.FakeBoard) (cal, strobe gpio.Level) {
	return b.Out.CAL.(*gpio.FakeLine).L, b.Out.Strobe.(*gpio.FakeLine).L
}

func TestShiftOutRoundTrip(t *testing.T) {
	d, chain, _ := newTestDriver(t)

	frames := []uint32{0x000000, 0xFFFFFF, 0x800000, 0x000001, 0xAAAAAA, 0x555555, 0x0F00F0, 0x123456}
	rng := rand.New(rand.NewSource(106))
	for i := 0; i < 64; i++ {
		frames = append(frames, rng.Uint32()&0xFFFFFF)
	}

	for _, v := range frames {
		f := FrameFromUint32(v)
		if err := d.ShiftOut(f); err != nil {
			t.Fatalf("ShiftOut(%s): %v", f, err)
		}
		if got := chain.Latched(); got != f {
			t.Errorf("readback: got %s, want %s", got, f)
		}
	}
}

func TestShiftOutTiming(t *testing.T) {
	data := gpio.NewFakeLine("DATA", gpio.Low)
	clock := gpio.NewFakeLine("SRCK", gpio.Low)
	latch := gpio.NewFakeLine("RCK", gpio.Low)
	for _, l := range []*gpio.FakeLine{data, clock, latch} {
		l.Record = true
	}
	d, err := NewDriver(gpio.Lines{
		Data:   data,
		Clock:  clock,
		Latch:  latch,
		CAL:    gpio.NewFakeLine("CAL", gpio.Low),
		Strobe: gpio.NewFakeLine("STROBE_OUT", gpio.Low),
	})
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	f := FrameFromUint32(0xC00003)
	if err := d.ShiftOut(f); err != nil {
		t.Fatalf("ShiftOut: %v", err)
	}

	if len(data.History) != FrameBits {
		t.Fatalf("data writes: got %d, want %d", len(data.History), FrameBits)
	}
	for i, l := range data.History {
		if bool(l) != f[i] {
			t.Errorf("data bit %d: got %v, want %v", i, l, f[i])
		}
	}
	if len(clock.History) != 2*FrameBits {
		t.Fatalf("clock writes: got %d, want %d", len(clock.History), 2*FrameBits)
	}
	for i := 0; i < len(clock.History); i += 2 {
		if clock.History[i] != gpio.High || clock.History[i+1] != gpio.Low {
			t.Fatalf("clock pulse %d: got %v %v, want high low", i/2, clock.History[i], clock.History[i+1])
		}
	}
	if len(latch.History) != 2 || latch.History[0] != gpio.High || latch.History[1] != gpio.Low {
		t.Errorf("latch: got %v, want one high-low pulse", latch.History)
	}
}

func TestLatchOnlyAfterFullFrame(t *testing.T) {
	d, chain, _ := newTestDriver(t)

	frames := []Frame{FrameFromUint32(0xFFFFFF), FrameFromUint32(0x00FF00), FrameFromUint32(0x000000)}
	for _, f := range frames {
		if err := d.ShiftOut(f); err != nil {
			t.Fatalf("ShiftOut: %v", err)
		}
	}

	st := chain.Stats()
	if st.LatchEdges != len(frames) {
		t.Errorf("latch edges: got %d, want %d", st.LatchEdges, len(frames))
	}
	if st.ShiftEdges != len(frames)*FrameBits {
		t.Errorf("shift edges: got %d, want %d", st.ShiftEdges, len(frames)*FrameBits)
	}
	if st.PartialLatches != 0 {
		t.Errorf("partial latches: got %d, want 0", st.PartialLatches)
	}
	if st.SetupViolations != 0 {
		t.Errorf("setup violations: got %d, want 0", st.SetupViolations)
	}

	hist := chain.History()
	if len(hist) != len(frames) {
		t.Fatalf("history: got %d frames, want %d", len(hist), len(frames))
	}
	for i := range frames {
		if hist[i] != frames[i] {
			t.Errorf("latched frame %d: got %s, want %s", i, hist[i], frames[i])
		}
	}
}

func TestClearIdempotent(t *testing.T) {
	d, chain, board := newTestDriver(t)

	if err := d.ShiftOut(FrameFromUint32(0xFFFFFF)); err != nil {
		t.Fatalf("ShiftOut: %v", err)
	}
	if err := d.SetDirect(true, true); err != nil {
		t.Fatalf("SetDirect: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := d.Clear(); err != nil {
			t.Fatalf("Clear #%d: %v", i+1, err)
		}
		if got := chain.Latched(); got != (Frame{}) {
			t.Errorf("Clear #%d: latched %s, want all zero", i+1, got)
		}
		if got := chain.Pending(); got != (Frame{}) {
			t.Errorf("Clear #%d: shift stage %s, want all zero", i+1, got)
		}
		cal, strobe := fetLevels(board)
		if cal != gpio.Low || strobe != gpio.Low {
			t.Errorf("Clear #%d: FETs (%v, %v), want both low", i+1, cal, strobe)
		}
	}
}

func TestSetDirect(t *testing.T) {
	d, chain, board := newTestDriver(t)

	if err := d.SetDirect(true, false); err != nil {
		t.Fatalf("SetDirect: %v", err)
	}
	cal, strobe := fetLevels(board)
	if cal != gpio.High || strobe != gpio.Low {
		t.Errorf("FETs: got (%v, %v), want (high, low)", cal, strobe)
	}
	if chain.Stats().LatchEdges != 0 {
		t.Error("SetDirect must not touch the register chain")
	}
}

func TestShiftOutErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"data", "data", "shift bit 0: data"},
		{"clock", "clock", "shift bit 0: clock"},
		{"latch", "latch", "latch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := gpio.NewFakeBoard()
			lines := board.Lines()
			fail := errors.New("simulated error")
			switch tt.line {
			case "data":
				lines.Data.(*gpio.FakeLine).OutError = fail
			case "clock":
				lines.Clock.(*gpio.FakeLine).OutError = fail
			case "latch":
				lines.Latch.(*gpio.FakeLine).OutError = fail
			}
			d, _ := NewDriver(lines)

			err := d.ShiftOut(Frame{})
			if !errors.Is(err, fail) {
				t.Fatalf("expected wrapped simulated error, got %v", err)
			}
			if !strings.HasPrefix(err.Error(), tt.want) {
				t.Errorf("error: got %q, want prefix %q", err, tt.want)
			}
		})
	}
}

func TestClearFETError(t *testing.T) {
	board := gpio.NewFakeBoard()
	fail := errors.New("simulated error")
	board.Out.Strobe.(*gpio.FakeLine).OutError = fail
	d, _ := NewDriver(board.Lines())

	if err := d.Clear(); !errors.Is(err, fail) {
		t.Errorf("expected STROBE_OUT error, got %v", err)
	}
}

func TestNewDriverMissingLines(t *testing.T) {
	lines := gpio.NewFakeBoard().Lines()
	lines.Latch = nil
	if _, err := NewDriver(lines); err == nil {
		t.Error("expected error without latch line")
	}

	lines = gpio.NewFakeBoard().Lines()
	lines.CAL = nil
	if _, err := NewDriver(lines); err == nil {
		t.Error("expected error without CAL line")
	}
}

func TestChainOutputs(t *testing.T) {
	d, chain, _ := newTestDriver(t)

	// First bit shifted lands on register 3 Q7, last bit on register 1 Q0.
	var f Frame
	f[0] = true
	f[FrameBits-1] = true
	f[15] = true // register 2 Q0
	if err := d.ShiftOut(f); err != nil {
		t.Fatalf("ShiftOut: %v", err)
	}

	want := map[int][8]bool{
		1: {true, false, false, false, false, false, false, false},
		2: {true, false, false, false, false, false, false, false},
		3: {false, false, false, false, false, false, false, true},
	}
	for reg, q := range want {
		if got := chain.Outputs(reg); got != q {
			t.Errorf("register %d: got %v, want %v", reg, got, q)
		}
	}
	if got := chain.Outputs(4); got != ([8]bool{}) {
		t.Errorf("register 4 should not exist, got %v", got)
	}
}

func TestChainSetupViolation(t *testing.T) {
	chain := NewChain()
	lines := chain.Attach(gpio.Lines{})

	lines.Clock.Out(gpio.High)
	lines.Data.Out(gpio.High)
	lines.Clock.Out(gpio.Low)

	if got := chain.Stats().SetupViolations; got != 1 {
		t.Errorf("setup violations: got %d, want 1", got)
	}
}

func TestChainPartialLatch(t *testing.T) {
	chain := NewChain()
	lines := chain.Attach(gpio.Lines{})

	lines.Data.Out(gpio.High)
	for i := 0; i < 5; i++ {
		lines.Clock.Out(gpio.High)
		lines.Clock.Out(gpio.Low)
	}
	lines.Latch.Out(gpio.High)
	lines.Latch.Out(gpio.Low)

	st := chain.Stats()
	if st.PartialLatches != 1 {
		t.Errorf("partial latches: got %d, want 1", st.PartialLatches)
	}
	if got := chain.Latched().Ones(); got != 5 {
		t.Errorf("latched ones: got %d, want 5", got)
	}
}

func TestChainNoLatchWithoutEdge(t *testing.T) {
	d, chain, _ := newTestDriver(t)
	d.ShiftOut(FrameFromUint32(0x00000F))

	// Shift a second frame by hand without latching: outputs must not move.
	lines := chain.Attach(gpio.Lines{})
	lines.Data.Out(gpio.High)
	for i := 0; i < FrameBits; i++ {
		lines.Clock.Out(gpio.High)
		lines.Clock.Out(gpio.Low)
	}

	if got := chain.Latched(); got.Uint32() != 0x00000F {
		t.Errorf("latched: got %s, want 0x00000F", got)
	}
	if got := chain.Pending(); got.Uint32() != 0xFFFFFF {
		t.Errorf("pending: got %s, want 0xFFFFFF", got)
	}
}

func TestFrameEncoding(t *testing.T) {
	var f Frame
	f[0] = true
	f[23] = true
	if got := f.Uint32(); got != 0x800001 {
		t.Errorf("Uint32: got %#x, want 0x800001", got)
	}
	if got := f.String(); got != "0x800001" {
		t.Errorf("String: got %q", got)
	}
	if got := f.Bits(); got != "10000000 00000000 00000001" {
		t.Errorf("Bits: got %q", got)
	}
	if got := f.Ones(); got != 2 {
		t.Errorf("Ones: got %d, want 2", got)
	}
	if FrameFromUint32(0xFF800001) != f {
		t.Error("FrameFromUint32 should ignore bits above 23")
	}
}
