package logic

import (
	"errors"
	"testing"

	"github.com/sweeney/mh106/internal/signal"
)

func TestBlank(t *testing.T) {
	outs, err := Blank.Evaluate(signal.InputSnapshot{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outs.Undefined()) != 0 {
		t.Errorf("undefined outputs: %v", outs.Undefined())
	}
	for _, o := range signal.Outputs() {
		if v, _ := outs.Get(o); v {
			t.Errorf("%s: expected off", o)
		}
	}
}

func TestLampTest(t *testing.T) {
	var in signal.InputSnapshot
	in.Set(signal.GR, true)

	outs, err := LampTest.Evaluate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, o := range signal.Outputs() {
		if v, ok := outs.Get(o); !ok || !v {
			t.Errorf("%s: expected on", o)
		}
	}
}

func TestFunc(t *testing.T) {
	fail := errors.New("simulated error")
	f := Func(func(in signal.InputSnapshot) (signal.OutputSnapshot, error) {
		if in.Get(signal.Z) {
			return signal.OutputSnapshot{}, fail
		}
		outs := signal.AllOutputs(false)
		outs.Set(signal.ALARM, in.Get(signal.PHASE))
		return outs, nil
	})

	var in signal.InputSnapshot
	in.Set(signal.PHASE, true)
	outs, err := f.Evaluate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := outs.Get(signal.ALARM); !v {
		t.Error("expected ALARM to follow PHASE")
	}

	in.Set(signal.Z, true)
	if _, err := f.Evaluate(in); !errors.Is(err, fail) {
		t.Errorf("expected simulated error, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"blank", "lamptest", "LampTest"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := Lookup("clock"); err == nil {
		t.Error("expected error for unknown logic")
	}
	if got := Names(); len(got) != 2 || got[0] != "blank" || got[1] != "lamptest" {
		t.Errorf("Names: got %v", got)
	}
}
