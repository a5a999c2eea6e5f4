package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/mh106/internal/compose"
	"github.com/sweeney/mh106/internal/gpio"
	"github.com/sweeney/mh106/internal/logic"
	"github.com/sweeney/mh106/internal/loop"
	"github.com/sweeney/mh106/internal/mqtt"
	"github.com/sweeney/mh106/internal/shiftreg"
	sig "github.com/sweeney/mh106/internal/signal"
	"github.com/sweeney/mh106/internal/status"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

// newSimLoop builds a loop over the sim board with the given logic.
func newSimLoop(t *testing.T, lg logic.Logic) (*loop.Loop, *simBoard, *status.Tracker) {
	t.Helper()
	board, err := newSimBoard("")
	if err != nil {
		t.Fatalf("newSimBoard: %v", err)
	}
	lines := board.Lines()
	sampler, err := gpio.NewSampler(lines.Inputs)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	driver, err := shiftreg.NewDriver(lines)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	lp := loop.New(sampler, lg, compose.New(compose.Schematic, driver), driver)
	tracker := status.NewTracker(fixedClock(), status.Config{Backend: "sim", Wiring: "schematic"})
	lp.SetObserver(tracker)
	return lp, board, tracker
}

func decodeStatus(t *testing.T, payload []byte) status.StatusInner {
	t.Helper()
	var sj status.StatusJSON
	if err := json.Unmarshal(payload, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return sj.Status
}

func TestRunLoopShutdownOnSignal(t *testing.T) {
	for _, tc := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGINT, "SIGINT"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			lp, _, tracker := newSimLoop(t, logic.LampTest)
			pub := mqtt.NewFakePublisher()
			pub.Connected = true

			sigCh := make(chan os.Signal, 1)
			sigCh <- tc.sig

			if err := runLoop(lp, pub, pub, tracker, fixedClock, nil, sigCh); err != nil {
				t.Fatalf("runLoop returned error: %v", err)
			}

			if got := pub.Events(); len(got) != 1 || got[0] != mqtt.EventShutdown {
				t.Fatalf("events: got %v, want [SHUTDOWN]", got)
			}
			ev := pub.SystemEvents[0]
			if ev.Reason != tc.want || !ev.Retained {
				t.Errorf("shutdown event: got reason=%q retained=%v", ev.Reason, ev.Retained)
			}
			s := decodeStatus(t, pub.SystemPayloads[0])
			if s.Event != mqtt.EventShutdown || s.Reason != tc.want {
				t.Errorf("payload: got event=%q reason=%q", s.Event, s.Reason)
			}
			if s.Running {
				t.Error("payload should report the loop stopped")
			}
			if !s.MQTT.Connected {
				t.Error("payload should carry the connection state")
			}
			if tracker.Snapshot().Running {
				t.Error("tracker should report the loop stopped")
			}
		})
	}
}

func TestRunLoopFault(t *testing.T) {
	fail := errors.New("mode table corrupt")
	calls := 0
	lg := logic.Func(func(in sig.InputSnapshot) (sig.OutputSnapshot, error) {
		calls++
		if calls > 3 {
			return sig.OutputSnapshot{}, fail
		}
		return sig.AllOutputs(false), nil
	})
	lp, board, tracker := newSimLoop(t, lg)
	pub := mqtt.NewFakePublisher()

	err := runLoop(lp, pub, pub, tracker, fixedClock, nil, make(chan os.Signal))
	if !errors.Is(err, fail) {
		t.Fatalf("expected logic error, got %v", err)
	}
	if lp.Iterations() != 3 {
		t.Errorf("iterations: got %d, want 3", lp.Iterations())
	}

	if got := pub.Events(); len(got) != 1 || got[0] != mqtt.EventFault {
		t.Fatalf("events: got %v, want [FAULT]", got)
	}
	if !strings.Contains(pub.SystemEvents[0].Reason, "mode table corrupt") {
		t.Errorf("fault reason: got %q", pub.SystemEvents[0].Reason)
	}
	snap := tracker.Snapshot()
	if snap.Running || !strings.Contains(snap.LastError, "iteration 3") {
		t.Errorf("tracker: running=%v last_error=%q", snap.Running, snap.LastError)
	}

	// Boot plus three composes, each latching the blank frame twice.
	if got := board.chain.Stats().LatchEdges; got != 1+2*3 {
		t.Errorf("latch edges: got %d, want 7", got)
	}
}

func TestRunLoopPublishErrorDoesNotFail(t *testing.T) {
	lp, _, tracker := newSimLoop(t, logic.Blank)
	pub := mqtt.NewFakePublisher()
	pub.PublishSystemError = errors.New("broker gone")

	sigCh := make(chan os.Signal, 1)
	sigCh <- syscall.SIGTERM
	if err := runLoop(lp, pub, nil, tracker, fixedClock, nil, sigCh); err != nil {
		t.Errorf("publish failure should not fail the loop: %v", err)
	}
}

func TestPublishStatusHeartbeat(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "192.168.1.60")

	tracker := status.NewTracker(fixedClock(), status.Config{})
	tracker.Observe(loop.Cycle{N: 500, Outputs: sig.AllOutputs(false)})
	pub := mqtt.NewFakePublisher()
	pub.Connected = true

	publishStatus(pub, pub, tracker, fixedClock, mqtt.EventHeartbeat, "", false)

	if got := pub.Events(); len(got) != 1 || got[0] != mqtt.EventHeartbeat {
		t.Fatalf("events: got %v, want [HEARTBEAT]", got)
	}
	if pub.SystemEvents[0].Retained {
		t.Error("heartbeat should not be retained")
	}
	s := decodeStatus(t, pub.SystemPayloads[0])
	if s.Iterations != 500 {
		t.Errorf("iterations: got %d, want 500", s.Iterations)
	}
	if s.Network == nil || s.Network.IP != "192.168.1.60" {
		t.Errorf("network: got %+v", s.Network)
	}
}

func TestNewSimBoardHighInputs(t *testing.T) {
	b, err := newSimBoard("LST_LSP, phase")
	if err != nil {
		t.Fatalf("newSimBoard: %v", err)
	}
	s, err := gpio.NewSampler(b.Lines().Inputs)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	snap := s.Sample()
	for _, in := range sig.Inputs() {
		want := in == sig.LSTLSP || in == sig.PHASE
		if snap.Get(in) != want {
			t.Errorf("%s: got %v, want %v", in, snap.Get(in), want)
		}
	}

	if _, err := newSimBoard("NOPE"); err == nil {
		t.Error("expected error for unknown input")
	}
}

func TestOpenBoardUnknownBackend(t *testing.T) {
	if _, err := openBoard(options{backend: "spi"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	if err := run(options{backend: "sim", wiring: "mirror", logic: "blank"}); err == nil {
		t.Error("expected error for unknown wiring")
	}
	if err := run(options{backend: "sim", wiring: "schematic", logic: "clock"}); err == nil {
		t.Error("expected error for unknown logic")
	}
}

func TestRunPrintInputs(t *testing.T) {
	err := run(options{backend: "sim", wiring: "schematic", logic: "blank", printInputs: true, simHigh: "GR"})
	if err != nil {
		t.Errorf("print inputs: %v", err)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT: got %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP: got %q", got)
	}
}

func TestReadNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if readNetworkInfo() != nil {
		t.Error("expected nil without NETWORK_STATUS")
	}

	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkWifiSSID, "MyNet")
	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected network info")
	}
	if info.Type != "wifi" || info.SSID != "MyNet" || info.Status != "connected" {
		t.Errorf("got %+v", info)
	}
}
