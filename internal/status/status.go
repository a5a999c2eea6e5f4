// Package status provides a thread-safe status tracker for the emulator.
// The control loop writes to it; HTTP handlers and the MQTT heartbeat read
// from it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/mh106/internal/loop"
	"github.com/sweeney/mh106/internal/shiftreg"
	"github.com/sweeney/mh106/internal/signal"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Backend     string
	Wiring      string
	Logic       string
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of emulator state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Iterations    uint64
	Inputs        signal.InputSnapshot
	Outputs       signal.OutputSnapshot
	Frame         shiftreg.Frame
	Running       bool
	LastError     string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the emulator started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Rate returns the average iterations per second since start.
func (s Snapshot) Rate() float64 {
	up := s.Uptime().Seconds()
	if up <= 0 {
		return 0
	}
	return float64(s.Iterations) / up
}

// Direct returns the CAL and STROBE_OUT values of the last composition.
func (s Snapshot) Direct() (cal, strobe bool) {
	cal, _ = s.Outputs.Get(signal.CAL)
	strobe, _ = s.Outputs.Get(signal.StrobeOut)
	return cal, strobe
}

// Tracker holds mutable emulator state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Observe records one completed loop iteration.
func (t *Tracker) Observe(c loop.Cycle) {
	t.mu.Lock()
	t.snap.Iterations = c.N
	t.snap.Inputs = c.Inputs
	t.snap.Outputs = c.Outputs
	t.snap.Frame = c.Frame
	t.mu.Unlock()
}

// SetRunning marks whether the control loop is running. A non-nil err is
// kept as the reason it stopped.
func (t *Tracker) SetRunning(running bool, err error) {
	t.mu.Lock()
	t.snap.Running = running
	if err != nil {
		t.snap.LastError = err.Error()
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the emulator state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
