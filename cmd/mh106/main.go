// Command mh106 emulates the MH106 clock IC: it samples the control inputs,
// runs the clock logic and drives the display through the register chain.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/mh106/internal/compose"
	"github.com/sweeney/mh106/internal/gpio"
	"github.com/sweeney/mh106/internal/logic"
	"github.com/sweeney/mh106/internal/loop"
	"github.com/sweeney/mh106/internal/mqtt"
	"github.com/sweeney/mh106/internal/shiftreg"
	sig "github.com/sweeney/mh106/internal/signal"
	"github.com/sweeney/mh106/internal/status"
	"github.com/sweeney/mh106/internal/web"
)

type options struct {
	backend     string
	chip        string
	wiring      string
	logic       string
	broker      string
	heartbeat   time.Duration
	httpAddr    string
	printInputs bool
	simHigh     string
}

func main() {
	var o options
	flag.StringVar(&o.backend, "backend", "cdev", "pin backend: cdev, periph or sim")
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip for the cdev backend")
	flag.StringVar(&o.wiring, "wiring", "schematic", "register wiring table: schematic or firmware")
	flag.StringVar(&o.logic, "logic", "blank", "clock logic: "+strings.Join(logic.Names(), ", "))
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printInputs, "print-inputs", false, "Print current inputs and exit")
	flag.StringVar(&o.simHigh, "sim-high", "", "comma-separated inputs held high on the sim backend")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	wiring, err := compose.Lookup(o.wiring)
	if err != nil {
		return err
	}
	lg, err := logic.Lookup(o.logic)
	if err != nil {
		return err
	}

	board, err := openBoard(o)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	lines := board.Lines()
	sampler, err := gpio.NewSampler(lines.Inputs)
	if err != nil {
		return fmt.Errorf("init sampler: %w", err)
	}

	// Print inputs mode
	if o.printInputs {
		in := sampler.Sample()
		for _, i := range sig.Inputs() {
			fmt.Printf("GPIO%-2d %-8s %s\n", i.Pin(), i, levelString(in.Get(i)))
		}
		return nil
	}

	driver, err := shiftreg.NewDriver(lines)
	if err != nil {
		return fmt.Errorf("init driver: %w", err)
	}
	// Leave the display dark whichever way we exit.
	defer func() {
		if err := driver.Clear(); err != nil {
			log.Printf("clear outputs on exit: %v", err)
		}
	}()

	lp := loop.New(sampler, lg, compose.New(wiring, driver), driver)

	tracker := status.NewTracker(time.Now(), status.Config{
		Backend:     o.backend,
		Wiring:      wiring.Name(),
		Logic:       o.logic,
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	lp.SetObserver(tracker)

	var publisher mqtt.Publisher = nopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if o.broker != "" {
		p, err := mqtt.NewRealPublisher(o.broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, wiring)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: backend=%s wiring=%s logic=%s broker=%q heartbeat=%v",
		o.backend, wiring.Name(), o.logic, o.broker, o.heartbeat)

	var tick <-chan time.Time
	if o.heartbeat > 0 {
		ticker := time.NewTicker(o.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(lp, publisher, mqttStatus, tracker, time.Now, tick, sigCh)
}

// runLoop runs the control loop until a signal arrives or an iteration
// fails, publishing heartbeats alongside and the final lifecycle event after.
func runLoop(lp *loop.Loop, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sigCh <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		reason string
	)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case s := <-sigCh:
				log.Printf("received %v, shutting down", s)
				mu.Lock()
				reason = signalName(s)
				mu.Unlock()
				cancel()
			case <-tick:
				publishStatus(publisher, mqttStatus, tracker, now, mqtt.EventHeartbeat, "", false)
			}
		}
	}()

	tracker.SetRunning(true, nil)
	err := lp.Run(ctx)
	tracker.SetRunning(false, err)

	close(done)
	wg.Wait()

	if err != nil {
		log.Printf("loop stopped after %d iterations: %v", lp.Iterations(), err)
		publishStatus(publisher, mqttStatus, tracker, now, mqtt.EventFault, err.Error(), true)
		return err
	}

	mu.Lock()
	r := reason
	mu.Unlock()
	log.Printf("loop stopped after %d iterations", lp.Iterations())
	publishStatus(publisher, mqttStatus, tracker, now, mqtt.EventShutdown, r, true)
	return nil
}

// publishStatus sends a lifecycle event carrying a full status snapshot.
func publishStatus(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, event, reason string, retained bool) {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	if event == mqtt.EventHeartbeat {
		// Refresh network info for heartbeat
		if net := readNetworkInfo(); net != nil {
			tracker.SetNetwork(net)
		}
	}
	snap := tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  now(),
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", strings.ToLower(event), err)
		return
	}
	if event == mqtt.EventHeartbeat {
		log.Printf("heartbeat: iterations=%d rate=%.0f/s", snap.Iterations, snap.Rate())
	} else {
		log.Printf("published %s event", strings.ToLower(event))
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// openBoard binds the pins for the selected backend.
func openBoard(o options) (gpio.Board, error) {
	switch o.backend {
	case "cdev":
		return gpio.OpenCdev(o.chip)
	case "periph":
		return gpio.OpenPeriph()
	case "sim":
		return newSimBoard(o.simHigh)
	}
	return nil, fmt.Errorf("unknown backend %q (want cdev, periph or sim)", o.backend)
}

// simBoard runs the emulator without hardware: fake input lines and a
// simulated register chain behind the shift pins.
type simBoard struct {
	*gpio.FakeBoard
	chain *shiftreg.Chain
}

func newSimBoard(high string) (*simBoard, error) {
	b := &simBoard{FakeBoard: gpio.NewFakeBoard(), chain: shiftreg.NewChain()}
	for _, name := range strings.Split(high, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		in, err := sig.ParseInput(name)
		if err != nil {
			return nil, err
		}
		b.In[in].L = gpio.High
	}
	return b, nil
}

func (b *simBoard) Lines() gpio.Lines {
	return b.chain.Attach(b.FakeBoard.Lines())
}

// nopPublisher stands in when MQTT is disabled.
type nopPublisher struct{}

func (nopPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (nopPublisher) Close() error                         { return nil }

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
