package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// OutboxSize is the number of system events kept while the broker is
// unreachable.
const OutboxSize = 64

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client

	mu       sync.Mutex
	outbox   *outbox
	connects int
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is retried in the background; events published before it comes up are
// queued. The broker announces OFFLINE if the emulator disappears.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{outbox: newOutbox(OutboxSize)}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     EventOffline,
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: broker %s not reachable yet, retrying in background", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	queued := p.outbox.drain()
	p.connects++
	reconnect := p.connects > 1
	p.mu.Unlock()

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventReconnected})
		c.Publish(TopicSystem, 1, false, payload)
	}

	for _, m := range queued {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	if len(queued) > 0 {
		log.Printf("mqtt: replayed %d queued messages", len(queued))
	}
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
// While disconnected the event is queued instead.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.outbox.push(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
		p.mu.Unlock()
		return nil
	}

	// QoS 1 (at-least-once) - lifecycle events should not be lost
	token := p.client.Publish(TopicSystem, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}

	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
