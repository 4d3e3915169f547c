package mqtt

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/altair-obs/altair-core/internal/events"
	"github.com/altair-obs/altair-core/internal/infrastructure/logging"
)

// Publisher is the publish surface the bridge needs. *Client satisfies
// it; tests substitute a recorder.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
}

// Bridge mirrors engine events onto MQTT topics. Property, capability
// and lifecycle updates go to retained topics so a dashboard connecting
// mid-session sees current state; failures are plain events.
type Bridge struct {
	pub    Publisher
	bus    *events.Bus
	log    *logging.Logger
	topics Topics

	stopOnce sync.Once
	cancel   func()
	done     chan struct{}
}

// NewBridge creates a Bridge. Call Start to begin mirroring.
func NewBridge(pub Publisher, bus *events.Bus, log *logging.Logger) *Bridge {
	return &Bridge{
		pub:  pub,
		bus:  bus,
		log:  log.With("component", "mqtt-bridge"),
		done: make(chan struct{}),
	}
}

// Start subscribes to the event bus and mirrors events until Stop.
func (b *Bridge) Start() {
	sub, cancel := b.bus.Subscribe()
	b.cancel = cancel

	go func() {
		defer close(b.done)
		for ev := range sub {
			b.handle(ev)
		}
	}()
}

// Stop unsubscribes and waits for the mirror goroutine to drain.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
			<-b.done
		}
	})
}

// statePayload is the JSON document published for property values.
type statePayload struct {
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

func (b *Bridge) handle(ev events.Event) {
	var (
		topic    string
		retained bool
		body     any
	)

	switch p := ev.Payload.(type) {
	case events.PropertyChange:
		topic = b.topics.DeviceState(ev.Device, p.Name)
		retained = true
		body = statePayload{Value: p.Value, Timestamp: ev.Timestamp}
	case events.CapabilityChange:
		topic = b.topics.DeviceCapability(ev.Device, p.Name)
		retained = true
		body = p
	case events.LifecycleChange:
		topic = b.topics.DeviceLifecycle(ev.Device)
		retained = true
		body = p
	case events.OperationFailure:
		topic = b.topics.DeviceEvents(ev.Device)
		body = p
	default:
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		b.log.Error("event payload marshal failed", "type", string(ev.Type), "error", err)
		return
	}

	if retained {
		err = b.pub.PublishRetained(topic, payload)
	} else {
		err = b.pub.Publish(topic, payload, 1, false)
	}
	if err != nil {
		// The feed is best effort; a broker outage must never stall the
		// engine's event flow.
		b.log.Warn("mqtt publish failed", "topic", topic, "error", err)
	}
}
