package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/logger"
	"github.com/sweeney/pir-monitor/internal/logic"
)

// Defaults for Options.
const (
	DefaultClientID       = "pir-monitor"
	DefaultConnectTimeout = 10 * time.Second
	DefaultPublishTimeout = 5 * time.Second
	DefaultBufferSize     = 100
)

var errPublishTimeout = errors.New("publish timeout")

// Options configures a RealPublisher.
type Options struct {
	Broker         string
	ClientID       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	// BufferSize is how many messages are kept while disconnected.
	BufferSize int
	// OnConnectionChange, if set, is called when the connection comes up or drops.
	OnConnectionChange func(connected bool)
}

func (o *Options) setDefaults() {
	if o.ClientID == "" {
		o.ClientID = DefaultClientID
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = DefaultPublishTimeout
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	opts   Options
	log    *zap.SugaredLogger

	mu        sync.Mutex
	buffer    *outbox
	connected bool // true once the first connection succeeded
	replaying bool // set while onConnect empties the outbox
}

// NewRealPublisher creates a publisher for the given broker. The broker
// does not have to be reachable: paho keeps retrying in the background
// and messages are buffered until it connects.
func NewRealPublisher(ctx context.Context, opts Options) (*RealPublisher, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}
	opts.setDefaults()

	p := newPublisher(ctx, nil, opts)

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     EventOffline,
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(co)

	token := p.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		p.log.Warnw("broker not reachable yet, buffering until connected", "broker", opts.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// newPublisher builds a RealPublisher around client. Handlers are not
// registered; NewRealPublisher does that through paho's options.
func newPublisher(ctx context.Context, client paho.Client, opts Options) *RealPublisher {
	opts.setDefaults()
	log := logger.FromContext(ctx).Named("mqtt")
	return &RealPublisher{
		client: client,
		opts:   opts,
		log:    log,
		buffer: newOutbox(opts.BufferSize, log),
	}
}

// onConnect replays buffered messages. Every connection after the first
// also announces RECONNECTED. paho calls it on its own goroutine, after the
// connection is already open, so send keeps queueing until the outbox has
// been emptied. Messages queued meanwhile go out in order, and a newer
// retained state replaces the buffered one instead of being overtaken by it.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	p.replaying = true
	p.mu.Unlock()

	if fn := p.opts.OnConnectionChange; fn != nil {
		fn(true)
	}

	replayed := 0
	for {
		p.mu.Lock()
		msgs := p.buffer.drain()
		if len(msgs) == 0 {
			p.replaying = false
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()

		for _, m := range msgs {
			if err := p.wait(c.Publish(m.topic, m.qos, m.retained, m.payload)); err != nil {
				p.log.Warnw("replay failed", "topic", m.topic, "error", err)
			}
		}
		replayed += len(msgs)
	}
	p.log.Infow("connected", "broker", p.opts.Broker, "replayed", replayed)

	if reconnect {
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: EventReconnected}); err != nil {
			p.log.Warnw("reconnected event failed", "error", err)
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.log.Warnw("connection lost", "broker", p.opts.Broker, "error", err)
	if fn := p.opts.OnConnectionChange; fn != nil {
		fn(false)
	}
}

// send publishes a message, or queues it while the connection is down or
// the outbox still holds messages that must go out first.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() || p.replaying || p.buffer.len() > 0 {
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.wait(p.client.Publish(topic, qos, retained, payload))
}

func (p *RealPublisher) wait(token paho.Token) error {
	if !token.WaitTimeout(p.opts.PublishTimeout) {
		return errPublishTimeout
	}
	return token.Error()
}

// Buffered returns how many messages are waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Publish sends a transition event.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	if err := p.send(TopicEvents, 0, false, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishState sends the snapshot as the retained state message.
func (p *RealPublisher) PublishState(snap logic.Snapshot) error {
	payload, err := FormatStatePayload(snap)
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}

	if err := p.send(TopicState, 1, true, payload); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	if err := p.send(TopicSystem, 1, event.Retained, payload); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the client currently has a connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	if n := p.Buffered(); n > 0 {
		p.log.Warnw("closing with unsent messages", "count", n)
	}
	return nil
}
