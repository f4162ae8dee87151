package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/sweeney/supercycler/internal/logic"
)

// DefaultBufferSize is the number of messages kept while disconnected.
const DefaultBufferSize = 100

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Topics     Topics
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down wait in an outbox and
// are replayed in order once the client reconnects.
type RealPublisher struct {
	client paho.Client
	topics Topics
	log    zerolog.Logger

	mu  sync.Mutex
	buf *outbox
}

// NewRealPublisher creates a publisher connected to the given broker.
// A broker that is unreachable at startup is not fatal: the client keeps
// retrying in the background and messages are buffered meanwhile.
func NewRealPublisher(o Options, log zerolog.Logger) (*RealPublisher, error) {
	if o.ClientID == "" {
		o.ClientID = "supercycler"
	}
	if o.Topics.System == "" {
		o.Topics = NewTopics(DefaultPrefix, o.Topics.Command)
	}

	p := newPublisher(nil, o.Topics, o.BufferSize, log)

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE"})
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(o.Topics.System, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Warn().Str("broker", o.Broker).Msg("mqtt broker not reachable yet, buffering")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(client paho.Client, topics Topics, bufferSize int, log zerolog.Logger) *RealPublisher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &RealPublisher{
		client: client,
		topics: topics,
		log:    log,
		buf:    newOutbox(bufferSize, log),
	}
}

// PublishState sends an applied command to the MQTT broker.
// When a command topic is configured the ON/OFF payload is sent there too,
// but only for commands that reached the device.
func (p *RealPublisher) PublishState(event StateEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	if err := p.publish(kindState, p.topics.State, 0, false, payload); err != nil {
		return err
	}

	if p.topics.Command != "" && event.OK {
		return p.publish(kindCommand, p.topics.Command, 1, false, FormatCommandPayload(event.State))
	}
	return nil
}

// PublishReport sends the schedule report, retained so late subscribers see it.
func (p *RealPublisher) PublishReport(report logic.Report) error {
	payload, err := FormatReportPayload(report)
	if err != nil {
		return fmt.Errorf("format report payload: %w", err)
	}
	return p.publish(kindReport, p.topics.Report, 1, true, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) so shutdown events are delivered
	return p.publish(kindSystem, p.topics.System, 1, event.Retained, payload)
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

func (p *RealPublisher) publish(kind msgKind, topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buf.add(pendingMsg{kind: kind, topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		p.log.Debug().Str("kind", kind.String()).Msg("mqtt disconnected, message queued")
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// onConnect replays queued messages. It runs on every (re)connection.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs := p.buf.flush()
	p.mu.Unlock()

	p.log.Info().Int("replayed", len(msgs)).Msg("mqtt connected")

	for _, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.log.Warn().Str("kind", m.kind.String()).Msg("mqtt replay timeout")
			continue
		}
		if err := token.Error(); err != nil {
			p.log.Warn().Err(err).Str("kind", m.kind.String()).Msg("mqtt replay failed")
		}
	}
}
