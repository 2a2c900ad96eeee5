package publish

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/signalsfoundry/los-sampler/internal/logging"
)

// Publisher fans sampler output out to downstream consumers.
type Publisher interface {
	PublishPosition(ctx context.Context, f PositionFrame) error
	PublishStatus(ctx context.Context, m StatusMessage) error
	Close()
}

// Noop returns a publisher that drops everything.
func Noop() Publisher { return noopPublisher{} }

type noopPublisher struct{}

func (noopPublisher) PublishPosition(context.Context, PositionFrame) error { return nil }
func (noopPublisher) PublishStatus(context.Context, StatusMessage) error   { return nil }
func (noopPublisher) Close()                                               {}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	URL         string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	// PublishTimeout bounds how long a status publish waits for the broker.
	PublishTimeout time.Duration
}

// MQTTPublisher publishes position frames on <prefix>/position (QoS 0, fire
// and forget) and retained status messages on <prefix>/status (QoS 1).
type MQTTPublisher struct {
	client  mqtt.Client
	topics  topics
	timeout time.Duration
	log     logging.Logger
}

type topics struct {
	position string
	status   string
}

func topicsFor(prefix string) topics {
	if prefix == "" {
		prefix = "los"
	}
	return topics{position: prefix + "/position", status: prefix + "/status"}
}

// NewMQTTPublisher connects to the broker described by cfg.
func NewMQTTPublisher(cfg MQTTConfig, log logging.Logger) (*MQTTPublisher, error) {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	options := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Info(context.Background(), "mqtt connected", logging.String("broker", cfg.URL))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn(context.Background(), "mqtt connection lost", logging.Err(err))
		})
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(cfg.PublishTimeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.URL, err)
	}

	return newMQTTPublisher(client, cfg, log), nil
}

func newMQTTPublisher(client mqtt.Client, cfg MQTTConfig, log logging.Logger) *MQTTPublisher {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &MQTTPublisher{
		client:  client,
		topics:  topicsFor(cfg.TopicPrefix),
		timeout: cfg.PublishTimeout,
		log:     log,
	}
}

// PublishPosition sends f without waiting for delivery; frames are
// superseded every tick.
func (p *MQTTPublisher) PublishPosition(ctx context.Context, f PositionFrame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topics.position, 0, false, b)
	select {
	case <-token.Done():
		return token.Error()
	default:
		return nil
	}
}

// PublishStatus sends m as retained JSON so late subscribers see the
// current verdict, and waits for the broker to acknowledge it.
func (p *MQTTPublisher) PublishStatus(ctx context.Context, m StatusMessage) error {
	b, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	token := p.client.Publish(p.topics.status, 1, true, b)
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish status to %s: timed out", p.topics.status)
	}
}

// Close disconnects from the broker, allowing 250ms for in-flight work.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
