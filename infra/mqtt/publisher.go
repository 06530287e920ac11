package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/voltmesh/bessopt/core/model"
	"github.com/voltmesh/bessopt/infra/logger"
)

// Config holds the MQTT broker settings for schedule publication.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "bessopt"
	}
	if c.Topic == "" {
		c.Topic = "bessopt/schedule"
	}
	if c.QoS > 2 {
		c.QoS = 1
	}
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker URL is required")
	}
	return nil
}

// Publisher publishes optimization results as JSON over MQTT.
type Publisher struct {
	client paho.Client
	cfg    Config
	log    logger.Logger
	once   sync.Once
}

// NewPublisher connects to the broker and returns a ready publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := paho.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout to %s", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &Publisher{client: client, cfg: cfg, log: logger.New("mqtt-publisher")}, nil
}

// PublishResult serializes the result and publishes it on the configured topic.
func (p *Publisher) PublishResult(ctx context.Context, result *model.OptimizationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	tok := p.client.Publish(p.cfg.Topic, p.cfg.QoS, false, payload)
	done := make(chan struct{})
	go func() {
		tok.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	p.log.Debugf("published result %s to %s", result.ID, p.cfg.Topic)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		p.client.Disconnect(250)
	})
	return nil
}

// MockPublisher records published results for tests.
type MockPublisher struct {
	mu      sync.Mutex
	Results []*model.OptimizationResult
	Err     error
}

func (m *MockPublisher) PublishResult(_ context.Context, result *model.OptimizationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Results = append(m.Results, result)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Published returns a snapshot of the recorded results.
func (m *MockPublisher) Published() []*model.OptimizationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.OptimizationResult, len(m.Results))
	copy(out, m.Results)
	return out
}
