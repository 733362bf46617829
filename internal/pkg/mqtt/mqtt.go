package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
)

const (
	deviceName    = "Pool Monitor"
	deviceModel   = "iAqualink"
	manufacturer  = "Jandy"
	topicPrefix   = "homeassistant/sensor"
	publishWait   = 10 * time.Second
	connectWait   = 5 * time.Second
	clientIDStart = "pool-monitor-"
)

type client interface {
	Connect() paho_mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token
}

type service struct {
	client     client
	registered bool
	lastValues map[string]string
}

func New(client client) *service {
	return &service{
		client:     client,
		lastValues: make(map[string]string),
	}
}

// NewClient builds a paho client for the configured broker.
func NewClient(cfg config.MqttConfig) paho_mqtt.Client {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(cfg.Host).
		SetClientID(clientIDStart + uuid.NewString()[:8]).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false)
	return paho_mqtt.NewClient(opts)
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(connectWait)
	if res {
		return token.Error()
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to connect in time")
}

func (s *service) publish(topic string, retained bool, payload []byte) error {
	token := s.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishWait) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}
