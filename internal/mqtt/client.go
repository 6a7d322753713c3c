package mqtt

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"aquaculture-platform/pkg/logging"
)

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Client manages the broker connection
type Client struct {
	client mqtt.Client
	config ClientConfig
	logger *logging.StructuredLogger
}

// NewClient connects to the broker; reconnects are handled by paho
func NewClient(config ClientConfig, logger *logging.StructuredLogger) (*Client, error) {
	ctx := context.Background()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info(ctx, "[MQTT_CONNECTED] Connection to broker established", logging.Fields{
			"broker": config.Broker,
		})
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn(ctx, "[MQTT_CONNECTION_LOST] Connection to broker lost", logging.Fields{
			"broker": config.Broker,
			"error":  err.Error(),
		})
	})

	client := mqtt.NewClient(opts)

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timed out after %s", config.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return &Client{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Native returns the underlying paho client
func (c *Client) Native() mqtt.Client {
	return c.client
}

// IsConnected returns whether the client is currently connected
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects, giving in-flight messages 250ms to complete
func (c *Client) Close() {
	c.client.Disconnect(250)
	c.logger.Info(context.Background(), "[MQTT_DISCONNECTED] Disconnected from broker", logging.Fields{
		"broker": c.config.Broker,
	})
}
