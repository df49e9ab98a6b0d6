// Package bus establishes the shared MQTT connection carrying both the
// published input services and the mirrored settings.
package bus

import (
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Connect dials the broker and blocks until the connection is up or the
// attempt times out. The client auto-reconnects afterwards; paho redelivers
// subscriptions on reconnect.
func Connect(broker string) (paho.Client, error) {
	clientID := "digital-inputs-" + uuid.NewString()[:8]

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	opts.OnConnect = func(paho.Client) {
		slog.Info("mqtt connected", "broker", broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		slog.Warn("mqtt connection lost", "broker", broker, "error", err)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return client, nil
}
