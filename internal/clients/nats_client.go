package clients

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"shieldpool/internal/config"
	"shieldpool/internal/metrics"
)

// Subjects published by the pool service. Consumers (indexers, wallets
// scanning for stealth payments) subscribe to these.
const (
	SubjectCommitmentInserted = "shieldpool.commitment.inserted"
	SubjectNullifierSpent     = "shieldpool.nullifier.spent"
	SubjectAssetShielded      = "shieldpool.asset.shielded"
	SubjectAssetUnshielded    = "shieldpool.asset.unshielded"
	SubjectRootUpdated        = "shieldpool.root.updated"
	SubjectRelayExecuted      = "shieldpool.relay.executed"
)

// NATSClient wraps the NATS connection used to broadcast pool events.
type NATSClient struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNATSClient connects to the NATS server and opens a JetStream context.
func NewNATSClient(url string) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	if config.AppConfig != nil && config.AppConfig.NATS.Timeout > 0 {
		connectTimeout = time.Duration(config.AppConfig.NATS.Timeout) * time.Second
	}

	reconnectWait := 5 * time.Second
	if config.AppConfig != nil && config.AppConfig.NATS.ReconnectWait > 0 {
		reconnectWait = time.Duration(config.AppConfig.NATS.ReconnectWait) * time.Second
	}

	conn, err := nats.Connect(url,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)

	return &NATSClient{conn: conn, js: js}, nil
}

// Publish marshals the payload and publishes it on the subject.
func (c *NATSClient) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.NATSPublishErrors.WithLabelValues(subject).Inc()
		return fmt.Errorf("marshal event payload: %w", err)
	}

	if err := c.conn.Publish(subject, data); err != nil {
		metrics.NATSPublishErrors.WithLabelValues(subject).Inc()
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	metrics.NATSMessagesPublished.WithLabelValues(subject).Inc()
	return nil
}

// Subscribe registers a raw message handler on the subject.
func (c *NATSClient) Subscribe(subject string, handler func(data []byte, subject string)) error {
	_, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data, msg.Subject)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (c *NATSClient) Close() {
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			log.Printf("NATS drain failed: %v", err)
		}
	}
}
