package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConn is the part of a NATS connection used to fan alerts out
type NATSConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes alert JSON on a NATS subject
type NATSPublisher struct {
	conn    NATSConn
	subject string
}

// ConnectNATS dials url, retrying in the background when the server is not up yet
func ConnectNATS(url string, timeout time.Duration) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	conn, err := nats.Connect(url,
		nats.Name("command-bot"),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NewNATSPublisher creates a sink publishing on subject
func NewNATSPublisher(conn NATSConn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Name implements Sink
func (p *NATSPublisher) Name() string {
	return "nats"
}

// Deliver implements Sink
func (p *NATSPublisher) Deliver(_ context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}
