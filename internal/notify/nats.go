package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubjectPrefix namespaces every subject this service publishes on.
const SubjectPrefix = "ddjj"

// NATSPublisher publishes events on ddjj.<event>. All publish operations are
// non-fatal: errors are logged and dropped.
type NATSPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// ConnectNATS dials the server at url with reconnects enabled.
func ConnectNATS(url string, log zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("ddjj-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats: disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats: reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return NewNATSPublisher(conn, log), nil
}

func NewNATSPublisher(conn *nats.Conn, log zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, log: log}
}

// Subject returns the subject an event type is published on.
func Subject(eventType string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, eventType)
}

func (p *NATSPublisher) Publish(_ context.Context, event Event) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event", event.Event).Msg("nats: failed to marshal event")
		return
	}

	subject := Subject(event.Event)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).Str("subject", subject).Msg("nats: failed to publish event (non-fatal)")
		return
	}

	p.log.Debug().Str("subject", subject).Msg("nats: event published")
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
