package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSClient publishes events to subjects of the form <prefix>.<type>.
type NATSClient struct {
	conn   *nats.Conn
	prefix string
	subs   []*nats.Subscription
	logger *slog.Logger
}

// NewNATSClient connects to url, retrying in the background if the server is not up yet.
func NewNATSClient(url, token, prefix string, logger *slog.Logger) (*NATSClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []nats.Option{
		nats.Name("z-honeypot"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "honeypot"
	}
	return &NATSClient{conn: nc, prefix: prefix, logger: logger}, nil
}

// Subject returns the subject events of type t are published on.
func (c *NATSClient) Subject(t Type) string {
	return c.prefix + "." + string(t)
}

// Publish sends evt, logging rather than returning failures.
func (c *NATSClient) Publish(evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		c.logger.Warn("marshal event", "type", evt.Type, "error", err)
		return
	}
	if err := c.conn.Publish(c.Subject(evt.Type), payload); err != nil {
		c.logger.Warn("publish event", "type", evt.Type, "session_id", evt.SessionID, "error", err)
	}
}

// Subscribe delivers every event under the prefix to handler.
func (c *NATSClient) Subscribe(handler func(Event)) error {
	subject := c.prefix + ".>"
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			c.logger.Warn("decode event", "subject", msg.Subject, "error", err)
			return
		}
		handler(evt)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Close unsubscribes and flushes pending publishes before closing the connection.
func (c *NATSClient) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Flush(); err != nil {
		c.logger.Debug("nats flush on close", "error", err)
	}
	c.conn.Close()
}
