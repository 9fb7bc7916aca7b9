package messaging

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NatsClient is a plain connection to a remote broker, used by game clients.
type NatsClient struct {
	conn *nats.Conn
}

func Connect(url string, name string) (*NatsClient, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return &NatsClient{conn: conn}, nil
}

func (c *NatsClient) Subscribe(subject string, handler Handler) (func(), error) {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data, msg.Reply)
	})
	if err != nil {
		return nil, err
	}
	// The subscription is live on the broker once Subscribe returns.
	if err := c.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (c *NatsClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// PublishRequest sends data on subject asking for the reply to go to reply.
func (c *NatsClient) PublishRequest(subject, reply string, data []byte) error {
	return c.conn.PublishRequest(subject, reply, data)
}

func (c *NatsClient) Flush() error {
	return c.conn.Flush()
}

func (c *NatsClient) Close() {
	c.conn.Close()
}
