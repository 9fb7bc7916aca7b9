package grant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-tacklebox/internal/driver"
	"github.com/pixil98/go-tacklebox/internal/messaging"
)

// Broker is the message transport the endpoint listens on.
type Broker interface {
	Ready() <-chan struct{}
	Subscribe(subject string, handler messaging.Handler) (func(), error)
	Publish(subject string, data []byte) error
}

// Submitter runs jobs on the control loop.
type Submitter interface {
	Submit(ctx context.Context, job driver.Job) error
}

// Endpoint connects a Server to the broker. Each request is handed to the
// driver so the server only ever runs on the control loop; the answer goes to
// the request's reply subject.
type Endpoint struct {
	server  *Server
	broker  Broker
	loop    Submitter
	subject string
}

func NewEndpoint(server *Server, broker Broker, loop Submitter, subject string) *Endpoint {
	return &Endpoint{
		server:  server,
		broker:  broker,
		loop:    loop,
		subject: subject,
	}
}

func (e *Endpoint) Start(ctx context.Context) error {
	select {
	case <-e.broker.Ready():
	case <-ctx.Done():
		return nil
	}

	unsub, err := e.broker.Subscribe(e.subject, func(data []byte, reply string) {
		err := e.loop.Submit(ctx, func(ctx context.Context) {
			if err := e.server.Handle(ctx, data, e.replier(reply)); err != nil {
				slog.WarnContext(ctx, "handling grant message", "subject", e.subject, "error", err)
			}
		})
		if err != nil {
			slog.WarnContext(ctx, "queueing grant message", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", e.subject, err)
	}
	defer unsub()

	slog.InfoContext(ctx, "grant endpoint listening", "subject", e.subject)
	<-ctx.Done()
	return nil
}

func (e *Endpoint) replier(subject string) Reply {
	return func(data []byte) error {
		if subject == "" {
			return fmt.Errorf("request has no reply subject")
		}
		return e.broker.Publish(subject, data)
	}
}
