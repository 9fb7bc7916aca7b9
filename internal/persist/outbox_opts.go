package persist

import "time"

type OutboxOpt func(*Outbox)

func WithQueueSize(n int) OutboxOpt {
	return func(o *Outbox) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithTimeout bounds each delivery to the sink.
func WithTimeout(d time.Duration) OutboxOpt {
	return func(o *Outbox) {
		if d > 0 {
			o.timeout = d
		}
	}
}
