package driver

import "time"

type DriverOpt func(*Driver)

func WithTickLength(tickLength time.Duration) DriverOpt {
	return func(d *Driver) {
		d.tickLength = tickLength
	}
}

// WithQueueSize sets how many jobs may wait for the loop before Submit blocks.
func WithQueueSize(n int) DriverOpt {
	return func(d *Driver) {
		if n > 0 {
			d.queueSize = n
		}
	}
}
