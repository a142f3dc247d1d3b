package engine

import "time"

// Options tunes the engine's workers.
type Options struct {
	// ShutdownTimeout bounds how long Stop waits for the workers to exit.
	ShutdownTimeout time.Duration
	// BroadcastInterval is the market-data broadcaster period.
	BroadcastInterval time.Duration
	// QueueCapacity sizes the intake buffer. SubmitOrder blocks only while it is full.
	QueueCapacity int
}

func DefaultOptions() Options {
	return Options{
		ShutdownTimeout:   5 * time.Second,
		BroadcastInterval: time.Second,
		QueueCapacity:     1 << 16,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if o.BroadcastInterval <= 0 {
		o.BroadcastInterval = defaults.BroadcastInterval
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = defaults.QueueCapacity
	}
	return o
}
