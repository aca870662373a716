package refill

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultName         = "default"
	defaultRetryInitial = 10 * time.Millisecond
	defaultRetryMax     = time.Second
)

// options holds the optional settings of a Pool.
type options struct {
	name         string
	logger       *zap.Logger
	onDrop       any // func(T) of the pool's item type
	retryInitial time.Duration
	retryMax     time.Duration
}

// Option configures a Pool.
type Option func(*options)

// WithLogger sets the logger used by the pool and its refiller.
// A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels the pool in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithOnDrop registers a hook called with every item the queue had no room
// for, either on Release or during a refill racing with Release.
// New rejects a hook whose T is not the pool's item type.
func WithOnDrop[T any](hook func(T)) Option {
	return func(o *options) {
		if hook == nil {
			o.onDrop = nil
			return
		}
		o.onDrop = hook
	}
}

// WithRetryBackoff sets the exponential backoff bounds used by the refiller
// to retry a refill pass whose factory call panicked.
func WithRetryBackoff(initial, max time.Duration) Option {
	return func(o *options) {
		if initial > 0 {
			o.retryInitial = initial
		}
		if max > 0 {
			o.retryMax = max
		}
		if o.retryMax < o.retryInitial {
			o.retryMax = o.retryInitial
		}
	}
}

func defaultOptions() options {
	return options{
		name:         defaultName,
		logger:       zap.NewNop(),
		retryInitial: defaultRetryInitial,
		retryMax:     defaultRetryMax,
	}
}
