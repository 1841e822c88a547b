package manager

import (
	"go.uber.org/zap"

	"github.com/geniusgordon/agentmux/acp"
)

// defaultQueueSize bounds the manager's event queue. Sized so a burst of
// streaming deltas from several clients never blocks their dispatch loops.
const defaultQueueSize = 4096

// Options holds resolved construction-time configuration for a Manager.
type Options struct {
	// Logger receives fleet lifecycle diagnostics.
	Logger *zap.Logger

	// QueueSize is the event queue capacity.
	QueueSize int

	// ClientOptions are appended to every spawned client's options.
	ClientOptions []acp.Option
}

// Option configures a Manager at construction time.
type Option func(*Options)

// WithLogger sets the manager logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithQueueSize sets the event queue capacity. Values <= 0 are ignored.
func WithQueueSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.QueueSize = n
		}
	}
}

// WithClientOptions appends options applied to every spawned client.
func WithClientOptions(opts ...acp.Option) Option {
	return func(o *Options) {
		o.ClientOptions = append(o.ClientOptions, opts...)
	}
}

func resolveOptions(opts ...Option) Options {
	o := Options{
		Logger:    zap.NewNop(),
		QueueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
