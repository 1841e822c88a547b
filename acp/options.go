package acp

import (
	"time"

	"go.uber.org/zap"

	"github.com/geniusgordon/agentmux"
)

// Default client configuration values.
const (
	defaultGracePeriod    = 5 * time.Second
	defaultMaxMessageSize = 4 << 20 // max JSON-RPC message size for the scanner
	updateQueueSize       = 1024    // decouples notification dispatch from ReadLoop
)

// EventSink receives every event a client produces. Called from the client's
// dispatch goroutine; implementations must not block indefinitely.
type EventSink func(agentmux.Event)

// ApprovalSink receives a snapshot of each permission request the moment it
// is parked in the registry.
type ApprovalSink func(agentmux.PermissionRequest)

// Options holds resolved construction-time configuration for a Client.
type Options struct {
	// ExtraArgs are appended to the adapter's spawn arguments.
	ExtraArgs []string

	// PermissionMode is mapped to vendor flags via Adapter.PermissionArgs.
	PermissionMode agentmux.PermissionMode

	// GracePeriod is the wait after SIGTERM before SIGKILL.
	GracePeriod time.Duration

	// MaxMessageSize is the maximum JSON-RPC message size in bytes.
	MaxMessageSize int

	// Events receives every event the client produces.
	Events EventSink

	// Approvals receives each parked permission request.
	Approvals ApprovalSink

	// Logger receives lifecycle and dispatch diagnostics.
	Logger *zap.Logger
}

// Option configures a Client at construction time.
type Option func(*Options)

// WithExtraArgs appends arguments after the adapter's own spawn arguments.
func WithExtraArgs(args ...string) Option {
	return func(o *Options) {
		o.ExtraArgs = args
	}
}

// WithPermissionMode sets the cross-vendor permission mode applied at spawn.
func WithPermissionMode(mode agentmux.PermissionMode) Option {
	return func(o *Options) {
		if mode != "" {
			o.PermissionMode = mode
		}
	}
}

// WithGracePeriod sets the wait after SIGTERM before SIGKILL.
// Values <= 0 are ignored.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.GracePeriod = d
		}
	}
}

// WithMaxMessageSize sets the scanner's message size limit.
// Values <= 0 are ignored.
func WithMaxMessageSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxMessageSize = n
		}
	}
}

// WithEventSink sets the event callback.
func WithEventSink(sink EventSink) Option {
	return func(o *Options) {
		o.Events = sink
	}
}

// WithApprovalSink sets the permission-request callback.
func WithApprovalSink(sink ApprovalSink) Option {
	return func(o *Options) {
		o.Approvals = sink
	}
}

// WithLogger sets the client logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func resolveOptions(opts ...Option) Options {
	o := Options{
		PermissionMode: agentmux.PermissionDefault,
		GracePeriod:    defaultGracePeriod,
		MaxMessageSize: defaultMaxMessageSize,
		Logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
