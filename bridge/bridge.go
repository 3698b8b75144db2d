package bridge

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/events"
	"github.com/wippyai/wmbridge/registry"
	"github.com/wippyai/wmbridge/resource"
)

// Options configures a Bridge.
type Options struct {
	Logger   *zap.Logger
	Capacity int
}

// DefaultOptions returns default bridge configuration.
func DefaultOptions() Options {
	return Options{Capacity: events.DefaultCapacity}
}

// Stats summarizes tracking and subscription state.
type Stats struct {
	Subscribers map[events.Kind]int
	Handles     int
	Refs        int
}

// Bridge ties the reference registry and the event bus to one host. It is
// the context object handed to host call sites and to the engine binding.
// Not thread-safe.
type Bridge struct {
	host     Host
	registry *registry.Registry
	bus      *events.Bus
	log      *zap.Logger
	session  string
	closed   bool
}

// New creates a bridge for host.
func New(host Host, opts Options) *Bridge {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	session := uuid.NewString()
	log = log.With(zap.String("session", session))

	return &Bridge{
		host:     host,
		registry: registry.New(registry.Options{Logger: log}),
		bus:      events.New(events.Options{Logger: log, Capacity: opts.Capacity}),
		log:      log.Named("bridge"),
		session:  session,
	}
}

// NewWithDefaults creates a bridge with default options.
func NewWithDefaults(host Host) *Bridge {
	return New(host, DefaultOptions())
}

// Session returns the id attached to this bridge's log lines.
func (b *Bridge) Session() string { return b.session }

// Registry returns the reference registry.
func (b *Bridge) Registry() *registry.Registry { return b.registry }

// Bus returns the event bus.
func (b *Bridge) Bus() *events.Bus { return b.bus }

// Host returns the host the bridge reads through.
func (b *Bridge) Host() Host { return b.host }

// Logger returns the bridge logger.
func (b *Bridge) Logger() *zap.Logger { return b.log }

// IsValid reports whether id is tracked and alive.
func (b *Bridge) IsValid(id resource.Handle) bool {
	return b.registry.IsValid(id)
}

// NotifyMapped announces a new object.
func (b *Bridge) NotifyMapped(id resource.Handle) {
	b.Notify(events.ObjectMapped, id, nil)
}

// Notify emits kind for subject with an optional payload.
func (b *Bridge) Notify(kind events.Kind, subject resource.Handle, payload any) {
	if b.closed {
		return
	}
	b.bus.Emit(kind, subject, payload)
}

// NotifyFocus emits focus-lost for prev and focus-gained for next. Null
// sides are skipped.
func (b *Bridge) NotifyFocus(prev, next resource.Handle) {
	if prev == next {
		return
	}
	if !prev.IsNull() {
		b.Notify(events.FocusLost, prev, nil)
	}
	if !next.IsNull() {
		b.Notify(events.FocusGained, next, nil)
	}
}

// NotifyDestroyed runs the destruction protocol: subscribers see
// object-unmapped while id is still valid, then id is invalidated. The host
// must call this before releasing the object.
func (b *Bridge) NotifyDestroyed(id resource.Handle) {
	if b.closed {
		return
	}
	if id.IsNull() {
		b.log.Warn("destroy notification for null identity")
		return
	}
	b.bus.Emit(events.ObjectUnmapped, id, nil)
	b.registry.Invalidate(id)
}

// Stats returns current counts.
func (b *Bridge) Stats() Stats {
	s := Stats{
		Handles:     b.registry.Len(),
		Refs:        b.registry.Refs(),
		Subscribers: make(map[events.Kind]int),
	}
	for _, k := range events.Kinds() {
		s.Subscribers[k] = b.bus.Len(k)
	}
	return s
}

// Close tears down the bus, then the registry, and returns leaked entries.
func (b *Bridge) Close() []registry.Entry {
	if b.closed {
		return nil
	}
	b.closed = true
	b.bus.Close()
	leaks := b.registry.Close()
	if len(leaks) > 0 {
		b.log.Warn("bridge closed with outstanding references", zap.Int("leaks", len(leaks)))
	}
	return leaks
}

func (b *Bridge) stale(id resource.Handle, accessor string) error {
	err := errors.StaleAccess(errors.PhaseBridge, id.String(), accessor)
	b.log.Debug("stale access", zap.Stringer("id", id), zap.String("accessor", accessor))
	return err
}
