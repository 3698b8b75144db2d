package events

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/resource"
)

// DefaultCapacity is the per-kind subscriber limit when none is configured.
const DefaultCapacity = 32

// Token identifies a subscriber for later removal. Tokens are chosen by the
// subscribing side and need not be unique.
type Token uint64

// Event is delivered to subscribers. Subject is resource.Null when the event
// has no subject; Payload is nil when it carries no payload.
type Event struct {
	Payload any
	Subject resource.Handle
	Kind    Kind
}

// Handler receives events.
type Handler interface {
	HandleEvent(Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event) error

func (f HandlerFunc) HandleEvent(e Event) error { return f(e) }

// Releaser is optionally implemented by handlers that hold engine-side
// references. Release is called once when the bus is closed.
type Releaser interface {
	Release()
}

// Options configures a Bus.
type Options struct {
	Logger   *zap.Logger
	Capacity int
}

// DefaultOptions returns default bus configuration.
func DefaultOptions() Options {
	return Options{Capacity: DefaultCapacity}
}

type subscription struct {
	handler Handler
	token   Token
}

// Bus keeps an ordered, bounded subscriber list per Kind and dispatches
// events synchronously. Not thread-safe.
type Bus struct {
	log      *zap.Logger
	lists    [kindCount][]subscription
	capacity int
	closed   bool
}

// New creates an empty bus.
func New(opts Options) *Bus {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		log:      log.Named("events"),
		capacity: capacity,
	}
}

// NewWithDefaults creates a bus with default options.
func NewWithDefaults() *Bus {
	return New(DefaultOptions())
}

// Capacity returns the per-kind subscriber limit.
func (b *Bus) Capacity() int {
	return b.capacity
}

// Connect appends a subscriber to kind's list and returns its position.
func (b *Bus) Connect(kind Kind, token Token, h Handler) (int, error) {
	if b.closed {
		return -1, errors.Closed(errors.PhaseEvents, "event bus")
	}
	if !kind.Valid() {
		return -1, errors.UnknownEvent(fmt.Sprintf("kind(%d)", kind), "")
	}
	if h == nil {
		return -1, errors.InvalidInput(errors.PhaseEvents, "nil handler")
	}

	list := b.lists[kind]
	if len(list) >= b.capacity {
		return -1, errors.Capacity(kind.String(), b.capacity)
	}

	b.lists[kind] = append(list, subscription{token: token, handler: h})
	return len(list), nil
}

// Disconnect removes the first subscriber registered with token. The order
// of the remaining subscribers is preserved.
func (b *Bus) Disconnect(kind Kind, token Token) bool {
	if b.closed || !kind.Valid() {
		return false
	}

	list := b.lists[kind]
	for i, s := range list {
		if s.token == token {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = subscription{}
			b.lists[kind] = list[:len(list)-1]
			return true
		}
	}
	return false
}

// Emit invokes kind's subscribers in registration order and returns how many
// of them failed. Subscribers connected or disconnected by a callback during
// the emission do not affect the set being dispatched.
func (b *Bus) Emit(kind Kind, subject resource.Handle, payload any) int {
	if b.closed || !kind.Valid() {
		return 0
	}

	list := b.lists[kind]
	if len(list) == 0 {
		return 0
	}
	snapshot := make([]subscription, len(list))
	copy(snapshot, list)

	ev := Event{Kind: kind, Subject: subject, Payload: payload}
	failed := 0
	for i, s := range snapshot {
		if err := b.dispatch(s, ev); err != nil {
			failed++
			b.log.Error("subscriber failed",
				zap.String("kind", kind.String()),
				zap.Uint64("token", uint64(s.token)),
				zap.Int("position", i),
				zap.Stringer("subject", subject),
				zap.Error(errors.Subscriber(kind.String(), uint64(s.token), err)))
		}
	}
	return failed
}

func (b *Bus) dispatch(s subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler.HandleEvent(ev)
}

// Subscribers returns the tokens registered for kind in order.
func (b *Bus) Subscribers(kind Kind) []Token {
	if !kind.Valid() {
		return nil
	}
	list := b.lists[kind]
	out := make([]Token, len(list))
	for i, s := range list {
		out[i] = s.token
	}
	return out
}

// Len returns the number of subscribers for kind.
func (b *Bus) Len(kind Kind) int {
	if !kind.Valid() {
		return 0
	}
	return len(b.lists[kind])
}

// Close releases every remaining handler and clears all lists. Further
// operations are no-ops.
func (b *Bus) Close() {
	if b.closed {
		return
	}
	b.closed = true

	for k := range b.lists {
		list := b.lists[k]
		b.lists[k] = nil
		for _, s := range list {
			if r, ok := s.handler.(Releaser); ok {
				r.Release()
			}
		}
	}
}
