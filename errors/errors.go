package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which component raised the error
type Phase string

const (
	PhaseRegistry Phase = "registry" // reference tracking
	PhaseEvents   Phase = "events"   // subscriber lists and dispatch
	PhaseBridge   Phase = "bridge"   // wrap/unwrap and accessors
	PhaseScript   Phase = "script"   // scripting engine binding
	PhaseHost     Phase = "host"     // compositor model
	PhaseConfig   Phase = "config"   // settings loading
)

// Kind categorizes the error
type Kind string

const (
	KindUsage        Kind = "usage"
	KindCapacity     Kind = "capacity"
	KindSubscriber   Kind = "subscriber"
	KindLeak         Kind = "leak"
	KindStaleAccess  Kind = "stale_access"
	KindUnknownEvent Kind = "unknown_event"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindClosed       Kind = "closed"
	KindLoad         Kind = "load"
)

// Sentinels for errors.Is. They carry no Phase and match on Kind alone.
var (
	ErrUsage        = &Error{Kind: KindUsage}
	ErrCapacity     = &Error{Kind: KindCapacity}
	ErrSubscriber   = &Error{Kind: KindSubscriber}
	ErrStaleAccess  = &Error{Kind: KindStaleAccess}
	ErrUnknownEvent = &Error{Kind: KindUnknownEvent}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrClosed       = &Error{Kind: KindClosed}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrLoad         = &Error{Kind: KindLoad}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Subject string
	Event   string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Event != "" {
		b.WriteString(" on ")
		b.WriteString(e.Event)
	}

	if e.Subject != "" {
		b.WriteString(" for ")
		b.WriteString(e.Subject)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without Phase matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Subject sets the identity the error is about
func (b *Builder) Subject(s string) *Builder {
	b.err.Subject = s
	return b
}

// Event sets the event kind name
func (b *Builder) Event(name string) *Builder {
	b.err.Event = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Usage creates a contract-violation error (null or unknown identity).
func Usage(phase Phase, subject, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUsage,
		Subject: subject,
		Detail:  detail,
	}
}

// Capacity creates a subscriber-list-full error
func Capacity(event string, limit int) *Error {
	return &Error{
		Phase:  PhaseEvents,
		Kind:   KindCapacity,
		Event:  event,
		Detail: fmt.Sprintf("subscriber list full (capacity %d)", limit),
		Value:  limit,
	}
}

// Subscriber creates an error for a failed callback invocation
func Subscriber(event string, token uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseEvents,
		Kind:   KindSubscriber,
		Event:  event,
		Detail: fmt.Sprintf("subscriber %d failed", token),
		Value:  token,
		Cause:  cause,
	}
}

// Leak creates a teardown leak report for a handle with outstanding references
func Leak(subject string, refs int, valid bool) *Error {
	return &Error{
		Phase:   PhaseRegistry,
		Kind:    KindLeak,
		Subject: subject,
		Detail:  fmt.Sprintf("%d outstanding references (valid=%t)", refs, valid),
		Value:   refs,
	}
}

// StaleAccess creates an error for an accessor called on an invalidated identity
func StaleAccess(phase Phase, subject, accessor string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindStaleAccess,
		Subject: subject,
		Detail:  accessor + " on destroyed object",
	}
}

// UnknownEvent creates an error for an unrecognized event kind name.
// suggestion may be empty.
func UnknownEvent(name, suggestion string) *Error {
	e := &Error{
		Phase: PhaseEvents,
		Kind:  KindUnknownEvent,
		Event: name,
		Value: name,
	}
	if suggestion != "" {
		e.Detail = fmt.Sprintf("did you mean %q?", suggestion)
	}
	return e
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, subject, what string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindNotFound,
		Subject: subject,
		Detail:  what + " not found",
	}
}

// Closed creates an error for an operation on a torn-down component
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " closed",
	}
}

// Load creates a script or config loading error
func Load(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLoad,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
