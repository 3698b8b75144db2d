package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/resource"
)

// Ref is one unit of scripting-side ownership of a host object. Creating a
// Ref acquires the identity; Release gives it back exactly once.
type Ref struct {
	bridge   *Bridge
	id       resource.Handle
	typ      resource.Type
	released bool
}

// Wrap acquires id on behalf of the engine. It fails for the null identity
// and for identities the host no longer owns.
func (b *Bridge) Wrap(id resource.Handle) (*Ref, error) {
	if b.closed {
		return nil, errors.Closed(errors.PhaseBridge, "bridge")
	}
	if id.IsNull() {
		return nil, errors.Usage(errors.PhaseBridge, id.String(), "wrap of null identity")
	}
	typ, ok := b.host.Type(id)
	if !ok {
		return nil, b.stale(id, "wrap")
	}
	if _, ok := b.registry.Acquire(id); !ok {
		return nil, errors.Usage(errors.PhaseBridge, id.String(), "acquire refused")
	}
	return &Ref{bridge: b, id: id, typ: typ}, nil
}

// Unwrap returns the identity behind ref. A nil ref yields the null identity.
func (b *Bridge) Unwrap(ref *Ref) resource.Handle {
	if ref == nil {
		return resource.Null
	}
	return ref.id
}

// ID returns the wrapped identity.
func (r *Ref) ID() resource.Handle { return r.id }

// Type returns the entity type captured at wrap time.
func (r *Ref) Type() resource.Type { return r.typ }

// Valid reports whether the wrapped object is still alive.
func (r *Ref) Valid() bool {
	return r.bridge.registry.IsValid(r.id)
}

// Released reports whether Release has run.
func (r *Ref) Released() bool { return r.released }

// Release gives the reference back to the registry. Safe to call more than
// once; only the first call counts.
func (r *Ref) Release() {
	if r.released {
		return
	}
	r.released = true
	r.bridge.registry.Release(r.id)
	r.bridge.log.Debug("ref released", zap.Stringer("id", r.id))
}
