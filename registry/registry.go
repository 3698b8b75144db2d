package registry

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/resource"
)

// Options configures a Registry.
type Options struct {
	Logger *zap.Logger
}

// DefaultOptions returns default registry configuration.
func DefaultOptions() Options {
	return Options{}
}

// Entry is a snapshot of the tracking state for one identity.
type Entry struct {
	ID    resource.Handle
	Refs  int
	Valid bool
}

type tracked struct {
	refs  int
	valid bool
}

// Registry maps identities to reference counts and validity.
type Registry struct {
	handles map[resource.Handle]*tracked
	log     *zap.Logger
	closed  bool
}

// New creates an empty registry.
func New(opts Options) *Registry {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		handles: make(map[resource.Handle]*tracked),
		log:     log.Named("registry"),
	}
}

// NewWithDefaults creates a registry with default options.
func NewWithDefaults() *Registry {
	return New(DefaultOptions())
}

// Acquire records one more reference to id, creating a valid handle on first
// use. It returns false only for the null identity or after Close.
func (r *Registry) Acquire(id resource.Handle) (Entry, bool) {
	if r.closed {
		return Entry{}, false
	}
	if id.IsNull() {
		r.log.Warn("acquire of null identity", zap.Error(errors.Usage(errors.PhaseRegistry, id.String(), "acquire")))
		return Entry{}, false
	}

	h, ok := r.handles[id]
	if !ok {
		h = &tracked{valid: true}
		r.handles[id] = h
	}
	h.refs++
	return Entry{ID: id, Refs: h.refs, Valid: h.valid}, true
}

// Release drops one reference to id. A release that would go below zero is a
// contract violation; it is logged and ignored.
func (r *Registry) Release(id resource.Handle) {
	if r.closed {
		return
	}
	if id.IsNull() {
		r.log.Debug("release of null identity")
		return
	}

	h, ok := r.handles[id]
	if !ok {
		r.log.Debug("release of unknown identity", zap.Stringer("id", id))
		return
	}
	if h.refs == 0 {
		r.log.Warn("release without matching acquire",
			zap.Stringer("id", id),
			zap.Error(errors.Usage(errors.PhaseRegistry, id.String(), "reference count already zero")))
		return
	}

	h.refs--
	r.purge(id, h)
}

// Invalidate marks id as destroyed by the host. Idempotent. The handle is
// purged right away if nothing references it.
func (r *Registry) Invalidate(id resource.Handle) {
	if r.closed || id.IsNull() {
		return
	}

	h, ok := r.handles[id]
	if !ok {
		r.log.Debug("invalidate of unknown identity", zap.Stringer("id", id))
		return
	}

	h.valid = false
	r.purge(id, h)
}

func (r *Registry) purge(id resource.Handle, h *tracked) {
	if !h.valid && h.refs == 0 {
		delete(r.handles, id)
		r.log.Debug("purged", zap.Stringer("id", id))
	}
}

// IsValid reports whether id is tracked and not yet destroyed.
func (r *Registry) IsValid(id resource.Handle) bool {
	if r.closed || id.IsNull() {
		return false
	}
	h, ok := r.handles[id]
	return ok && h.valid
}

// Lookup returns the tracking state for id.
func (r *Registry) Lookup(id resource.Handle) (Entry, bool) {
	if r.closed {
		return Entry{}, false
	}
	h, ok := r.handles[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{ID: id, Refs: h.refs, Valid: h.valid}, true
}

// Len returns the number of tracked handles.
func (r *Registry) Len() int {
	return len(r.handles)
}

// Refs returns the sum of all reference counts.
func (r *Registry) Refs() int {
	total := 0
	for _, h := range r.handles {
		total += h.refs
	}
	return total
}

// Entries returns a snapshot of every handle ordered by identity.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.handles))
	for id, h := range r.handles {
		out = append(out, Entry{ID: id, Refs: h.refs, Valid: h.valid})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dump renders the table for diagnostics.
func (r *Registry) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "registry: %d handles, %d refs\n", r.Len(), r.Refs())
	for _, e := range r.Entries() {
		state := "valid"
		if !e.Valid {
			state = "invalid"
		}
		fmt.Fprintf(&b, "  %-10s refs=%d %s\n", e.ID, e.Refs, state)
	}
	return b.String()
}

// Close reports leaks and clears the table. Handles with outstanding
// references are logged and returned.
func (r *Registry) Close() []Entry {
	if r.closed {
		return nil
	}

	var leaks []Entry
	for _, e := range r.Entries() {
		if e.Refs > 0 {
			leaks = append(leaks, e)
			r.log.Warn("leaked reference",
				zap.Stringer("id", e.ID),
				zap.Int("refs", e.Refs),
				zap.Bool("valid", e.Valid),
				zap.Error(errors.Leak(e.ID.String(), e.Refs, e.Valid)))
		}
	}

	r.handles = make(map[resource.Handle]*tracked)
	r.closed = true
	return leaks
}
