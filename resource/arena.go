package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("resource arena closed")

// Arena is a slot allocator issuing generational handles for host objects.
// Dropping a slot bumps its generation, so a recycled slot never answers to a
// handle issued for its previous occupant.
type Arena struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	gen   uint32
	typ   Type
	live  bool
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns its handle.
func (a *Arena) Create(typ Type, value any) (Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return Null, ErrClosed
	}

	if len(a.freeList) > 0 {
		idx := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		e := &a.entries[idx-1]
		e.value = value
		e.typ = typ
		e.live = true
		return MakeHandle(idx, e.gen), nil
	}

	a.entries = append(a.entries, entry{value: value, typ: typ, live: true})
	return MakeHandle(uint32(len(a.entries)), 0), nil
}

// lookup returns the live entry for h. Caller holds the lock.
func (a *Arena) lookup(h Handle) (*entry, bool) {
	if h.IsNull() {
		return nil, false
	}
	idx := h.Index() - 1
	if int(idx) >= len(a.entries) {
		return nil, false
	}
	e := &a.entries[idx]
	if !e.live || e.gen != h.Generation() {
		return nil, false
	}
	return e, true
}

// Get retrieves a value by handle.
func (a *Arena) Get(h Handle) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e, ok := a.lookup(h)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// GetTyped retrieves a value only if its slot holds the expected type.
func (a *Arena) GetTyped(h Handle, typ Type) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e, ok := a.lookup(h)
	if !ok || e.typ != typ {
		return nil, false
	}
	return e.value, true
}

// Type returns the entity type stored under h.
func (a *Arena) Type(h Handle) (Type, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e, ok := a.lookup(h)
	if !ok {
		return TypeNone, false
	}
	return e.typ, true
}

// Contains reports whether h names a live slot.
func (a *Arena) Contains(h Handle) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.lookup(h)
	return ok
}

// Drop frees the slot for h and returns its value. Dropper values are
// dropped before returning.
func (a *Arena) Drop(h Handle) (any, bool) {
	a.mu.Lock()
	e, ok := a.lookup(h)
	if !ok {
		a.mu.Unlock()
		return nil, false
	}

	value := e.value
	e.value = nil
	e.live = false
	e.gen++
	a.freeList = append(a.freeList, h.Index())
	a.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	return value, true
}

// Len returns the number of live slots.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	count := 0
	for _, e := range a.entries {
		if e.live {
			count++
		}
	}
	return count
}

// Each iterates over live slots in index order until fn returns false.
func (a *Arena) Each(fn func(Handle, Type, any) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for i, e := range a.entries {
		if e.live {
			if !fn(MakeHandle(uint32(i+1), e.gen), e.typ, e.value) {
				break
			}
		}
	}
}

// Close drops all live slots and rejects further Create calls.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	for i := range a.entries {
		if a.entries[i].live {
			if d, ok := a.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			a.entries[i].live = false
			a.entries[i].value = nil
		}
	}

	a.entries = nil
	a.freeList = nil
	return nil
}
