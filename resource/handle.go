package resource

import "strconv"

// Handle is a generational identity for one host object.
// The low 32 bits hold the slot index (1-based), the high 32 bits the slot
// generation. Handle 0 is the null identity and never names an object.
type Handle uint64

// Null is the null identity.
const Null Handle = 0

// MakeHandle packs a slot index and generation.
func MakeHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

// Index returns the 1-based slot index.
func (h Handle) Index() uint32 { return uint32(h) }

// Generation returns the slot generation.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// IsNull reports whether h is the null identity.
func (h Handle) IsNull() bool { return h.Index() == 0 }

// String renders the handle as index.generation.
func (h Handle) String() string {
	if h.IsNull() {
		return "null"
	}
	return strconv.FormatUint(uint64(h.Index()), 10) + "." + strconv.FormatUint(uint64(h.Generation()), 10)
}

// Type tags the kind of host entity stored in a slot.
type Type uint8

const (
	TypeNone Type = iota
	TypeClient
	TypeMonitor
)

func (t Type) String() string {
	switch t {
	case TypeClient:
		return "client"
	case TypeMonitor:
		return "monitor"
	default:
		return "none"
	}
}

// Dropper is optionally implemented by values that need cleanup when their
// slot is dropped.
type Dropper interface {
	Drop()
}
