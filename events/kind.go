package events

import (
	"github.com/agnivade/levenshtein"

	"github.com/wippyai/wmbridge/errors"
)

// Kind identifies a lifecycle event category.
type Kind uint8

const (
	ObjectMapped Kind = iota
	ObjectUnmapped
	FocusGained
	FocusLost
	TitleChanged
	FullscreenChanged
	FloatingChanged

	kindCount
)

var kindNames = [kindCount]string{
	ObjectMapped:      "object-mapped",
	ObjectUnmapped:    "object-unmapped",
	FocusGained:       "focus-gained",
	FocusLost:         "focus-lost",
	TitleChanged:      "title-changed",
	FullscreenChanged: "fullscreen-changed",
	FloatingChanged:   "floating-changed",
}

// maxSuggestDistance bounds how far a misspelled name may be from a known
// one before no suggestion is offered.
const maxSuggestDistance = 3

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k < kindCount
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a kind name. Unknown names produce an unknown_event
// error suggesting the closest known name.
func ParseKind(name string) (Kind, error) {
	best, bestDist := "", maxSuggestDistance+1
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
		if d := levenshtein.ComputeDistance(name, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return 0, errors.UnknownEvent(name, best)
}
