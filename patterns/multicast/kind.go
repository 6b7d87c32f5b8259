package multicast

import (
	"math/bits"
	"strconv"
	"strings"
)

// Kind is the category tag of an [Event].
// Kinds form a closed set declared by the publishing domain, and a listener's interest is a membership test against that set.
//
// [KindNone] is reserved and is never delivered.
type Kind uint8

const (
	KindNone Kind = 0  // KindNone is reserved to detect events with missing kind information.
	MaxKind  Kind = 63 // MaxKind is the largest Kind that may be used with a KindSet.
)

// Valid reports whether k may be dispatched.
func (k Kind) Valid() bool {
	return k != KindNone && k <= MaxKind
}

// KindSet is a set of [Kind] values.
// The zero value is an empty set.
type KindSet uint64

// AllKinds matches every valid [Kind].
const AllKinds = KindSet(^uint64(0) &^ 1)

// KindsOf creates a [KindSet] from the given kinds.
// Invalid kinds are ignored.
func KindsOf(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.Add(k)
	}
	return s
}

func (s KindSet) Add(k Kind, others ...Kind) KindSet {
	if k.Valid() {
		s |= 1 << k
	}
	for _, o := range others {
		if o.Valid() {
			s |= 1 << o
		}
	}
	return s
}

func (s KindSet) Remove(k Kind, others ...Kind) KindSet {
	if k.Valid() {
		s &^= 1 << k
	}
	for _, o := range others {
		if o.Valid() {
			s &^= 1 << o
		}
	}
	return s
}

// Has reports whether k is in the set. Invalid kinds are never members.
func (s KindSet) Has(k Kind) bool {
	if !k.Valid() {
		return false
	}
	return s&(1<<k) != 0
}

// HasAny determines if any of the given kinds are present in the [KindSet].
// If the parameter list is empty, then false is returned.
func (s KindSet) HasAny(kinds ...Kind) bool {
	for _, k := range kinds {
		if s.Has(k) {
			return true
		}
	}
	return false
}

func (s KindSet) Union(other KindSet) KindSet {
	return s | other
}

func (s KindSet) Intersection(other KindSet) KindSet {
	return s & other
}

func (s KindSet) Len() int {
	return bits.OnesCount64(uint64(s &^ 1))
}

// Kinds returns the members in ascending order.
func (s KindSet) Kinds() []Kind {
	if s.Len() == 0 {
		return nil
	}
	kinds := make([]Kind, 0, s.Len())
	for k := Kind(1); k <= MaxKind; k++ {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s KindSet) String() string {
	kinds := s.Kinds()
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = strconv.Itoa(int(k))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
