package graph

import (
	"math/bits"
	"strconv"
	"strings"
)

// IndexSet is a compact set of NodeIDs backed by a bitset.
// The zero value is an empty set. Copies share storage, so use Clone before
// mutating a set obtained from someone else.
type IndexSet struct {
	words []uint64
}

// NewIndexSet returns a set holding ids.
func NewIndexSet(ids ...NodeID) IndexSet {
	var s IndexSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Negative ids are ignored.
func (s *IndexSet) Add(id NodeID) {
	if id < 0 {
		return
	}
	w := int(id) / 64
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << (uint(id) % 64)
}

// Has reports whether id is in the set.
func (s IndexSet) Has(id NodeID) bool {
	if id < 0 {
		return false
	}
	w := int(id) / 64
	return w < len(s.words) && s.words[w]&(1<<(uint(id)%64)) != 0
}

// Len returns the number of members.
func (s IndexSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsEmpty reports whether the set has no members.
func (s IndexSet) IsEmpty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Min returns the smallest member, or -1 for an empty set.
func (s IndexSet) Min() NodeID {
	for i, w := range s.words {
		if w != 0 {
			return NodeID(i*64 + bits.TrailingZeros64(w))
		}
	}
	return -1
}

// Max returns the largest member, or -1 for an empty set.
func (s IndexSet) Max() NodeID {
	for i := len(s.words) - 1; i >= 0; i-- {
		if w := s.words[i]; w != 0 {
			return NodeID(i*64 + 63 - bits.LeadingZeros64(w))
		}
	}
	return -1
}

// Indices returns the members in ascending order.
func (s IndexSet) Indices() []NodeID {
	out := make([]NodeID, 0, s.Len())
	s.Each(func(id NodeID) {
		out = append(out, id)
	})
	return out
}

// Ints returns the members in ascending order as plain ints.
func (s IndexSet) Ints() []int {
	out := make([]int, 0, s.Len())
	s.Each(func(id NodeID) {
		out = append(out, int(id))
	})
	return out
}

// Each calls fn for every member in ascending order.
func (s IndexSet) Each(fn func(NodeID)) {
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(NodeID(i*64 + b))
			w &= w - 1
		}
	}
}

// Clone returns an independent copy.
func (s IndexSet) Clone() IndexSet {
	if s.words == nil {
		return IndexSet{}
	}
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return IndexSet{words: words}
}

// Union returns a new set holding the members of both.
func (s IndexSet) Union(o IndexSet) IndexSet {
	out := s.Clone()
	for len(out.words) < len(o.words) {
		out.words = append(out.words, 0)
	}
	for i, w := range o.words {
		out.words[i] |= w
	}
	return out
}

// Intersects reports whether the sets share a member.
func (s IndexSet) Intersects(o IndexSet) bool {
	n := min(len(s.words), len(o.words))
	for i := 0; i < n; i++ {
		if s.words[i]&o.words[i] != 0 {
			return true
		}
	}
	return false
}

// Equal reports whether both sets have the same members.
func (s IndexSet) Equal(o IndexSet) bool {
	long, short := s.words, o.words
	if len(long) < len(short) {
		long, short = short, long
	}
	for i, w := range long {
		var v uint64
		if i < len(short) {
			v = short[i]
		}
		if w != v {
			return false
		}
	}
	return true
}

// String renders the set as {0,2,5}.
func (s IndexSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	s.Each(func(id NodeID) {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Itoa(int(id)))
	})
	b.WriteByte('}')
	return b.String()
}
