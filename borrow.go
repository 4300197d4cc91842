package sparsecs

import (
	"reflect"

	"github.com/TheBitDrifter/mask"
)

// borrowState tracks the live shared/exclusive borrows of one storage.
// Shared borrows each occupy one bit of a 256-slot mask (an arbitrary
// but generous concurrent-reader ceiling); an exclusive borrow requires
// the mask to be empty and itself excludes any other borrow.
type borrowState struct {
	shared    mask.Mask256
	exclusive bool
	nextBit   uint32
	freeBits  []uint32
}

// maxSharedBorrows bounds concurrent shared borrows of a single storage.
const maxSharedBorrows = 256

// acquireShared reserves a free slot in the shared mask. Returns the
// slot (to release later) or false if exclusively locked or saturated.
func (b *borrowState) acquireShared() (uint32, bool) {
	if b.exclusive {
		return 0, false
	}
	var bit uint32
	if n := len(b.freeBits); n > 0 {
		bit = b.freeBits[n-1]
		b.freeBits = b.freeBits[:n-1]
	} else {
		if b.nextBit >= maxSharedBorrows {
			return 0, false
		}
		bit = b.nextBit
		b.nextBit++
	}
	b.shared.Mark(bit)
	return bit, true
}

func (b *borrowState) releaseShared(bit uint32) {
	b.shared.Unmark(bit)
	b.freeBits = append(b.freeBits, bit)
}

// acquireExclusive succeeds only when there is no other borrow at all.
func (b *borrowState) acquireExclusive() bool {
	if b.exclusive || !b.shared.IsEmpty() {
		return false
	}
	b.exclusive = true
	return true
}

func (b *borrowState) releaseExclusive() {
	b.exclusive = false
}

// borrowRegistry hands out shared/exclusive borrows of storages by
// component type. Acquisition never blocks: it either succeeds
// immediately or returns BorrowConflict (spec.md §5: "the only
// 'blocking' is borrow acquisition, which must either succeed
// immediately or fail fast -- never wait").
type borrowRegistry struct {
	states map[reflect.Type]*borrowState
}

func newBorrowRegistry() *borrowRegistry {
	return &borrowRegistry{states: make(map[reflect.Type]*borrowState)}
}

func (r *borrowRegistry) stateFor(t reflect.Type) *borrowState {
	s, ok := r.states[t]
	if !ok {
		s = &borrowState{}
		r.states[t] = s
	}
	return s
}

// release is returned by a successful borrow; call it exactly once to
// give the slot back.
type release func()

func (r *borrowRegistry) borrowShared(t reflect.Type) (release, error) {
	s := r.stateFor(t)
	bit, ok := s.acquireShared()
	if !ok {
		return nil, BorrowConflict{Component: t.String()}
	}
	return func() { s.releaseShared(bit) }, nil
}

func (r *borrowRegistry) borrowExclusive(t reflect.Type) (release, error) {
	s := r.stateFor(t)
	if !s.acquireExclusive() {
		return nil, BorrowConflict{Component: t.String()}
	}
	return func() { s.releaseExclusive() }, nil
}
