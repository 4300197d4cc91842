package sparsecs

// indexEntity is the payload of an occupied sparse-array slot: the dense
// position the entity occupies, and the version it had when inserted.
type indexEntity struct {
	index   uint32
	version uint32
	some    bool
}

// sparseArray is a growable entity-index -> dense-slot map. Out-of-range
// reads return "none" rather than erroring; it is not safe for
// concurrent mutation.
type sparseArray struct {
	entries []indexEntity
}

// get returns the slot for e iff present and e's version matches the
// version stored at e's index.
func (s *sparseArray) get(e Entity) (indexEntity, bool) {
	if e.index == 0 || int(e.index) > len(s.entries) {
		return indexEntity{}, false
	}
	ie := s.entries[e.index-1]
	if !ie.some || ie.version != e.version {
		return indexEntity{}, false
	}
	return ie, true
}

// contains reports whether e currently has a slot.
func (s *sparseArray) contains(e Entity) bool {
	_, ok := s.get(e)
	return ok
}

// set records that e occupies dense position denseIndex.
func (s *sparseArray) set(e Entity, denseIndex uint32) {
	s.growTo(e.index)
	s.entries[e.index-1] = indexEntity{index: denseIndex, version: e.version, some: true}
}

// clear removes any slot recorded for index i (1-based).
func (s *sparseArray) clear(index uint32) {
	if index == 0 || int(index) > len(s.entries) {
		return
	}
	s.entries[index-1] = indexEntity{}
}

// rewriteIndex updates the dense position stored for an already-present
// index, preserving its version. Used when a swap-remove moves an
// entity's slot.
func (s *sparseArray) rewriteIndex(index uint32, denseIndex uint32) {
	s.entries[index-1].index = denseIndex
}

// growTo extends the backing slice, if needed, to cover index (1-based).
func (s *sparseArray) growTo(index uint32) {
	if int(index) <= len(s.entries) {
		return
	}
	grown := make([]indexEntity, index)
	copy(grown, s.entries)
	s.entries = grown
}
