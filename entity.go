package sparsecs

import "fmt"

// Entity is an index/version identifier for a game object. Two entities
// compare equal only if both the index and the version match; the index
// is reused across destroy/create, the version is bumped on reuse so
// stale handles can be detected.
type Entity struct {
	index   uint32
	version uint32
}

// Index returns the entity's slot index.
func (e Entity) Index() uint32 { return e.index }

// Version returns the entity's slot version.
func (e Entity) Version() uint32 { return e.version }

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.index, e.version)
}

// maxVersion bounds version growth; a slot whose version would overflow
// this is retired instead of reused (spec: "version overflow ... the
// slot is permanently retired").
const maxVersion = ^uint32(0)

// entityAllocator mints and recycles entity identifiers. Index 0 is never
// issued so the zero Entity can serve as "no entity".
type entityAllocator struct {
	versions []uint32 // versions[i] is the current version of slot i+1
	retired  []bool   // retired[i] marks a slot that overflowed and can never be reused
	freeList []uint32 // indices (1-based) available for reuse
	live     int
}

func newEntityAllocator() *entityAllocator {
	return &entityAllocator{}
}

// Create mints a new entity, preferring a recycled slot from the free list.
func (a *entityAllocator) Create() Entity {
	if len(a.freeList) > 0 {
		idx := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		a.live++
		return Entity{index: idx, version: a.versions[idx-1]}
	}

	idx := uint32(len(a.versions)) + 1
	a.versions = append(a.versions, 0)
	a.retired = append(a.retired, false)
	a.live++
	return Entity{index: idx, version: 0}
}

// Destroy retires e's slot for reuse, bumping its version. Returns false
// if e's version no longer matches what's stored for its index (stale
// handle, double destroy).
func (a *entityAllocator) Destroy(e Entity) bool {
	if !a.Contains(e) {
		return false
	}
	a.live--

	i := e.index - 1
	if a.versions[i] == maxVersion {
		a.retired[i] = true
		return true
	}
	a.versions[i]++
	a.freeList = append(a.freeList, e.index)
	return true
}

// Contains reports whether e is currently live: its index is within
// range and its stored version matches.
func (a *entityAllocator) Contains(e Entity) bool {
	if e.index == 0 || int(e.index) > len(a.versions) {
		return false
	}
	i := e.index - 1
	return !a.retired[i] && a.versions[i] == e.version
}

// Len returns the number of currently live entities.
func (a *entityAllocator) Len() int { return a.live }

// Clear resets the allocator to empty, discarding all slots.
func (a *entityAllocator) Clear() {
	a.versions = a.versions[:0]
	a.retired = a.retired[:0]
	a.freeList = a.freeList[:0]
	a.live = 0
}
