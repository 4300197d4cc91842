package sparsecs

import (
	"errors"
	"reflect"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

var errGroupInvariant = errors.New("sparsecs: group invariant violated: entity missing from storage during regroup")

// group is one nesting level of a family: the number of entities
// currently aligned (len) and the union mask of every component type in
// this group's prefix, used to match it against a query's combined
// group info.
type group struct {
	arity         int
	len           int
	componentMask mask.Mask
}

// family is the runtime form of a layoutFamily: the storages of its
// component types, ordered by first appearance (smallest group first),
// and the nested groups over them.
type family struct {
	storages []erasedStorage
	types    []reflect.Type
	groups   []group
}

// componentInfo locates a grouped component type within the families.
type componentInfo struct {
	familyIndex  int
	storageIndex int // index into family.storages
}

// GroupInfo is attached to a View: the runtime-computed group context
// for the single storage it borrows. A view over an ungrouped component
// has valid == false.
type GroupInfo struct {
	valid       bool
	familyIndex int
	bit         uint32
}

// groupStatus mirrors the source engine's GroupStatus: whether an entity
// is already aligned inside a group's current len, present but not yet
// aligned, or missing one of the group's components entirely.
type groupStatus int

const (
	statusMissing groupStatus = iota
	statusUngrouped
	statusGrouped
)

func getGroupStatus(storages []erasedStorage, groupLen int, e Entity) groupStatus {
	if len(storages) == 0 {
		return statusGrouped
	}
	idx, ok := storages[0].indexOf(e)
	if !ok {
		return statusMissing
	}
	status := statusUngrouped
	if int(idx) < groupLen {
		status = statusGrouped
	}
	for _, s := range storages[1:] {
		if !s.contains(e) {
			return statusMissing
		}
	}
	return status
}

func groupComponentsInner(storages []erasedStorage, length *int, e Entity) {
	for _, s := range storages {
		idx, ok := s.indexOf(e)
		if !ok {
			panic(bark.AddTrace(errGroupInvariant))
		}
		s.swapIndices(int(idx), *length)
	}
	*length++
}

func ungroupComponentsInner(storages []erasedStorage, length *int, e Entity) {
	if *length == 0 {
		return
	}
	last := *length - 1
	for _, s := range storages {
		idx, ok := s.indexOf(e)
		if !ok {
			panic(bark.AddTrace(errGroupInvariant))
		}
		s.swapIndices(int(idx), last)
	}
	*length--
}

// componentStorages owns every registered component's storage: the ones
// named by a Layout family live in that family's group, disjoint
// components live in the ungrouped map.
type componentStorages struct {
	ungrouped map[reflect.Type]erasedStorage
	info      map[reflect.Type]componentInfo
	families  []family

	bits    map[reflect.Type]uint32
	nextBit uint32
}

func newComponentStorages() *componentStorages {
	return &componentStorages{
		ungrouped: make(map[reflect.Type]erasedStorage),
		info:      make(map[reflect.Type]componentInfo),
		bits:      make(map[reflect.Type]uint32),
	}
}

func (cs *componentStorages) bitFor(t reflect.Type) uint32 {
	if b, ok := cs.bits[t]; ok {
		return b
	}
	b := cs.nextBit
	cs.nextBit++
	cs.bits[t] = b
	return b
}

func (cs *componentStorages) contains(t reflect.Type) bool {
	if _, ok := cs.info[t]; ok {
		return true
	}
	_, ok := cs.ungrouped[t]
	return ok
}

// registerStorage adds s under t if t isn't already known, assigning it
// a mask bit. No-op if t is already registered (ungrouped or grouped).
func (cs *componentStorages) registerStorage(t reflect.Type, s erasedStorage) {
	cs.bitFor(t)
	if cs.contains(t) {
		return
	}
	cs.ungrouped[t] = s
}

// storageFor returns the erased storage and group context for t.
func (cs *componentStorages) storageFor(t reflect.Type) (erasedStorage, GroupInfo, bool) {
	if info, ok := cs.info[t]; ok {
		fam := cs.families[info.familyIndex]
		return fam.storages[info.storageIndex], GroupInfo{valid: true, familyIndex: info.familyIndex, bit: cs.bits[t]}, true
	}
	if s, ok := cs.ungrouped[t]; ok {
		return s, GroupInfo{}, true
	}
	return nil, GroupInfo{}, false
}

// groupFamilyOf reports which family a component type belongs to, if any.
func (cs *componentStorages) groupFamilyOf(t reflect.Type) (int, bool) {
	info, ok := cs.info[t]
	if !ok {
		return 0, false
	}
	return info.familyIndex, true
}

// groupComponents is called after a component is added to entity e,
// for every family that has one of e's components; it advances each
// group's len as far as e's current components allow, innermost first.
func (cs *componentStorages) groupComponents(familyIndex int, e Entity) {
	fam := &cs.families[familyIndex]
	prevArity := 0
	for gi := range fam.groups {
		g := &fam.groups[gi]
		status := getGroupStatus(fam.storages[prevArity:g.arity], g.len, e)
		switch status {
		case statusGrouped:
		case statusUngrouped:
			groupComponentsInner(fam.storages[:g.arity], &g.len, e)
		case statusMissing:
			return
		}
		prevArity = g.arity
	}
}

// ungroupComponents is called before a component is removed from entity
// e, for every family with one of e's components; it walks the longest
// outer run of groups e is currently Grouped in, and pulls e out of
// them outermost-first.
func (cs *componentStorages) ungroupComponents(familyIndex int, e Entity) {
	fam := &cs.families[familyIndex]
	prevArity := 0
	ungroupStart, ungroupLen := 0, 0

	for i := range fam.groups {
		g := &fam.groups[i]
		status := getGroupStatus(fam.storages[prevArity:g.arity], g.len, e)
		if status != statusGrouped {
			break
		}
		if ungroupLen == 0 {
			ungroupStart = i
		}
		ungroupLen++
		prevArity = g.arity
	}

	for i := ungroupStart + ungroupLen - 1; i >= ungroupStart; i-- {
		g := &fam.groups[i]
		ungroupComponentsInner(fam.storages[:g.arity], &g.len, e)
	}
}

func (cs *componentStorages) familyCount() int { return len(cs.families) }

func (cs *componentStorages) clear() {
	for t, s := range cs.ungrouped {
		s.clearAll()
		cs.ungrouped[t] = s
	}
	for fi := range cs.families {
		fam := &cs.families[fi]
		for _, s := range fam.storages {
			s.clearAll()
		}
		for gi := range fam.groups {
			fam.groups[gi].len = 0
		}
	}
}

// iterErased visits every registered storage, grouped and ungrouped.
func (cs *componentStorages) iterErased(fn func(erasedStorage)) {
	for _, s := range cs.ungrouped {
		fn(s)
	}
	for _, fam := range cs.families {
		for _, s := range fam.storages {
			fn(s)
		}
	}
}

// setLayout drains every storage currently known (grouped or not) back
// into a flat pool, rebuilds the family structure from layout, and
// replays grouping for every entity already present so the group
// invariants hold for pre-existing data.
func (cs *componentStorages) setLayout(layout *Layout) error {
	pool := make(map[reflect.Type]erasedStorage, len(cs.ungrouped)+len(cs.info))
	for t, s := range cs.ungrouped {
		pool[t] = s
	}
	for _, fam := range cs.families {
		for i, t := range fam.types {
			pool[t] = fam.storages[i]
		}
	}

	newFamilies := make([]family, 0, len(layout.families))
	newInfo := make(map[reflect.Type]componentInfo)

	for _, lf := range layout.families {
		fam := family{}
		prevArity := 0

		for gi, g := range lf.groups {
			for _, t := range g[prevArity:] {
				s, ok := pool[t]
				if !ok {
					return LayoutConflict{Reason: "layout references unregistered component " + t.String()}
				}
				delete(pool, t)

				newInfo[t] = componentInfo{familyIndex: len(newFamilies), storageIndex: len(fam.storages)}
				fam.storages = append(fam.storages, s)
				fam.types = append(fam.types, t)
			}

			var m mask.Mask
			for _, t := range g {
				m.Mark(cs.bitFor(t))
			}
			fam.groups = append(fam.groups, group{arity: len(g), componentMask: m})
			prevArity = len(g)
		}

		newFamilies = append(newFamilies, fam)
	}

	cs.ungrouped = pool
	cs.families = newFamilies
	cs.info = newInfo

	// Replay grouping for every entity already present in each family.
	for fi := range cs.families {
		fam := &cs.families[fi]
		seen := make(map[Entity]bool)
		for _, s := range fam.storages {
			for _, e := range s.entitiesErased() {
				seen[e] = true
			}
		}
		for e := range seen {
			cs.groupComponents(fi, e)
		}
	}

	return nil
}

// --- GroupInfo combination ---

type combinedState int

const (
	combinedEmpty combinedState = iota
	combinedValid
	combinedIncompatible
)

// CombinedGroupInfo is the fold of several views' GroupInfo: Empty if no
// view contributed, Valid if all views agree on one family (their bits
// accumulate into mask), Incompatible otherwise.
type CombinedGroupInfo struct {
	state       combinedState
	familyIndex int
	mask        mask.Mask
}

func newCombinedGroupInfo() CombinedGroupInfo {
	return CombinedGroupInfo{state: combinedEmpty}
}

func (c CombinedGroupInfo) combine(info GroupInfo) CombinedGroupInfo {
	if !info.valid {
		return CombinedGroupInfo{state: combinedIncompatible}
	}
	switch c.state {
	case combinedEmpty:
		var m mask.Mask
		m.Mark(info.bit)
		return CombinedGroupInfo{state: combinedValid, familyIndex: info.familyIndex, mask: m}
	case combinedValid:
		if c.familyIndex != info.familyIndex {
			return CombinedGroupInfo{state: combinedIncompatible}
		}
		m := c.mask
		m.Mark(info.bit)
		return CombinedGroupInfo{state: combinedValid, familyIndex: c.familyIndex, mask: m}
	default:
		return c
	}
}

// matchingGroup finds the innermost group in family familyIndex whose
// component mask exactly equals c's accumulated mask.
func (cs *componentStorages) matchingGroup(c CombinedGroupInfo) (familyIndex, groupIndex int, ok bool) {
	if c.state != combinedValid {
		return 0, 0, false
	}
	fam := cs.families[c.familyIndex]
	for gi, g := range fam.groups {
		if g.componentMask == c.mask {
			return c.familyIndex, gi, true
		}
	}
	return 0, 0, false
}

// excludeAnnulusStart reports whether c -- the union of the matched base
// group's mask with every Exclude element's bit -- is exactly the mask
// of the next-larger group in familyIndex, and that group adds a single
// component to the inner group (its arity is innerArity+1). That
// equality means the Exclude set names precisely the one extra component
// the next-larger nesting group adds, so "has the inner group's components but not the
// excluded ones" is the same set of entities as "is in the inner group
// but not yet promoted to the outer one". Because a nested outer group
// shares its inner group's storages, the entities satisfying the outer
// group occupy the front [0, outerLen) of those same dense arrays (G2);
// scanning the annulus instead of the whole inner group means starting
// at outerLen rather than 0. The returned start is that offset. Any
// other Exclude set reports false.
func (cs *componentStorages) excludeAnnulusStart(familyIndex int, innerArity int, c CombinedGroupInfo) (start int, ok bool) {
	if c.state != combinedValid || c.familyIndex != familyIndex {
		return 0, false
	}
	fam := cs.families[familyIndex]
	for _, g := range fam.groups {
		if g.arity <= innerArity {
			continue
		}
		if g.arity == innerArity+1 && g.componentMask == c.mask {
			return g.len, true
		}
		return 0, false
	}
	return 0, false
}
