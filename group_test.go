package sparsecs

import (
	"reflect"
	"testing"
)

func newTestStorages(t *testing.T) (*componentStorages, *Storage[position], *Storage[velocity], *Storage[tag]) {
	t.Helper()
	cs := newComponentStorages()
	posStorage := NewStorage[position]()
	velStorage := NewStorage[velocity]()
	tagStorage := NewStorage[tag]()

	cs.registerStorage(reflect.TypeFor[position](), posStorage)
	cs.registerStorage(reflect.TypeFor[velocity](), velStorage)
	cs.registerStorage(reflect.TypeFor[tag](), tagStorage)

	layout := NewLayout()
	if err := layout.AddFamily(Group(position{}, velocity{}), Group(position{}, velocity{}, tag{})); err != nil {
		t.Fatalf("AddFamily() = %v", err)
	}
	if err := cs.setLayout(layout); err != nil {
		t.Fatalf("setLayout() = %v", err)
	}

	return cs, posStorage, velStorage, tagStorage
}

func TestGroupComponentsAdvancesInnerGroupFirst(t *testing.T) {
	cs, pos, vel, _ := newTestStorages(t)
	e := Entity{index: 1, version: 0}

	pos.Insert(e, position{}, 0)
	cs.groupComponents(0, e)
	if cs.families[0].groups[0].len != 0 {
		t.Fatalf("group[0].len = %d before velocity present, want 0", cs.families[0].groups[0].len)
	}

	vel.Insert(e, velocity{}, 0)
	cs.groupComponents(0, e)
	if cs.families[0].groups[0].len != 1 {
		t.Fatalf("group[0].len = %d after both components present, want 1", cs.families[0].groups[0].len)
	}
	if cs.families[0].groups[1].len != 0 {
		t.Fatalf("group[1].len = %d without tag present, want 0", cs.families[0].groups[1].len)
	}
}

func TestGroupComponentsNestedInvariantG2(t *testing.T) {
	cs, pos, vel, tg := newTestStorages(t)

	e1 := Entity{index: 1, version: 0}
	e2 := Entity{index: 2, version: 0}

	pos.Insert(e1, position{}, 0)
	vel.Insert(e1, velocity{}, 0)
	tg.Insert(e1, tag{}, 0)
	cs.groupComponents(0, e1)

	pos.Insert(e2, position{}, 0)
	vel.Insert(e2, velocity{}, 0)
	cs.groupComponents(0, e2)

	g0, g1 := cs.families[0].groups[0].len, cs.families[0].groups[1].len
	if g1 > g0 {
		t.Fatalf("G2 violated: outer group len %d > inner group len %d", g1, g0)
	}
	if g0 != 2 {
		t.Fatalf("group[0].len = %d, want 2 (both entities have position+velocity)", g0)
	}
	if g1 != 1 {
		t.Fatalf("group[1].len = %d, want 1 (only e1 has all three)", g1)
	}
}

func TestUngroupComponentsOutermostFirst(t *testing.T) {
	cs, pos, vel, tg := newTestStorages(t)
	e := Entity{index: 1, version: 0}

	pos.Insert(e, position{}, 0)
	vel.Insert(e, velocity{}, 0)
	tg.Insert(e, tag{}, 0)
	cs.groupComponents(0, e)

	if cs.families[0].groups[1].len != 1 {
		t.Fatalf("setup: group[1].len = %d, want 1", cs.families[0].groups[1].len)
	}

	cs.ungroupComponents(0, e)

	if cs.families[0].groups[0].len != 0 || cs.families[0].groups[1].len != 0 {
		t.Fatalf("ungroupComponents left nonzero lens: %+v", cs.families[0].groups)
	}
}

func TestMatchingGroupExactMaskOnly(t *testing.T) {
	cs, pos, vel, _ := newTestStorages(t)
	e := Entity{index: 1, version: 0}
	pos.Insert(e, position{}, 0)
	vel.Insert(e, velocity{}, 0)
	cs.groupComponents(0, e)

	_, posInfo, _ := cs.storageFor(reflect.TypeFor[position]())
	_, velInfo, _ := cs.storageFor(reflect.TypeFor[velocity]())

	combined := newCombinedGroupInfo().combine(posInfo).combine(velInfo)
	fi, gi, ok := cs.matchingGroup(combined)
	if !ok {
		t.Fatalf("matchingGroup() = false, want true for the 2-arity group")
	}
	if fi != 0 || gi != 0 {
		t.Fatalf("matchingGroup() = (%d,%d), want (0,0)", fi, gi)
	}
}

func TestExcludeAnnulusStartUsesOuterGroupLen(t *testing.T) {
	cs, pos, vel, tg := newTestStorages(t)

	e1 := Entity{index: 1, version: 0}
	e2 := Entity{index: 2, version: 0}
	pos.Insert(e1, position{}, 0)
	vel.Insert(e1, velocity{}, 0)
	tg.Insert(e1, tag{}, 0)
	cs.groupComponents(0, e1)

	pos.Insert(e2, position{}, 0)
	vel.Insert(e2, velocity{}, 0)
	cs.groupComponents(0, e2)

	_, posInfo, _ := cs.storageFor(reflect.TypeFor[position]())
	_, velInfo, _ := cs.storageFor(reflect.TypeFor[velocity]())
	_, tagInfo, _ := cs.storageFor(reflect.TypeFor[tag]())

	// A query base-matching the inner (position, velocity) group, with
	// an Exclude(tag): the union of all three bits is exactly the outer
	// group's mask, so the exclude is group-expressible.
	union := newCombinedGroupInfo().combine(posInfo).combine(velInfo).combine(tagInfo)

	start, ok := cs.excludeAnnulusStart(0, cs.families[0].groups[0].arity, union)
	if !ok {
		t.Fatalf("excludeAnnulusStart() = false, want true")
	}
	if want := cs.families[0].groups[1].len; start != want {
		t.Fatalf("excludeAnnulusStart() = %d, want %d (outer group's len)", start, want)
	}
}
