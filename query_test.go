package sparsecs

import "testing"

func TestQuery2SparseIteration(t *testing.T) {
	w := NewWorld()
	e1 := w.Create(With(position{1, 1}), With(velocity{1, 1}))
	w.Create(With(position{2, 2})) // no velocity: must not match

	positions, err := ViewOf[position](w)
	if err != nil {
		t.Fatalf("ViewOf[position]() = %v", err)
	}
	defer positions.Close()
	velocities, err := ViewOf[velocity](w)
	if err != nil {
		t.Fatalf("ViewOf[velocity]() = %v", err)
	}
	defer velocities.Close()

	q := NewQuery2[*position, *velocity](w, positions, velocities)

	seen := map[Entity]bool{}
	for e, item := range q.Entities() {
		seen[e] = true
		if *item.A != (position{1, 1}) || *item.B != (velocity{1, 1}) {
			t.Fatalf("unexpected item %+v for entity %v", item, e)
		}
	}
	if len(seen) != 1 || !seen[e1] {
		t.Fatalf("Entities() matched %v, want exactly {%v}", seen, e1)
	}
}

func TestQuery2MutationThroughRefMut(t *testing.T) {
	w := NewWorld()
	e := w.Create(With(position{0, 0}), With(velocity{1, 2}))

	positions, _ := MutViewOf[position](w)
	defer positions.Close()
	velocities, _ := ViewOf[velocity](w)
	defer velocities.Close()

	q := NewQuery2[RefMut[position], *velocity](w, positions, velocities)
	for _, item := range q.Entities() {
		vel := item.B
		item.A.Get().X += vel.X
		item.A.Get().Y += vel.Y
	}

	got, _ := Get[position](w, e)
	if *got != (position{1, 2}) {
		t.Fatalf("position after mutation = %+v, want {1 2}", *got)
	}
}

// TestQueryIncludeExcludeScenarios covers the two Include/Exclude builder
// shapes (spec.md §4.6) against the same fixture: one entity with only
// position, one with position and tag. Include requires tag's presence
// without yielding its value; Exclude requires tag's absence.
func TestQueryIncludeExcludeScenarios(t *testing.T) {
	tests := []struct {
		name        string
		build       func(q *Query1[*position], tags *View[tag]) *Query1[*position]
		wantWithTag bool
	}{
		{
			name:        "Exclude omits entities carrying the excluded component",
			build:       func(q *Query1[*position], tags *View[tag]) *Query1[*position] { return q.Exclude(tags) },
			wantWithTag: false,
		},
		{
			name:        "Include requires presence without yielding the value",
			build:       func(q *Query1[*position], tags *View[tag]) *Query1[*position] { return q.Include(tags) },
			wantWithTag: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			eWithoutTag := w.Create(With(position{1, 1}))
			eWithTag := w.Create(With(position{2, 2}), With(tag{}))
			want := eWithoutTag
			if tt.wantWithTag {
				want = eWithTag
			}

			positions, _ := ViewOf[position](w)
			defer positions.Close()
			tags, _ := ViewOf[tag](w)
			defer tags.Close()

			q := tt.build(NewQuery1[*position](w, positions), tags)

			seen := map[Entity]bool{}
			for e := range q.Entities() {
				seen[e] = true
			}
			if len(seen) != 1 || !seen[want] {
				t.Fatalf("query matched %v, want exactly {%v}", seen, want)
			}
		})
	}
}

func TestQueryFilterNarrowsResults(t *testing.T) {
	w := NewWorld()
	e1 := w.Create(With(position{1, 1}))
	since := w.Tick()
	w.AdvanceTicks()
	e2 := w.Create(With(position{2, 2}))

	positions, _ := ViewOf[position](w)
	defer positions.Close()

	q := NewQuery1[*position](w, positions).Filter(Added[position](w, since))

	seen := map[Entity]bool{}
	for e := range q.Entities() {
		seen[e] = true
	}
	if len(seen) != 1 || !seen[e2] || seen[e1] {
		t.Fatalf("Added filter since %d matched %v, want only the entity created after it (%v)", since, seen, e2)
	}
}

func TestQueryGetPointLookup(t *testing.T) {
	w := NewWorld()
	e := w.Create(With(position{1, 1}), With(velocity{2, 2}))

	positions, _ := ViewOf[position](w)
	defer positions.Close()
	velocities, _ := ViewOf[velocity](w)
	defer velocities.Close()

	q := NewQuery2[*position, *velocity](w, positions, velocities)

	item, ok := q.Get(e)
	if !ok {
		t.Fatalf("Get(e) = false, want true")
	}
	if *item.A != (position{1, 1}) || *item.B != (velocity{2, 2}) {
		t.Fatalf("Get(e) = %+v, unexpected", item)
	}

	missing := Entity{index: 999, version: 0}
	if _, ok := q.Get(missing); ok {
		t.Fatalf("Get() on a nonexistent entity = true, want false")
	}
}

func TestQueryBuilderMethodsDoNotAliasSharedBase(t *testing.T) {
	w := NewWorld()
	e1 := w.Create(With(position{1, 1}), With(tag{}))
	e2 := w.Create(With(position{2, 2}))

	positions, _ := ViewOf[position](w)
	defer positions.Close()
	tags, _ := ViewOf[tag](w)
	defer tags.Close()

	base := NewQuery1[*position](w, positions)
	withTag := base.Include(tags)
	withoutTag := base.Exclude(tags)

	seenBase := map[Entity]bool{}
	for e := range base.Entities() {
		seenBase[e] = true
	}
	if len(seenBase) != 2 || !seenBase[e1] || !seenBase[e2] {
		t.Fatalf("base Entities() = %v, want both entities untouched by later builder calls", seenBase)
	}

	seenWithTag := map[Entity]bool{}
	for e := range withTag.Entities() {
		seenWithTag[e] = true
	}
	if len(seenWithTag) != 1 || !seenWithTag[e1] {
		t.Fatalf("withTag Entities() = %v, want exactly {%v}", seenWithTag, e1)
	}

	seenWithoutTag := map[Entity]bool{}
	for e := range withoutTag.Entities() {
		seenWithoutTag[e] = true
	}
	if len(seenWithoutTag) != 1 || !seenWithoutTag[e2] {
		t.Fatalf("withoutTag Entities() = %v, want exactly {%v}; a mutating builder would have leaked Include(tags) into this Exclude-only query", seenWithoutTag, e2)
	}
}

func TestQueryGroupedAndSparseAgree(t *testing.T) {
	layout := NewLayout()
	if err := layout.AddFamily(Group(position{}, velocity{})); err != nil {
		t.Fatalf("AddFamily() = %v", err)
	}
	w, err := WithLayout(layout)
	if err != nil {
		t.Fatalf("WithLayout() = %v", err)
	}

	e1 := w.Create(With(position{1, 1}), With(velocity{1, 1}))
	e2 := w.Create(With(position{2, 2}), With(velocity{2, 2}))
	w.Create(With(position{3, 3})) // ungrouped, missing velocity

	positions, _ := ViewOf[position](w)
	defer positions.Close()
	velocities, _ := ViewOf[velocity](w)
	defer velocities.Close()

	q := NewQuery2[*position, *velocity](w, positions, velocities)

	seen := map[Entity]bool{}
	for e := range q.Entities() {
		seen[e] = true
	}
	if len(seen) != 2 || !seen[e1] || !seen[e2] {
		t.Fatalf("grouped query matched %v, want exactly {%v, %v}", seen, e1, e2)
	}
}
