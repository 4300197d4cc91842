package sparsecs

import "iter"

// queryPlan is the dispatch decision for one Entities()/Iter() call:
// either a group-accelerated dense scan over [start, end), or a sparse
// scan driven by the shortest base/include element.
type queryPlan struct {
	grouped  bool
	start    int
	end      int
	driverAt int
}

// planQuery folds the GroupInfo of every base/include element and, if
// they all agree on one family, looks up the matching group; an
// exclude set naming the one component the next-larger nesting group
// adds narrows the scan to that group's annulus (see excludeAnnulusStart).
// Any other combination falls back to a sparse scan, which is always
// correct, just not group-accelerated.
func planQuery(storages *componentStorages, all []queryElement, excludes []queryElement) queryPlan {
	combined := newCombinedGroupInfo()
	for _, e := range all {
		combined = combined.combine(e.groupInfo())
	}

	fi, gi, ok := storages.matchingGroup(combined)
	if !ok {
		return queryPlan{grouped: false, driverAt: shortestDriver(all)}
	}

	fam := storages.families[fi]
	start, end := 0, fam.groups[gi].len

	if len(excludes) > 0 {
		union := combined
		for _, e := range excludes {
			union = union.combine(e.groupInfo())
		}
		s, ok := storages.excludeAnnulusStart(fi, fam.groups[gi].arity, union)
		if !ok {
			return queryPlan{grouped: false, driverAt: shortestDriver(all)}
		}
		start = s
	}

	return queryPlan{grouped: true, start: start, end: end}
}

// appendNew returns a fresh slice holding base's elements followed by
// extra, never reusing base's backing array. Every Query builder method
// calls this so returning a new Query value never aliases the slice the
// receiver still holds.
func appendNew(base []queryElement, extra ...queryElement) []queryElement {
	next := make([]queryElement, 0, len(base)+len(extra))
	next = append(next, base...)
	return append(next, extra...)
}

func shortestDriver(elems []queryElement) int {
	best := 0
	for i := 1; i < len(elems); i++ {
		if elems[i].lenAt() < elems[best].lenAt() {
			best = i
		}
	}
	return best
}

func noneContain(elems []queryElement, e Entity) bool {
	for _, el := range elems {
		if el.containsEntity(e) {
			return false
		}
	}
	return true
}

func allContainExcept(elems []queryElement, skip int, e Entity) bool {
	for i, el := range elems {
		if i == skip {
			continue
		}
		if !el.containsEntity(e) {
			return false
		}
	}
	return true
}

// --- arity 1 ---

// Item1 is the per-entity result of a one-component Query1.
type Item1[A any] struct{ A A }

// Query1 matches entities holding a single required base component,
// narrowed by optional Include/Exclude sets and a Filter.
type Query1[A any] struct {
	w        *World
	a        baseElement[A]
	includes []queryElement
	excludes []queryElement
	filt     Filter
}

// NewQuery1 builds a query over a single base element.
func NewQuery1[A any](w *World, a baseElement[A]) *Query1[A] {
	return &Query1[A]{w: w, a: a, filt: NoFilter()}
}

// Include requires the given views' component types be present, without
// including their values in the result item. Returns a new *Query1
// leaving the receiver unmodified, mirroring the ownership-consuming
// builder chain of the source engine's query/composite.rs.
func (q *Query1[A]) Include(elems ...queryElement) *Query1[A] {
	next := *q
	next.includes = appendNew(q.includes, elems...)
	return &next
}

// Exclude requires the given views' component types be absent. Returns a
// new *Query1 leaving the receiver unmodified.
func (q *Query1[A]) Exclude(elems ...queryElement) *Query1[A] {
	next := *q
	next.excludes = appendNew(q.excludes, elems...)
	return &next
}

// Filter attaches a change-tracking predicate evaluated per entity.
// Returns a new *Query1 leaving the receiver unmodified.
func (q *Query1[A]) Filter(f Filter) *Query1[A] {
	next := *q
	next.filt = f
	return &next
}

func (q *Query1[A]) all() []queryElement {
	all := make([]queryElement, 0, 1+len(q.includes))
	all = append(all, q.a)
	return append(all, q.includes...)
}

// Get performs a point lookup for a single entity, applying Include,
// Exclude, and Filter the same way Entities does.
func (q *Query1[A]) Get(e Entity) (Item1[A], bool) {
	if !noneContain(q.excludes, e) || !allContainExcept(q.all(), 0, e) {
		return Item1[A]{}, false
	}
	a, ok := q.a.getItem(e)
	if !ok || (!q.filt.IsPassthrough() && !q.filt.Evaluate(e)) {
		return Item1[A]{}, false
	}
	return Item1[A]{A: a}, true
}

// Entities iterates matching entities and their items.
func (q *Query1[A]) Entities() iter.Seq2[Entity, Item1[A]] {
	return func(yield func(Entity, Item1[A]) bool) {
		all := q.all()
		plan := planQuery(q.w.storages, all, q.excludes)

		if plan.grouped {
			for i := plan.start; i < plan.end; i++ {
				e, a := q.a.getItemAt(i)
				if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
					continue
				}
				if !yield(e, Item1[A]{A: a}) {
					return
				}
			}
			return
		}

		driver := all[plan.driverAt]
		for _, e := range driver.entitiesSlice() {
			if !allContainExcept(all, plan.driverAt, e) || !noneContain(q.excludes, e) {
				continue
			}
			if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
				continue
			}
			a, ok := q.a.getItem(e)
			if !ok {
				continue
			}
			if !yield(e, Item1[A]{A: a}) {
				return
			}
		}
	}
}

// Iter iterates matching items without their entities.
func (q *Query1[A]) Iter() iter.Seq[Item1[A]] {
	return func(yield func(Item1[A]) bool) {
		for _, item := range q.Entities() {
			if !yield(item) {
				return
			}
		}
	}
}

// --- arity 2 ---

// Item2 is the per-entity result of a two-component Query2.
type Item2[A, B any] struct {
	A A
	B B
}

// Query2 matches entities holding two required base components.
type Query2[A, B any] struct {
	w        *World
	a        baseElement[A]
	b        baseElement[B]
	includes []queryElement
	excludes []queryElement
	filt     Filter
}

// NewQuery2 builds a query over two base elements.
func NewQuery2[A, B any](w *World, a baseElement[A], b baseElement[B]) *Query2[A, B] {
	return &Query2[A, B]{w: w, a: a, b: b, filt: NoFilter()}
}

// Include returns a new *Query2 requiring elems' presence, leaving the
// receiver unmodified.
func (q *Query2[A, B]) Include(elems ...queryElement) *Query2[A, B] {
	next := *q
	next.includes = appendNew(q.includes, elems...)
	return &next
}

// Exclude returns a new *Query2 requiring elems' absence, leaving the
// receiver unmodified.
func (q *Query2[A, B]) Exclude(elems ...queryElement) *Query2[A, B] {
	next := *q
	next.excludes = appendNew(q.excludes, elems...)
	return &next
}

// Filter returns a new *Query2 with f attached, leaving the receiver
// unmodified.
func (q *Query2[A, B]) Filter(f Filter) *Query2[A, B] {
	next := *q
	next.filt = f
	return &next
}

func (q *Query2[A, B]) all() []queryElement {
	all := make([]queryElement, 0, 2+len(q.includes))
	all = append(all, q.a, q.b)
	return append(all, q.includes...)
}

func (q *Query2[A, B]) Get(e Entity) (Item2[A, B], bool) {
	if !noneContain(q.excludes, e) || !allContainExcept(q.all(), -1, e) {
		return Item2[A, B]{}, false
	}
	a, okA := q.a.getItem(e)
	b, okB := q.b.getItem(e)
	if !okA || !okB || (!q.filt.IsPassthrough() && !q.filt.Evaluate(e)) {
		return Item2[A, B]{}, false
	}
	return Item2[A, B]{A: a, B: b}, true
}

func (q *Query2[A, B]) Entities() iter.Seq2[Entity, Item2[A, B]] {
	return func(yield func(Entity, Item2[A, B]) bool) {
		all := q.all()
		plan := planQuery(q.w.storages, all, q.excludes)

		if plan.grouped {
			for i := plan.start; i < plan.end; i++ {
				e, a := q.a.getItemAt(i)
				_, b := q.b.getItemAt(i)
				if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
					continue
				}
				if !yield(e, Item2[A, B]{A: a, B: b}) {
					return
				}
			}
			return
		}

		driver := all[plan.driverAt]
		for _, e := range driver.entitiesSlice() {
			if !allContainExcept(all, plan.driverAt, e) || !noneContain(q.excludes, e) {
				continue
			}
			if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
				continue
			}
			a, okA := q.a.getItem(e)
			b, okB := q.b.getItem(e)
			if !okA || !okB {
				continue
			}
			if !yield(e, Item2[A, B]{A: a, B: b}) {
				return
			}
		}
	}
}

func (q *Query2[A, B]) Iter() iter.Seq[Item2[A, B]] {
	return func(yield func(Item2[A, B]) bool) {
		for _, item := range q.Entities() {
			if !yield(item) {
				return
			}
		}
	}
}

// --- arity 3 ---

// Item3 is the per-entity result of a three-component Query3.
type Item3[A, B, C any] struct {
	A A
	B B
	C C
}

// Query3 matches entities holding three required base components.
type Query3[A, B, C any] struct {
	w        *World
	a        baseElement[A]
	b        baseElement[B]
	c        baseElement[C]
	includes []queryElement
	excludes []queryElement
	filt     Filter
}

// NewQuery3 builds a query over three base elements.
func NewQuery3[A, B, C any](w *World, a baseElement[A], b baseElement[B], c baseElement[C]) *Query3[A, B, C] {
	return &Query3[A, B, C]{w: w, a: a, b: b, c: c, filt: NoFilter()}
}

// Include returns a new *Query3 requiring elems' presence, leaving the
// receiver unmodified.
func (q *Query3[A, B, C]) Include(elems ...queryElement) *Query3[A, B, C] {
	next := *q
	next.includes = appendNew(q.includes, elems...)
	return &next
}

// Exclude returns a new *Query3 requiring elems' absence, leaving the
// receiver unmodified.
func (q *Query3[A, B, C]) Exclude(elems ...queryElement) *Query3[A, B, C] {
	next := *q
	next.excludes = appendNew(q.excludes, elems...)
	return &next
}

// Filter returns a new *Query3 with f attached, leaving the receiver
// unmodified.
func (q *Query3[A, B, C]) Filter(f Filter) *Query3[A, B, C] {
	next := *q
	next.filt = f
	return &next
}

func (q *Query3[A, B, C]) all() []queryElement {
	all := make([]queryElement, 0, 3+len(q.includes))
	all = append(all, q.a, q.b, q.c)
	return append(all, q.includes...)
}

func (q *Query3[A, B, C]) Get(e Entity) (Item3[A, B, C], bool) {
	if !noneContain(q.excludes, e) || !allContainExcept(q.includes, -1, e) {
		return Item3[A, B, C]{}, false
	}
	a, okA := q.a.getItem(e)
	b, okB := q.b.getItem(e)
	c, okC := q.c.getItem(e)
	if !okA || !okB || !okC || (!q.filt.IsPassthrough() && !q.filt.Evaluate(e)) {
		return Item3[A, B, C]{}, false
	}
	return Item3[A, B, C]{A: a, B: b, C: c}, true
}

func (q *Query3[A, B, C]) Entities() iter.Seq2[Entity, Item3[A, B, C]] {
	return func(yield func(Entity, Item3[A, B, C]) bool) {
		all := q.all()
		plan := planQuery(q.w.storages, all, q.excludes)

		if plan.grouped {
			for i := plan.start; i < plan.end; i++ {
				e, a := q.a.getItemAt(i)
				_, b := q.b.getItemAt(i)
				_, c := q.c.getItemAt(i)
				if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
					continue
				}
				if !yield(e, Item3[A, B, C]{A: a, B: b, C: c}) {
					return
				}
			}
			return
		}

		driver := all[plan.driverAt]
		for _, e := range driver.entitiesSlice() {
			if !allContainExcept(all, plan.driverAt, e) || !noneContain(q.excludes, e) {
				continue
			}
			if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
				continue
			}
			a, okA := q.a.getItem(e)
			b, okB := q.b.getItem(e)
			c, okC := q.c.getItem(e)
			if !okA || !okB || !okC {
				continue
			}
			if !yield(e, Item3[A, B, C]{A: a, B: b, C: c}) {
				return
			}
		}
	}
}

func (q *Query3[A, B, C]) Iter() iter.Seq[Item3[A, B, C]] {
	return func(yield func(Item3[A, B, C]) bool) {
		for _, item := range q.Entities() {
			if !yield(item) {
				return
			}
		}
	}
}

// --- arity 4 ---

// Item4 is the per-entity result of a four-component Query4. Arity 4 is
// the ceiling: every source-engine query composite was likewise
// instantiated only up to four elements.
type Item4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

// Query4 matches entities holding four required base components.
type Query4[A, B, C, D any] struct {
	w        *World
	a        baseElement[A]
	b        baseElement[B]
	c        baseElement[C]
	d        baseElement[D]
	includes []queryElement
	excludes []queryElement
	filt     Filter
}

// NewQuery4 builds a query over four base elements.
func NewQuery4[A, B, C, D any](w *World, a baseElement[A], b baseElement[B], c baseElement[C], d baseElement[D]) *Query4[A, B, C, D] {
	return &Query4[A, B, C, D]{w: w, a: a, b: b, c: c, d: d, filt: NoFilter()}
}

// Include returns a new *Query4 requiring elems' presence, leaving the
// receiver unmodified.
func (q *Query4[A, B, C, D]) Include(elems ...queryElement) *Query4[A, B, C, D] {
	next := *q
	next.includes = appendNew(q.includes, elems...)
	return &next
}

// Exclude returns a new *Query4 requiring elems' absence, leaving the
// receiver unmodified.
func (q *Query4[A, B, C, D]) Exclude(elems ...queryElement) *Query4[A, B, C, D] {
	next := *q
	next.excludes = appendNew(q.excludes, elems...)
	return &next
}

// Filter returns a new *Query4 with f attached, leaving the receiver
// unmodified.
func (q *Query4[A, B, C, D]) Filter(f Filter) *Query4[A, B, C, D] {
	next := *q
	next.filt = f
	return &next
}

func (q *Query4[A, B, C, D]) all() []queryElement {
	all := make([]queryElement, 0, 4+len(q.includes))
	all = append(all, q.a, q.b, q.c, q.d)
	return append(all, q.includes...)
}

func (q *Query4[A, B, C, D]) Get(e Entity) (Item4[A, B, C, D], bool) {
	if !noneContain(q.excludes, e) || !allContainExcept(q.includes, -1, e) {
		return Item4[A, B, C, D]{}, false
	}
	a, okA := q.a.getItem(e)
	b, okB := q.b.getItem(e)
	c, okC := q.c.getItem(e)
	d, okD := q.d.getItem(e)
	if !okA || !okB || !okC || !okD || (!q.filt.IsPassthrough() && !q.filt.Evaluate(e)) {
		return Item4[A, B, C, D]{}, false
	}
	return Item4[A, B, C, D]{A: a, B: b, C: c, D: d}, true
}

func (q *Query4[A, B, C, D]) Entities() iter.Seq2[Entity, Item4[A, B, C, D]] {
	return func(yield func(Entity, Item4[A, B, C, D]) bool) {
		all := q.all()
		plan := planQuery(q.w.storages, all, q.excludes)

		if plan.grouped {
			for i := plan.start; i < plan.end; i++ {
				e, a := q.a.getItemAt(i)
				_, b := q.b.getItemAt(i)
				_, c := q.c.getItemAt(i)
				_, d := q.d.getItemAt(i)
				if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
					continue
				}
				if !yield(e, Item4[A, B, C, D]{A: a, B: b, C: c, D: d}) {
					return
				}
			}
			return
		}

		driver := all[plan.driverAt]
		for _, e := range driver.entitiesSlice() {
			if !allContainExcept(all, plan.driverAt, e) || !noneContain(q.excludes, e) {
				continue
			}
			if !q.filt.IsPassthrough() && !q.filt.Evaluate(e) {
				continue
			}
			a, okA := q.a.getItem(e)
			b, okB := q.b.getItem(e)
			c, okC := q.c.getItem(e)
			d, okD := q.d.getItem(e)
			if !okA || !okB || !okC || !okD {
				continue
			}
			if !yield(e, Item4[A, B, C, D]{A: a, B: b, C: c, D: d}) {
				return
			}
		}
	}
}

func (q *Query4[A, B, C, D]) Iter() iter.Seq[Item4[A, B, C, D]] {
	return func(yield func(Item4[A, B, C, D]) bool) {
		for _, item := range q.Entities() {
			if !yield(item) {
				return
			}
		}
	}
}
