package sparsecs

import "reflect"

// Group describes one nesting level of a Layout family: the ordered list
// of component types a group keeps aligned at the front of their dense
// arrays. Pass zero values of the component types; only their runtime
// type is used.
func Group(components ...any) []reflect.Type {
	types := make([]reflect.Type, len(components))
	for i, c := range components {
		types[i] = reflect.TypeOf(c)
	}
	return types
}

// layoutFamily is an ordered, nested sequence of groups sharing the same
// component set at its largest (outermost) level. groups[i] is always a
// prefix of groups[i+1].
type layoutFamily struct {
	groups [][]reflect.Type
}

// Layout is a declarative nesting of component groups: an ordered
// sequence of families, each a nested sequence of component-type groups.
// A component type may appear in at most one family; within a family,
// each group must be a strict prefix of the next.
type Layout struct {
	families []layoutFamily
}

// NewLayout returns an empty Layout.
func NewLayout() *Layout {
	return &Layout{}
}

// AddFamily appends a family built from its groups, smallest arity
// first. A flat family is a single group, e.g. AddFamily(Group(A{},
// B{})). A nested family lists each nested level, e.g.
// AddFamily(Group(A{}, B{}), Group(A{}, B{}, C{})).
//
// Returns LayoutConflict if any group is not a strict prefix of the
// next, or if a component type already belongs to a previously added
// family.
func (l *Layout) AddFamily(groups ...[]reflect.Type) error {
	if len(groups) == 0 {
		return LayoutConflict{Reason: "family must have at least one group"}
	}

	prevArity := 0
	for _, g := range groups {
		if len(g) <= prevArity {
			return LayoutConflict{Reason: "group arities must be strictly increasing"}
		}
		prevArity = len(g)
	}

	// Verify every smaller group is a prefix of the next.
	for i := 1; i < len(groups); i++ {
		for j := range groups[i-1] {
			if groups[i-1][j] != groups[i][j] {
				return LayoutConflict{Reason: "group is not a prefix of the next group in its family"}
			}
		}
	}

	seen := make(map[reflect.Type]bool)
	for _, fam := range l.families {
		largest := fam.groups[len(fam.groups)-1]
		for _, t := range largest {
			seen[t] = true
		}
	}
	largest := groups[len(groups)-1]
	for _, t := range largest {
		if seen[t] {
			return LayoutConflict{Reason: "component type " + t.String() + " already belongs to another family"}
		}
	}

	l.families = append(l.families, layoutFamily{groups: groups})
	return nil
}
