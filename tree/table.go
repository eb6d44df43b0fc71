package tree

import (
	"iter"
	"slices"
	"sync/atomic"
)

// InefficiencyLoadThreshold is the load above which a table-capable parent
// builds a Lookup Table instead of letting ancestors scan through it.
const InefficiencyLoadThreshold = 16

// Shape stands for the structure of one parent's subtree: the identities in
// it and who parents whom. Versions of a parent that differ only in scalar
// fields, anywhere below, share one Shape and so share its Lookup Table.
type Shape struct {
	load   int
	tabled bool
	table  atomic.Pointer[LookupTable]
}

// NewShape computes a fresh shape for a parent with the given children.
// The inefficiency load is one for the parent plus the load of each child;
// a leaf counts one and a table-bearing child counts one no matter how
// large its subtree is. When tableable is set and the load exceeds
// InefficiencyLoadThreshold the shape carries a table and reports a load of
// one to its own parent.
func NewShape(children iter.Seq[Node], tableable bool) *Shape {
	load := 1
	if children != nil {
		for c := range children {
			load += loadOf(c)
		}
	}
	s := &Shape{load: load}
	if tableable && load > InefficiencyLoadThreshold {
		s.tabled = true
		s.load = 1
	}
	return s
}

// NextShape returns the shape for a parent that replaced child old with
// updated. prev is kept when the replacement did not touch structure: same
// identity and same child shape. Otherwise a new shape is computed from
// children, the parent's children after the replacement.
func NextShape(prev *Shape, old, updated Node, children iter.Seq[Node], tableable bool) *Shape {
	if prev != nil && old.Identity() == updated.Identity() && shapeOf(old) == shapeOf(updated) {
		return prev
	}
	return NewShape(children, tableable)
}

func shapeOf(n Node) *Shape {
	if p, ok := n.(Parent); ok {
		return p.Shape()
	}
	return nil
}

func loadOf(n Node) int {
	if s := shapeOf(n); s != nil {
		return s.load
	}
	return 1
}

// Load is the inefficiency load this shape reports to its parent.
func (s *Shape) Load() int {
	if s == nil {
		return 1
	}
	return s.load
}

// Tabled reports whether the owner of this shape maintains a Lookup Table.
func (s *Shape) Tabled() bool {
	return s != nil && s.tabled
}

// Table returns the Lookup Table for owner, building it on first use.
// Concurrent first calls may each build one; the first to publish wins and
// every caller gets that instance.
func (s *Shape) Table(owner Parent) *LookupTable {
	if !s.Tabled() {
		return nil
	}
	if t := s.table.Load(); t != nil {
		return t
	}
	t := buildTable(owner)
	if s.table.CompareAndSwap(nil, t) {
		tableBuilds.Inc()
		return t
	}
	tableBuildRaces.Inc()
	return s.table.Load()
}

// LookupTable maps each descendant an owner covers to its parent identity.
// Coverage stops at nested table-bearing parents: they are recorded, and
// their own tables answer for everything below them.
type LookupTable struct {
	owner   Identity
	parents map[Identity]Identity
	nested  []Identity
}

func buildTable(owner Parent) *LookupTable {
	t := &LookupTable{
		owner:   owner.Identity(),
		parents: make(map[Identity]Identity, owner.ChildCount()),
	}
	var walk func(p Parent)
	walk = func(p Parent) {
		for c := range p.Children() {
			t.parents[c.Identity()] = p.Identity()
			cp, ok := c.(Parent)
			if !ok {
				continue
			}
			if cp.Shape().Tabled() {
				t.nested = append(t.nested, cp.Identity())
				continue
			}
			walk(cp)
		}
	}
	walk(owner)
	return t
}

// Owner returns the identity of the parent the table was built for.
func (t *LookupTable) Owner() Identity { return t.owner }

// Len returns the number of descendants covered directly.
func (t *LookupTable) Len() int { return len(t.parents) }

// Nested returns the table-bearing descendants this table defers to.
func (t *LookupTable) Nested() []Identity { return slices.Clone(t.nested) }

// ParentOf returns the parent identity recorded for id.
func (t *LookupTable) ParentOf(id Identity) (Identity, bool) {
	p, ok := t.parents[id]
	return p, ok
}

// chain lists the identities from just below the owner down to id.
func (t *LookupTable) chain(id Identity) ([]Identity, bool) {
	p, ok := t.parents[id]
	if !ok {
		return nil, false
	}
	ids := []Identity{id}
	for p != t.owner {
		ids = append(ids, p)
		p = t.parents[p]
	}
	slices.Reverse(ids)
	return ids, true
}

// find appends to spine the path from owner (exclusive) down to target.
func (t *LookupTable) find(owner Parent, target Identity, spine Spine) (Spine, bool) {
	if ids, ok := t.chain(target); ok {
		tableHits.Inc()
		return descend(spine, owner, ids)
	}
	for _, n := range t.nested {
		ids, _ := t.chain(n)
		s, ok := descend(spine, owner, ids)
		if !ok {
			continue
		}
		np := s[len(s)-1].(Parent)
		nt := np.Shape().Table(np)
		if nt == nil {
			continue
		}
		if r, ok := nt.find(np, target, s); ok {
			return r, true
		}
	}
	return nil, false
}

// descend resolves ids one level at a time below from.
func descend(spine Spine, from Node, ids []Identity) (Spine, bool) {
	cur := from
	for _, id := range ids {
		p, ok := cur.(Parent)
		if !ok {
			return nil, false
		}
		c, ok := p.Child(id)
		if !ok {
			return nil, false
		}
		spine = append(spine, c)
		cur = c
	}
	return spine, true
}
