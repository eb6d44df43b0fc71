// Package diff computes the history between two snapshots of one tree as a
// short list of DiffGrams.
//
// Nodes are matched by identity. A node that appears or disappears is
// reported once at the top of the affected subtree; a node present in both
// snapshots is reported only when one of its own fields, its parent, or its
// position among siblings differs.
package diff

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/agentic-research/arbor/tree"
)

// ErrMismatchedLineage is returned when the two snapshots are not versions
// of the same root.
var ErrMismatchedLineage = errors.New("snapshots do not share a root")

type placement struct {
	node   tree.Node
	parent tree.Parent
}

func (p placement) parentID() tree.Identity {
	if p.parent == nil {
		return tree.NoIdentity
	}
	return p.parent.Identity()
}

type snapshot struct {
	at  map[tree.Identity]placement
	ids *roaring64.Bitmap
}

func index(root tree.Node) snapshot {
	s := snapshot{at: make(map[tree.Identity]placement), ids: roaring64.New()}
	for n, p := range tree.All(root) {
		s.at[n.Identity()] = placement{node: n, parent: p}
		s.ids.Add(uint64(n.Identity()))
	}
	return s
}

// ChangesSince returns what happened between prior and current: every
// Removed record, then every Changed record, then every Added record, each
// group in ascending identity order.
func ChangesSince(current, prior tree.Node) ([]tree.DiffGram, error) {
	if current == nil || prior == nil {
		return nil, errors.New("changes since: nil snapshot")
	}
	if current.Identity() != prior.Identity() {
		return nil, fmt.Errorf("%w: root %d vs %d", ErrMismatchedLineage, current.Identity(), prior.Identity())
	}
	if current == prior {
		return []tree.DiffGram{}, nil
	}

	before, after := index(prior), index(current)
	removed := roaring64.AndNot(before.ids, after.ids)
	added := roaring64.AndNot(after.ids, before.ids)
	common := roaring64.And(before.ids, after.ids)

	var out []tree.DiffGram
	for _, id := range removed.ToArray() {
		p := before.at[tree.Identity(id)]
		if removed.Contains(uint64(p.parentID())) {
			continue
		}
		out = append(out, tree.Removed(p.node))
	}

	moves := newMoveCache()
	for _, id := range common.ToArray() {
		b, a := before.at[tree.Identity(id)], after.at[tree.Identity(id)]
		if c := changesOf(b, a, moves); !c.IsEmpty() {
			out = append(out, tree.Changed(b.node, a.node, c))
		}
	}

	for _, id := range added.ToArray() {
		p := after.at[tree.Identity(id)]
		if added.Contains(uint64(p.parentID())) {
			continue
		}
		out = append(out, tree.Added(p.node))
	}

	for _, d := range out {
		records.WithLabelValues(d.Kind.String()).Inc()
	}
	return out, nil
}

func changesOf(before, after placement, moves *moveCache) tree.Changes {
	var c tree.Changes
	if before.node != after.node {
		if d, ok := after.node.(tree.Diffable); ok {
			c |= d.Diff(before.node)
		}
	}
	switch {
	case before.parentID() != after.parentID():
		c |= tree.ChangedParent
	case before.parent != after.parent && moved(before, after, moves):
		c |= tree.ChangedPosition
	}
	return c
}

// moved decides whether a node kept under the same parent changed position.
//
// Under a sorted parent the node counts as moved when reinserting its new
// value among its prior siblings lands at a different index than it had.
// Under a merely ordered parent the siblings present in both versions are
// compared in order, and only those outside a longest run that kept its
// relative order count as moved. Neither rule is affected by siblings that
// were inserted or removed.
func moved(before, after placement, moves *moveCache) bool {
	prior, ok := before.parent.(tree.Ordered)
	if !ok {
		return false
	}
	current, ok := after.parent.(tree.Ordered)
	if !ok {
		return false
	}
	if s, ok := current.(tree.Sorted); ok {
		return resorted(prior, s, before.node, after.node)
	}
	return moves.of(prior, current)[after.node.Identity()]
}

func resorted(prior tree.Ordered, current tree.Sorted, before, after tree.Node) bool {
	was := prior.IndexOf(before.Identity())
	landed := 0
	for sib := range prior.Children() {
		if sib.Identity() == before.Identity() {
			continue
		}
		if current.Compare(sib, after) < 0 {
			landed++
		}
	}
	return landed != was
}

// moveCache remembers the moved set of each ordered parent so siblings do
// not recompute it.
type moveCache struct {
	byParent map[tree.Identity]map[tree.Identity]bool
}

func newMoveCache() *moveCache {
	return &moveCache{byParent: make(map[tree.Identity]map[tree.Identity]bool)}
}

func (m *moveCache) of(prior, current tree.Ordered) map[tree.Identity]bool {
	if set, ok := m.byParent[current.Identity()]; ok {
		return set
	}
	var ids []tree.Identity
	var seq []int
	for c := range current.Children() {
		if i := prior.IndexOf(c.Identity()); i >= 0 {
			ids = append(ids, c.Identity())
			seq = append(seq, i)
		}
	}
	keep := increasingRun(seq)
	set := make(map[tree.Identity]bool, len(ids)-len(keep))
	for i, id := range ids {
		if !keep[i] {
			set[id] = true
		}
	}
	m.byParent[current.Identity()] = set
	return set
}

// increasingRun marks the positions of one longest strictly increasing
// subsequence of seq.
func increasingRun(seq []int) map[int]bool {
	tails := make([]int, 0, len(seq)) // positions in seq
	prev := make([]int, len(seq))
	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		prev[i] = -1
		if lo > 0 {
			prev[i] = tails[lo-1]
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}
	keep := make(map[int]bool, len(tails))
	if len(tails) == 0 {
		return keep
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		keep[i] = true
	}
	return keep
}
