package tree

import (
	"cmp"
	"fmt"
	"iter"
	"sync"

	"github.com/google/btree"
)

const sortedDegree = 8

// Sorted is a persistent collection of nodes kept in comparator order, ties
// broken by identity. It is backed by a copy-on-write B-tree, so an edit
// costs O(log n) and shares every untouched B-tree node with the receiver.
// A second B-tree keyed by identity makes Get O(log n).
// The zero value is empty and cannot be edited; use NewSorted.
type Sorted[T Node] struct {
	s *sortedState[T]
}

type sortedState[T Node] struct {
	compare func(a, b T) int
	// mu serialises Clone, which writes bookkeeping into the source trees.
	mu   sync.Mutex
	tree *btree.BTreeG[T]
	byID *btree.BTreeG[keyed[T]]
}

type keyed[T Node] struct {
	id Identity
	v  T
}

func byIdentity[T Node](a, b keyed[T]) bool { return a.id < b.id }

// NewSorted builds a sorted collection ordered by compare, failing with
// ErrDuplicateChild if two items share an identity.
func NewSorted[T Node](compare func(a, b T) int, items ...T) (Sorted[T], error) {
	full := func(a, b T) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.Identity(), b.Identity())
	}
	bt := btree.NewG(sortedDegree, func(a, b T) bool { return full(a, b) < 0 })
	ids := btree.NewG(sortedDegree, byIdentity[T])
	for _, it := range items {
		if _, dup := ids.ReplaceOrInsert(keyed[T]{id: it.Identity(), v: it}); dup {
			return Sorted[T]{}, fmt.Errorf("%w: identity %d", ErrDuplicateChild, it.Identity())
		}
		bt.ReplaceOrInsert(it)
	}
	return Sorted[T]{s: &sortedState[T]{compare: full, tree: bt, byID: ids}}, nil
}

func (s Sorted[T]) Len() int {
	if s.s == nil {
		return 0
	}
	return s.s.tree.Len()
}

// Compare orders a and b the way the collection does.
func (s Sorted[T]) Compare(a, b T) int { return s.s.compare(a, b) }

// Values enumerates the items in order.
func (s Sorted[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s.s == nil {
			return
		}
		s.s.tree.Ascend(func(it T) bool { return yield(it) })
	}
}

// All enumerates positions and items in order.
func (s Sorted[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		i := 0
		for it := range s.Values() {
			if !yield(i, it) {
				return
			}
			i++
		}
	}
}

// Nodes enumerates the items as plain nodes.
func (s Sorted[T]) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for it := range s.Values() {
			if !yield(it) {
				return
			}
		}
	}
}

// At returns the item at position i, walking the collection.
func (s Sorted[T]) At(i int) (T, bool) {
	for j, it := range s.All() {
		if j == i {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// IndexOf returns the position of the item with identity id, or -1.
func (s Sorted[T]) IndexOf(id Identity) int {
	for i, it := range s.All() {
		if it.Identity() == id {
			return i
		}
	}
	return -1
}

// Get returns the item with identity id in O(log n).
func (s Sorted[T]) Get(id Identity) (T, bool) {
	if s.s == nil {
		var zero T
		return zero, false
	}
	k, ok := s.s.byID.Get(keyed[T]{id: id})
	return k.v, ok
}

// Ceil returns the first item not ordered before probe.
func (s Sorted[T]) Ceil(probe T) (T, bool) {
	var found T
	ok := false
	if s.s != nil {
		s.s.tree.AscendGreaterOrEqual(probe, func(it T) bool {
			found, ok = it, true
			return false
		})
	}
	return found, ok
}

// Insert adds v. The zero value fails with ErrUninitialized.
func (s Sorted[T]) Insert(v T) (Sorted[T], error) {
	if s.s == nil {
		return s, ErrUninitialized
	}
	if _, dup := s.Get(v.Identity()); dup {
		return s, fmt.Errorf("%w: identity %d", ErrDuplicateChild, v.Identity())
	}
	next := s.clone()
	next.s.tree.ReplaceOrInsert(v)
	next.s.byID.ReplaceOrInsert(keyed[T]{id: v.Identity(), v: v})
	return next, nil
}

// Remove drops the item with identity id. It reports false, and returns the
// receiver, when there is no such item.
func (s Sorted[T]) Remove(id Identity) (Sorted[T], bool) {
	old, ok := s.Get(id)
	if !ok {
		return s, false
	}
	next := s.clone()
	next.s.tree.Delete(old)
	next.s.byID.Delete(keyed[T]{id: id})
	return next, true
}

// Replace swaps v in for the item with identity old, re-sorting as needed.
// If v is that very item the receiver is returned.
func (s Sorted[T]) Replace(old Identity, v T) (Sorted[T], error) {
	cur, ok := s.Get(old)
	if !ok {
		return s, fmt.Errorf("%w: identity %d", ErrNotFound, old)
	}
	if Node(cur) == Node(v) {
		return s, nil
	}
	if v.Identity() != old {
		if _, dup := s.Get(v.Identity()); dup {
			return s, fmt.Errorf("%w: identity %d", ErrDuplicateChild, v.Identity())
		}
	}
	next := s.clone()
	next.s.tree.Delete(cur)
	next.s.tree.ReplaceOrInsert(v)
	next.s.byID.Delete(keyed[T]{id: old})
	next.s.byID.ReplaceOrInsert(keyed[T]{id: v.Identity(), v: v})
	return next, nil
}

func (s Sorted[T]) clone() Sorted[T] {
	s.s.mu.Lock()
	bt := s.s.tree.Clone()
	ids := s.s.byID.Clone()
	s.s.mu.Unlock()
	return Sorted[T]{s: &sortedState[T]{compare: s.s.compare, tree: bt, byID: ids}}
}
