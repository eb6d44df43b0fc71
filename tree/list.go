package tree

import (
	"fmt"
	"iter"
	"slices"
	"sync/atomic"
)

// List is a persistent ordered collection of nodes with unique identities.
// Every edit returns a new List; the receiver never changes. The zero value
// is an empty list.
type List[T Node] struct {
	items []T
	// index maps identities to positions. It is built on the first lookup
	// and shared by copies of this version.
	index *atomic.Pointer[map[Identity]int]
}

func newList[T Node](items []T) List[T] {
	return List[T]{items: items, index: new(atomic.Pointer[map[Identity]int])}
}

func (l List[T]) positions() map[Identity]int {
	if l.index == nil {
		return nil
	}
	if m := l.index.Load(); m != nil {
		return *m
	}
	m := make(map[Identity]int, len(l.items))
	for i, it := range l.items {
		m[it.Identity()] = i
	}
	if l.index.CompareAndSwap(nil, &m) {
		return m
	}
	return *l.index.Load()
}

// NewList builds a list, failing with ErrDuplicateChild if two items share
// an identity.
func NewList[T Node](items ...T) (List[T], error) {
	seen := make(map[Identity]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.Identity()]; dup {
			return List[T]{}, fmt.Errorf("%w: identity %d", ErrDuplicateChild, it.Identity())
		}
		seen[it.Identity()] = struct{}{}
	}
	return newList(slices.Clone(items)), nil
}

func (l List[T]) Len() int { return len(l.items) }

// At returns the item at position i. It panics when i is out of range.
func (l List[T]) At(i int) T { return l.items[i] }

// All enumerates positions and items.
func (l List[T]) All() iter.Seq2[int, T] { return slices.All(l.items) }

// Values enumerates the items.
func (l List[T]) Values() iter.Seq[T] { return slices.Values(l.items) }

// Nodes enumerates the items as plain nodes.
func (l List[T]) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, it := range l.items {
			if !yield(it) {
				return
			}
		}
	}
}

// IndexOf returns the position of the item with identity id, or -1.
func (l List[T]) IndexOf(id Identity) int {
	if i, ok := l.positions()[id]; ok {
		return i
	}
	return -1
}

// Get returns the item with identity id.
func (l List[T]) Get(id Identity) (T, bool) {
	if i := l.IndexOf(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Append adds v at the end.
func (l List[T]) Append(v T) (List[T], error) {
	return l.Insert(len(l.items), v)
}

// Insert adds v at position i.
func (l List[T]) Insert(i int, v T) (List[T], error) {
	if i < 0 || i > len(l.items) {
		return l, fmt.Errorf("insert at %d: index out of range [0,%d]", i, len(l.items))
	}
	if l.IndexOf(v.Identity()) >= 0 {
		return l, fmt.Errorf("%w: identity %d", ErrDuplicateChild, v.Identity())
	}
	items := make([]T, 0, len(l.items)+1)
	items = append(items, l.items[:i]...)
	items = append(items, v)
	items = append(items, l.items[i:]...)
	return newList(items), nil
}

// Remove drops the item with identity id. It reports false, and returns the
// receiver, when there is no such item.
func (l List[T]) Remove(id Identity) (List[T], bool) {
	i := l.IndexOf(id)
	if i < 0 {
		return l, false
	}
	return newList(slices.Delete(slices.Clone(l.items), i, i+1)), true
}

// Replace puts v where the item with identity old sits. If v is that very
// item the receiver is returned.
func (l List[T]) Replace(old Identity, v T) (List[T], error) {
	i := l.IndexOf(old)
	if i < 0 {
		return l, fmt.Errorf("%w: identity %d", ErrNotFound, old)
	}
	if Node(l.items[i]) == Node(v) {
		return l, nil
	}
	if v.Identity() != old && l.IndexOf(v.Identity()) >= 0 {
		return l, fmt.Errorf("%w: identity %d", ErrDuplicateChild, v.Identity())
	}
	items := slices.Clone(l.items)
	items[i] = v
	return newList(items), nil
}

// Slice returns a copy of the items.
func (l List[T]) Slice() []T { return slices.Clone(l.items) }
