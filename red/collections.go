package red

import (
	"errors"
	"fmt"
	"iter"

	"github.com/agentic-research/arbor/tree"
)

// ErrUnsupportedComparer is returned when a rooted collection is asked to
// compare elements with anything but identity.
var ErrUnsupportedComparer = errors.New("rooted collections only support identity comparison")

// Comparer decides element equality for collection lookups.
type Comparer interface {
	Equal(a, b tree.Node) bool
}

type identityComparer struct{}

func (identityComparer) Equal(a, b tree.Node) bool { return a.Identity() == b.Identity() }

// IdentityComparer compares nodes by identity. It is the only comparer the
// rooted collections accept besides nil.
var IdentityComparer Comparer = identityComparer{}

func checkComparer(c Comparer) error {
	if c == nil || c == IdentityComparer {
		return nil
	}
	return fmt.Errorf("%w: got %T", ErrUnsupportedComparer, c)
}

// ----------------------------------------------------------------------------
// RootedList
// ----------------------------------------------------------------------------

// RootedList presents a tree.List as red nodes under one root. Elements are
// rooted as they are read; the list itself is never copied.
type RootedList[T tree.Node] struct {
	items tree.List[T]
	root  tree.Node
}

// NewRootedList roots items under root.
func NewRootedList[T tree.Node](items tree.List[T], root tree.Node) RootedList[T] {
	return RootedList[T]{items: items, root: root}
}

// Unrooted returns the underlying list.
func (l RootedList[T]) Unrooted() tree.List[T] { return l.items }
func (l RootedList[T]) Root() tree.Node        { return l.root }
func (l RootedList[T]) Len() int               { return l.items.Len() }

// At returns the i-th element.
func (l RootedList[T]) At(i int) Node[T] {
	return Node[T]{value: l.items.At(i), root: l.root}
}

// All enumerates the elements with their positions.
func (l RootedList[T]) All() iter.Seq2[int, Node[T]] {
	return func(yield func(int, Node[T]) bool) {
		for i, v := range l.items.All() {
			if !yield(i, Node[T]{value: v, root: l.root}) {
				return
			}
		}
	}
}

func (l RootedList[T]) rewrap(items tree.List[T]) RootedList[T] {
	return RootedList[T]{items: items, root: l.root}
}

// Add appends item.
func (l RootedList[T]) Add(item Node[T]) (RootedList[T], error) {
	items, err := l.items.Append(item.value)
	if err != nil {
		return RootedList[T]{}, err
	}
	return l.rewrap(items), nil
}

// Insert places item at position i.
func (l RootedList[T]) Insert(i int, item Node[T]) (RootedList[T], error) {
	items, err := l.items.Insert(i, item.value)
	if err != nil {
		return RootedList[T]{}, err
	}
	return l.rewrap(items), nil
}

// Remove drops item. It reports false when item is not in the list.
func (l RootedList[T]) Remove(item Node[T]) (RootedList[T], bool) {
	items, ok := l.items.Remove(item.Identity())
	if !ok {
		return l, false
	}
	return l.rewrap(items), true
}

// Replace swaps updated in for old.
func (l RootedList[T]) Replace(old, updated Node[T], cmp Comparer) (RootedList[T], error) {
	if err := checkComparer(cmp); err != nil {
		return RootedList[T]{}, err
	}
	items, err := l.items.Replace(old.Identity(), updated.value)
	if err != nil {
		return RootedList[T]{}, err
	}
	return l.rewrap(items), nil
}

// Contains reports whether item is in the list.
func (l RootedList[T]) Contains(item Node[T], cmp Comparer) (bool, error) {
	i, err := l.IndexOf(item, cmp)
	return i >= 0, err
}

// IndexOf returns the position of item, or -1.
func (l RootedList[T]) IndexOf(item Node[T], cmp Comparer) (int, error) {
	if err := checkComparer(cmp); err != nil {
		return -1, err
	}
	return l.items.IndexOf(item.Identity()), nil
}

// ----------------------------------------------------------------------------
// RootedSorted
// ----------------------------------------------------------------------------

// RootedSorted presents a tree.Sorted as red nodes under one root.
type RootedSorted[T tree.Node] struct {
	items tree.Sorted[T]
	root  tree.Node
}

// NewRootedSorted roots items under root.
func NewRootedSorted[T tree.Node](items tree.Sorted[T], root tree.Node) RootedSorted[T] {
	return RootedSorted[T]{items: items, root: root}
}

func (s RootedSorted[T]) Unrooted() tree.Sorted[T] { return s.items }
func (s RootedSorted[T]) Root() tree.Node          { return s.root }
func (s RootedSorted[T]) Len() int                 { return s.items.Len() }

// At returns the i-th element in sort order.
func (s RootedSorted[T]) At(i int) (Node[T], bool) {
	v, ok := s.items.At(i)
	if !ok {
		return Node[T]{}, false
	}
	return Node[T]{value: v, root: s.root}, true
}

// All enumerates the elements in sort order.
func (s RootedSorted[T]) All() iter.Seq2[int, Node[T]] {
	return func(yield func(int, Node[T]) bool) {
		for i, v := range s.items.All() {
			if !yield(i, Node[T]{value: v, root: s.root}) {
				return
			}
		}
	}
}

func (s RootedSorted[T]) rewrap(items tree.Sorted[T]) RootedSorted[T] {
	return RootedSorted[T]{items: items, root: s.root}
}

// Add inserts item at its sorted position.
func (s RootedSorted[T]) Add(item Node[T]) (RootedSorted[T], error) {
	items, err := s.items.Insert(item.value)
	if err != nil {
		return RootedSorted[T]{}, err
	}
	return s.rewrap(items), nil
}

// Remove drops item. It reports false when item is not in the collection.
func (s RootedSorted[T]) Remove(item Node[T]) (RootedSorted[T], bool) {
	items, ok := s.items.Remove(item.Identity())
	if !ok {
		return s, false
	}
	return s.rewrap(items), true
}

// Replace swaps updated in for old, resorting it.
func (s RootedSorted[T]) Replace(old, updated Node[T], cmp Comparer) (RootedSorted[T], error) {
	if err := checkComparer(cmp); err != nil {
		return RootedSorted[T]{}, err
	}
	items, err := s.items.Replace(old.Identity(), updated.value)
	if err != nil {
		return RootedSorted[T]{}, err
	}
	return s.rewrap(items), nil
}

// Contains reports whether item is in the collection.
func (s RootedSorted[T]) Contains(item Node[T], cmp Comparer) (bool, error) {
	i, err := s.IndexOf(item, cmp)
	return i >= 0, err
}

// IndexOf returns the sorted position of item, or -1.
func (s RootedSorted[T]) IndexOf(item Node[T], cmp Comparer) (int, error) {
	if err := checkComparer(cmp); err != nil {
		return -1, err
	}
	return s.items.IndexOf(item.Identity()), nil
}
