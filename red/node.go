// Package red provides rooted views over persistent trees. A red node pairs
// a value with the root it was reached from, so it can answer questions the
// value alone cannot: who its parent is, where it sits among its siblings,
// and what the whole tree looks like after it changes.
//
// Nothing is cached. Every navigation re-extracts the spine from the stored
// root, which costs O(depth) with lookup tables and keeps views as cheap to
// create as a pair of pointers.
package red

import (
	"errors"
	"fmt"
	"iter"

	"github.com/agentic-research/arbor/tree"
)

// ErrUnrelatedRoot is returned when a value is paired with a root it cannot
// be reached from.
var ErrUnrelatedRoot = errors.New("value is not reachable from root")

// Node is a value of type T seen from root.
type Node[T tree.Node] struct {
	value T
	root  tree.Node
}

// Rooted is satisfied by every Node instantiation.
type Rooted interface {
	Identity() tree.Identity
	RootIdentity() tree.Identity
}

// AsRoot views root as the root of its own tree.
func AsRoot[T tree.Node](root T) Node[T] {
	return Node[T]{value: root, root: root}
}

// WithRoot views value as part of the tree under root.
func WithRoot[T tree.Node](value T, root tree.Node) (Node[T], error) {
	if !tree.Contains(root, value.Identity()) {
		return Node[T]{}, fmt.Errorf("%w: identity %d under root %d", ErrUnrelatedRoot, value.Identity(), root.Identity())
	}
	return Node[T]{value: value, root: root}, nil
}

// Narrow views n as a U, keeping the same value instance and root.
func Narrow[U, T tree.Node](n Node[T]) (Node[U], bool) {
	u, ok := tree.Node(n.value).(U)
	if !ok {
		return Node[U]{}, false
	}
	return Node[U]{value: u, root: n.root}, true
}

// IsZero reports whether n was never assigned.
func (n Node[T]) IsZero() bool { return n.root == nil }

func (n Node[T]) Value() T        { return n.value }
func (n Node[T]) Root() tree.Node { return n.root }
func (n Node[T]) IsRoot() bool    { return !n.IsZero() && n.Identity() == n.RootIdentity() }

// Identity returns the value's identity, or tree.NoIdentity for the zero
// view.
func (n Node[T]) Identity() tree.Identity {
	if n.IsZero() {
		return tree.NoIdentity
	}
	return n.value.Identity()
}

// RootIdentity returns the identity of root, or tree.NoIdentity for the zero
// view.
func (n Node[T]) RootIdentity() tree.Identity {
	if n.root == nil {
		return tree.NoIdentity
	}
	return n.root.Identity()
}

// Untyped widens n to a plain node view.
func (n Node[T]) Untyped() Node[tree.Node] {
	return Node[tree.Node]{value: n.value, root: n.root}
}

// Equal reports whether both views name the same node under the same root.
func (n Node[T]) Equal(o Rooted) bool {
	return n.Identity() == o.Identity() && n.RootIdentity() == o.RootIdentity()
}

func (n Node[T]) String() string {
	return fmt.Sprintf("#%d@%d", n.Identity(), n.RootIdentity())
}

// Spine returns the path from the root to this node.
func (n Node[T]) Spine() (tree.Spine, error) {
	if n.IsZero() {
		return nil, fmt.Errorf("%w: zero view", ErrUnrelatedRoot)
	}
	return tree.GetSpine(n.root, n.value.Identity())
}

// Parent returns the view of this node's parent. It reports false for the
// root, and for a view whose value has since been removed from its root.
func (n Node[T]) Parent() (Node[tree.Parent], bool) {
	s, err := n.Spine()
	if err != nil || len(s) < 2 {
		return Node[tree.Parent]{}, false
	}
	return Node[tree.Parent]{value: s.Parent(), root: n.root}, true
}

// Children enumerates views of the children this node has under root. The
// value's version is resolved through the spine, so a view created from an
// older version lists the children root actually holds.
func (n Node[T]) Children() iter.Seq[Node[tree.Node]] {
	return func(yield func(Node[tree.Node]) bool) {
		if n.root == nil {
			return
		}
		s, err := n.Spine()
		if err != nil {
			return
		}
		p, ok := s.Target().(tree.Parent)
		if !ok {
			return
		}
		for c := range p.Children() {
			if !yield(Node[tree.Node]{value: c, root: n.root}) {
				return
			}
		}
	}
}

// Index returns the position among siblings, or -1 when the parent has no
// meaningful order or there is no parent.
func (n Node[T]) Index() int {
	p, ok := n.Parent()
	if !ok {
		return -1
	}
	o, ok := p.value.(tree.Ordered)
	if !ok {
		return -1
	}
	return o.IndexOf(n.Identity())
}

// Siblings enumerates the other children of this node's parent.
func (n Node[T]) Siblings() iter.Seq[Node[tree.Node]] {
	return func(yield func(Node[tree.Node]) bool) {
		p, ok := n.Parent()
		if !ok {
			return
		}
		for c := range p.Children() {
			if c.Identity() == n.Identity() {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// With replaces the value in the underlying tree and returns the view of
// updated under the new root.
func (n Node[T]) With(updated T) (Node[T], error) {
	if n.IsZero() {
		return Node[T]{}, fmt.Errorf("%w: zero view", ErrUnrelatedRoot)
	}
	root, err := tree.Replace(n.root, n.value, updated)
	if err != nil {
		return Node[T]{}, err
	}
	return Node[T]{value: updated, root: root}, nil
}

// AddChild adds child below this node and returns the view of child under
// the new root.
func (n Node[T]) AddChild(child tree.Node) (Node[tree.Node], error) {
	if n.IsZero() {
		return Node[tree.Node]{}, fmt.Errorf("%w: zero view", ErrUnrelatedRoot)
	}
	root, err := tree.AddDescendant(n.root, child, n.Identity())
	if err != nil {
		return Node[tree.Node]{}, err
	}
	return Node[tree.Node]{value: child, root: root}, nil
}

// Remove drops this node from its tree and returns the view of the new root.
func (n Node[T]) Remove() (Node[tree.Node], error) {
	if n.IsZero() {
		return Node[tree.Node]{}, fmt.Errorf("%w: zero view", ErrUnrelatedRoot)
	}
	root, err := tree.RemoveDescendant(n.root, n.Identity())
	if err != nil {
		return Node[tree.Node]{}, err
	}
	return AsRoot(root), nil
}

// Current returns the view of this node's version under root, which may be
// newer than the value the view was created with.
func (n Node[T]) Current() (Node[T], error) {
	s, err := n.Spine()
	if err != nil {
		return Node[T]{}, err
	}
	v, ok := s.Target().(T)
	if !ok {
		return Node[T]{}, fmt.Errorf("identity %d is now a %T", n.Identity(), s.Target())
	}
	return Node[T]{value: v, root: n.root}, nil
}
