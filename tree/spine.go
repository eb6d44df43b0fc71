package tree

import (
	"fmt"
	"iter"
)

// Spine is the chain of nodes from a root down to a target, both inclusive.
type Spine []Node

// Root returns the first element.
func (s Spine) Root() Node { return s[0] }

// Target returns the last element.
func (s Spine) Target() Node { return s[len(s)-1] }

// Parent returns the parent of the target, or nil when the target is the root.
func (s Spine) Parent() Parent {
	if len(s) < 2 {
		return nil
	}
	return s[len(s)-2].(Parent)
}

// Identities returns the identity of each element in order.
func (s Spine) Identities() []Identity {
	ids := make([]Identity, len(s))
	for i, n := range s {
		ids[i] = n.Identity()
	}
	return ids
}

// GetSpine returns the path from root to the node identified by target.
//
// Parents that carry a Lookup Table answer in O(depth); everything else is
// searched depth-first. A target equal to the root yields a one-element spine.
func GetSpine(root Node, target Identity) (Spine, error) {
	if s, ok := appendSpine(nil, root, target); ok {
		spineLookups.WithLabelValues("found").Inc()
		return s, nil
	}
	spineLookups.WithLabelValues("missing").Inc()
	return nil, fmt.Errorf("%w: identity %d", ErrNotFound, target)
}

func appendSpine(spine Spine, n Node, target Identity) (Spine, bool) {
	spine = append(spine, n)
	if n.Identity() == target {
		return spine, true
	}
	p, ok := n.(Parent)
	if !ok {
		return nil, false
	}
	if t := p.Shape().Table(p); t != nil {
		return t.find(p, target, spine)
	}
	for c := range p.Children() {
		if r, ok := appendSpine(spine, c, target); ok {
			return r, true
		}
	}
	return nil, false
}

// Find returns the node identified by id and its parent, which is nil when
// id is the root.
func Find(root Node, id Identity) (Node, Parent, error) {
	s, err := GetSpine(root, id)
	if err != nil {
		return nil, nil, err
	}
	return s.Target(), s.Parent(), nil
}

// Contains reports whether id is root or one of its descendants.
func Contains(root Node, id Identity) bool {
	_, ok := appendSpine(nil, root, id)
	return ok
}

// All enumerates root and every descendant in pre-order together with its
// parent. The root is yielded with a nil parent.
func All(root Node) iter.Seq2[Node, Parent] {
	return func(yield func(Node, Parent) bool) {
		walkAll(root, nil, yield)
	}
}

func walkAll(n Node, parent Parent, yield func(Node, Parent) bool) bool {
	if !yield(n, parent) {
		return false
	}
	p, ok := n.(Parent)
	if !ok {
		return true
	}
	for c := range p.Children() {
		if !walkAll(c, p, yield) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the tree rooted at root.
func Count(root Node) int {
	n := 0
	for range All(root) {
		n++
	}
	return n
}
