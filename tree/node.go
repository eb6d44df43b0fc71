package tree

import "iter"

// Node is an immutable tree value carrying a stable Identity.
//
// Implementations must be pointer types: the engine relies on == between
// interface values to detect untouched subtrees, and With-style edits that
// change nothing must hand back the receiver itself.
type Node interface {
	Identity() Identity
}

// Parent is a Node that holds children. Every edit returns a new Parent and
// leaves the receiver untouched; an edit that changes nothing returns the
// receiver.
type Parent interface {
	Node

	// Children enumerates the direct children in the parent's natural order.
	Children() iter.Seq[Node]
	ChildCount() int
	// Child returns the direct child with the given identity.
	Child(id Identity) (Node, bool)

	// Shape identifies the structure of the subtree below this parent.
	// Versions that differ only in scalar fields share one Shape.
	Shape() *Shape

	// WithChild adds child, failing with ErrDuplicateChild if a child with
	// the same identity is already present.
	WithChild(child Node) (Parent, error)
	// WithoutChild drops the child with the given identity.
	WithoutChild(id Identity) (Parent, error)
	// WithChildReplaced substitutes updated for the child identified by
	// old.Identity(). updated may carry a different identity.
	WithChildReplaced(old, updated Node) (Parent, error)
}

// Ordered is a Parent whose children have a meaningful position.
type Ordered interface {
	Parent
	// IndexOf returns the position of the child, or -1.
	IndexOf(id Identity) int
}

// Sorted is an Ordered parent whose positions follow a comparator.
type Sorted interface {
	Ordered
	// Compare orders two children the way the parent stores them.
	Compare(a, b Node) int
}

// Tabled is a Parent that may carry a Lookup Table over its subtree.
type Tabled interface {
	Parent
	// LookupTable returns the table for this node, building it on first
	// use, or nil when the subtree is small enough to scan.
	LookupTable() *LookupTable
	// InefficiencyLoad reports the load this node contributes to its parent.
	InefficiencyLoad() int
}

// Diffable is a Node that can report which of its own fields differ from
// an earlier version of the same logical node.
type Diffable interface {
	Node
	// Diff compares against prior, which shares the receiver's identity but
	// may be a different variant of the node family. Only field bits are
	// reported; the engine adds ChangedParent and ChangedPosition itself.
	Diff(prior Node) Changes
}

// Same reports whether a and b are the same instance.
func Same(a, b Node) bool {
	return a == b
}
