package tree

import "errors"

var (
	// ErrNotFound is returned when a target identity is not reachable from
	// the root a mutation or lookup was given.
	ErrNotFound = errors.New("element not found")

	// ErrDuplicateChild is returned when an edit would leave a parent with
	// two children sharing one identity.
	ErrDuplicateChild = errors.New("duplicate child identity")

	// ErrNotParent is returned when children are requested of, or added to,
	// a node that cannot hold any.
	ErrNotParent = errors.New("node cannot hold children")

	// ErrRootRemoval is returned when RemoveDescendant targets the root.
	ErrRootRemoval = errors.New("cannot remove the root")

	// ErrUninitialized is returned when the zero value of a collection that
	// needs a comparator is edited.
	ErrUninitialized = errors.New("collection has no comparator; use NewSorted")
)
