package tree

import (
	"errors"
	"fmt"
)

// ReplaceDescendant rebuilds the ancestors on spine so that they lead to
// replacement, and returns the new root.
//
// replacement is itself a spine: replacement[0] takes the place of one
// element of spine, and the rest of replacement is already linked below it.
// When spineIncludesDeletedElement is false the replacement covers the
// bottom len(replacement) elements of spine. When it is true the last
// element of spine is the node being deleted (already absent from
// replacement) and the replacement covers the len(replacement) elements
// above it.
//
// Nodes off the spine are carried over untouched. If the replacement is the
// very instance it replaces, the original root is returned.
func ReplaceDescendant(spine Spine, replacement Spine, spineIncludesDeletedElement bool) (Node, error) {
	if len(spine) == 0 {
		return nil, errors.New("replace descendant: empty spine")
	}
	if len(replacement) == 0 {
		return nil, errors.New("replace descendant: empty replacement")
	}
	bottom := len(spine) - 1
	if spineIncludesDeletedElement {
		bottom--
	}
	k := bottom + 1 - len(replacement)
	if k < 0 {
		return nil, fmt.Errorf("replace descendant: replacement of %d nodes exceeds spine of %d", len(replacement), bottom+1)
	}

	current := replacement[0]
	if current == spine[k] {
		return spine[0], nil
	}
	for i := k - 1; i >= 0; i-- {
		parent, ok := spine[i].(Parent)
		if !ok {
			return nil, fmt.Errorf("%w: identity %d", ErrNotParent, spine[i].Identity())
		}
		updated, err := parent.WithChildReplaced(spine[i+1], current)
		if err != nil {
			return nil, fmt.Errorf("rebuild identity %d: %w", parent.Identity(), err)
		}
		current = updated
	}
	return current, nil
}

// Replace swaps in updated for the node identified by old.Identity() and
// returns the new root. old may be any version of that node. updated may
// carry a different identity, in which case it must not collide with one of
// its new siblings.
func Replace(root, old, updated Node) (Node, error) {
	spine, err := GetSpine(root, old.Identity())
	if err != nil {
		return nil, err
	}
	return ReplaceDescendant(spine, Spine{updated}, false)
}

// AddDescendant adds value as a child of the node identified by parent and
// returns the new root.
func AddDescendant(root, value Node, parent Identity) (Node, error) {
	spine, err := GetSpine(root, parent)
	if err != nil {
		return nil, err
	}
	p, ok := spine.Target().(Parent)
	if !ok {
		return nil, fmt.Errorf("%w: identity %d", ErrNotParent, parent)
	}
	np, err := p.WithChild(value)
	if err != nil {
		return nil, err
	}
	return ReplaceDescendant(spine, Spine{np}, false)
}

// RemoveDescendant removes the node identified by id, with its subtree, and
// returns the new root.
func RemoveDescendant(root Node, id Identity) (Node, error) {
	spine, err := GetSpine(root, id)
	if err != nil {
		return nil, err
	}
	if len(spine) == 1 {
		return nil, fmt.Errorf("%w: identity %d", ErrRootRemoval, id)
	}
	np, err := spine.Parent().WithoutChild(id)
	if err != nil {
		return nil, err
	}
	return ReplaceDescendant(spine, Spine{np}, true)
}

// Move detaches the node identified by id and adds it under newParent,
// keeping its identity and subtree. Moving a node below itself fails with
// ErrNotFound since the new parent is gone once the node is detached.
func Move(root Node, id, newParent Identity) (Node, error) {
	value, _, err := Find(root, id)
	if err != nil {
		return nil, err
	}
	detached, err := RemoveDescendant(root, id)
	if err != nil {
		return nil, err
	}
	return AddDescendant(detached, value, newParent)
}
