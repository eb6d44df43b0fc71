package tree

import (
	"fmt"
	"math/bits"
)

// Changes is a bitmask of what differs between two versions of a node.
// The low bits are reserved for the engine; node families number their own
// fields from FirstFieldBit up.
type Changes uint64

const (
	// ChangedParent is set when the node now lives under a different parent.
	ChangedParent Changes = 1 << iota
	// ChangedPosition is set when the node moved among its siblings.
	ChangedPosition
)

// FirstFieldBit is the first bit a node family may use for its own fields.
const FirstFieldBit = 2

// FieldBit returns the bit for the n-th field of a node family.
func FieldBit(n uint) Changes {
	return 1 << (FirstFieldBit + n)
}

// Union combines two change sets.
func (c Changes) Union(o Changes) Changes { return c | o }

// Has reports whether every bit of mask is set.
func (c Changes) Has(mask Changes) bool { return c&mask == mask }

// IsEmpty reports whether no bit is set.
func (c Changes) IsEmpty() bool { return c == 0 }

// Count returns the number of bits set.
func (c Changes) Count() int { return bits.OnesCount64(uint64(c)) }

// ChangeKind classifies a DiffGram.
type ChangeKind int

const (
	KindRemoved ChangeKind = iota
	KindChanged
	KindAdded
)

func (k ChangeKind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindRemoved:
		return "removed"
	case KindChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// DiffGram is one record of the history between two snapshots.
type DiffGram struct {
	Kind     ChangeKind
	Identity Identity
	Before   Node // nil for KindAdded
	After    Node // nil for KindRemoved
	Changes  Changes
}

// Added records a node (and implicitly its whole subtree) appearing.
func Added(n Node) DiffGram {
	return DiffGram{Kind: KindAdded, Identity: n.Identity(), After: n}
}

// Removed records a node (and implicitly its whole subtree) disappearing.
func Removed(n Node) DiffGram {
	return DiffGram{Kind: KindRemoved, Identity: n.Identity(), Before: n}
}

// Changed records a node present in both snapshots.
func Changed(before, after Node, changes Changes) DiffGram {
	return DiffGram{Kind: KindChanged, Identity: after.Identity(), Before: before, After: after, Changes: changes}
}

// Value returns the most recent value the record refers to.
func (d DiffGram) Value() Node {
	if d.After != nil {
		return d.After
	}
	return d.Before
}

func (d DiffGram) String() string {
	if d.Kind == KindChanged {
		return fmt.Sprintf("%s #%d (%#x)", d.Kind, d.Identity, uint64(d.Changes))
	}
	return fmt.Sprintf("%s #%d", d.Kind, d.Identity)
}
