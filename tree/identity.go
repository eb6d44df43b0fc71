package tree

import "sync/atomic"

// Identity names one logical node across every version of it. Two nodes with
// the same Identity are the same node at different points in time; value
// equality says nothing about identity.
type Identity uint64

// NoIdentity is never issued by an Allocator. It stands in for "no parent".
const NoIdentity Identity = 0

// Allocator issues identities from a monotonically increasing counter.
// The zero value is ready to use and safe for concurrent use.
type Allocator struct {
	last atomic.Uint64
}

// Next returns an identity never returned before by this allocator.
func (a *Allocator) Next() Identity {
	return Identity(a.last.Add(1))
}

// DefaultAllocator is the process-wide allocator behind NewIdentity.
// It is never reset and never persisted.
var DefaultAllocator Allocator

// NewIdentity allocates an identity from DefaultAllocator.
func NewIdentity() Identity {
	return DefaultAllocator.Next()
}
