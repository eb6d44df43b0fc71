// Package vfs is a virtual file tree built on the persistent tree engine:
// directories keep their entries sorted by name and carry lookup tables,
// Go sources keep their declarations in source order, files are leaves.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/agentic-research/arbor/tree"
)

var (
	// ErrNotEntry is returned when a node that is not a vfs entry is added
	// to a directory, or a non-declaration to a source.
	ErrNotEntry = errors.New("not a vfs entry")

	// ErrDuplicateName is returned when an edit would leave two entries of
	// one directory with the same name.
	ErrDuplicateName = errors.New("duplicate entry name")
)

// Field bits reported by Diff.
const (
	ChangedType tree.Changes = 1 << (tree.FirstFieldBit + iota)
	ChangedName
	ChangedMode
	ChangedData
	ChangedLanguage
	ChangedKind
	ChangedBody
)

var changeNames = []struct {
	bit  tree.Changes
	name string
}{
	{tree.ChangedParent, "parent"},
	{tree.ChangedPosition, "position"},
	{ChangedType, "type"},
	{ChangedName, "name"},
	{ChangedMode, "mode"},
	{ChangedData, "data"},
	{ChangedLanguage, "language"},
	{ChangedKind, "kind"},
	{ChangedBody, "body"},
}

// Describe names the bits set in c, engine bits first.
func Describe(c tree.Changes) []string {
	var out []string
	for _, n := range changeNames {
		if c.Has(n.bit) {
			out = append(out, n.name)
		}
	}
	return out
}

// Entry is a member of a directory: a *Dir, *File or *Source.
type Entry interface {
	tree.Diffable
	Name() string
	entry()
}

// ModeOf returns the mode of e.
func ModeOf(e Entry) fs.FileMode {
	if m, ok := e.(interface{ Mode() fs.FileMode }); ok {
		return m.Mode()
	}
	return 0
}

func asEntry(n tree.Node) (Entry, error) {
	e, ok := n.(Entry)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotEntry, n)
	}
	return e, nil
}

func byName(a, b Entry) int {
	return strings.Compare(a.Name(), b.Name())
}

// probe stands in for an entry when seeking by name. Its identity sorts
// before every issued identity.
type probe string

func (p probe) Identity() tree.Identity     { return tree.NoIdentity }
func (p probe) Name() string                { return string(p) }
func (p probe) Diff(tree.Node) tree.Changes { return 0 }
func (p probe) entry()                      {}

// typeChange reports the bits for an entry whose prior version was a
// different variant.
func typeChange(e Entry, prior tree.Node) tree.Changes {
	c := ChangedType
	if pe, ok := prior.(Entry); !ok || pe.Name() != e.Name() {
		c |= ChangedName
	}
	return c
}
