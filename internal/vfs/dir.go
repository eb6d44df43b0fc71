package vfs

import (
	"fmt"
	"io/fs"
	"iter"

	"github.com/agentic-research/arbor/tree"
)

// Dir is a directory. Entries are kept sorted by name and names are unique.
// Large directories maintain a lookup table over their subtree.
type Dir struct {
	id      tree.Identity
	name    string
	mode    fs.FileMode
	entries tree.Sorted[Entry]
	shape   *tree.Shape
}

// NewDir creates a directory holding entries.
func NewDir(name string, entries ...Entry) (*Dir, error) {
	s, err := tree.NewSorted(byName, entries...)
	if err != nil {
		return nil, err
	}
	if err := checkNames(s); err != nil {
		return nil, err
	}
	return &Dir{
		id:      tree.NewIdentity(),
		name:    name,
		mode:    fs.ModeDir | 0o755,
		entries: s,
		shape:   tree.NewShape(s.Nodes(), true),
	}, nil
}

func checkNames(s tree.Sorted[Entry]) error {
	prev := ""
	for i, e := range s.All() {
		if i > 0 && e.Name() == prev {
			return fmt.Errorf("%w: %q", ErrDuplicateName, prev)
		}
		prev = e.Name()
	}
	return nil
}

func (d *Dir) Identity() tree.Identity { return d.id }
func (d *Dir) Name() string            { return d.name }
func (d *Dir) Mode() fs.FileMode       { return d.mode }
func (d *Dir) entry()                  {}

// Entries returns the directory's entries in name order.
func (d *Dir) Entries() tree.Sorted[Entry] { return d.entries }

// Entry returns the entry called name.
func (d *Dir) Entry(name string) (Entry, bool) {
	e, ok := d.entries.Ceil(probe(name))
	if !ok || e.Name() != name {
		return nil, false
	}
	return e, true
}

func (d *Dir) Children() iter.Seq[tree.Node] { return d.entries.Nodes() }
func (d *Dir) ChildCount() int               { return d.entries.Len() }

func (d *Dir) Child(id tree.Identity) (tree.Node, bool) {
	e, ok := d.entries.Get(id)
	if !ok {
		return nil, false
	}
	return e, true
}

func (d *Dir) IndexOf(id tree.Identity) int { return d.entries.IndexOf(id) }

func (d *Dir) Compare(a, b tree.Node) int {
	return d.entries.Compare(a.(Entry), b.(Entry))
}

func (d *Dir) Shape() *tree.Shape             { return d.shape }
func (d *Dir) LookupTable() *tree.LookupTable { return d.shape.Table(d) }
func (d *Dir) InefficiencyLoad() int          { return d.shape.Load() }

// WithName renames the directory.
func (d *Dir) WithName(name string) *Dir {
	if name == d.name {
		return d
	}
	c := *d
	c.name = name
	return &c
}

// WithMode changes the permission bits. The directory bit is always kept.
func (d *Dir) WithMode(mode fs.FileMode) *Dir {
	mode |= fs.ModeDir
	if mode == d.mode {
		return d
	}
	c := *d
	c.mode = mode
	return &c
}

// Add inserts e.
func (d *Dir) Add(e Entry) (*Dir, error) {
	if _, taken := d.Entry(e.Name()); taken {
		return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateName, e.Name(), d.name)
	}
	s, err := d.entries.Insert(e)
	if err != nil {
		return nil, err
	}
	return d.withEntries(s), nil
}

// Remove drops the entry with identity id.
func (d *Dir) Remove(id tree.Identity) (*Dir, error) {
	s, ok := d.entries.Remove(id)
	if !ok {
		return nil, fmt.Errorf("%w: identity %d in %q", tree.ErrNotFound, id, d.name)
	}
	return d.withEntries(s), nil
}

// ReplaceEntry swaps e in for the entry with identity old.
func (d *Dir) ReplaceEntry(old tree.Identity, e Entry) (*Dir, error) {
	cur, ok := d.entries.Get(old)
	if !ok {
		return nil, fmt.Errorf("%w: identity %d in %q", tree.ErrNotFound, old, d.name)
	}
	if tree.Node(cur) == tree.Node(e) {
		return d, nil
	}
	if e.Name() != cur.Name() {
		if other, taken := d.Entry(e.Name()); taken && other.Identity() != old {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateName, e.Name(), d.name)
		}
	}
	s, err := d.entries.Replace(old, e)
	if err != nil {
		return nil, err
	}
	c := *d
	c.entries = s
	c.shape = tree.NextShape(d.shape, cur, e, s.Nodes(), true)
	return &c, nil
}

func (d *Dir) withEntries(s tree.Sorted[Entry]) *Dir {
	c := *d
	c.entries = s
	c.shape = tree.NewShape(s.Nodes(), true)
	return &c
}

func (d *Dir) WithChild(child tree.Node) (tree.Parent, error) {
	e, err := asEntry(child)
	if err != nil {
		return nil, err
	}
	nd, err := d.Add(e)
	if err != nil {
		return nil, err
	}
	return nd, nil
}

func (d *Dir) WithoutChild(id tree.Identity) (tree.Parent, error) {
	nd, err := d.Remove(id)
	if err != nil {
		return nil, err
	}
	return nd, nil
}

func (d *Dir) WithChildReplaced(old, updated tree.Node) (tree.Parent, error) {
	e, err := asEntry(updated)
	if err != nil {
		return nil, err
	}
	nd, err := d.ReplaceEntry(old.Identity(), e)
	if err != nil {
		return nil, err
	}
	return nd, nil
}

// Diff implements tree.Diffable.
func (d *Dir) Diff(prior tree.Node) tree.Changes {
	p, ok := prior.(*Dir)
	if !ok {
		return typeChange(d, prior)
	}
	var c tree.Changes
	if d.name != p.name {
		c |= ChangedName
	}
	if d.mode != p.mode {
		c |= ChangedMode
	}
	return c
}
