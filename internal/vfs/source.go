package vfs

import (
	"fmt"
	"io/fs"
	"iter"
	"strings"

	"github.com/agentic-research/arbor/tree"
)

// Source is a parsed source file: its declarations in source order.
type Source struct {
	id    tree.Identity
	name  string
	mode  fs.FileMode
	lang  string
	decls tree.List[*Decl]
	shape *tree.Shape
}

// NewSource creates a source file holding decls in the given order.
func NewSource(name, lang string, decls ...*Decl) (*Source, error) {
	return newSource(tree.NewIdentity(), name, lang, decls...)
}

func newSource(id tree.Identity, name, lang string, decls ...*Decl) (*Source, error) {
	l, err := tree.NewList(decls...)
	if err != nil {
		return nil, err
	}
	return &Source{
		id:    id,
		name:  name,
		mode:  0o644,
		lang:  lang,
		decls: l,
		shape: tree.NewShape(l.Nodes(), false),
	}, nil
}

func (s *Source) Identity() tree.Identity { return s.id }
func (s *Source) Name() string            { return s.name }
func (s *Source) Mode() fs.FileMode       { return s.mode }
func (s *Source) Language() string        { return s.lang }
func (s *Source) entry()                  {}

// Decls returns the declarations in source order.
func (s *Source) Decls() tree.List[*Decl] { return s.decls }

// Text renders the declarations back to source text.
func (s *Source) Text() []byte {
	var b strings.Builder
	for i, d := range s.decls.All() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(d.body)
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// ToFile flattens the source back into a plain file with the same identity.
func (s *Source) ToFile() *File {
	return &File{id: s.id, name: s.name, mode: s.mode, data: s.Text()}
}

func (s *Source) WithName(name string) *Source {
	if name == s.name {
		return s
	}
	c := *s
	c.name = name
	return &c
}

func (s *Source) WithMode(mode fs.FileMode) *Source {
	if mode == s.mode {
		return s
	}
	c := *s
	c.mode = mode
	return &c
}

func (s *Source) WithLanguage(lang string) *Source {
	if lang == s.lang {
		return s
	}
	c := *s
	c.lang = lang
	return &c
}

// WithDecls replaces every declaration at once. The shape survives when
// the same identities appear in the same order.
func (s *Source) WithDecls(decls tree.List[*Decl]) *Source {
	same := decls.Len() == s.decls.Len()
	changed := false
	for i, d := range decls.All() {
		if !same {
			break
		}
		cur := s.decls.At(i)
		same = cur.Identity() == d.Identity()
		changed = changed || cur != d
	}
	if same && !changed {
		return s
	}
	c := *s
	c.decls = decls
	if !same {
		c.shape = tree.NewShape(decls.Nodes(), false)
	}
	return &c
}

// Append adds d after the last declaration.
func (s *Source) Append(d *Decl) (*Source, error) {
	return s.Insert(s.decls.Len(), d)
}

// Insert adds d at position i.
func (s *Source) Insert(i int, d *Decl) (*Source, error) {
	l, err := s.decls.Insert(i, d)
	if err != nil {
		return nil, err
	}
	return s.withDecls(l), nil
}

// Remove drops the declaration with identity id.
func (s *Source) Remove(id tree.Identity) (*Source, error) {
	l, ok := s.decls.Remove(id)
	if !ok {
		return nil, fmt.Errorf("%w: identity %d in %q", tree.ErrNotFound, id, s.name)
	}
	return s.withDecls(l), nil
}

// ReplaceDecl swaps d in for the declaration with identity old.
func (s *Source) ReplaceDecl(old tree.Identity, d *Decl) (*Source, error) {
	cur, ok := s.decls.Get(old)
	if !ok {
		return nil, fmt.Errorf("%w: identity %d in %q", tree.ErrNotFound, old, s.name)
	}
	if cur == d {
		return s, nil
	}
	l, err := s.decls.Replace(old, d)
	if err != nil {
		return nil, err
	}
	c := *s
	c.decls = l
	c.shape = tree.NextShape(s.shape, cur, d, l.Nodes(), false)
	return &c, nil
}

func (s *Source) withDecls(l tree.List[*Decl]) *Source {
	c := *s
	c.decls = l
	c.shape = tree.NewShape(l.Nodes(), false)
	return &c
}

func (s *Source) Children() iter.Seq[tree.Node] { return s.decls.Nodes() }
func (s *Source) ChildCount() int               { return s.decls.Len() }
func (s *Source) IndexOf(id tree.Identity) int  { return s.decls.IndexOf(id) }
func (s *Source) Shape() *tree.Shape            { return s.shape }

func (s *Source) Child(id tree.Identity) (tree.Node, bool) {
	d, ok := s.decls.Get(id)
	if !ok {
		return nil, false
	}
	return d, true
}

func asDecl(n tree.Node) (*Decl, error) {
	d, ok := n.(*Decl)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a declaration", ErrNotEntry, n)
	}
	return d, nil
}

func (s *Source) WithChild(child tree.Node) (tree.Parent, error) {
	d, err := asDecl(child)
	if err != nil {
		return nil, err
	}
	ns, err := s.Append(d)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

func (s *Source) WithoutChild(id tree.Identity) (tree.Parent, error) {
	ns, err := s.Remove(id)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

func (s *Source) WithChildReplaced(old, updated tree.Node) (tree.Parent, error) {
	d, err := asDecl(updated)
	if err != nil {
		return nil, err
	}
	ns, err := s.ReplaceDecl(old.Identity(), d)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// Diff implements tree.Diffable.
func (s *Source) Diff(prior tree.Node) tree.Changes {
	p, ok := prior.(*Source)
	if !ok {
		return typeChange(s, prior)
	}
	var c tree.Changes
	if s.name != p.name {
		c |= ChangedName
	}
	if s.mode != p.mode {
		c |= ChangedMode
	}
	if s.lang != p.lang {
		c |= ChangedLanguage
	}
	return c
}

// Decl is one top-level declaration of a source file.
type Decl struct {
	id   tree.Identity
	kind string
	name string
	body string
}

// NewDecl creates a declaration such as ("func", "main", "func main() {}").
func NewDecl(kind, name, body string) *Decl {
	return &Decl{id: tree.NewIdentity(), kind: kind, name: name, body: body}
}

func (d *Decl) Identity() tree.Identity { return d.id }
func (d *Decl) Kind() string            { return d.kind }
func (d *Decl) Name() string            { return d.name }
func (d *Decl) Body() string            { return d.body }

// Key is the kind and name, which identify a declaration across parses.
func (d *Decl) Key() string { return d.kind + " " + d.name }

func (d *Decl) WithName(name string) *Decl {
	if name == d.name {
		return d
	}
	c := *d
	c.name = name
	return &c
}

func (d *Decl) WithBody(body string) *Decl {
	if body == d.body {
		return d
	}
	c := *d
	c.body = body
	return &c
}

// Diff implements tree.Diffable.
func (d *Decl) Diff(prior tree.Node) tree.Changes {
	p, ok := prior.(*Decl)
	if !ok {
		return ChangedType
	}
	var c tree.Changes
	if d.kind != p.kind {
		c |= ChangedKind
	}
	if d.name != p.name {
		c |= ChangedName
	}
	if d.body != p.body {
		c |= ChangedBody
	}
	return c
}
