package ingest

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/arbor/api"
	"github.com/agentic-research/arbor/internal/vfs"
)

// DefaultSelector picks the root of an api.Document.
const DefaultSelector = "$.root"

// ErrDocument is returned for documents that do not describe a tree.
var ErrDocument = errors.New("invalid document")

// FromDocument builds a tree from a JSON document. selector is a JSONPath
// that must match exactly one object shaped like api.Node.
func FromDocument(data []byte, selector string) (*vfs.Dir, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	v, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	matches, err := NewJsonWalker().Query(v, selector)
	if err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		return nil, fmt.Errorf("%w: selector %q matched %d values, want 1", ErrDocument, selector, len(matches))
	}
	m := matches[0].(*JsonMatch)
	n, err := nodeFrom(m.Context(), m.Path())
	if err != nil {
		return nil, err
	}
	return BuildDir(n)
}

// BuildDir converts a document node into a directory. Identities in the
// document are ignored; every entry gets a fresh one.
func BuildDir(n api.Node) (*vfs.Dir, error) {
	entries := make([]vfs.Entry, 0, len(n.Children)+len(n.Files))
	for _, c := range n.Children {
		d, err := BuildDir(c)
		if err != nil {
			return nil, err
		}
		entries = append(entries, d)
	}
	for _, l := range n.Files {
		e, err := buildLeaf(l)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	d, err := vfs.NewDir(n.Name, entries...)
	if err != nil {
		return nil, fmt.Errorf("%w: directory %q: %w", ErrDocument, n.Name, err)
	}
	if n.Attributes != nil && n.Attributes.Mode != 0 {
		d = d.WithMode(fs.FileMode(n.Attributes.Mode))
	}
	return d, nil
}

func buildLeaf(l api.Leaf) (vfs.Entry, error) {
	mode := fs.FileMode(0o644)
	if l.Attributes != nil && l.Attributes.Mode != 0 {
		mode = fs.FileMode(l.Attributes.Mode)
	}
	if l.Language == "" && len(l.Decls) == 0 {
		return vfs.NewFile(l.Name, []byte(l.Content)).WithMode(mode), nil
	}
	decls := make([]*vfs.Decl, len(l.Decls))
	for i, d := range l.Decls {
		decls[i] = vfs.NewDecl(d.Kind, d.Name, d.Body)
	}
	s, err := vfs.NewSource(l.Name, l.Language, decls...)
	if err != nil {
		return nil, err
	}
	return s.WithMode(mode), nil
}

// ToDocument renders a tree as a document.
func ToDocument(root *vfs.Dir) api.Document {
	return api.Document{Version: api.Version, Root: toNode(root)}
}

func toNode(d *vfs.Dir) api.Node {
	n := api.Node{
		Name:       d.Name(),
		Identity:   uint64(d.Identity()),
		Attributes: &api.Attributes{Mode: uint32(d.Mode().Perm())},
	}
	for e := range d.Entries().Values() {
		switch e := e.(type) {
		case *vfs.Dir:
			n.Children = append(n.Children, toNode(e))
		case *vfs.File:
			n.Files = append(n.Files, api.Leaf{
				Name:       e.Name(),
				Identity:   uint64(e.Identity()),
				Content:    string(e.Data()),
				Attributes: &api.Attributes{Mode: uint32(e.Mode().Perm())},
			})
		case *vfs.Source:
			l := api.Leaf{
				Name:       e.Name(),
				Identity:   uint64(e.Identity()),
				Language:   e.Language(),
				Attributes: &api.Attributes{Mode: uint32(e.Mode().Perm())},
			}
			for d := range e.Decls().Values() {
				l.Decls = append(l.Decls, api.Decl{Kind: d.Kind(), Name: d.Name(), Identity: uint64(d.Identity()), Body: d.Body()})
			}
			n.Files = append(n.Files, l)
		}
	}
	return n
}

// nodeFrom converts decoded JSON into an api.Node, reporting the JSONPath of
// the first malformed value.
func nodeFrom(v any, at string) (api.Node, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return api.Node{}, fmt.Errorf("%w: %s is %T, want object", ErrDocument, at, v)
	}
	var n api.Node
	var err error
	if n.Name, err = stringField(m, "name", at, true); err != nil {
		return n, err
	}
	if n.Attributes, err = attributesFrom(m, at); err != nil {
		return n, err
	}
	children, err := listField(m, "children", at)
	if err != nil {
		return n, err
	}
	for i, c := range children {
		cn, err := nodeFrom(c, fmt.Sprintf("%s.children[%d]", at, i))
		if err != nil {
			return n, err
		}
		n.Children = append(n.Children, cn)
	}
	files, err := listField(m, "files", at)
	if err != nil {
		return n, err
	}
	for i, f := range files {
		l, err := leafFrom(f, fmt.Sprintf("%s.files[%d]", at, i))
		if err != nil {
			return n, err
		}
		n.Files = append(n.Files, l)
	}
	return n, nil
}

func leafFrom(v any, at string) (api.Leaf, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return api.Leaf{}, fmt.Errorf("%w: %s is %T, want object", ErrDocument, at, v)
	}
	var l api.Leaf
	var err error
	if l.Name, err = stringField(m, "name", at, true); err != nil {
		return l, err
	}
	if l.Content, err = stringField(m, "content", at, false); err != nil {
		return l, err
	}
	if l.Language, err = stringField(m, "language", at, false); err != nil {
		return l, err
	}
	if l.Attributes, err = attributesFrom(m, at); err != nil {
		return l, err
	}
	decls, err := listField(m, "decls", at)
	if err != nil {
		return l, err
	}
	for i, d := range decls {
		dm, ok := d.(map[string]any)
		where := fmt.Sprintf("%s.decls[%d]", at, i)
		if !ok {
			return l, fmt.Errorf("%w: %s is %T, want object", ErrDocument, where, d)
		}
		var decl api.Decl
		if decl.Kind, err = stringField(dm, "kind", where, true); err != nil {
			return l, err
		}
		if decl.Name, err = stringField(dm, "name", where, true); err != nil {
			return l, err
		}
		if decl.Body, err = stringField(dm, "body", where, false); err != nil {
			return l, err
		}
		l.Decls = append(l.Decls, decl)
	}
	return l, nil
}

func stringField(m map[string]any, key, at string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: %s.%s is required", ErrDocument, at, key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s is %T, want string", ErrDocument, at, key, v)
	}
	return s, nil
}

func listField(m map[string]any, key, at string) ([]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is %T, want array", ErrDocument, at, key, v)
	}
	return l, nil
}

func attributesFrom(m map[string]any, at string) (*api.Attributes, error) {
	v, ok := m["attributes"]
	if !ok || v == nil {
		return nil, nil
	}
	am, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s.attributes is %T, want object", ErrDocument, at, v)
	}
	switch mode := am["mode"].(type) {
	case nil:
		return &api.Attributes{}, nil
	case int64:
		return &api.Attributes{Mode: uint32(mode)}, nil
	case float64:
		return &api.Attributes{Mode: uint32(mode)}, nil
	default:
		return nil, fmt.Errorf("%w: %s.attributes.mode is %T, want number", ErrDocument, at, mode)
	}
}
