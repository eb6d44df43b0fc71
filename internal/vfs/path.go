package vfs

import (
	"fmt"
	"iter"
	"path"
	"strings"

	"github.com/agentic-research/arbor/tree"
)

type named interface {
	Name() string
}

// Lookup resolves a slash-separated path below root. "" and "/" name root.
func Lookup(root *Dir, p string) (Entry, error) {
	var cur Entry = root
	for _, part := range strings.Split(strings.Trim(path.Clean("/"+p), "/"), "/") {
		if part == "" {
			continue
		}
		d, ok := cur.(*Dir)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a directory", tree.ErrNotFound, cur.Name())
		}
		next, ok := d.Entry(part)
		if !ok {
			return nil, fmt.Errorf("%w: %q", tree.ErrNotFound, p)
		}
		cur = next
	}
	return cur, nil
}

// PathOf returns the slash-separated path of id below root. Declarations
// are addressed as "file.go#Name".
func PathOf(root tree.Node, id tree.Identity) (string, error) {
	spine, err := tree.GetSpine(root, id)
	if err != nil {
		return "", err
	}
	return spinePath(spine), nil
}

func spinePath(spine tree.Spine) string {
	var b strings.Builder
	for _, n := range spine[1:] {
		nm, ok := n.(named)
		if !ok {
			continue
		}
		if _, isDecl := n.(*Decl); isDecl {
			b.WriteByte('#')
		} else {
			b.WriteByte('/')
		}
		b.WriteString(nm.Name())
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Walk enumerates every entry below root in pre-order with its path. The
// root itself is yielded as "/". Declarations are not visited.
func Walk(root *Dir) iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		if !yield("/", root) {
			return
		}
		walkDir("", root, yield)
	}
}

func walkDir(prefix string, d *Dir, yield func(string, Entry) bool) bool {
	for c := range d.entries.Values() {
		p := prefix + "/" + c.Name()
		if !yield(p, c) {
			return false
		}
		if cd, ok := c.(*Dir); ok && !walkDir(p, cd, yield) {
			return false
		}
	}
	return true
}
