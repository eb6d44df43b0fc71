package tree_test

import (
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/internal/vfs/vfstest"
	"github.com/agentic-research/arbor/tree"
)

// item is a bare leaf for collection tests.
type item struct {
	id  tree.Identity
	key string
}

func newItem(key string) *item { return &item{id: tree.NewIdentity(), key: key} }

func (i *item) Identity() tree.Identity { return i.id }

func byKey(a, b *item) int { return strings.Compare(a.key, b.key) }

func keys(seq iter.Seq[*item]) []string {
	var out []string
	for it := range seq {
		out = append(out, it.key)
	}
	return out
}

// project builds a tree that is large enough for its root to keep a
// lookup table:
//
//	/README
//	/docs/d00 .. d09
//	/src/main.go (Source with two decls)
//	/src/s00 .. s09
//	/z00 .. z11
func project(t *testing.T) *vfs.Dir {
	t.Helper()
	src := []vfs.Entry{vfstest.Source(t, "main.go", "func", "main", "func", "helper")}
	for _, name := range names("s", 10) {
		src = append(src, vfstest.File(name, name))
	}
	var docs []vfs.Entry
	for _, name := range names("d", 10) {
		docs = append(docs, vfstest.File(name, name))
	}
	top := []vfs.Entry{
		vfstest.File("README", "hello"),
		vfstest.Dir(t, "docs", docs...),
		vfstest.Dir(t, "src", src...),
	}
	for _, name := range names("z", 12) {
		top = append(top, vfstest.File(name, name))
	}
	return vfstest.Dir(t, "project", top...)
}

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + string(rune('0'+i/10)) + string(rune('0'+i%10))
	}
	return out
}

// listing renders every entry as "path identity" lines.
func listing(t *testing.T, root *vfs.Dir) []string {
	t.Helper()
	var out []string
	for p, e := range vfs.Walk(root) {
		require.NotNil(t, e)
		out = append(out, fmt.Sprintf("%s %d", p, e.Identity()))
	}
	return out
}
