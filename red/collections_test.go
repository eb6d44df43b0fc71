package red_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/internal/vfs/vfstest"
	"github.com/agentic-research/arbor/red"
	"github.com/agentic-research/arbor/tree"
)

type byName struct{}

func (byName) Equal(a, b tree.Node) bool {
	return a.(vfs.Entry).Name() == b.(vfs.Entry).Name()
}

func rootedDecls(t *testing.T) (red.RootedList[*vfs.Decl], *vfs.Dir) {
	t.Helper()
	root := sample(t)
	src := vfstest.Lookup(t, root, "/main.go").(*vfs.Source)
	return red.NewRootedList(src.Decls(), root), root
}

func TestRootedList_ProjectsLazily(t *testing.T) {
	l, root := rootedDecls(t)

	require.Equal(t, 2, l.Len())
	first := l.At(0)
	assert.Equal(t, "main", first.Value().Name())
	assert.Equal(t, root.Identity(), first.RootIdentity())
	assert.Same(t, l.Unrooted().At(0), first.Value())

	parent, ok := first.Parent()
	require.True(t, ok)
	assert.Equal(t, "main.go", parent.Value().(*vfs.Source).Name())

	var seen []int
	for i, n := range l.All() {
		assert.Equal(t, root.Identity(), n.RootIdentity())
		seen = append(seen, i)
	}
	assert.Equal(t, []int{0, 1}, seen)
}

func TestRootedList_EditsUnrootedList(t *testing.T) {
	l, root := rootedDecls(t)
	before := l.Unrooted()

	added, err := l.Insert(1, red.AsRoot(vfs.NewDecl("var", "x", "var x int")))
	require.NoError(t, err)
	assert.Equal(t, 3, added.Len())
	assert.Equal(t, "x", added.At(1).Value().Name())
	assert.Same(t, tree.Node(root), added.Root())
	assert.Equal(t, 2, before.Len(), "underlying list must not change")

	removed, ok := added.Remove(added.At(0))
	require.True(t, ok)
	assert.Equal(t, 2, removed.Len())

	run := removed.At(1)
	replaced, err := removed.Replace(run, red.AsRoot(run.Value().WithBody("func run() {}")), nil)
	require.NoError(t, err)
	assert.Equal(t, "func run() {}", replaced.At(1).Value().Body())
}

func TestRootedList_Lookups(t *testing.T) {
	l, _ := rootedDecls(t)
	run := l.At(1)

	ok, err := l.Contains(run, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	i, err := l.IndexOf(run, red.IdentityComparer)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = l.IndexOf(red.AsRoot(vfs.NewDecl("func", "run", "")), nil)
	require.NoError(t, err)
	assert.Equal(t, -1, i)
}

func TestRootedCollections_RejectCustomComparer(t *testing.T) {
	l, root := rootedDecls(t)
	run := l.At(1)

	_, err := l.Contains(run, byName{})
	require.ErrorIs(t, err, red.ErrUnsupportedComparer)
	_, err = l.IndexOf(run, byName{})
	require.ErrorIs(t, err, red.ErrUnsupportedComparer)
	_, err = l.Replace(run, run, byName{})
	require.ErrorIs(t, err, red.ErrUnsupportedComparer)

	s := red.NewRootedSorted(vfstest.Lookup(t, root, "/a").(*vfs.Dir).Entries(), root)
	a1, ok := s.At(0)
	require.True(t, ok)
	_, err = s.Contains(a1, byName{})
	require.ErrorIs(t, err, red.ErrUnsupportedComparer)
	_, err = s.Replace(a1, a1, byName{})
	require.ErrorIs(t, err, red.ErrUnsupportedComparer)
}

func TestRootedSorted(t *testing.T) {
	root := sample(t)
	a := vfstest.Lookup(t, root, "/a").(*vfs.Dir)
	s := red.NewRootedSorted(a.Entries(), root)

	require.Equal(t, 3, s.Len())
	_, ok := s.At(3)
	assert.False(t, ok)

	added, err := s.Add(red.AsRoot[vfs.Entry](vfstest.File("a0", "")))
	require.NoError(t, err)
	first, ok := added.At(0)
	require.True(t, ok)
	assert.Equal(t, "a0", first.Value().Name())
	assert.Equal(t, root.Identity(), first.RootIdentity())

	a3, ok := s.At(2)
	require.True(t, ok)
	renamed, err := s.Replace(a3, red.AsRoot[vfs.Entry](a3.Value().(*vfs.File).WithName("a0")), red.IdentityComparer)
	require.NoError(t, err)
	i, err := renamed.IndexOf(a3, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	smaller, ok := s.Remove(a3)
	require.True(t, ok)
	assert.Equal(t, 2, smaller.Len())
	has, err := smaller.Contains(a3, nil)
	require.NoError(t, err)
	assert.False(t, has)

	var names []string
	for _, n := range s.All() {
		names = append(names, n.Value().Name())
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, names)
}
