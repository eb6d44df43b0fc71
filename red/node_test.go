package red_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/internal/vfs/vfstest"
	"github.com/agentic-research/arbor/red"
	"github.com/agentic-research/arbor/tree"
)

func sample(t *testing.T) *vfs.Dir {
	t.Helper()
	return vfstest.Dir(t, "root",
		vfstest.Dir(t, "a", vfstest.File("a1", "1"), vfstest.File("a2", "2"), vfstest.File("a3", "3")),
		vfstest.Dir(t, "b"),
		vfstest.Source(t, "main.go", "func", "main", "func", "run"),
	)
}

func TestAsRoot(t *testing.T) {
	root := sample(t)
	n := red.AsRoot(root)

	assert.True(t, n.IsRoot())
	assert.Same(t, root, n.Value())
	assert.Equal(t, root.Identity(), n.RootIdentity())
	_, ok := n.Parent()
	assert.False(t, ok)
	assert.Equal(t, -1, n.Index())
}

func TestWithRoot_Unrelated(t *testing.T) {
	root := sample(t)

	_, err := red.WithRoot(vfstest.File("elsewhere", ""), root)
	require.ErrorIs(t, err, red.ErrUnrelatedRoot)
}

func TestNavigation(t *testing.T) {
	root := sample(t)
	a2 := vfstest.Lookup(t, root, "/a/a2")

	n, err := red.WithRoot(a2, root)
	require.NoError(t, err)
	assert.False(t, n.IsRoot())
	assert.Equal(t, 1, n.Index())

	parent, ok := n.Parent()
	require.True(t, ok)
	assert.Equal(t, "a", parent.Value().(*vfs.Dir).Name())
	assert.Same(t, tree.Node(root), parent.Root())

	var sibs []string
	for s := range n.Siblings() {
		sibs = append(sibs, s.Value().(vfs.Entry).Name())
	}
	assert.Equal(t, []string{"a1", "a3"}, sibs)

	spine, err := n.Spine()
	require.NoError(t, err)
	assert.Len(t, spine, 3)
}

func TestChildren_ShareRoot(t *testing.T) {
	root := sample(t)
	n := red.AsRoot(root)

	var kids []red.Node[tree.Node]
	for c := range n.Children() {
		kids = append(kids, c)
	}
	require.Len(t, kids, 3)
	for _, k := range kids {
		assert.Equal(t, root.Identity(), k.RootIdentity())
	}

	var names []string
	for d := range kids[2].Children() {
		names = append(names, d.Value().(*vfs.Decl).Name())
	}
	assert.Equal(t, []string{"main", "run"}, names)
}

func TestNarrow_KeepsInstance(t *testing.T) {
	root := sample(t)
	var e vfs.Entry = vfstest.Lookup(t, root, "/main.go")
	n, err := red.WithRoot(e, root)
	require.NoError(t, err)

	s, ok := red.Narrow[*vfs.Source](n)
	require.True(t, ok)
	assert.Same(t, e, s.Value())
	assert.Same(t, n.Root(), s.Root())

	_, ok = red.Narrow[*vfs.Dir](n)
	assert.False(t, ok)
}

func TestEqual_ValueAndRootIdentity(t *testing.T) {
	root := sample(t)
	a1 := vfstest.Lookup(t, root, "/a/a1").(*vfs.File)

	x, err := red.WithRoot(a1, root)
	require.NoError(t, err)
	y, err := red.WithRoot(a1, root)
	require.NoError(t, err)
	assert.True(t, x.Equal(y))

	edited, err := x.With(a1.WithData([]byte("new")))
	require.NoError(t, err)
	// A later version of the same node under a later version of the same
	// root is still the same logical place.
	assert.True(t, x.Equal(edited))
	assert.False(t, x.Equal(red.AsRoot(root)))

	other := vfstest.Dir(t, "other", a1)
	z, err := red.WithRoot(a1, other)
	require.NoError(t, err)
	assert.False(t, x.Equal(z))
}

func TestWith_RebasesOnNewRoot(t *testing.T) {
	root := sample(t)
	a3 := vfstest.Lookup(t, root, "/a/a3").(*vfs.File)
	n, err := red.WithRoot(a3, root)
	require.NoError(t, err)

	updated, err := n.With(a3.WithData([]byte("three")))
	require.NoError(t, err)

	newRoot := updated.Root().(*vfs.Dir)
	assert.NotSame(t, root, newRoot)
	assert.Equal(t, "three", string(vfstest.Lookup(t, newRoot, "/a/a3").(*vfs.File).Data()))
	assert.Equal(t, "3", string(vfstest.Lookup(t, root, "/a/a3").(*vfs.File).Data()))

	stale, err := n.Current()
	require.NoError(t, err)
	assert.Same(t, a3, stale.Value())
	assert.True(t, red.Node[*vfs.File]{}.IsZero())
	assert.False(t, updated.IsZero())
}

func TestAddChildAndRemove(t *testing.T) {
	root := sample(t)
	b, err := red.WithRoot(vfstest.Lookup(t, root, "/b"), root)
	require.NoError(t, err)

	child, err := b.AddChild(vfstest.File("b1", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, child.Index())
	parent, ok := child.Parent()
	require.True(t, ok)
	assert.Equal(t, b.Identity(), parent.Identity())

	gone, err := child.Remove()
	require.NoError(t, err)
	assert.True(t, gone.IsRoot())
	assert.False(t, tree.Contains(gone.Value(), child.Identity()))

	_, err = red.AsRoot(root).Remove()
	require.ErrorIs(t, err, tree.ErrRootRemoval)
}

func TestChildren_StaleValueResolvesAgainstRoot(t *testing.T) {
	root1 := sample(t)
	a := vfstest.Lookup(t, root1, "/a").(*vfs.Dir)
	a1 := vfstest.Lookup(t, root1, "/a/a1")

	removed, err := tree.RemoveDescendant(root1, a1.Identity())
	require.NoError(t, err)
	a4 := vfstest.File("a4", "4")
	root2, err := tree.AddDescendant(removed, a4, a.Identity())
	require.NoError(t, err)

	stale, err := red.WithRoot(a, root2)
	require.NoError(t, err)

	var got []string
	for c := range stale.Children() {
		assert.True(t, tree.Contains(c.Root(), c.Identity()), "child view must be reachable from its root")
		got = append(got, c.Value().(vfs.Entry).Name())
	}
	assert.Equal(t, []string{"a2", "a3", "a4"}, got)
}

func TestZeroNode(t *testing.T) {
	var n red.Node[*vfs.Dir]
	assert.True(t, n.IsZero())
	assert.False(t, n.IsRoot())
	assert.Equal(t, tree.NoIdentity, n.Identity())
	assert.Equal(t, tree.NoIdentity, n.RootIdentity())
	assert.Equal(t, "#0@0", n.String())
	assert.True(t, n.Equal(red.Node[*vfs.File]{}))
	assert.False(t, n.Equal(red.AsRoot(sample(t))))

	_, err := n.Spine()
	require.ErrorIs(t, err, red.ErrUnrelatedRoot)
	_, ok := n.Parent()
	assert.False(t, ok)
	assert.Empty(t, slices.Collect(n.Children()))
	_, err = n.Remove()
	require.ErrorIs(t, err, red.ErrUnrelatedRoot)
	_, err = n.AddChild(vfstest.File("x", ""))
	require.ErrorIs(t, err, red.ErrUnrelatedRoot)
}
