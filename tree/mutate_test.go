package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/internal/vfs/vfstest"
	"github.com/agentic-research/arbor/tree"
)

func TestWith_NoOpReturnsReceiver(t *testing.T) {
	f := vfstest.File("a", "x")
	assert.Same(t, f, f.WithData([]byte("x")))
	assert.Same(t, f, f.WithName("a"))

	g := f.WithData([]byte("y"))
	assert.NotSame(t, f, g)
	assert.Equal(t, f.Identity(), g.Identity())
}

func TestReplace_SharesUntouchedSubtrees(t *testing.T) {
	root := project(t)
	docs := vfstest.Lookup(t, root, "/docs")
	readme := vfstest.Lookup(t, root, "/README")
	s01 := vfstest.Lookup(t, root, "/src/s01")
	leaf := vfstest.Lookup(t, root, "/src/s02").(*vfs.File)

	next := vfstest.Replace(t, root, leaf, leaf.WithData([]byte("edited")))

	assert.Same(t, docs, vfstest.Lookup(t, next, "/docs"))
	assert.Same(t, readme, vfstest.Lookup(t, next, "/README"))
	assert.Same(t, s01, vfstest.Lookup(t, next, "/src/s01"))
	assert.NotSame(t, vfstest.Lookup(t, root, "/src"), vfstest.Lookup(t, next, "/src"))
	assert.Equal(t, root.Identity(), next.Identity())
}

func TestReplace_SameInstanceReturnsRoot(t *testing.T) {
	root := project(t)
	leaf := vfstest.Lookup(t, root, "/src/s02")

	next, err := tree.Replace(root, leaf, leaf)
	require.NoError(t, err)
	assert.Same(t, root, next)
}

func TestReplace_DifferentIdentity(t *testing.T) {
	root := project(t)
	old := vfstest.Lookup(t, root, "/docs/d05")
	fresh := vfstest.File("d05", "replacement")

	next, err := tree.Replace(root, old, fresh)
	require.NoError(t, err)
	assert.Same(t, fresh, vfstest.Lookup(t, next.(*vfs.Dir), "/docs/d05"))
	assert.False(t, tree.Contains(next, old.Identity()))
}

func TestReplace_NotFound(t *testing.T) {
	root := project(t)
	stranger := vfstest.File("x", "")

	_, err := tree.Replace(root, stranger, stranger.WithData([]byte("y")))
	require.ErrorIs(t, err, tree.ErrNotFound)
}

func TestAddDescendant_Subtree(t *testing.T) {
	root := project(t)
	sub := vfstest.Dir(t, "extra", vfstest.Dir(t, "deep", vfstest.File("leaf", "")))

	next, err := tree.AddDescendant(root, sub, root.Identity())
	require.NoError(t, err)
	assert.Equal(t, tree.Count(root)+3, tree.Count(next))
	assert.Same(t, sub, vfstest.Lookup(t, next.(*vfs.Dir), "/extra"))
}

func TestAddDescendant_Errors(t *testing.T) {
	root := project(t)
	readme := vfstest.Lookup(t, root, "/README")
	docs := vfstest.Lookup(t, root, "/docs")
	d01 := vfstest.Lookup(t, root, "/docs/d01")

	t.Run("missing parent", func(t *testing.T) {
		_, err := tree.AddDescendant(root, vfstest.File("x", ""), tree.NewIdentity())
		require.ErrorIs(t, err, tree.ErrNotFound)
	})
	t.Run("leaf parent", func(t *testing.T) {
		_, err := tree.AddDescendant(root, vfstest.File("x", ""), readme.Identity())
		require.ErrorIs(t, err, tree.ErrNotParent)
	})
	t.Run("duplicate identity", func(t *testing.T) {
		_, err := tree.AddDescendant(root, d01.(*vfs.File).WithName("other"), docs.Identity())
		require.ErrorIs(t, err, tree.ErrDuplicateChild)
	})
	t.Run("wrong family", func(t *testing.T) {
		main := vfstest.Lookup(t, root, "/src/main.go")
		_, err := tree.AddDescendant(root, vfstest.File("x", ""), main.Identity())
		require.ErrorIs(t, err, vfs.ErrNotEntry)
	})
}

func TestRemoveDescendant(t *testing.T) {
	root := project(t)
	src := vfstest.Lookup(t, root, "/src")
	docs := vfstest.Lookup(t, root, "/docs")

	next, err := tree.RemoveDescendant(root, src.Identity())
	require.NoError(t, err)

	assert.False(t, tree.Contains(next, src.Identity()))
	assert.Equal(t, tree.Count(root)-14, tree.Count(next))
	assert.Same(t, docs, vfstest.Lookup(t, next.(*vfs.Dir), "/docs"))
	// The original is untouched.
	assert.True(t, tree.Contains(root, src.Identity()))
}

func TestRemoveDescendant_Decl(t *testing.T) {
	root := project(t)
	main := vfstest.Lookup(t, root, "/src/main.go").(*vfs.Source)
	helper := main.Decls().At(1)

	next, err := tree.RemoveDescendant(root, helper.Identity())
	require.NoError(t, err)
	got := vfstest.Lookup(t, next.(*vfs.Dir), "/src/main.go").(*vfs.Source)
	assert.Equal(t, 1, got.Decls().Len())
	assert.Equal(t, main.Identity(), got.Identity())
}

func TestRemoveDescendant_Errors(t *testing.T) {
	root := project(t)

	_, err := tree.RemoveDescendant(root, root.Identity())
	require.ErrorIs(t, err, tree.ErrRootRemoval)

	_, err = tree.RemoveDescendant(root, tree.NewIdentity())
	require.ErrorIs(t, err, tree.ErrNotFound)
}

func TestAddRemove_RoundTrip(t *testing.T) {
	root := project(t)
	docs := vfstest.Lookup(t, root, "/docs")
	added := vfstest.Dir(t, "tmp", vfstest.File("scratch", ""))

	grown, err := tree.AddDescendant(root, added, docs.Identity())
	require.NoError(t, err)
	back, err := tree.RemoveDescendant(grown, added.Identity())
	require.NoError(t, err)

	assert.Equal(t, listing(t, root), listing(t, back.(*vfs.Dir)))
}

func TestMove(t *testing.T) {
	root := project(t)
	d02 := vfstest.Lookup(t, root, "/docs/d02")
	src := vfstest.Lookup(t, root, "/src")

	next, err := tree.Move(root, d02.Identity(), src.Identity())
	require.NoError(t, err)
	assert.Same(t, d02, vfstest.Lookup(t, next.(*vfs.Dir), "/src/d02"))
	_, err = vfs.Lookup(next.(*vfs.Dir), "/docs/d02")
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestMove_BelowItself(t *testing.T) {
	root := project(t)
	src := vfstest.Lookup(t, root, "/src")
	main := vfstest.Lookup(t, root, "/src/main.go")

	_, err := tree.Move(root, src.Identity(), main.Identity())
	require.ErrorIs(t, err, tree.ErrNotFound)
}

func TestReplaceDescendant_Spines(t *testing.T) {
	root := project(t)
	leaf := vfstest.Lookup(t, root, "/src/s03").(*vfs.File)
	spine, err := tree.GetSpine(root, leaf.Identity())
	require.NoError(t, err)

	t.Run("two element replacement", func(t *testing.T) {
		src := spine[1].(*vfs.Dir)
		edited := leaf.WithData([]byte("two"))
		newSrc, err := src.ReplaceEntry(leaf.Identity(), edited)
		require.NoError(t, err)

		next, err := tree.ReplaceDescendant(spine, tree.Spine{newSrc, edited}, false)
		require.NoError(t, err)
		assert.Same(t, edited, vfstest.Lookup(t, next.(*vfs.Dir), "/src/s03"))
	})
	t.Run("too long", func(t *testing.T) {
		_, err := tree.ReplaceDescendant(spine, tree.Spine{root, root, root, root}, false)
		require.Error(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := tree.ReplaceDescendant(nil, tree.Spine{root}, false)
		require.Error(t, err)
	})
}
