// Package vfstest builds vfs trees for tests.
package vfstest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/tree"
)

// Dir builds a directory, failing the test on error.
func Dir(t testing.TB, name string, entries ...vfs.Entry) *vfs.Dir {
	t.Helper()
	d, err := vfs.NewDir(name, entries...)
	require.NoError(t, err)
	return d
}

// File builds a file with string content.
func File(name, data string) *vfs.File {
	return vfs.NewFile(name, []byte(data))
}

// Source builds a Go source from (kind, name) pairs, using the name as body.
func Source(t testing.TB, name string, kindNames ...string) *vfs.Source {
	t.Helper()
	require.Zero(t, len(kindNames)%2, "kindNames must come in pairs")
	var decls []*vfs.Decl
	for i := 0; i < len(kindNames); i += 2 {
		decls = append(decls, vfs.NewDecl(kindNames[i], kindNames[i+1], kindNames[i]+" "+kindNames[i+1]))
	}
	s, err := vfs.NewSource(name, "go", decls...)
	require.NoError(t, err)
	return s
}

// Wide builds a directory with n files named f000, f001, ...
func Wide(t testing.TB, name string, n int) *vfs.Dir {
	t.Helper()
	entries := make([]vfs.Entry, n)
	for i := range entries {
		entries[i] = File(fmt.Sprintf("f%03d", i), fmt.Sprintf("content %d", i))
	}
	return Dir(t, name, entries...)
}

// Lookup resolves p below root, failing the test when it is missing.
func Lookup(t testing.TB, root *vfs.Dir, p string) vfs.Entry {
	t.Helper()
	e, err := vfs.Lookup(root, p)
	require.NoError(t, err)
	return e
}

// Replace swaps updated in for old below root and returns the new root.
func Replace(t testing.TB, root *vfs.Dir, old, updated tree.Node) *vfs.Dir {
	t.Helper()
	n, err := tree.Replace(root, old, updated)
	require.NoError(t, err)
	return n.(*vfs.Dir)
}
