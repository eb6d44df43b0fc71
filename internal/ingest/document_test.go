package ingest

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/api"
	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/internal/vfs/vfstest"
)

const sampleDocument = `{
  "version": "v1",
  "root": {
    "name": "repo",
    "children": [
      {
        "name": "cmd",
        "attributes": {"mode": 448},
        "files": [
          {
            "name": "main.go",
            "language": "go",
            "decls": [
              {"kind": "package", "name": "main", "body": "package main"},
              {"kind": "func", "name": "main", "body": "func main() {}"}
            ]
          }
        ]
      }
    ],
    "files": [
      {"name": "README", "content": "hello", "identity": 99}
    ]
  }
}`

func TestFromDocument(t *testing.T) {
	root, err := FromDocument([]byte(sampleDocument), "")
	require.NoError(t, err)
	assert.Equal(t, "repo", root.Name())

	readme, ok := vfstest.Lookup(t, root, "README").(*vfs.File)
	require.True(t, ok)
	assert.Equal(t, "hello", string(readme.Data()))
	assert.NotEqual(t, uint64(99), uint64(readme.Identity()), "identities are never taken from input")

	cmd := vfstest.Lookup(t, root, "cmd").(*vfs.Dir)
	assert.Equal(t, fs.FileMode(0o700), cmd.Mode().Perm())

	src, ok := vfstest.Lookup(t, root, "cmd/main.go").(*vfs.Source)
	require.True(t, ok)
	assert.Equal(t, "go", src.Language())
	assert.Equal(t, []string{"package main", "func main"}, declKeys(src))
	assert.Equal(t, "func main() {}", src.Decls().At(1).Body())
}

func TestFromDocument_Selector(t *testing.T) {
	root, err := FromDocument([]byte(sampleDocument), "$.root.children[0]")
	require.NoError(t, err)
	assert.Equal(t, "cmd", root.Name())
	assert.Equal(t, 1, root.ChildCount())
}

func TestFromDocument_Errors(t *testing.T) {
	cases := map[string]struct {
		doc, selector string
	}{
		"not json":        {`{`, ""},
		"no match":        {`{"other": {}}`, ""},
		"many matches":    {sampleDocument, "$..name"},
		"not an object":   {`{"root": "repo"}`, ""},
		"missing name":    {`{"root": {"files": []}}`, ""},
		"bad files":       {`{"root": {"name": "r", "files": {}}}`, ""},
		"bad decl":        {`{"root": {"name": "r", "files": [{"name": "a.go", "decls": [{"kind": "func"}]}]}}`, ""},
		"bad mode":        {`{"root": {"name": "r", "attributes": {"mode": "rwx"}}}`, ""},
		"duplicate names": {`{"root": {"name": "r", "files": [{"name": "a"}, {"name": "a"}]}}`, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromDocument([]byte(tc.doc), tc.selector)
			assert.Error(t, err)
		})
	}
}

func TestFromDocument_MalformedReportsPath(t *testing.T) {
	_, err := FromDocument([]byte(`{"root": {"name": "r", "children": [{"name": "a"}, {"name": 3}]}}`), "")
	require.ErrorIs(t, err, ErrDocument)
	assert.Contains(t, err.Error(), "$.root.children[1].name")
}

func TestFromDocument_FilteredSelectorReportsLocatedPath(t *testing.T) {
	doc := `{"trees": [
		{"name": "a"},
		{"name": "b", "children": [{"name": false}]}
	]}`
	_, err := FromDocument([]byte(doc), "$.trees[?(@.name == 'b')]")
	require.ErrorIs(t, err, ErrDocument)
	assert.Contains(t, err.Error(), "$.trees[1].children[0].name")

	d, err := FromDocument([]byte(doc), "$.trees[?(@.name == 'a')]")
	require.NoError(t, err)
	assert.Equal(t, "a", d.Name())
}

func TestToDocument(t *testing.T) {
	src := vfstest.Source(t, "main.go", "func", "main")
	root := vfstest.Dir(t, "repo",
		vfstest.File("README", "hi"),
		vfstest.Dir(t, "cmd", src),
	)

	doc := ToDocument(root)
	assert.Equal(t, api.Version, doc.Version)
	assert.Equal(t, "repo", doc.Root.Name)
	assert.Equal(t, uint64(root.Identity()), doc.Root.Identity)

	require.Len(t, doc.Root.Files, 1)
	assert.Equal(t, "hi", doc.Root.Files[0].Content)

	require.Len(t, doc.Root.Children, 1)
	leaf := doc.Root.Children[0].Files[0]
	assert.Equal(t, "go", leaf.Language)
	require.Len(t, leaf.Decls, 1)
	assert.Equal(t, uint64(src.Decls().At(0).Identity()), leaf.Decls[0].Identity)

	rebuilt, err := BuildDir(doc.Root)
	require.NoError(t, err)
	got := vfstest.Lookup(t, rebuilt, "cmd/main.go").(*vfs.Source)
	assert.Equal(t, declKeys(src), declKeys(got))
}
