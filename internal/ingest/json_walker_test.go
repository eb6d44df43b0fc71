package ingest

import (
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonWalker(t *testing.T) {
	data, err := oj.ParseString(`
{
  "version": "v1",
  "root": {
    "name": "repo",
    "files": [
      {"name": "README", "content": "hi"},
      {"name": "go.mod", "content": "module x"}
    ]
  }
}`)
	require.NoError(t, err)

	w := NewJsonWalker()

	t.Run("select list of objects", func(t *testing.T) {
		matches, err := w.Query(data, "$.root.files[*]")
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, map[string]any{"name": "README", "content": "hi"}, matches[0].Values())
		assert.Equal(t, "go.mod", matches[1].Values()["name"])
	})

	t.Run("select primitive", func(t *testing.T) {
		matches, err := w.Query(data, "$.version")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, map[string]any{"value": "v1"}, matches[0].Values())
		assert.Equal(t, "v1", matches[0].Context())
	})

	t.Run("matches carry their location", func(t *testing.T) {
		matches, err := w.Query(data, "$.root.files[?(@.name == 'go.mod')]")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "$.root.files[1]", matches[0].(*JsonMatch).Path())
		assert.Equal(t, "module x", matches[0].Values()["content"])
	})

	t.Run("compiled selectors are reused", func(t *testing.T) {
		_, err := w.Query(data, "$.version")
		require.NoError(t, err)
		_, err = w.Query(data, "$.version")
		require.NoError(t, err)
		assert.Contains(t, w.exprs, "$.version")
	})

	t.Run("no match", func(t *testing.T) {
		matches, err := w.Query(data, "$.missing")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("bad path", func(t *testing.T) {
		_, err := w.Query(data, "$[")
		assert.Error(t, err)
	})
}
