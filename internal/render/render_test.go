package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/internal/vfs/vfstest"
)

func TestFormatGo(t *testing.T) {
	got := FormatGo([]byte("package main\n\nfunc A()  {\nreturn\n}\n"))
	assert.Equal(t, "package main\n\nfunc A() {\n\treturn\n}\n", string(got))

	broken := []byte("func broken {{{")
	assert.Equal(t, broken, FormatGo(broken), "unparseable Go is returned as is")
}

func TestContent(t *testing.T) {
	f := vfstest.File("README", "hi")
	data, ok := Content(f)
	require.True(t, ok)
	assert.Equal(t, "hi", string(data))

	src, err := vfs.NewSource("main.go", "go",
		vfs.NewDecl("package", "main", "package main"),
		vfs.NewDecl("func", "main", "func main()  {\nprintln(1)\n}"),
	)
	require.NoError(t, err)
	data, ok = Content(src)
	require.True(t, ok)
	assert.Equal(t, "package main\n\nfunc main() {\n\tprintln(1)\n}\n", string(data))

	py, err := vfs.NewSource("a.py", "python", vfs.NewDecl("def", "f", "def f():  pass"))
	require.NoError(t, err)
	data, _ = Content(py)
	assert.Equal(t, "def f():  pass\n", string(data))

	_, ok = Content(vfstest.Dir(t, "d"))
	assert.False(t, ok)
}
