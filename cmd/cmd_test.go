package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/arbor/api"
)

// writeTree creates files below dir from a path -> content map.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for p, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// testConfig writes a config that keeps the journal in a temp dir and
// disables color.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "arbor.hcl")
	src := "history_db = \"" + filepath.ToSlash(filepath.Join(dir, "history.db")) + "\"\ncolor = false\n"
	require.NoError(t, os.WriteFile(p, []byte(src), 0o600))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestShow_YAML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	writeTree(t, dir, map[string]string{
		"README":      "hello",
		"cmd/main.go": "package main\n\nfunc main() {}\n",
	})

	out, err := run(t, "--config", testConfig(t), "show", dir)
	require.NoError(t, err)

	var doc api.Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, api.Version, doc.Version)
	assert.Equal(t, "proj", doc.Root.Name)
	require.Len(t, doc.Root.Files, 1)
	assert.Equal(t, "hello", doc.Root.Files[0].Content)
	require.Len(t, doc.Root.Children, 1)
	main := doc.Root.Children[0].Files[0]
	assert.Equal(t, "go", main.Language)
	require.Len(t, main.Decls, 2)
	assert.Equal(t, "main", main.Decls[1].Name)
}

func TestShow_DocumentAsJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"root": {"name": "r", "files": [{"name": "a", "content": "x"}]}}`), 0o644))

	out, err := run(t, "--config", testConfig(t), "show", "--document", p, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "r"`)
	assert.Contains(t, out, `"content": "x"`)
}

func TestShow_Args(t *testing.T) {
	_, err := run(t, "--config", testConfig(t), "show")
	assert.Error(t, err)
	_, err = run(t, "--config", testConfig(t), "show", "--document", "x.json", "extra")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	base := t.TempDir()
	before, after := filepath.Join(base, "v1"), filepath.Join(base, "v2")
	writeTree(t, before, map[string]string{
		"README":      "v1",
		"old/x.txt":   "x",
		"cmd/main.go": "package main\n\nfunc main() {}\n",
	})
	writeTree(t, after, map[string]string{
		"README":      "v2",
		"LICENSE":     "MIT",
		"cmd/main.go": "package main\n\nfunc main() { run() }\n\nfunc run() {}\n",
	})

	out, err := run(t, "--config", testConfig(t), "diff", before, after)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "- /old")
	assert.Contains(t, lines, "~ /README (data)")
	assert.Contains(t, lines, "~ /cmd/main.go#main (body)")
	assert.Contains(t, lines, "+ /LICENSE")
	assert.Contains(t, lines, "+ /cmd/main.go#run")
	assert.Contains(t, lines, "~ / (name)")
	assert.Equal(t, "1 removed, 3 changed, 2 added", lines[len(lines)-1])

	out, err = run(t, "--config", testConfig(t), "diff", "--summary", before, before)
	require.NoError(t, err)
	assert.Equal(t, "0 removed, 0 changed, 0 added\n", out)
}

func TestSnapshotAndLog(t *testing.T) {
	cfg := testConfig(t)
	base := t.TempDir()
	v1, v2 := filepath.Join(base, "v1"), filepath.Join(base, "v2")
	writeTree(t, v1, map[string]string{"a": "1", "b": "2"})
	writeTree(t, v2, map[string]string{"a": "1", "c": "3"})

	out, err := run(t, "--config", cfg, "snapshot", "--label", "rel", v1, v2)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "rel#1: 3 nodes, 0 removed, 0 changed, 0 added")
	assert.Contains(t, lines[1], "rel#2: 3 nodes, 1 removed, 1 changed, 1 added")
	firstID := strings.Fields(lines[0])[0]
	secondID := strings.Fields(lines[1])[0]

	out, err = run(t, "--config", cfg, "log")
	require.NoError(t, err)
	assert.Contains(t, out, "rel#1")
	assert.Contains(t, out, "rel#2")

	out, err = run(t, "--config", cfg, "log", secondID, "--since", firstID)
	require.NoError(t, err)
	assert.Equal(t, "- /b\n~ / (name)\n+ /c\n2 identities survive since "+firstID+"\n", out)

	_, err = run(t, "--config", cfg, "log", "missing")
	assert.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "arbor.hcl")
	require.NoError(t, os.WriteFile(p, []byte(`output = "xml"`), 0o600))
	_, err := run(t, "--config", p, "log")
	assert.Error(t, err)
}
