// Package render turns vfs entries back into file content.
package render

import (
	"mvdan.cc/gofumpt/format"

	"github.com/agentic-research/arbor/internal/vfs"
)

// Content returns the bytes a file entry reads as. Go sources are formatted
// with gofumpt; when formatting fails the declarations are returned as
// written. Directories have no content.
func Content(e vfs.Entry) ([]byte, bool) {
	switch e := e.(type) {
	case *vfs.File:
		return e.Data(), true
	case *vfs.Source:
		text := e.Text()
		if e.Language() == "go" {
			text = FormatGo(text)
		}
		return text, true
	default:
		return nil, false
	}
}

// FormatGo formats Go source in memory. The input is returned unchanged if
// it does not parse.
func FormatGo(src []byte) []byte {
	formatted, err := format.Source(src, format.Options{})
	if err != nil {
		return src
	}
	return formatted
}
