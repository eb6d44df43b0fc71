package vfs

import (
	"bytes"
	"io/fs"

	"github.com/agentic-research/arbor/tree"
)

// File is a regular file with inline content.
type File struct {
	id   tree.Identity
	name string
	mode fs.FileMode
	data []byte
}

// NewFile creates a file. data is retained; callers must not modify it.
func NewFile(name string, data []byte) *File {
	return &File{id: tree.NewIdentity(), name: name, mode: 0o644, data: data}
}

func (f *File) Identity() tree.Identity { return f.id }
func (f *File) Name() string            { return f.name }
func (f *File) Mode() fs.FileMode       { return f.mode }
func (f *File) entry()                  {}

// Data returns the content. It must not be modified.
func (f *File) Data() []byte { return f.data }

// Size returns the content length in bytes.
func (f *File) Size() int64 { return int64(len(f.data)) }

func (f *File) WithName(name string) *File {
	if name == f.name {
		return f
	}
	c := *f
	c.name = name
	return &c
}

func (f *File) WithMode(mode fs.FileMode) *File {
	if mode == f.mode {
		return f
	}
	c := *f
	c.mode = mode
	return &c
}

func (f *File) WithData(data []byte) *File {
	if bytes.Equal(data, f.data) {
		return f
	}
	c := *f
	c.data = data
	return &c
}

// ToSource reinterprets the file as a parsed source with the given
// declarations. The result keeps the file's identity and name.
func (f *File) ToSource(lang string, decls ...*Decl) (*Source, error) {
	s, err := newSource(f.id, f.name, lang, decls...)
	if err != nil {
		return nil, err
	}
	s.mode = f.mode
	return s, nil
}

// Diff implements tree.Diffable.
func (f *File) Diff(prior tree.Node) tree.Changes {
	p, ok := prior.(*File)
	if !ok {
		return typeChange(f, prior)
	}
	var c tree.Changes
	if f.name != p.name {
		c |= ChangedName
	}
	if f.mode != p.mode {
		c |= ChangedMode
	}
	if !bytes.Equal(f.data, p.data) {
		c |= ChangedData
	}
	return c
}
