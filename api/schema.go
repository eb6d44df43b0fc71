package api

// Document is the serialized form of a file tree, used both as an ingestion
// source and as the output of `arbor show`.
type Document struct {
	// Version of the arbor document schema.
	Version string `json:"version" yaml:"version"`
	// Root directory of the tree.
	Root Node `json:"root" yaml:"root"`
}

// Version is the current document schema version.
const Version = "v1"

// Node represents a directory. It can contain other nodes or leaves (files).
type Node struct {
	// Name of the directory.
	Name string `json:"name" yaml:"name"`
	// Identity is informational on output and ignored on input.
	Identity uint64 `json:"identity,omitempty" yaml:"identity,omitempty"`
	// Children directories.
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
	// Files within this directory.
	Files []Leaf `json:"files,omitempty" yaml:"files,omitempty"`
	// Attributes defines directory permissions (optional).
	Attributes *Attributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Leaf represents a file.
type Leaf struct {
	// Name of the file.
	Name string `json:"name" yaml:"name"`
	// Identity is informational on output and ignored on input.
	Identity uint64 `json:"identity,omitempty" yaml:"identity,omitempty"`
	// Content of the file. Parsed sources omit it and list Decls instead.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	// Language of a parsed source.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	// Decls are the top-level declarations of a parsed source.
	Decls []Decl `json:"decls,omitempty" yaml:"decls,omitempty"`
	// Attributes defines file permissions (optional).
	Attributes *Attributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Decl is one top-level declaration of a parsed source.
type Decl struct {
	Kind     string `json:"kind" yaml:"kind"`
	Name     string `json:"name" yaml:"name"`
	Identity uint64 `json:"identity,omitempty" yaml:"identity,omitempty"`
	Body     string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Attributes defines optional metadata for nodes/leaves.
type Attributes struct {
	Mode uint32 `json:"mode,omitempty" yaml:"mode,omitempty"` // File mode (e.g., 0644)
}
