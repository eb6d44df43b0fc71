// Package nfsmount exports a snapshot over NFS. It adapts a vfs tree to
// billy.Filesystem for use with willscott/go-nfs.
package nfsmount

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/arbor/internal/render"
	"github.com/agentic-research/arbor/internal/vfs"
)

var errReadOnly = errors.New("read-only filesystem")

// SnapshotFS is a read-only billy.Filesystem over one snapshot. Parsed
// sources read back as rendered by render.Content.
type SnapshotFS struct {
	root    *vfs.Dir
	modTime time.Time
}

// NewSnapshotFS exposes root. Every entry reports modTime.
func NewSnapshotFS(root *vfs.Dir, modTime time.Time) *SnapshotFS {
	return &SnapshotFS{root: root, modTime: modTime}
}

// --- billy.Basic ---

func (fs *SnapshotFS) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (fs *SnapshotFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *SnapshotFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, &os.PathError{Op: "open", Path: filename, Err: errReadOnly}
	}
	e, err := vfs.Lookup(fs.root, filename)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	data, ok := render.Content(e)
	if !ok {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}
	return &bytesFile{name: filename, data: data}, nil
}

func (fs *SnapshotFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *SnapshotFS) Rename(oldpath, newpath string) error { return errReadOnly }
func (fs *SnapshotFS) Remove(filename string) error         { return errReadOnly }

func (fs *SnapshotFS) Join(elem ...string) string {
	return path.Join(elem...)
}

// --- billy.TempFile ---

func (fs *SnapshotFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *SnapshotFS) ReadDir(p string) ([]os.FileInfo, error) {
	p = cleanPath(p)
	e, err := vfs.Lookup(fs.root, p)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: os.ErrNotExist}
	}
	d, ok := e.(*vfs.Dir)
	if !ok {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: fmt.Errorf("not a directory")}
	}
	infos := make([]os.FileInfo, 0, d.ChildCount())
	for c := range d.Entries().Values() {
		infos = append(infos, fs.info(c.Name(), c))
	}
	return infos, nil
}

func (fs *SnapshotFS) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

// --- billy.Symlink ---

func (fs *SnapshotFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)
	e, err := vfs.Lookup(fs.root, filename)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	return fs.info(path.Base(filename), e), nil
}

func (fs *SnapshotFS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (fs *SnapshotFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *SnapshotFS) Chroot(p string) (billy.Filesystem, error) {
	return chroot.New(fs, p), nil
}

func (fs *SnapshotFS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (fs *SnapshotFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// --- internals ---

func (fs *SnapshotFS) info(name string, e vfs.Entry) os.FileInfo {
	fi := &staticFileInfo{name: name, mode: vfs.ModeOf(e), modTime: fs.modTime}
	if data, ok := render.Content(e); ok {
		fi.size = int64(len(data))
	}
	return fi
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() any           { return nil }

var (
	_ billy.Filesystem = (*SnapshotFS)(nil)
	_ billy.Capable    = (*SnapshotFS)(nil)
	_ billy.File       = (*bytesFile)(nil)
)
