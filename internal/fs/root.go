// Package fs mounts a snapshot read-only through FUSE.
package fs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/arbor/internal/render"
	"github.com/agentic-research/arbor/internal/vfs"
)

// ErrMount is returned when the FUSE host fails to mount.
var ErrMount = errors.New("fuse mount failed")

// TreeFS implements the FUSE interface from cgofuse over one snapshot.
type TreeFS struct {
	fuse.FileSystemBase
	root      *vfs.Dir
	mountTime fuse.Timespec

	mu      sync.Mutex
	next    uint64
	handles map[uint64][]byte
}

func NewTreeFS(root *vfs.Dir) *TreeFS {
	return &TreeFS{
		root:      root,
		mountTime: fuse.NewTimespec(time.Now()),
		handles:   make(map[uint64][]byte),
	}
}

// Open renders the file once; reads through the handle see that content.
func (fs *TreeFS) Open(path string, flags int) (int, uint64) {
	if flags&(fuse.O_WRONLY|fuse.O_RDWR) != 0 {
		return -fuse.EROFS, ^uint64(0)
	}
	e, err := vfs.Lookup(fs.root, path)
	if err != nil {
		return -fuse.ENOENT, ^uint64(0)
	}
	data, ok := render.Content(e)
	if !ok {
		return -fuse.EISDIR, ^uint64(0)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.next++
	fs.handles[fs.next] = data
	return 0, fs.next
}

func (fs *TreeFS) Release(path string, fh uint64) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.handles, fh)
	return 0
}

// Getattr (Stat)
func (fs *TreeFS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	e, err := vfs.Lookup(fs.root, path)
	if err != nil {
		return -fuse.ENOENT
	}
	stat.Atim = fs.mountTime
	stat.Mtim = fs.mountTime
	stat.Ctim = fs.mountTime
	stat.Birthtim = fs.mountTime

	perm := uint32(vfs.ModeOf(e).Perm()) &^ 0o222
	if d, ok := e.(*vfs.Dir); ok {
		stat.Mode = fuse.S_IFDIR | perm
		stat.Nlink = uint32(2 + subdirs(d))
		return 0
	}
	stat.Mode = fuse.S_IFREG | perm
	stat.Nlink = 1
	if data, ok := fs.handle(fh); ok {
		stat.Size = int64(len(data))
	} else if data, ok := render.Content(e); ok {
		stat.Size = int64(len(data))
	}
	return 0
}

// Readdir (List directory)
func (fs *TreeFS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	e, err := vfs.Lookup(fs.root, path)
	if err != nil {
		return -fuse.ENOENT
	}
	d, ok := e.(*vfs.Dir)
	if !ok {
		return -fuse.ENOTDIR
	}
	fill(".", nil, 0)
	fill("..", nil, 0)
	for c := range d.Entries().Values() {
		if !fill(c.Name(), nil, 0) {
			break
		}
	}
	return 0
}

// Read (Cat file)
func (fs *TreeFS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	content, ok := fs.handle(fh)
	if !ok {
		e, err := vfs.Lookup(fs.root, path)
		if err != nil {
			return -fuse.ENOENT
		}
		if content, ok = render.Content(e); !ok {
			return -fuse.EISDIR
		}
	}
	if ofst >= int64(len(content)) {
		return 0
	}
	return copy(buff, content[ofst:])
}

func (fs *TreeFS) handle(fh uint64) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.handles[fh]
	return data, ok
}

func subdirs(d *vfs.Dir) int {
	n := 0
	for c := range d.Entries().Values() {
		if _, ok := c.(*vfs.Dir); ok {
			n++
		}
	}
	return n
}

// Mount serves root at mountpoint until ctx is done or the mount is
// removed externally. It blocks.
func Mount(ctx context.Context, root *vfs.Dir, mountpoint string, opts ...string) error {
	host := fuse.NewFileSystemHost(NewTreeFS(root))
	stop := context.AfterFunc(ctx, func() { host.Unmount() })
	defer stop()
	if !host.Mount(mountpoint, append([]string{"-o", "ro"}, opts...)) {
		return fmt.Errorf("%w: %s", ErrMount, mountpoint)
	}
	return nil
}
