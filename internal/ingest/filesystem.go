package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/arbor/internal/vfs"
)

// Options controls filesystem ingestion.
type Options struct {
	// Exclude holds path.Match patterns tested against each base name.
	Exclude []string
	// ParseSource splits supported source files into declarations.
	ParseSource bool
	// Workers bounds concurrent parses. Zero means GOMAXPROCS.
	Workers int
}

func (o Options) excluded(name string) (bool, error) {
	for _, p := range o.Exclude {
		ok, err := path.Match(p, name)
		if err != nil {
			return false, fmt.Errorf("bad exclude pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type pendingDir struct {
	name  string
	mode  os.FileMode
	dirs  []*pendingDir
	files []*pendingFile
}

type pendingFile struct {
	path  string
	name  string
	mode  os.FileMode
	data  []byte
	entry vfs.Entry
}

// FromFilesystem reads the directory at root into a tree. Files that fail to
// parse are kept as plain files.
func FromFilesystem(ctx context.Context, fsys billy.Filesystem, root string, opts Options) (*vfs.Dir, error) {
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	top := &pendingDir{name: path.Base(root), mode: info.Mode()}
	if root == "" || root == "." || root == "/" {
		top.name = "/"
	}
	var files []*pendingFile
	if err := scan(ctx, fsys, root, top, opts, &files); err != nil {
		return nil, err
	}

	var parser *Parser
	if opts.ParseSource {
		parser = NewParser()
		defer parser.Close()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		g.Go(func() error {
			return f.build(gctx, parser)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return top.build()
}

func scan(ctx context.Context, fsys billy.Filesystem, dir string, into *pendingDir, opts Options, files *[]*pendingFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, fi := range infos {
		skip, err := opts.excluded(fi.Name())
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		p := fsys.Join(dir, fi.Name())
		switch {
		case fi.IsDir():
			sub := &pendingDir{name: fi.Name(), mode: fi.Mode()}
			if err := scan(ctx, fsys, p, sub, opts, files); err != nil {
				return err
			}
			into.dirs = append(into.dirs, sub)
		case fi.Mode().IsRegular():
			data, err := util.ReadFile(fsys, p)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", p, err)
			}
			f := &pendingFile{path: p, name: fi.Name(), mode: fi.Mode(), data: data}
			into.files = append(into.files, f)
			*files = append(*files, f)
		default:
			slog.Debug("skipping irregular file", "path", p, "mode", fi.Mode())
		}
	}
	return nil
}

func (f *pendingFile) build(ctx context.Context, parser *Parser) error {
	if parser != nil {
		if _, ok := DetectLanguageFromExt(path.Ext(f.name)); ok {
			src, err := parser.Parse(ctx, f.name, f.data)
			switch {
			case err == nil:
				f.entry = src.WithMode(f.mode.Perm())
				return nil
			case errors.Is(err, ErrSyntax):
				slog.Warn("keeping unparsable source as plain file", "path", f.path, "error", err)
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				return err
			}
		}
	}
	f.entry = vfs.NewFile(f.name, f.data).WithMode(f.mode.Perm())
	return nil
}

func (d *pendingDir) build() (*vfs.Dir, error) {
	entries := make([]vfs.Entry, 0, len(d.dirs)+len(d.files))
	for _, sub := range d.dirs {
		e, err := sub.build()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	for _, f := range d.files {
		entries = append(entries, f.entry)
	}
	dir, err := vfs.NewDir(d.name, entries...)
	if err != nil {
		return nil, fmt.Errorf("directory %s: %w", d.name, err)
	}
	return dir.WithMode(d.mode.Perm()), nil
}
