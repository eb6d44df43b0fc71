package vfs

import (
	"fmt"
	"io/fs"

	"github.com/agentic-research/arbor/tree"
)

// Reconcile folds a freshly built tree into prior, matching entries by
// path. Entries that still exist keep their identity and, when nothing about
// them changed, their instance; new entries are taken from fresh; entries
// missing from fresh are dropped. Every edit goes through the tree mutators,
// so the result is a later version of prior and can be diffed against it.
func Reconcile(prior, fresh *Dir) (*Dir, error) {
	root, err := reconcileDir(prior.WithName(fresh.name), prior, fresh)
	if err != nil {
		return nil, err
	}
	out, ok := root.(*Dir)
	if !ok {
		return nil, fmt.Errorf("reconcile: root became %T", root)
	}
	return out, nil
}

// reconcileDir applies the differences between prior and fresh to the
// directory identified by prior inside root, and returns the new root.
func reconcileDir(root tree.Node, prior, fresh *Dir) (tree.Node, error) {
	var err error
	if prior.mode != fresh.mode|fs.ModeDir {
		cur, _, err := tree.Find(root, prior.id)
		if err != nil {
			return nil, err
		}
		if root, err = tree.Replace(root, cur, cur.(*Dir).WithMode(fresh.mode)); err != nil {
			return nil, err
		}
	}
	for e := range prior.entries.Values() {
		if _, keep := fresh.Entry(e.Name()); keep {
			continue
		}
		if root, err = tree.RemoveDescendant(root, e.Identity()); err != nil {
			return nil, err
		}
	}
	for f := range fresh.entries.Values() {
		p, ok := prior.Entry(f.Name())
		if !ok {
			if root, err = tree.AddDescendant(root, f, prior.id); err != nil {
				return nil, err
			}
			continue
		}
		pd, pok := p.(*Dir)
		fd, fok := f.(*Dir)
		if pok && fok {
			if root, err = reconcileDir(root, pd, fd); err != nil {
				return nil, err
			}
			continue
		}
		merged, err := reconcileEntry(p, f)
		if err != nil {
			return nil, fmt.Errorf("reconcile %q: %w", f.Name(), err)
		}
		if root, err = tree.Replace(root, p, merged); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// reconcileEntry merges two versions of the leaf at one path. A directory
// turning into a file or back is a different entry; a file turning into a
// parsed source or back keeps its identity.
func reconcileEntry(prior, fresh Entry) (Entry, error) {
	switch p := prior.(type) {
	case *File:
		switch f := fresh.(type) {
		case *File:
			return p.WithMode(f.mode).WithData(f.data), nil
		case *Source:
			s, err := p.ToSource(f.lang)
			if err != nil {
				return nil, err
			}
			return reconcileSource(s, f)
		}
	case *Source:
		switch f := fresh.(type) {
		case *Source:
			return reconcileSource(p, f)
		case *File:
			return p.ToFile().WithMode(f.mode).WithData(f.data), nil
		}
	}
	return fresh, nil
}

// reconcileSource takes the declaration order of fresh and reuses the
// identity of the first unclaimed prior declaration with the same key.
func reconcileSource(prior, fresh *Source) (*Source, error) {
	pool := make(map[string][]*Decl)
	for d := range prior.decls.Values() {
		pool[d.Key()] = append(pool[d.Key()], d)
	}
	decls := make([]*Decl, 0, fresh.decls.Len())
	for d := range fresh.decls.Values() {
		candidates := pool[d.Key()]
		if len(candidates) == 0 {
			decls = append(decls, d)
			continue
		}
		pool[d.Key()] = candidates[1:]
		decls = append(decls, candidates[0].WithBody(d.body))
	}
	l, err := tree.NewList(decls...)
	if err != nil {
		return nil, err
	}
	return prior.WithMode(fresh.mode).WithLanguage(fresh.lang).WithDecls(l), nil
}
