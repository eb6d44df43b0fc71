package ingest

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// SitterWalker implements Walker for Tree-sitter parsed code. Each distinct
// query is compiled once per language and reused; it is safe for concurrent
// use.
type SitterWalker struct {
	mu      sync.Mutex
	queries map[queryKey]*sitter.Query
}

type queryKey struct {
	lang     *sitter.Language
	selector string
}

func NewSitterWalker() *SitterWalker {
	return &SitterWalker{queries: make(map[queryKey]*sitter.Query)}
}

// SitterRoot encapsulates the necessary context for querying a Tree-sitter tree.
// It includes the root node, the source code (for extracting content), and the language (for compiling the query).
type SitterRoot struct {
	Node   *sitter.Node
	Source []byte
	Lang   *sitter.Language
}

func (w *SitterWalker) compile(lang *sitter.Language, selector string) (*sitter.Query, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := queryKey{lang: lang, selector: selector}
	if q, ok := w.queries[k]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(selector), lang)
	if err != nil {
		return nil, fmt.Errorf("invalid query '%s': %w", selector, err)
	}
	w.queries[k] = q
	return q, nil
}

// Query implements Walker.
func (w *SitterWalker) Query(root any, selector string) ([]Match, error) {
	sr, ok := root.(SitterRoot)
	if !ok {
		if ptr, ok := root.(*SitterRoot); ok {
			sr = *ptr
		} else {
			return nil, fmt.Errorf("root must be SitterRoot, got %T", root)
		}
	}

	// "$" is a passthrough selector: the root itself with empty values.
	if selector == "$" {
		return []Match{&sitterMatch{values: map[string]string{}, scope: sr.Node, root: sr}}, nil
	}

	q, err := w.compile(sr.Lang, selector)
	if err != nil {
		return nil, err
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, sr.Node)

	var matches []Match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		// Predicates such as #eq? are not applied by the cursor itself.
		m = qc.FilterPredicates(m, sr.Source)
		if len(m.Captures) == 0 {
			continue
		}

		vals := make(map[string]string)
		var scope *sitter.Node
		for _, c := range m.Captures {
			name := q.CaptureNameForId(c.Index)
			if name == "scope" {
				scope = c.Node
			}
			start, end := c.Node.StartByte(), c.Node.EndByte()
			text := ""
			if start < uint32(len(sr.Source)) && end <= uint32(len(sr.Source)) {
				text = string(sr.Source[start:end])
			}
			if prev, seen := vals[name]; seen {
				text = prev + " " + text
			}
			vals[name] = text
		}
		matches = append(matches, &sitterMatch{values: vals, scope: scope, root: sr})
	}
	return matches, nil
}

// Close releases every compiled query.
func (w *SitterWalker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, q := range w.queries {
		q.Close()
		delete(w.queries, k)
	}
}

type sitterMatch struct {
	values map[string]string
	scope  *sitter.Node
	root   SitterRoot
}

// Values implements Match.
func (m *sitterMatch) Values() map[string]any {
	result := make(map[string]any, len(m.values))
	for k, v := range m.values {
		result[k] = v
	}
	return result
}

// Context implements Match.
func (m *sitterMatch) Context() any {
	if m.scope != nil {
		return SitterRoot{
			Node:   m.scope,
			Source: m.root.Source,
			Lang:   m.root.Lang,
		}
	}
	return nil
}

func (m *sitterMatch) value(name string) string {
	return strings.TrimSpace(m.values[name])
}
