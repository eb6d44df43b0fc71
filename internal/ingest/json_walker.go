package ingest

import (
	"fmt"
	"sync"

	"github.com/ohler55/ojg/jp"
)

// JsonWalker implements Walker for decoded JSON. Each match carries the
// concrete location it was found at, so a wildcard or filter selector still
// yields paths like $.trees[1] that errors can point to.
type JsonWalker struct {
	mu    sync.Mutex
	exprs map[string]jp.Expr
}

func NewJsonWalker() *JsonWalker {
	return &JsonWalker{exprs: make(map[string]jp.Expr)}
}

// Query implements Walker. Matches come back in document order.
func (w *JsonWalker) Query(root any, selector string) ([]Match, error) {
	x, err := w.compile(selector)
	if err != nil {
		return nil, err
	}
	locs := x.Locate(root, 0)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, &JsonMatch{path: loc.String(), value: loc.First(root)})
	}
	return matches, nil
}

func (w *JsonWalker) compile(selector string) (jp.Expr, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if x, ok := w.exprs[selector]; ok {
		return x, nil
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath %q: %w", selector, err)
	}
	w.exprs[selector] = x
	return x, nil
}

// JsonMatch is one located JSON value.
type JsonMatch struct {
	path  string
	value any
}

// Path returns the normalized JSONPath of the match.
func (m *JsonMatch) Path() string { return m.path }

// Values implements Match. Objects are returned as is; anything else is
// wrapped under "value".
func (m *JsonMatch) Values() map[string]any {
	if obj, ok := m.value.(map[string]any); ok {
		return obj
	}
	return map[string]any{"value": m.value}
}

// Context implements Match.
func (m *JsonMatch) Context() any { return m.value }
