package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/arbor/internal/vfs"
)

// ErrUnsupported is returned for files no parser is registered for.
var ErrUnsupported = errors.New("unsupported source language")

// ErrSyntax is returned when a source file does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

const maxFallbackName = 40

// SyntaxError locates the first syntax error of a source file. It matches
// ErrSyntax with errors.Is.
type SyntaxError struct {
	Path   string
	Line   uint32 // 0-indexed
	Column uint32 // 0-indexed
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line+1, e.Column+1, ErrSyntax)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

func syntaxError(name string, root *sitter.Node) error {
	e := &SyntaxError{Path: name}
	if n := firstError(root); n != nil {
		e.Line, e.Column = n.StartPoint().Row, n.StartPoint().Column
	}
	return e
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsError() || c.IsMissing() {
			if found := firstError(c); found != nil {
				return found
			}
		}
	}
	return nil
}

// Parser splits source files into top-level declarations.
type Parser struct {
	walker *SitterWalker
}

func NewParser() *Parser {
	return &Parser{walker: NewSitterWalker()}
}

// Close releases the compiled queries.
func (p *Parser) Close() { p.walker.Close() }

// Parse splits src into top-level declarations, choosing the grammar by the
// extension of name.
func (p *Parser) Parse(ctx context.Context, name string, src []byte) (*vfs.Source, error) {
	lang, ok := DetectLanguageFromExt(path.Ext(name))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return p.ParseLanguage(ctx, lang, name, src)
}

// ParseLanguage splits src with an explicit language.
func (p *Parser) ParseLanguage(ctx context.Context, lang *Language, name string, src []byte) (*vfs.Source, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.Grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(name, root)
	}
	if lang.Container != "" && root.NamedChildCount() == 1 && root.NamedChild(0).Type() == lang.Container {
		root = root.NamedChild(0)
	}

	count := int(root.NamedChildCount())
	decls := make([]*vfs.Decl, 0, count)
	for i := 0; i < count; i++ {
		n := root.NamedChild(i)
		d, err := p.decl(lang, n, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		decls = append(decls, d)
	}
	return vfs.NewSource(name, lang.Name, decls...)
}

func (p *Parser) decl(lang *Language, n *sitter.Node, src []byte) (*vfs.Decl, error) {
	body := n.Content(src)
	name := ""
	if lang.Names != "" {
		matches, err := p.walker.Query(SitterRoot{Node: n, Source: src, Lang: lang.Grammar}, lang.Names)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			name = declName(matches[0].(*sitterMatch))
		}
	}
	if name == "" {
		name = firstLine(body)
	}
	return vfs.NewDecl(lang.kind(n.Type()), name, body), nil
}

// declName assembles "Recv.Name label label" from a match.
func declName(m *sitterMatch) string {
	name := strings.Trim(m.value("name"), `"`)
	if recv := receiverType(m.value("recv")); recv != "" {
		name = recv + "." + name
	}
	for _, l := range strings.Fields(m.value("label")) {
		name += " " + strings.Trim(l, `"`)
	}
	return name
}

// receiverType reduces a Go receiver type such as "*List[T]" to "List".
func receiverType(t string) string {
	t = strings.TrimLeft(t, "*")
	if i := strings.IndexByte(t, '['); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > maxFallbackName {
		s = s[:maxFallbackName]
	}
	return s
}

// ParseGo splits Go source into its top-level declarations.
func ParseGo(ctx context.Context, name string, src []byte) (*vfs.Source, error) {
	p := NewParser()
	defer p.Close()
	return p.ParseLanguage(ctx, langGo, name, src)
}
