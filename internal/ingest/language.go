package ingest

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language describes how to split one kind of source file into top-level
// declarations.
type Language struct {
	Name    string
	Grammar *sitter.Language

	// Kinds renames top-level node types to declaration kinds. Node types
	// not listed keep their tree-sitter name.
	Kinds map[string]string

	// Names is a query run against each declaration; the first match names
	// it. Captures: @recv (joined to the name with "."), @name, @label
	// (appended, unquoted). Declarations without a match are named after
	// their first line.
	Names string

	// Container is the node type that wraps the real top-level declarations,
	// if the grammar has one (HCL's "body").
	Container string
}

var (
	langGo = &Language{
		Name:    "go",
		Grammar: golang.GetLanguage(),
		Kinds: map[string]string{
			"package_clause":       "package",
			"import_declaration":   "import",
			"function_declaration": "func",
			"method_declaration":   "method",
			"type_declaration":     "type",
			"var_declaration":      "var",
			"const_declaration":    "const",
		},
		Names: `
			(package_clause (package_identifier) @name)
			(import_spec path: (interpreted_string_literal) @name)
			(function_declaration name: (identifier) @name)
			(method_declaration receiver: (parameter_list (parameter_declaration type: (_) @recv)) name: (field_identifier) @name)
			(type_spec name: (type_identifier) @name)
			(type_alias name: (type_identifier) @name)
			(var_spec name: (identifier) @name)
			(const_spec name: (identifier) @name)
		`,
	}

	langPython = &Language{
		Name:    "python",
		Grammar: python.GetLanguage(),
		Kinds: map[string]string{
			"function_definition":   "def",
			"class_definition":      "class",
			"decorated_definition":  "decorated",
			"import_statement":      "import",
			"import_from_statement": "import",
		},
		Names: `
			(function_definition name: (identifier) @name)
			(class_definition name: (identifier) @name)
			(assignment left: (identifier) @name)
		`,
	}

	langHCL = &Language{
		Name:      "terraform",
		Grammar:   hcl.GetLanguage(),
		Container: "body",
		Names: `
			(block (identifier) @name (string_lit)* @label)
			(attribute (identifier) @name)
		`,
	}

	langJavaScript = &Language{
		Name:    "javascript",
		Grammar: javascript.GetLanguage(),
		Kinds:   jsKinds,
		Names: `
			(function_declaration name: (identifier) @name)
			(class_declaration name: (_) @name)
			(variable_declarator name: (identifier) @name)
		`,
	}

	langTypeScript = &Language{
		Name:    "typescript",
		Grammar: typescript.GetLanguage(),
		Kinds:   jsKinds,
		Names: `
			(function_declaration name: (identifier) @name)
			(class_declaration name: (_) @name)
			(interface_declaration name: (type_identifier) @name)
			(type_alias_declaration name: (type_identifier) @name)
			(variable_declarator name: (identifier) @name)
		`,
	}

	langRust = &Language{
		Name:    "rust",
		Grammar: rust.GetLanguage(),
		Kinds: map[string]string{
			"function_item":   "fn",
			"struct_item":     "struct",
			"enum_item":       "enum",
			"trait_item":      "trait",
			"impl_item":       "impl",
			"mod_item":        "mod",
			"use_declaration": "use",
		},
		Names: `
			(function_item name: (identifier) @name)
			(struct_item name: (type_identifier) @name)
			(enum_item name: (type_identifier) @name)
			(trait_item name: (type_identifier) @name)
			(impl_item type: (_) @name)
			(mod_item name: (identifier) @name)
		`,
	}
)

var jsKinds = map[string]string{
	"function_declaration":   "function",
	"class_declaration":      "class",
	"lexical_declaration":    "const",
	"variable_declaration":   "var",
	"import_statement":       "import",
	"export_statement":       "export",
	"interface_declaration":  "interface",
	"type_alias_declaration": "type",
}

// DetectLanguageFromExt returns the language for a file extension.
// Returns ok=false for unsupported extensions.
func DetectLanguageFromExt(ext string) (*Language, bool) {
	switch ext {
	case ".go":
		return langGo, true
	case ".py":
		return langPython, true
	case ".tf", ".hcl":
		return langHCL, true
	case ".js":
		return langJavaScript, true
	case ".ts":
		return langTypeScript, true
	case ".rs":
		return langRust, true
	default:
		return nil, false
	}
}

// kind maps a top-level node type to a declaration kind.
func (l *Language) kind(nodeType string) string {
	if k, ok := l.Kinds[nodeType]; ok {
		return k
	}
	return nodeType
}
