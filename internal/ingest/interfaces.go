package ingest

// Walker abstracts over JSONPath (documents) and Tree-sitter (code).
// It provides a unified way to query a tree-like structure and extract
// the values that name the nodes built from it.
type Walker interface {
	// Query executes a selector against root and returns the matches in
	// document order. root is a SitterRoot for code or a decoded JSON value
	// for documents.
	Query(root any, selector string) ([]Match, error)
}

// Match represents a single result from a query.
type Match interface {
	// Values returns the captured values.
	// For Tree-sitter these are the named captures of the query, with
	// repeated captures joined by a space.
	// For JSONPath an object match returns its fields and any other match is
	// returned under "value".
	Values() map[string]any

	// Context returns the matched object or node, usable as the root of a
	// nested query.
	Context() any
}
