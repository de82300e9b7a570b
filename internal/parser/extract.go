package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

// ParseError is returned for a single file's parse failure. It is
// non-fatal at the map level: the indexing service records an empty entry
// and logs this error rather than aborting the build.
type ParseError struct {
	Path  ids.FilePath
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Adapter parses source bytes into FileEntry records for the languages in
// its Registry.
type Adapter struct {
	registry *Registry
}

// NewAdapter builds an Adapter over reg.
func NewAdapter(reg *Registry) *Adapter {
	return &Adapter{registry: reg}
}

// Parse implements the Parser Adapter contract: parse(path, bytes) ->
// FileEntry | ParseError. An unrecognized extension yields an entry with no
// symbols or edges rather than an error, since it simply isn't source this
// adapter understands.
func (a *Adapter) Parse(ctx context.Context, p ids.FilePath, content []byte) (codemap.FileEntry, error) {
	hash := contentHash(content)
	ext := path.Ext(string(p))
	lang, ok := a.registry.ForExtension(ext)
	if !ok {
		return codemap.FileEntry{Path: p, ContentHash: hash}, nil
	}

	grammar := grammarFor(lang)
	if grammar == nil {
		return codemap.FileEntry{Path: p, ContentHash: hash}, nil
	}

	tbl, ok := tables[lang]
	if !ok {
		return codemap.FileEntry{Path: p, ContentHash: hash}, nil
	}

	sp := sitter.NewParser()
	sp.SetLanguage(grammar)
	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return codemap.FileEntry{}, &ParseError{Path: p, Cause: err}
	}
	if tree == nil {
		return codemap.FileEntry{}, &ParseError{Path: p, Cause: fmt.Errorf("tree-sitter returned no tree")}
	}
	root := tree.RootNode()

	w := &walker{
		source: content,
		path:   p,
		lang:   lang,
		table:  tbl,
	}
	w.walk(root, "")

	entry := codemap.FileEntry{
		Path:           p,
		Language:       string(lang),
		ContentHash:    hash,
		LastIndexedSHA: "",
		Symbols:        w.symbols,
		Imports:        w.imports,
		Exports:        w.exports,
	}
	return entry, nil
}

// contentHash returns the hex-encoded SHA-256 of content, matching the
// CodebaseMap invariant that FileEntry.ContentHash reflects exactly what
// was parsed.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// LocalEdges returns the edges discovered while parsing, with sources
// qualified by file path and, where resolvable, enclosing symbol.
// Targets are left as bare identifiers/import strings for the indexing
// service to resolve by symbol name and then by import statement.
func (a *Adapter) LocalEdges(p ids.FilePath, content []byte) ([]codemap.Edge, error) {
	ext := path.Ext(string(p))
	lang, ok := a.registry.ForExtension(ext)
	if !ok {
		return nil, nil
	}
	grammar := grammarFor(lang)
	tbl, ok := tables[lang]
	if grammar == nil || !ok {
		return nil, nil
	}

	sp := sitter.NewParser()
	sp.SetLanguage(grammar)
	tree, err := sp.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil, err
	}

	w := &walker{source: content, path: p, lang: lang, table: tbl}
	w.walk(tree.RootNode(), "")
	return w.edges, nil
}

type walker struct {
	source  []byte
	path    ids.FilePath
	lang    Language
	table   langTable
	symbols []codemap.Symbol
	imports []ids.FilePath
	exports []string
	edges   []codemap.Edge
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.source[n.StartByte():n.EndByte()])
}

func (w *walker) qualify(name string) string {
	if name == "" {
		return string(w.path)
	}
	return string(w.path) + "#" + name
}

// walk performs a single recursive descent, classifying nodes by the
// language's node-type tables and recording symbols, imports and call
// edges. enclosing is the qualified name of the nearest enclosing
// function/method/class, used to scope methods and call sources.
func (w *walker) walk(n *sitter.Node, enclosing string) {
	if n == nil {
		return
	}
	t := n.Type()

	switch {
	case w.table.class.has(t):
		name := w.nodeName(n)
		qn := w.qualify(name)
		kind := codemap.KindClass
		if w.lang == LangGo {
			kind = codemap.KindType
		}
		w.symbols = append(w.symbols, codemap.Symbol{
			Name:          name,
			Kind:          kind,
			LineRange:     w.lineRange(n),
			QualifiedName: qn,
		})
		w.exports = append(w.exports, name)
		for i := 0; i < int(n.ChildCount()); i++ {
			w.walk(n.Child(i), qn)
		}
		return

	case w.table.function.has(t):
		name := w.nodeName(n)
		qn := w.qualifyMaybeMethod(name, enclosing)
		w.symbols = append(w.symbols, codemap.Symbol{
			Name:          name,
			Kind:          codemap.KindFunction,
			LineRange:     w.lineRange(n),
			QualifiedName: qn,
		})
		if isExportedName(name) {
			w.exports = append(w.exports, name)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			w.walk(n.Child(i), qn)
		}
		return

	case w.table.method.has(t):
		name := w.nodeName(n)
		qn := w.qualifyMaybeMethod(name, enclosing)
		w.symbols = append(w.symbols, codemap.Symbol{
			Name:          name,
			Kind:          codemap.KindMethod,
			LineRange:     w.lineRange(n),
			QualifiedName: qn,
		})
		for i := 0; i < int(n.ChildCount()); i++ {
			w.walk(n.Child(i), qn)
		}
		return

	case w.table.constant.has(t):
		name := w.nodeName(n)
		if name != "" {
			w.symbols = append(w.symbols, codemap.Symbol{
				Name:          name,
				Kind:          codemap.KindConstant,
				LineRange:     w.lineRange(n),
				QualifiedName: w.qualify(name),
			})
		}

	case w.table.imports.has(t):
		imp := w.importTarget(n)
		if imp != "" {
			w.imports = append(w.imports, ids.FilePath(imp))
			w.edges = append(w.edges, codemap.Edge{
				Source: string(w.path),
				Target: imp,
				Kind:   codemap.EdgeImports,
			})
		}

	case w.table.callExpr.has(t):
		callee := w.calleeName(n)
		if callee != "" {
			source := enclosing
			if source == "" {
				source = string(w.path)
			}
			w.edges = append(w.edges, codemap.Edge{
				Source: source,
				Target: callee,
				Kind:   codemap.EdgeCalls,
			})
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i), enclosing)
	}
}

// qualifyMaybeMethod scopes a function/method's qualified name under its
// enclosing class when present, otherwise under the file.
func (w *walker) qualifyMaybeMethod(name, enclosing string) string {
	if enclosing != "" && enclosing != string(w.path) {
		return enclosing + "." + name
	}
	return w.qualify(name)
}

func (w *walker) lineRange(n *sitter.Node) codemap.LineRange {
	return codemap.LineRange{
		Start: int(n.StartPoint().Row) + 1,
		End:   int(n.EndPoint().Row) + 1,
	}
}

func (w *walker) nodeName(n *sitter.Node) string {
	if w.table.nameField != "" {
		if f := n.ChildByFieldName(w.table.nameField); f != nil {
			return identifierLeaf(w, f)
		}
	}
	// Fall back to scanning for the first identifier-like child, matching
	// CKB's Kotlin/Go handling of languages without a named field.
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "identifier", "simple_identifier", "type_identifier", "field_identifier", "constant":
			return w.text(c)
		}
	}
	return ""
}

// identifierLeaf resolves a (possibly compound, e.g. C declarator) name
// field down to its leaf identifier text.
func identifierLeaf(w *walker, n *sitter.Node) string {
	switch n.Type() {
	case "identifier", "simple_identifier", "type_identifier", "field_identifier", "constant":
		return w.text(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if name := identifierLeaf(w, c); name != "" {
			return name
		}
	}
	return w.text(n)
}

func (w *walker) calleeName(n *sitter.Node) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		fn = n.ChildByFieldName("method")
	}
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier", "simple_identifier":
		return w.text(fn)
	case "field_expression", "selector_expression", "member_expression", "attribute", "scoped_identifier":
		// Take the rightmost identifier: obj.method() -> method.
		if field := fn.ChildByFieldName("field"); field != nil {
			return w.text(field)
		}
		if field := fn.ChildByFieldName("name"); field != nil {
			return w.text(field)
		}
		if field := fn.ChildByFieldName("property"); field != nil {
			return w.text(field)
		}
	}
	return strings.TrimSpace(w.text(fn))
}

func (w *walker) importTarget(n *sitter.Node) string {
	// Import statements vary widely in shape; take the first string literal
	// child as the import target, which covers Python/JS/TS/Go/Rust/Swift.
	var found string
	var scan func(*sitter.Node)
	scan = func(node *sitter.Node) {
		if found != "" || node == nil {
			return
		}
		switch node.Type() {
		case "string", "string_literal", "interpreted_string_literal":
			found = strings.Trim(w.text(node), `"'`)
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			scan(node.Child(i))
		}
	}
	scan(n)
	return found
}

func isExportedName(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return r >= 'A' && r <= 'Z'
}
