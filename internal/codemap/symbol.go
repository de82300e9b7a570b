package codemap

// SymbolKind is the syntactic kind of a Symbol.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindStruct    SymbolKind = "struct"
	KindEnum      SymbolKind = "enum"
	KindType      SymbolKind = "type"
	KindConstant  SymbolKind = "constant"
)

// LineRange is an inclusive range of 1-indexed line numbers.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines spanned, inclusive.
func (r LineRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether line falls within the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// Symbol is a named, located construct extracted from a source file.
// QualifiedName is unique within its file and is the key used in the
// dependency graph.
type Symbol struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	LineRange     LineRange  `json:"line_range"`
	QualifiedName string     `json:"qualified_name"`
}
