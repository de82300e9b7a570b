// Package parser adapts tree-sitter grammars into the Parser Adapter
// contract: parse(path, bytes) -> FileEntry | ParseError. It supports a
// closed table of eleven languages plus a configurable extra-extensions
// list, matching CKB's extension-to-grammar dispatch in
// internal/complexity/treesitter.go generalized from six languages to
// eleven and from complexity metrics to symbol/edge extraction.
package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies one of the eleven supported grammars.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangRuby       Language = "ruby"
	LangKotlin     Language = "kotlin"
	LangSwift      Language = "swift"
	LangTSX        Language = "tsx" // .tsx files: own grammar and node table, counted under typescript among the eleven
)

// defaultExtensions is the closed extension table. extra_extensions from
// configuration are unioned with this at Registry construction time.
var defaultExtensions = map[string]Language{
	".py":   LangPython,
	".pyi":  LangPython,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTSX,
	".go":   LangGo,
	".rs":   LangRust,
	".java": LangJava,
	".c":    LangC,
	".h":    LangC,
	".cpp":  LangCPP,
	".cc":   LangCPP,
	".cxx":  LangCPP,
	".hpp":  LangCPP,
	".rb":   LangRuby,
	".kt":   LangKotlin,
	".kts":  LangKotlin,
	".swift": LangSwift,
}

func grammarFor(lang Language) *sitter.Language {
	switch lang {
	case LangPython:
		return python.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangGo:
		return golang.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangJava:
		return java.GetLanguage()
	case LangC:
		return c.GetLanguage()
	case LangCPP:
		return cpp.GetLanguage()
	case LangRuby:
		return ruby.GetLanguage()
	case LangKotlin:
		return kotlin.GetLanguage()
	case LangSwift:
		return swift.GetLanguage()
	default:
		return nil
	}
}

// Registry resolves file extensions to languages, honoring the
// extra_extensions configuration key on top of the closed table.
type Registry struct {
	extensions map[string]Language
}

// NewRegistry builds a registry from the closed table plus extra mappings
// of extension -> language name (e.g. ".mts" -> "typescript").
func NewRegistry(extra map[string]string) *Registry {
	r := &Registry{extensions: make(map[string]Language, len(defaultExtensions)+len(extra))}
	for ext, lang := range defaultExtensions {
		r.extensions[ext] = lang
	}
	for ext, lang := range extra {
		r.extensions[ext] = Language(lang)
	}
	return r
}

// ForExtension returns the language for ext (including the leading dot) and
// whether it is recognized.
func (r *Registry) ForExtension(ext string) (Language, bool) {
	l, ok := r.extensions[ext]
	return l, ok
}
