package parser

// nodeTypeSet is a small set of tree-sitter node type names, classified per
// language. Grounded on CKB's getFunctionNodeTypes/getClassNodeTypes
// switches (internal/symbols/treesitter.go) and on odvcencio-got's
// pkg/entity/extract.go generic node-type classification maps, extended from
// six languages to the eleven this adapter supports.
type nodeTypeSet map[string]struct{}

func setOf(types ...string) nodeTypeSet {
	s := make(nodeTypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

func (s nodeTypeSet) has(t string) bool { _, ok := s[t]; return ok }

type langTable struct {
	function  nodeTypeSet
	method    nodeTypeSet
	class     nodeTypeSet
	enumType  nodeTypeSet
	constant  nodeTypeSet
	imports   nodeTypeSet
	callExpr  nodeTypeSet
	nameField string // field name holding the identifier, when consistent
}

var tables = map[Language]langTable{
	LangGo: {
		function:  setOf("function_declaration"),
		method:    setOf("method_declaration"),
		class:     setOf("type_declaration"),
		constant:  setOf("const_declaration"),
		imports:   setOf("import_declaration"),
		callExpr:  setOf("call_expression"),
		nameField: "name",
	},
	LangPython: {
		function:  setOf("function_definition"),
		class:     setOf("class_definition"),
		imports:   setOf("import_statement", "import_from_statement"),
		callExpr:  setOf("call"),
		nameField: "name",
	},
	LangJavaScript: {
		function:  setOf("function_declaration", "generator_function_declaration", "arrow_function"),
		method:    setOf("method_definition"),
		class:     setOf("class_declaration"),
		imports:   setOf("import_statement"),
		callExpr:  setOf("call_expression"),
		nameField: "name",
	},
	LangTypeScript: {
		function:  setOf("function_declaration", "arrow_function"),
		method:    setOf("method_definition", "method_signature"),
		class:     setOf("class_declaration", "interface_declaration", "type_alias_declaration"),
		enumType:  setOf("enum_declaration"),
		imports:   setOf("import_statement"),
		callExpr:  setOf("call_expression"),
		nameField: "name",
	},
	LangTSX: {
		function:  setOf("function_declaration", "arrow_function"),
		method:    setOf("method_definition"),
		class:     setOf("class_declaration", "interface_declaration"),
		imports:   setOf("import_statement"),
		callExpr:  setOf("call_expression"),
		nameField: "name",
	},
	LangRust: {
		function:  setOf("function_item"),
		class:     setOf("struct_item", "enum_item", "trait_item", "impl_item"),
		constant:  setOf("const_item"),
		imports:   setOf("use_declaration"),
		callExpr:  setOf("call_expression"),
		nameField: "name",
	},
	LangJava: {
		method:    setOf("method_declaration", "constructor_declaration"),
		class:     setOf("class_declaration", "interface_declaration", "enum_declaration"),
		imports:   setOf("import_declaration"),
		callExpr:  setOf("method_invocation"),
		nameField: "name",
	},
	LangC: {
		function:  setOf("function_definition"),
		class:     setOf("struct_specifier", "enum_specifier"),
		imports:   setOf("preproc_include"),
		callExpr:  setOf("call_expression"),
		nameField: "declarator",
	},
	LangCPP: {
		function:  setOf("function_definition"),
		class:     setOf("struct_specifier", "class_specifier", "enum_specifier"),
		imports:   setOf("preproc_include"),
		callExpr:  setOf("call_expression"),
		nameField: "declarator",
	},
	LangRuby: {
		method:    setOf("method"),
		class:     setOf("class", "module"),
		imports:   setOf("call"), // require/require_relative surface as call nodes
		callExpr:  setOf("call"),
		nameField: "name",
	},
	LangKotlin: {
		function:  setOf("function_declaration"),
		class:     setOf("class_declaration", "object_declaration"),
		imports:   setOf("import_header"),
		callExpr:  setOf("call_expression"),
		nameField: "name", // approximated via simple_identifier child when absent
	},
	LangSwift: {
		function:  setOf("function_declaration"),
		class:     setOf("class_declaration", "protocol_declaration", "struct_declaration", "enum_declaration"),
		imports:   setOf("import_declaration"),
		callExpr:  setOf("call_expression"),
		nameField: "name",
	},
}
