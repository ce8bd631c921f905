// Package codegen lowers a validated page-object document into a Rust
// syntax tree and pretty-prints it against the utam_core runtime surface.
// Given identical inputs the output is byte-identical: iteration follows
// document order and capability unions follow a fixed canonical order.
package codegen

import "strings"

// File is one generated Rust source file.
type File struct {
	// Header lines become //! inner doc comments.
	Header []string
	Uses   []string
	Items  []Item
}

// Item is a top-level Rust item.
type Item interface{ isItem() }

// Struct is a struct definition.
type Struct struct {
	Doc    []string
	Name   string
	Pub    bool
	Fields []Field
}

func (Struct) isItem() {}

// Field is one struct field.
type Field struct {
	Name string
	Type string
	Pub  bool
}

// Impl is an impl block, inherent or trait.
type Impl struct {
	// Trait is empty for inherent impls.
	Trait string
	Type  string
	// AsyncTrait emits the #[async_trait::async_trait] attribute.
	AsyncTrait bool
	Consts     []AssocConst
	Fns        []Fn
}

func (Impl) isItem() {}

// Trait is a trait definition carrying signatures only.
type Trait struct {
	Doc        []string
	Name       string
	Pub        bool
	AsyncTrait bool
	Fns        []Fn
}

func (Trait) isItem() {}

// AssocConst is an associated constant inside an impl.
type AssocConst struct {
	Name  string
	Type  string
	Value string
}

// Fn is a function or method. A nil Body renders a signature.
type Fn struct {
	Doc    []string
	Name   string
	Pub    bool
	Async  bool
	Recv   string // "&self", "&mut self" or "" for associated fns.
	Params []Param
	Ret    string
	Body   []Stmt
}

// Param is one function parameter.
type Param struct {
	Name string
	Type string
}

// Stmt is one statement of a function body.
type Stmt interface{ isStmt() }

// Let binds an expression to a name.
type Let struct {
	Name string
	Mut  bool
	Expr string
}

func (Let) isStmt() {}

// Semi is an expression statement terminated with a semicolon.
type Semi struct{ Expr string }

func (Semi) isStmt() {}

// Tail is the block's final expression, no semicolon.
type Tail struct{ Expr string }

func (Tail) isStmt() {}

// For is a for-in loop.
type For struct {
	Pat  string
	Iter string
	Body []Stmt
}

func (For) isStmt() {}

// If is a conditional with an optional else branch.
type If struct {
	Cond string
	Then []Stmt
	Else []Stmt
}

func (If) isStmt() {}

// Raw emits pre-rendered lines verbatim at the current indent. Used for
// the closure-style wait_for call shape that does not decompose into the
// simple statement forms.
type Raw struct{ Lines []string }

func (Raw) isStmt() {}

// escapeRustString escapes a string for use inside a Rust string literal.
func escapeRustString(s string) string {
	var sb strings.Builder

	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// strLit renders a Rust string literal.
func strLit(s string) string {
	return `"` + escapeRustString(s) + `"`
}
