package tiny

// Node is the common interface every AST node satisfies: a source
// position, the line it starts on (used to emit FILE/LINE debug
// opcodes), and a type slot filled in by the resolver.
//
// Grounded on the teacher's grammar_ast.go (a tagged-node-with-
// position-and-Accept pattern), reshaped here into a flat field-based
// struct set instead of an interface hierarchy with visitor dispatch,
// since spec.md enumerates a small closed set of node kinds and a
// type-switch in resolve.go/codegen.go is simpler than a visitor
// interface per kind.
type Node interface {
	Pos() Pos
	Line() int
	NodeType() *Type
	SetNodeType(*Type)
}

type base struct {
	pos  Pos
	line int
	typ  *Type
}

func (b *base) Pos() Pos          { return b.pos }
func (b *base) Line() int         { return b.line }
func (b *base) NodeType() *Type   { return b.typ }
func (b *base) SetNodeType(t *Type) { b.typ = t }

func mkbase(pos Pos, line int) base { return base{pos: pos, line: line} }

// ---- literals ----

type NullLit struct{ base }

type BoolLit struct {
	base
	Value bool
}

type IntLit struct {
	base
	Value int64
}

type FloatLit struct {
	base
	Value float64
}

type CharLit struct {
	base
	Value rune
}

type StringLit struct {
	base
	Value string
}

// ---- identifiers, calls, access ----

type IdentExpr struct {
	base
	Name string
	Sym  *Symbol
}

type CallExpr struct {
	base
	Callee string
	Sym    *Symbol
	Args   []Node
}

type UnaryExpr struct {
	base
	Op      TokenKind
	Operand Node
}

type BinaryExpr struct {
	base
	Op          TokenKind
	Left, Right Node
}

type ParenExpr struct {
	base
	Inner Node
}

type DotExpr struct {
	base
	Receiver Node
	Field    string
	// FieldIndex is resolved during type-checking to the struct's
	// field position, used directly by codegen for STRUCT_GET/SET.
	FieldIndex int
}

type NewExpr struct {
	base
	StructName string
	StructSym  *Symbol
	Args       []Node
}

type CastExpr struct {
	base
	Value  Node
	Target *Type
}

// ---- statements ----

type BlockStmt struct {
	base
	Stmts []Node
}

// DeclareStmt covers both `x := expr` (Annotated == nil) and
// `x : T = expr` (Annotated != nil).
type DeclareStmt struct {
	base
	Name      string
	Annotated *Type
	Value     Node
	Sym       *Symbol
}

// ConstDeclStmt covers `name :: literal`.
type ConstDeclStmt struct {
	base
	Name    string
	Literal Node // one of *BoolLit, *IntLit, *FloatLit, *StringLit
	Sym     *Symbol
}

// AssignStmt covers `target = value` and compound forms
// (`target += value`, ...). Target is either *IdentExpr or *DotExpr.
type AssignStmt struct {
	base
	Target Node
	Op     TokenKind // TkAssign or one of the TkXAssign compound ops
	Value  Node
}

type IfStmt struct {
	base
	Cond Node
	Then Node // single statement or *BlockStmt
	Else Node // single statement, *BlockStmt, *IfStmt, or nil
}

type WhileStmt struct {
	base
	Cond Node
	Body Node // single statement or *BlockStmt
}

type ForStmt struct {
	base
	Init Node // may be nil
	Cond Node // may be nil
	Step Node // may be nil
	Body Node // single statement or *BlockStmt
}

type ReturnStmt struct {
	base
	Value Node // nil for bare `return`
}

type BreakStmt struct {
	base
	// patchAt is not set or read anywhere; codegen keeps break and
	// continue jump placeholders on its own per-loop patch stacks.
	patchAt int
}

type ContinueStmt struct {
	base
	patchAt int
}

type FuncDef struct {
	base
	Name       string
	Params     []Param
	ReturnType *Type
	Body       *BlockStmt
	Sym        *Symbol
}

type Param struct {
	Name string
	Type *Type
	Pos  Pos
}

type FieldDecl struct {
	Name string
	Type *Type
	Pos  Pos
}

type StructDef struct {
	base
	Name   string
	Fields []FieldDecl
	Sym    *Symbol
}

// Program is the result of parsing: top-level function definitions,
// struct definitions, and executable top-level statements, in source
// order (spec.md §4.4).
type Program struct {
	Funcs   []*FuncDef
	Structs []*StructDef
	Stmts   []Node
}
