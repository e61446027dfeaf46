package ast

import (
	"shadeir/internal/constant"
	"shadeir/internal/shader"
	"shadeir/internal/source"
	"shadeir/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	Span() source.Span
}

type nodeBase struct {
	span source.Span
}

func (n *nodeBase) Span() source.Span { return n.span }

// Decl is a top-level declaration.
type Decl interface {
	Node
	isDecl()
}

// Stmt is a statement inside a function body.
type Stmt interface {
	Node
	isStmt()
}

// Expr is a resolved expression.
type Expr interface {
	Node
	// Type is the resolved type. Memory-backed expressions have a reference type.
	Type() types.TypeID
	// ConstValue is the folded value, or nil if the expression is not constant.
	ConstValue() constant.Value
	isExpr()
}

type exprBase struct {
	nodeBase
	typ types.TypeID
	val constant.Value
}

func (e *exprBase) Type() types.TypeID         { return e.typ }
func (e *exprBase) ConstValue() constant.Value { return e.val }
func (e *exprBase) isExpr()                    {}

// IOAttributes are the pipeline I/O decorations of a parameter or return value.
type IOAttributes struct {
	Builtin       shader.BuiltinValue
	Location      *uint32
	Interpolation *shader.Interpolation
	Invariant     bool
}

// IsEmpty reports whether no attribute is set.
func (a IOAttributes) IsEmpty() bool {
	return a.Builtin == shader.BuiltinNone && a.Location == nil && a.Interpolation == nil && !a.Invariant
}

// Declared is anything an identifier can resolve to.
type Declared interface {
	Node
	DeclName() string
}
