package ast

import (
	"shadeir/internal/shader"
	"shadeir/internal/types"
)

// BinaryOp enumerates binary operators, including the short-circuit pair.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpLogicalAnd
	OpLogicalOr
	OpEqual
	OpNotEqual
	OpLessThan
	OpGreaterThan
	OpLessThanEqual
	OpGreaterThanEqual
	OpShiftLeft
	OpShiftRight
)

var binaryOpNames = [...]string{
	OpAdd:              "+",
	OpSub:              "-",
	OpMul:              "*",
	OpDiv:              "/",
	OpMod:              "%",
	OpAnd:              "&",
	OpOr:               "|",
	OpXor:              "^",
	OpLogicalAnd:       "&&",
	OpLogicalOr:        "||",
	OpEqual:            "==",
	OpNotEqual:         "!=",
	OpLessThan:         "<",
	OpGreaterThan:      ">",
	OpLessThanEqual:    "<=",
	OpGreaterThanEqual: ">=",
	OpShiftLeft:        "<<",
	OpShiftRight:       ">>",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// IsComparison reports whether op yields a bool.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterThanEqual
}

// IsShortCircuit reports whether op is && or ||.
func (op BinaryOp) IsShortCircuit() bool {
	return op == OpLogicalAnd || op == OpLogicalOr
}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	OpComplement UnaryOp = iota
	OpNegation
	OpNot
	OpAddressOf
	OpIndirection
)

func (op UnaryOp) String() string {
	switch op {
	case OpComplement:
		return "~"
	case OpNegation:
		return "-"
	case OpNot:
		return "!"
	case OpAddressOf:
		return "&"
	case OpIndirection:
		return "*"
	}
	return "?"
}

// Literal is a constant literal. Its value is ConstValue().
type Literal struct{ exprBase }

// Ident names a declaration visible in scope.
type Ident struct {
	exprBase
	Name   string
	Target Declared
}

// Load reads the value behind a reference-typed expression.
type Load struct {
	exprBase
	Ref Expr
}

type BinaryExpr struct {
	exprBase
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

type UnaryExpr struct {
	exprBase
	Op UnaryOp
	X  Expr
}

// BitcastExpr reinterprets X as Type().
type BitcastExpr struct {
	exprBase
	X Expr
}

// IndexExpr is Object[Index]. When Object is a reference the result is a
// reference to the element.
type IndexExpr struct {
	exprBase
	Object Expr
	Index  Expr
}

// MemberExpr selects a struct member or a single vector component.
type MemberExpr struct {
	exprBase
	Object Expr
	Member uint32
}

// CallTarget is what a CallExpr invokes.
type CallTarget interface {
	isCallTarget()
}

// BuiltinTarget calls a builtin function.
type BuiltinTarget struct{ Fn shader.BuiltinFn }

// ConstructorTarget builds a value of Type from its arguments.
type ConstructorTarget struct{ Type types.TypeID }

// ConversionTarget converts its single argument to Type.
type ConversionTarget struct{ Type types.TypeID }

// FunctionTarget calls a user-declared function.
type FunctionTarget struct{ Func *Function }

func (BuiltinTarget) isCallTarget()     {}
func (ConstructorTarget) isCallTarget() {}
func (ConversionTarget) isCallTarget()  {}
func (FunctionTarget) isCallTarget()    {}

type CallExpr struct {
	exprBase
	Target CallTarget
	Args   []Expr
}
