package ir

import (
	"shadeir/internal/shader"
	"shadeir/internal/types"
)

// Var declares a variable. Its result is a pointer; operand 0, if present,
// is the initializer.
type Var struct {
	instBase
	BindingPoint *shader.BindingPoint
}

// Initializer returns the initial value, or nil.
func (v *Var) Initializer() Value { return v.Operand(0) }

// SetInitializer sets or replaces the initial value.
func (v *Var) SetInitializer(init Value) {
	if len(v.operands) == 0 {
		v.addOperands(init)
		return
	}
	v.SetOperand(0, init)
}

// Load reads the value behind pointer operand 0.
type Load struct{ instBase }

func (l *Load) From() Value { return l.Operand(0) }

// Store writes operand 1 through pointer operand 0.
type Store struct{ instBase }

func (s *Store) To() Value   { return s.Operand(0) }
func (s *Store) From() Value { return s.Operand(1) }

// BinaryKind is the operator of a Binary instruction.
type BinaryKind uint8

const (
	BinaryAdd BinaryKind = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryEqual
	BinaryNotEqual
	BinaryLessThan
	BinaryGreaterThan
	BinaryLessThanEqual
	BinaryGreaterThanEqual
	BinaryShiftLeft
	BinaryShiftRight
)

var binaryKindNames = [...]string{
	BinaryAdd:              "add",
	BinarySub:              "sub",
	BinaryMul:              "mul",
	BinaryDiv:              "div",
	BinaryMod:              "mod",
	BinaryAnd:              "and",
	BinaryOr:               "or",
	BinaryXor:              "xor",
	BinaryEqual:            "eq",
	BinaryNotEqual:         "neq",
	BinaryLessThan:         "lt",
	BinaryGreaterThan:      "gt",
	BinaryLessThanEqual:    "lte",
	BinaryGreaterThanEqual: "gte",
	BinaryShiftLeft:        "shiftl",
	BinaryShiftRight:       "shiftr",
}

func (k BinaryKind) String() string {
	if int(k) < len(binaryKindNames) {
		return binaryKindNames[k]
	}
	return "unknown-binary"
}

// Binary computes Kind(operand 0, operand 1).
type Binary struct {
	instBase
	Kind BinaryKind
}

func (b *Binary) LHS() Value { return b.Operand(0) }
func (b *Binary) RHS() Value { return b.Operand(1) }

// UnaryKind is the operator of a Unary instruction.
type UnaryKind uint8

const (
	UnaryComplement UnaryKind = iota
	UnaryNegation
	UnaryNot
)

func (k UnaryKind) String() string {
	switch k {
	case UnaryComplement:
		return "complement"
	case UnaryNegation:
		return "negation"
	case UnaryNot:
		return "not"
	}
	return "unknown-unary"
}

type Unary struct {
	instBase
	Kind UnaryKind
}

func (u *Unary) Val() Value { return u.Operand(0) }

// Bitcast reinterprets operand 0 as the result type.
type Bitcast struct{ instBase }

func (b *Bitcast) Val() Value { return b.Operand(0) }

// Convert converts operand 0 from FromType to the result type.
type Convert struct {
	instBase
	FromType types.TypeID
}

func (c *Convert) Val() Value { return c.Operand(0) }

// Construct builds a composite from its operands.
type Construct struct{ instBase }

func (c *Construct) Args() []Value { return c.operands }

// BuiltinCall calls a builtin function.
type BuiltinCall struct {
	instBase
	Func shader.BuiltinFn
}

func (c *BuiltinCall) Args() []Value { return c.operands }

// UserCall calls a function of the module.
type UserCall struct {
	instBase
	Target *Function
}

func (c *UserCall) Args() []Value { return c.operands }

// Access indexes into operand 0 with the remaining operands. Accessing through
// a pointer yields a pointer.
type Access struct{ instBase }

func (a *Access) Object() Value    { return a.Operand(0) }
func (a *Access) Indices() []Value { return a.operandsFrom(1) }

var (
	_ Instruction = (*Var)(nil)
	_ Instruction = (*Load)(nil)
	_ Instruction = (*Store)(nil)
	_ Instruction = (*Binary)(nil)
	_ Instruction = (*Unary)(nil)
	_ Instruction = (*Bitcast)(nil)
	_ Instruction = (*Convert)(nil)
	_ Instruction = (*Construct)(nil)
	_ Instruction = (*BuiltinCall)(nil)
	_ Instruction = (*UserCall)(nil)
	_ Instruction = (*Access)(nil)
)
