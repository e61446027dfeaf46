package ir

import (
	"slices"

	"shadeir/internal/constant"
	"shadeir/internal/shader"
	"shadeir/internal/types"
)

// Usage records that operand Operand of Inst refers to a value.
type Usage struct {
	Inst    Instruction
	Operand int
}

// Value is anything an instruction operand can refer to: *Constant,
// *InstructionResult, *BlockParam or *FunctionParam.
type Value interface {
	Nameable
	Type() types.TypeID
	// Usages lists the operands referring to this value.
	Usages() []Usage
	IsUsed() bool
	addUsage(u Usage)
	removeUsage(u Usage)
}

type valueBase struct {
	typ  types.TypeID
	uses []Usage
}

func (v *valueBase) Type() types.TypeID { return v.typ }
func (v *valueBase) Usages() []Usage    { return v.uses }
func (v *valueBase) IsUsed() bool       { return len(v.uses) > 0 }
func (v *valueBase) nameable()          {}

func (v *valueBase) addUsage(u Usage) {
	v.uses = append(v.uses, u)
}

func (v *valueBase) removeUsage(u Usage) {
	if i := slices.Index(v.uses, u); i >= 0 {
		v.uses = slices.Delete(v.uses, i, i+1)
	}
}

// Constant wraps a folded constant value.
type Constant struct {
	valueBase
	Value constant.Value
}

// InstructionResult is a value produced by an instruction.
type InstructionResult struct {
	valueBase
	source Instruction
}

// Source returns the producing instruction.
func (r *InstructionResult) Source() Instruction { return r.source }

// BlockParam is bound on entry to a multi-in block, one argument per inbound branch.
type BlockParam struct {
	valueBase
	block *Block
}

// Block returns the block declaring the parameter.
func (p *BlockParam) Block() *Block { return p.block }

// IOAttributes are the pipeline I/O decorations of a parameter or return value.
type IOAttributes struct {
	Builtin       shader.BuiltinValue
	Location      *uint32
	Interpolation *shader.Interpolation
	Invariant     bool
	BindingPoint  *shader.BindingPoint
}

// IsEmpty reports whether no attribute is set.
func (a IOAttributes) IsEmpty() bool {
	return a.Builtin == shader.BuiltinNone && a.Location == nil && !a.Invariant && a.BindingPoint == nil
}

// FunctionParam is a function parameter.
type FunctionParam struct {
	valueBase
	fn    *Function
	Attrs IOAttributes
}

// Function returns the owning function.
func (p *FunctionParam) Function() *Function { return p.fn }

var (
	_ Value = (*Constant)(nil)
	_ Value = (*InstructionResult)(nil)
	_ Value = (*BlockParam)(nil)
	_ Value = (*FunctionParam)(nil)
)
