package ir

import (
	"fmt"

	"shadeir/internal/types"
)

// Instruction is the closed set of IR instructions. Every implementation
// embeds instBase; consumers switch over the concrete pointer types.
type Instruction interface {
	ID() InstID
	Module() *Module
	// Block returns the owning block, or nil while detached.
	Block() *Block
	Prev() Instruction
	Next() Instruction
	Operands() []Value
	Operand(i int) Value
	// SetOperand replaces operand i, moving its use record from the old value
	// to v.
	SetOperand(i int, v Value)
	Results() []*InstructionResult
	// Result returns the first result, or nil.
	Result() *InstructionResult
	Alive() bool
	// Destroy detaches the instruction, drops its uses and exit
	// registrations, and invalidates its handle. Its results must be unused.
	Destroy()
	base() *instBase
}

type instBase struct {
	mod      *Module
	id       InstID
	self     Instruction
	operands []Value
	results  []*InstructionResult
	dead     bool
}

func (b *instBase) base() *instBase   { return b }
func (b *instBase) ID() InstID        { return b.id }
func (b *instBase) Module() *Module   { return b.mod }
func (b *instBase) Alive() bool       { return !b.dead }
func (b *instBase) Operands() []Value { return b.operands }

func (b *instBase) Results() []*InstructionResult { return b.results }

func (b *instBase) Result() *InstructionResult {
	if len(b.results) == 0 {
		return nil
	}
	return b.results[0]
}

func (b *instBase) Block() *Block {
	if s := b.mod.arena.slot(b.id); s != nil {
		return s.block
	}
	return nil
}

func (b *instBase) Prev() Instruction {
	if s := b.mod.arena.slot(b.id); s != nil {
		return b.mod.arena.inst(s.prev)
	}
	return nil
}

func (b *instBase) Next() Instruction {
	if s := b.mod.arena.slot(b.id); s != nil {
		return b.mod.arena.inst(s.next)
	}
	return nil
}

func (b *instBase) Operand(i int) Value {
	if i < 0 || i >= len(b.operands) {
		return nil
	}
	return b.operands[i]
}

func (b *instBase) SetOperand(i int, v Value) {
	if b.dead {
		fail("set operand", "%s is destroyed", b.id)
	}
	if i < 0 || i >= len(b.operands) {
		fail("set operand", "index %d out of range [0, %d)", i, len(b.operands))
	}
	if old := b.operands[i]; old != nil {
		old.removeUsage(Usage{Inst: b.self, Operand: i})
	}
	b.operands[i] = v
	if v != nil {
		v.addUsage(Usage{Inst: b.self, Operand: i})
	}
}

func (b *instBase) addOperands(vs ...Value) {
	for _, v := range vs {
		if v == nil {
			fail("add operand", "nil operand for %s", b.id)
		}
		b.operands = append(b.operands, v)
		v.addUsage(Usage{Inst: b.self, Operand: len(b.operands) - 1})
	}
}

func (b *instBase) clearOperands() {
	for i, v := range b.operands {
		if v != nil {
			v.removeUsage(Usage{Inst: b.self, Operand: i})
		}
	}
	b.operands = nil
}

func (b *instBase) addResult(typ types.TypeID) *InstructionResult {
	r := &InstructionResult{valueBase: valueBase{typ: typ}, source: b.self}
	b.results = append(b.results, r)
	return r
}

func (b *instBase) Destroy() {
	b.mod.destroy(b.self)
}

// operandsFrom returns the operands from index off, or nil.
func (b *instBase) operandsFrom(off int) []Value {
	if off >= len(b.operands) {
		return nil
	}
	return b.operands[off:]
}

func (b *instBase) String() string {
	return fmt.Sprintf("%T(%s)", b.self, b.id)
}
