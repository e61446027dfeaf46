package ir

import (
	"shadeir/internal/constant"
	"shadeir/internal/shader"
	"shadeir/internal/types"
)

// Builder creates blocks, functions and detached instructions in a module.
// Instructions are placed with the Block insertion methods.
type Builder struct {
	Mod *Module
}

func NewBuilder(m *Module) *Builder {
	return &Builder{Mod: m}
}

// Block makes a single-entry block.
func (b *Builder) Block() *Block { return b.Mod.newBlock(false) }

// MultiInBlock makes a block that may carry parameters.
func (b *Builder) MultiInBlock() *Block { return b.Mod.newBlock(true) }

// Function creates a function with a fresh start block and registers it on
// the module. wgs may be nil.
func (b *Builder) Function(name string, ret types.TypeID, stage shader.PipelineStage, wgs *shader.WorkgroupSize) *Function {
	fn := &Function{
		start:         b.Block(),
		Stage:         stage,
		WorkgroupSize: wgs,
		ReturnType:    ret,
	}
	b.Mod.AddFunction(fn)
	b.Mod.SetName(fn, name)
	return fn
}

// FunctionParam makes a parameter; attach it with Function.SetParams.
func (b *Builder) FunctionParam(name string, typ types.TypeID) *FunctionParam {
	p := &FunctionParam{valueBase: valueBase{typ: typ}}
	if name != "" {
		b.Mod.SetName(p, name)
	}
	return p
}

// Constant wraps a folded value.
func (b *Builder) Constant(v constant.Value) *Constant { return b.Mod.Constant(v) }

func (b *Builder) Bool(v bool) *Constant   { return b.Constant(b.Mod.Consts.Bool(v)) }
func (b *Builder) I32(v int32) *Constant   { return b.Constant(b.Mod.Consts.I32(v)) }
func (b *Builder) U32(v uint32) *Constant  { return b.Constant(b.Mod.Consts.U32(v)) }
func (b *Builder) F32(v float32) *Constant { return b.Constant(b.Mod.Consts.F32(v)) }
func (b *Builder) F16(v float32) *Constant { return b.Constant(b.Mod.Consts.F16(v)) }

func newInst[T Instruction](m *Module, inst T, operands ...Value) T {
	m.register(inst)
	inst.base().addOperands(operands...)
	return inst
}

// Var declares a variable of pointer type ptr.
func (b *Builder) Var(ptr types.TypeID) *Var {
	v := newInst(b.Mod, &Var{})
	v.addResult(ptr)
	return v
}

// Load reads from a pointer. The result has the pointee type.
func (b *Builder) Load(from Value) *Load {
	l := newInst(b.Mod, &Load{}, from)
	l.addResult(b.Mod.Types.Elem(from.Type()))
	return l
}

func (b *Builder) Store(to, from Value) *Store {
	return newInst(b.Mod, &Store{}, to, from)
}

func (b *Builder) Binary(kind BinaryKind, typ types.TypeID, lhs, rhs Value) *Binary {
	i := newInst(b.Mod, &Binary{Kind: kind}, lhs, rhs)
	i.addResult(typ)
	return i
}

func (b *Builder) Unary(kind UnaryKind, typ types.TypeID, val Value) *Unary {
	i := newInst(b.Mod, &Unary{Kind: kind}, val)
	i.addResult(typ)
	return i
}

func (b *Builder) Bitcast(typ types.TypeID, val Value) *Bitcast {
	i := newInst(b.Mod, &Bitcast{}, val)
	i.addResult(typ)
	return i
}

func (b *Builder) Convert(to, from types.TypeID, val Value) *Convert {
	i := newInst(b.Mod, &Convert{FromType: from}, val)
	i.addResult(to)
	return i
}

func (b *Builder) Construct(typ types.TypeID, args ...Value) *Construct {
	i := newInst(b.Mod, &Construct{}, args...)
	i.addResult(typ)
	return i
}

// BuiltinCall calls fn. A void typ produces no result.
func (b *Builder) BuiltinCall(typ types.TypeID, fn shader.BuiltinFn, args ...Value) *BuiltinCall {
	i := newInst(b.Mod, &BuiltinCall{Func: fn}, args...)
	if typ != b.Mod.Types.Builtins().Void {
		i.addResult(typ)
	}
	return i
}

// UserCall calls target. A void return type produces no result.
func (b *Builder) UserCall(target *Function, args ...Value) *UserCall {
	i := newInst(b.Mod, &UserCall{Target: target}, args...)
	if target.ReturnType != b.Mod.Types.Builtins().Void {
		i.addResult(target.ReturnType)
	}
	return i
}

func (b *Builder) Access(typ types.TypeID, object Value, indices ...Value) *Access {
	i := newInst(b.Mod, &Access{}, append([]Value{object}, indices...)...)
	i.addResult(typ)
	return i
}

func (b *Builder) Discard() *Discard {
	return newInst(b.Mod, &Discard{})
}

func (b *Builder) Unreachable() *Unreachable {
	return newInst(b.Mod, &Unreachable{})
}

// Return leaves fn, with value unless it is nil.
func (b *Builder) Return(fn *Function, value Value) *Return {
	var r *Return
	if value != nil {
		r = newInst(b.Mod, &Return{fn: fn}, value)
	} else {
		r = newInst(b.Mod, &Return{fn: fn})
	}
	fn.addReturn(r)
	return r
}

func registerTargets(br Branch) {
	for _, t := range br.Targets() {
		t.AddInboundBranch(br)
	}
}

// If creates an If with fresh true and false blocks. The merge block is
// created by the first ExitIf.
func (b *Builder) If(cond Value) *If {
	i := newInst(b.Mod, &If{}, cond)
	i.trueBlk = b.Block()
	i.falseBlk = b.Block()
	i.trueBlk.parent, i.falseBlk.parent = i, i
	registerTargets(i)
	return i
}

func (b *Builder) newLoop(withInit bool) *Loop {
	l := newInst(b.Mod, &Loop{})
	if withInit {
		l.initializer = b.Block()
		l.initializer.parent = l
	}
	l.body = b.MultiInBlock()
	l.continuing = b.MultiInBlock()
	l.merge = b.MultiInBlock()
	l.body.parent, l.continuing.parent, l.merge.parent = l, l, l
	registerTargets(l)
	return l
}

// Loop creates a loop with body, continuing and merge blocks.
func (b *Builder) Loop() *Loop { return b.newLoop(false) }

// LoopWithInitializer also creates an initializer block, which becomes the
// loop entry.
func (b *Builder) LoopWithInitializer() *Loop { return b.newLoop(true) }

// Switch creates a switch with a merge block and no cases.
func (b *Builder) Switch(cond Value) *Switch {
	s := newInst(b.Mod, &Switch{}, cond)
	s.merge = b.MultiInBlock()
	s.merge.parent = s
	return s
}

// Case appends a case to s and returns its block.
func (b *Builder) Case(s *Switch, selectors []CaseSelector) *Block {
	blk := b.Block()
	blk.parent = s
	s.cases = append(s.cases, &Case{Selectors: selectors, Block: blk})
	blk.AddInboundBranch(s)
	return blk
}

func newExit[T Exit](m *Module, e T, ctrl ControlInstruction, operands ...Value) T {
	newInst(m, e, operands...)
	e.SetControl(ctrl)
	return e
}

// ExitIf leaves a branch of i for its merge, creating the merge if needed.
func (b *Builder) ExitIf(i *If, args ...Value) *ExitIf {
	i.EnsureMerge()
	return newExit(b.Mod, &ExitIf{}, i, args...)
}

func (b *Builder) ExitSwitch(s *Switch, args ...Value) *ExitSwitch {
	return newExit(b.Mod, &ExitSwitch{}, s, args...)
}

func (b *Builder) ExitLoop(l *Loop, args ...Value) *ExitLoop {
	return newExit(b.Mod, &ExitLoop{}, l, args...)
}

func (b *Builder) Continue(l *Loop, args ...Value) *Continue {
	return newExit(b.Mod, &Continue{}, l, args...)
}

func (b *Builder) NextIteration(l *Loop, args ...Value) *NextIteration {
	return newExit(b.Mod, &NextIteration{}, l, args...)
}

// BreakIf leaves l when cond holds and starts the next iteration otherwise.
func (b *Builder) BreakIf(l *Loop, cond Value, args ...Value) *BreakIf {
	return newExit(b.Mod, &BreakIf{}, l, append([]Value{cond}, args...)...)
}
