package ir_test

import (
	"errors"
	"slices"
	"testing"

	"shadeir/internal/ir"
)

func newModule() (*ir.Module, *ir.Builder) {
	m := ir.NewModule(nil, nil)
	return m, ir.NewBuilder(m)
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic", name)
		}
		err, ok := r.(error)
		var irErr *ir.Error
		if !ok || !errors.As(err, &irErr) {
			t.Fatalf("%s: expected *ir.Error panic, got %v", name, r)
		}
	}()
	fn()
}

func collect(b *ir.Block) []ir.Instruction {
	return slices.Collect(b.Instructions())
}

func TestBlock_Editing(t *testing.T) {
	m, b := newModule()
	i32 := m.Types.Builtins().I32
	blk := b.Block()

	add := b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2))
	mul := b.Binary(ir.BinaryMul, i32, b.I32(3), b.I32(4))
	sub := b.Binary(ir.BinarySub, i32, b.I32(5), b.I32(6))
	front := b.Binary(ir.BinaryXor, i32, b.I32(7), b.I32(8))

	blk.Append(add)
	blk.Append(mul)
	blk.InsertBefore(mul, sub)
	blk.Prepend(front)

	want := []ir.Instruction{front, add, sub, mul}
	if got := collect(blk); !slices.Equal(got, want) {
		t.Fatalf("order after inserts = %v, want %v", got, want)
	}
	if blk.Len() != 4 || blk.Front() != front || blk.Back() != mul {
		t.Fatalf("len/front/back mismatch: %d %v %v", blk.Len(), blk.Front(), blk.Back())
	}
	if add.Prev() != front || add.Next() != sub {
		t.Fatalf("links of add: prev=%v next=%v", add.Prev(), add.Next())
	}

	blk.Remove(sub)
	if sub.Block() != nil || !sub.Alive() {
		t.Fatalf("removed instruction should be detached and alive")
	}
	blk.InsertAfter(mul, sub)
	want = []ir.Instruction{front, add, mul, sub}
	if got := collect(blk); !slices.Equal(got, want) {
		t.Fatalf("order after move = %v, want %v", got, want)
	}

	repl := b.Binary(ir.BinaryOr, i32, b.I32(9), b.I32(10))
	blk.Replace(add, repl)
	want = []ir.Instruction{front, repl, mul, sub}
	if got := collect(blk); !slices.Equal(got, want) {
		t.Fatalf("order after replace = %v, want %v", got, want)
	}
	if add.Block() != nil {
		t.Fatalf("replaced instruction still attached")
	}
	for _, inst := range want {
		if inst.Block() != blk {
			t.Fatalf("%v does not report its block", inst.ID())
		}
	}
}

func TestBlock_Preconditions(t *testing.T) {
	m, b := newModule()
	i32 := m.Types.Builtins().I32
	blk := b.Block()
	other := b.Block()
	inst := b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2))
	blk.Append(inst)

	mustPanic(t, "append attached", func() { other.Append(inst) })
	mustPanic(t, "remove foreign", func() { other.Remove(inst) })
	mustPanic(t, "insert before foreign", func() {
		other.InsertBefore(inst, b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2)))
	})
	mustPanic(t, "params on single-entry block", func() { blk.AddParam(i32) })

	foreign := ir.NewBuilder(ir.NewModule(nil, nil))
	mustPanic(t, "foreign module", func() { blk.Append(foreign.Discard()) })
}

func TestBlock_MultiInParams(t *testing.T) {
	m, b := newModule()
	blk := b.MultiInBlock()
	p := blk.AddParam(m.Types.Builtins().Bool)
	if p.Block() != blk || len(blk.Params()) != 1 {
		t.Fatalf("param not attached")
	}
	blk.SetParams(nil)
	if len(blk.Params()) != 0 {
		t.Fatalf("SetParams(nil) left %d params", len(blk.Params()))
	}
}

func TestInstruction_StaleHandle(t *testing.T) {
	m, b := newModule()
	i32 := m.Types.Builtins().I32
	blk := b.Block()
	inst := b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2))
	blk.Append(inst)
	id := inst.ID()
	before := m.InstructionCount()

	inst.Destroy()
	if inst.Alive() || inst.Block() != nil || blk.Len() != 0 {
		t.Fatalf("destroyed instruction still placed")
	}
	if m.InstructionCount() != before-1 {
		t.Fatalf("InstructionCount = %d, want %d", m.InstructionCount(), before-1)
	}
	mustPanic(t, "double destroy", inst.Destroy)
	mustPanic(t, "append destroyed", func() { blk.Append(inst) })

	reuse := b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2))
	if reuse.ID() == id {
		t.Fatalf("slot reuse produced the stale handle %v", id)
	}
	if !reuse.ID().IsValid() || ir.NoInst.IsValid() {
		t.Fatalf("handle validity is wrong")
	}
}

func TestValue_Usages(t *testing.T) {
	m, b := newModule()
	i32 := m.Types.Builtins().I32
	blk := b.Block()
	a := b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2))
	c := b.Binary(ir.BinaryMul, i32, a.Result(), a.Result())
	blk.Append(a)
	blk.Append(c)

	want := []ir.Usage{{Inst: c, Operand: 0}, {Inst: c, Operand: 1}}
	if got := a.Result().Usages(); !slices.Equal(got, want) {
		t.Fatalf("usages = %v, want %v", got, want)
	}

	mustPanic(t, "destroy used", a.Destroy)

	c.SetOperand(1, b.I32(5))
	if got := len(a.Result().Usages()); got != 1 {
		t.Fatalf("usages after SetOperand = %d, want 1", got)
	}
	c.Destroy()
	if a.Result().IsUsed() {
		t.Fatalf("usages survive Destroy")
	}
	a.Destroy()
}

func TestConstant_Dedup(t *testing.T) {
	_, b := newModule()
	if b.I32(3) != b.I32(3) {
		t.Fatalf("equal scalar constants should share a value")
	}
	if b.I32(3) == b.I32(4) || b.Bool(true) == b.Bool(false) {
		t.Fatalf("different constants collapsed")
	}
}
