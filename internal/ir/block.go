package ir

import (
	"iter"
	"slices"

	"shadeir/internal/types"
)

// Block is a list of instructions closed by one Branch.
type Block struct {
	mod     *Module
	first   InstID
	last    InstID
	count   int
	multiIn bool
	params  []*BlockParam
	inbound []Branch
	parent  ControlInstruction
}

// Parent returns the control instruction owning the block, or nil for
// function start blocks and the root block.
func (b *Block) Parent() ControlInstruction { return b.parent }

// IsMultiIn reports whether the block may be entered from several branches
// and so may carry parameters.
func (b *Block) IsMultiIn() bool { return b.multiIn }

func (b *Block) Len() int           { return b.count }
func (b *Block) IsEmpty() bool      { return b.count == 0 }
func (b *Block) Front() Instruction { return b.mod.arena.inst(b.first) }
func (b *Block) Back() Instruction  { return b.mod.arena.inst(b.last) }

// Instructions iterates the block front to back. Removing the current
// instruction during iteration is allowed.
func (b *Block) Instructions() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		for inst := b.Front(); inst != nil; {
			next := inst.Next()
			if !yield(inst) {
				return
			}
			inst = next
		}
	}
}

// Branch returns the closing branch, or nil.
func (b *Block) Branch() Branch {
	br, _ := b.Back().(Branch)
	return br
}

// HasBranchTarget reports whether the block is non-empty and ends in a branch.
func (b *Block) HasBranchTarget() bool {
	return b.Branch() != nil
}

// IsTrampoline reports whether the block holds a single branch to target.
func (b *Block) IsTrampoline(target *Block) bool {
	if b.count != 1 {
		return false
	}
	br := b.Branch()
	return br != nil && slices.Contains(br.Targets(), target)
}

func (b *Block) slot(inst Instruction, op string) *instSlot {
	if inst == nil || inst.Module() != b.mod {
		fail(op, "instruction belongs to another module")
	}
	s := b.mod.arena.slot(inst.ID())
	if s == nil {
		fail(op, "%s is destroyed", inst.ID())
	}
	return s
}

func (b *Block) detached(inst Instruction, op string) *instSlot {
	s := b.slot(inst, op)
	if s.block != nil {
		fail(op, "%s is already in a block", inst.ID())
	}
	return s
}

func (b *Block) owned(inst Instruction, op string) *instSlot {
	s := b.slot(inst, op)
	if s.block != b {
		fail(op, "%s is not in this block", inst.ID())
	}
	return s
}

// Prepend inserts inst at the front.
func (b *Block) Prepend(inst Instruction) {
	s := b.detached(inst, "prepend")
	if b.count == 0 {
		b.Append(inst)
		return
	}
	id := inst.ID()
	s.block, s.prev, s.next = b, NoInst, b.first
	b.mod.arena.slot(b.first).prev = id
	b.first = id
	b.count++
}

// Append inserts inst at the back.
func (b *Block) Append(inst Instruction) {
	s := b.detached(inst, "append")
	id := inst.ID()
	s.block, s.prev, s.next = b, b.last, NoInst
	if b.count == 0 {
		b.first = id
	} else {
		b.mod.arena.slot(b.last).next = id
	}
	b.last = id
	b.count++
}

// InsertBefore inserts inst before target.
func (b *Block) InsertBefore(target, inst Instruction) {
	ts := b.owned(target, "insert before")
	s := b.detached(inst, "insert before")
	if ts.prev == NoInst {
		b.Prepend(inst)
		return
	}
	id := inst.ID()
	s.block, s.prev, s.next = b, ts.prev, target.ID()
	b.mod.arena.slot(ts.prev).next = id
	ts.prev = id
	b.count++
}

// InsertAfter inserts inst after target.
func (b *Block) InsertAfter(target, inst Instruction) {
	ts := b.owned(target, "insert after")
	s := b.detached(inst, "insert after")
	if ts.next == NoInst {
		b.Append(inst)
		return
	}
	id := inst.ID()
	s.block, s.prev, s.next = b, target.ID(), ts.next
	b.mod.arena.slot(ts.next).prev = id
	ts.next = id
	b.count++
}

// Replace puts inst in target's place and detaches target.
func (b *Block) Replace(target, inst Instruction) {
	b.owned(target, "replace")
	b.detached(inst, "replace")
	b.InsertBefore(target, inst)
	b.Remove(target)
}

// Remove detaches inst from the block. inst stays alive.
func (b *Block) Remove(inst Instruction) {
	s := b.owned(inst, "remove")
	if s.prev == NoInst {
		b.first = s.next
	} else {
		b.mod.arena.slot(s.prev).next = s.next
	}
	if s.next == NoInst {
		b.last = s.prev
	} else {
		b.mod.arena.slot(s.next).prev = s.prev
	}
	s.block, s.prev, s.next = nil, NoInst, NoInst
	b.count--
}

// Params returns the block parameters.
func (b *Block) Params() []*BlockParam { return b.params }

// AddParam appends a parameter of type typ. Only multi-in blocks take parameters.
func (b *Block) AddParam(typ types.TypeID) *BlockParam {
	if !b.multiIn {
		fail("add param", "block is not multi-in")
	}
	p := &BlockParam{valueBase: valueBase{typ: typ}, block: b}
	b.params = append(b.params, p)
	return p
}

// SetParams replaces the parameter list.
func (b *Block) SetParams(params []*BlockParam) {
	if !b.multiIn && len(params) > 0 {
		fail("set params", "block is not multi-in")
	}
	for _, p := range params {
		p.block = b
	}
	b.params = params
}

// InboundBranches lists the branches targeting this block.
func (b *Block) InboundBranches() []Branch { return b.inbound }

// IsConnected reports whether any branch targets the block.
func (b *Block) IsConnected() bool { return len(b.inbound) > 0 }

func (b *Block) AddInboundBranch(br Branch) {
	b.inbound = append(b.inbound, br)
}

func (b *Block) RemoveInboundBranch(br Branch) {
	if i := slices.Index(b.inbound, br); i >= 0 {
		b.inbound = slices.Delete(b.inbound, i, i+1)
	}
}
