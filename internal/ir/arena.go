package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// InstID is a generation-checked handle into a module's instruction arena.
// The zero value refers to no instruction.
type InstID struct {
	index uint32
	gen   uint32
}

// NoInst is the invalid handle.
var NoInst InstID

func (id InstID) IsValid() bool { return id.gen != 0 }

func (id InstID) String() string {
	if !id.IsValid() {
		return "inst<none>"
	}
	return fmt.Sprintf("inst%d.%d", id.index, id.gen)
}

// instSlot keeps the placement of one instruction. Block membership and the
// prev/next links live here rather than on the instruction.
type instSlot struct {
	inst  Instruction
	gen   uint32
	block *Block
	prev  InstID
	next  InstID
}

type arena struct {
	slots []instSlot
	free  []uint32
}

func (a *arena) alloc(inst Instruction) InstID {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.inst = inst
		return InstID{index: idx, gen: s.gen}
	}
	idx, err := safecast.Conv[uint32](len(a.slots))
	if err != nil {
		panic(fmt.Errorf("ir: instruction arena overflow: %w", err))
	}
	a.slots = append(a.slots, instSlot{inst: inst, gen: 1})
	return InstID{index: idx, gen: 1}
}

// slot returns the live slot for id, or nil for stale and invalid handles.
func (a *arena) slot(id InstID) *instSlot {
	if !id.IsValid() || int(id.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[id.index]
	if s.gen != id.gen || s.inst == nil {
		return nil
	}
	return s
}

func (a *arena) inst(id InstID) Instruction {
	if s := a.slot(id); s != nil {
		return s.inst
	}
	return nil
}

// release frees the slot and bumps its generation so outstanding handles go stale.
func (a *arena) release(id InstID) {
	s := a.slot(id)
	if s == nil {
		return
	}
	*s = instSlot{gen: s.gen + 1}
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, id.index)
}

// live returns the number of allocated instructions.
func (a *arena) live() int {
	return len(a.slots) - len(a.free)
}
