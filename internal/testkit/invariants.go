package testkit

import (
	"fmt"

	"shadeir/internal/ir"
)

// CheckGraphInvariants runs a minimal set of linkage invariants on a module:
// 1) every placed instruction is alive and points back at its block
// 2) prev/next links agree with iteration order
// 3) every sub-block of a control instruction names it as parent
// 4) the number of placed instructions matches the module's live count
func CheckGraphInvariants(m *ir.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	placed := 0
	var check func(b *ir.Block) error
	check = func(b *ir.Block) error {
		var prev ir.Instruction
		for inst := range b.Instructions() {
			placed++
			if !inst.Alive() {
				return fmt.Errorf("%s is placed but destroyed", inst.ID())
			}
			if inst.Block() != b {
				return fmt.Errorf("%s does not point back at its block", inst.ID())
			}
			if inst.Prev() != prev {
				return fmt.Errorf("%s prev link is broken", inst.ID())
			}
			if prev != nil && prev.Next() != inst {
				return fmt.Errorf("%s next link is broken", prev.ID())
			}
			prev = inst
			ctrl, ok := inst.(ir.ControlInstruction)
			if !ok {
				continue
			}
			for _, sub := range ctrl.Blocks() {
				if sub.Parent() != ctrl {
					return fmt.Errorf("block of %T %s has the wrong parent", ctrl, ctrl.ID())
				}
				if err := check(sub); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if m.HasRootBlock() {
		if err := check(m.RootBlock()); err != nil {
			return fmt.Errorf("root block: %w", err)
		}
	}
	for _, fn := range m.Functions() {
		if fn.StartBlock() == nil {
			continue
		}
		if err := check(fn.StartBlock()); err != nil {
			return fmt.Errorf("function %s: %w", m.NameOf(fn), err)
		}
	}
	if placed != m.InstructionCount() {
		return fmt.Errorf("%d instructions placed, %d alive", placed, m.InstructionCount())
	}
	return nil
}
