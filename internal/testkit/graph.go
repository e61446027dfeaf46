package testkit

import (
	"iter"
	"testing"

	"shadeir/internal/ir"
)

// Instructions walks every placed instruction of m: the root block, then each
// function from its start block, descending into control instructions.
func Instructions(m *ir.Module) iter.Seq[ir.Instruction] {
	return func(yield func(ir.Instruction) bool) {
		var walk func(b *ir.Block) bool
		walk = func(b *ir.Block) bool {
			for inst := range b.Instructions() {
				if !yield(inst) {
					return false
				}
				if ctrl, ok := inst.(ir.ControlInstruction); ok {
					for _, sub := range ctrl.Blocks() {
						if !walk(sub) {
							return false
						}
					}
				}
			}
			return true
		}
		if m.HasRootBlock() && !walk(m.RootBlock()) {
			return
		}
		for _, fn := range m.Functions() {
			if fn.StartBlock() != nil && !walk(fn.StartBlock()) {
				return
			}
		}
	}
}

// FindAll returns every instruction of type T in walk order.
func FindAll[T ir.Instruction](m *ir.Module) []T {
	var out []T
	for inst := range Instructions(m) {
		if t, ok := inst.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// FindSingle returns the only instruction of type T and fails the test when
// there are none or several.
func FindSingle[T ir.Instruction](t testing.TB, m *ir.Module) T {
	t.Helper()
	all := FindAll[T](m)
	if len(all) != 1 {
		var zero T
		t.Fatalf("found %d instructions of type %T, want 1", len(all), zero)
		return zero
	}
	return all[0]
}

// MustValidate fails the test when m breaks a structural invariant.
func MustValidate(t testing.TB, m *ir.Module) {
	t.Helper()
	if err := ir.Validate(m); err != nil {
		t.Fatalf("validation failed:\n%v\n%s", err, ir.Disassemble(m))
	}
	if err := CheckGraphInvariants(m); err != nil {
		t.Fatalf("graph invariants: %v\n%s", err, ir.Disassemble(m))
	}
}
