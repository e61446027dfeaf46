package ir

import (
	"errors"
	"fmt"
	"slices"

	"shadeir/internal/diag"
	"shadeir/internal/source"
	"shadeir/internal/types"
)

// ValidationError is one structural violation found by Validate.
type ValidationError struct {
	Code diag.Code
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
}

// Validate checks the structural invariants of m and joins one error per
// violation. It returns nil for a well-formed module.
func Validate(m *Module) error {
	found := validate(m)
	errs := make([]error, len(found))
	for i, f := range found {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// ValidateBag reports each violation as an error diagnostic and returns
// whether the module is well formed.
func ValidateBag(m *Module, bag *diag.Bag) bool {
	found := validate(m)
	for _, f := range found {
		bag.Add(diag.NewError(f.Code, source.NoSpan, f.Msg))
	}
	return len(found) == 0
}

type validator struct {
	mod   *Module
	errs  []*ValidationError
	where string
	seen  map[*Block]bool
}

func validate(m *Module) []*ValidationError {
	if m == nil {
		return nil
	}
	v := &validator{mod: m, seen: make(map[*Block]bool)}
	v.rootBlock()
	for _, fn := range m.Functions() {
		v.function(fn)
	}
	v.entryPoints()
	return v.errs
}

func (v *validator) add(code diag.Code, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if v.where != "" {
		msg = v.where + ": " + msg
	}
	v.errs = append(v.errs, &ValidationError{Code: code, Msg: msg})
}

func (v *validator) rootBlock() {
	if !v.mod.HasRootBlock() {
		return
	}
	v.where = "root block"
	for inst := range v.mod.RootBlock().Instructions() {
		vr, ok := inst.(*Var)
		if !ok {
			v.add(diag.IRValidateRootVar, "%T is not a var", inst)
			continue
		}
		if r := vr.Result(); r == nil || v.mod.Types.Kind(r.Type()) != types.KindPointer {
			v.add(diag.IRValidateRootVar, "var %s is not pointer typed", inst.ID())
		}
		v.operands(inst)
	}
	v.where = ""
}

func (v *validator) function(fn *Function) {
	name := v.mod.NameOf(fn)
	if name == "" {
		name = "<unnamed>"
	}
	v.where = "function " + name
	defer func() { v.where = "" }()
	if fn.StartBlock() == nil {
		v.add(diag.IRValidateNoStart, "no start block")
		return
	}
	v.block(fn.StartBlock())
}

func (v *validator) block(b *Block) {
	if v.seen[b] {
		return
	}
	v.seen[b] = true
	if len(b.Params()) > 0 && !b.IsMultiIn() {
		v.add(diag.IRValidateParams, "single-entry block carries %d params", len(b.Params()))
	}
	if b.Branch() == nil {
		v.add(diag.IRValidateNoBranch, "block with %d instructions does not end in a branch", b.Len())
	}
	for inst := range b.Instructions() {
		if inst.Block() != b {
			v.add(diag.IRValidateBlockLink, "%s does not point back at its block", inst.ID())
		}
		if _, isBranch := inst.(Branch); isBranch && inst != b.Back() {
			v.add(diag.IRValidateMidBranch, "%T %s is not the last instruction", inst, inst.ID())
		}
		v.operands(inst)
		v.results(inst)
		if br, ok := inst.(Branch); ok {
			v.branch(br)
		}
	}
}

func (v *validator) operands(inst Instruction) {
	for i, op := range inst.Operands() {
		if op == nil {
			v.add(diag.IRValidateOperand, "%s operand %d is nil", inst.ID(), i)
			continue
		}
		if !slices.Contains(op.Usages(), Usage{Inst: inst, Operand: i}) {
			v.add(diag.IRValidateUsage, "%s operand %d missing from the value's uses", inst.ID(), i)
		}
		if r, ok := op.(*InstructionResult); ok && !r.Source().Alive() {
			v.add(diag.IRValidateOperand, "%s operand %d refers to a destroyed instruction", inst.ID(), i)
		}
	}
}

func (v *validator) results(inst Instruction) {
	for _, r := range inst.Results() {
		if r.Source() != inst {
			v.add(diag.IRValidateUsage, "%s result has a foreign source", inst.ID())
		}
		for _, u := range r.Usages() {
			if !u.Inst.Alive() || u.Inst.Operand(u.Operand) != Value(r) {
				v.add(diag.IRValidateUsage, "%s result has a stale use", inst.ID())
			}
		}
	}
}

func (v *validator) branch(br Branch) {
	for _, t := range br.Targets() {
		if !slices.Contains(t.InboundBranches(), br) {
			v.add(diag.IRValidateBlockLink, "%T %s missing from its target's inbound branches", br, br.ID())
		}
	}
	switch i := br.(type) {
	case Exit:
		c := i.Control()
		if c == nil {
			v.add(diag.IRValidateExit, "%T %s has no control instruction", br, br.ID())
		} else if !slices.Contains(c.Exits(), i) {
			v.add(diag.IRValidateExit, "%T %s is not registered on %s", br, br.ID(), c.ID())
		}
	case *If:
		v.block(i.True())
		v.block(i.False())
		v.connected(i.Merge())
	case *Loop:
		if init := i.Initializer(); init != nil {
			v.block(init)
		}
		v.block(i.Body())
		v.connected(i.Continuing())
		v.connected(i.Merge())
	case *Switch:
		defaults := 0
		for _, c := range i.Cases() {
			if c.IsDefault() {
				defaults++
			}
			v.block(c.Block)
		}
		if defaults != 1 {
			v.add(diag.IRValidateSwitch, "switch %s has %d default cases", i.ID(), defaults)
		}
		v.connected(i.Merge())
	}
}

// connected validates b when some branch reaches it.
func (v *validator) connected(b *Block) {
	if b != nil && b.IsConnected() {
		v.block(b)
	}
}

func (v *validator) entryPoints() {
	var want []*Function
	for _, fn := range v.mod.Functions() {
		if fn.IsEntryPoint() {
			want = append(want, fn)
		}
	}
	if !slices.Equal(want, v.mod.EntryPoints()) {
		v.add(diag.IRValidateEntryPoints, "%d entry points listed, %d functions have a stage",
			len(v.mod.EntryPoints()), len(want))
	}
}
