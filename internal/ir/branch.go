package ir

// Branch is an instruction that ends a block. Control instructions, exits and
// terminators are all branches.
type Branch interface {
	Instruction
	// Args are the values passed to the parameters of the target block.
	Args() []Value
	// Targets lists the blocks this branch registers itself as inbound to.
	Targets() []*Block
	isBranch()
}

// Terminator leaves the function or the invocation.
type Terminator interface {
	Branch
	isTerminator()
}

// Exit leaves a sub-block of a control instruction.
type Exit interface {
	Branch
	Control() ControlInstruction
	// SetControl re-targets the exit. The old control instruction and target
	// blocks drop their records of the exit before the new ones gain them.
	SetControl(c ControlInstruction)
}

// Return leaves the function, optionally with a value in operand 0.
type Return struct {
	instBase
	fn *Function
}

func (r *Return) Function() *Function { return r.fn }
func (r *Return) Value() Value        { return r.Operand(0) }
func (r *Return) Args() []Value       { return r.operands }
func (r *Return) Targets() []*Block   { return nil }
func (r *Return) isBranch()           {}
func (r *Return) isTerminator()       {}

// Unreachable marks a point control never reaches.
type Unreachable struct{ instBase }

func (u *Unreachable) Args() []Value     { return nil }
func (u *Unreachable) Targets() []*Block { return nil }
func (u *Unreachable) isBranch()         {}
func (u *Unreachable) isTerminator()     {}

// Discard ends a fragment invocation.
type Discard struct{ instBase }

func (d *Discard) Args() []Value     { return nil }
func (d *Discard) Targets() []*Block { return nil }
func (d *Discard) isBranch()         {}
func (d *Discard) isTerminator()     {}

type exitBase struct {
	instBase
	ctrl ControlInstruction
}

func (e *exitBase) Control() ControlInstruction { return e.ctrl }
func (e *exitBase) Args() []Value               { return e.operands }
func (e *exitBase) isBranch()                   {}

func (e *exitBase) SetControl(c ControlInstruction) {
	self, ok := e.self.(Exit)
	if !ok || e.ctrl == c {
		return
	}
	if e.ctrl != nil {
		for _, t := range self.Targets() {
			t.RemoveInboundBranch(self)
		}
		e.ctrl.RemoveExit(self)
	}
	e.ctrl = c
	if c != nil {
		c.AddExit(self)
		for _, t := range self.Targets() {
			t.AddInboundBranch(self)
		}
	}
}

// ExitIf leaves a branch of an If for its merge block.
type ExitIf struct{ exitBase }

// If returns the construct being left.
func (e *ExitIf) If() *If {
	i, _ := e.ctrl.(*If)
	return i
}

func (e *ExitIf) Targets() []*Block {
	if i := e.If(); i != nil && i.merge != nil {
		return []*Block{i.merge}
	}
	return nil
}

// ExitSwitch leaves a case of a Switch for its merge block.
type ExitSwitch struct{ exitBase }

func (e *ExitSwitch) Switch() *Switch {
	s, _ := e.ctrl.(*Switch)
	return s
}

func (e *ExitSwitch) Targets() []*Block {
	if s := e.Switch(); s != nil {
		return []*Block{s.merge}
	}
	return nil
}

// ExitLoop leaves a Loop for its merge block.
type ExitLoop struct{ exitBase }

func (e *ExitLoop) Loop() *Loop {
	l, _ := e.ctrl.(*Loop)
	return l
}

func (e *ExitLoop) Targets() []*Block {
	if l := e.Loop(); l != nil {
		return []*Block{l.merge}
	}
	return nil
}

// Continue branches from the loop body to the continuing block.
type Continue struct{ exitBase }

func (e *Continue) Loop() *Loop {
	l, _ := e.ctrl.(*Loop)
	return l
}

func (e *Continue) Targets() []*Block {
	if l := e.Loop(); l != nil {
		return []*Block{l.continuing}
	}
	return nil
}

// NextIteration branches back to the loop body, from the initializer or from
// the continuing block.
type NextIteration struct{ exitBase }

func (e *NextIteration) Loop() *Loop {
	l, _ := e.ctrl.(*Loop)
	return l
}

func (e *NextIteration) Targets() []*Block {
	if l := e.Loop(); l != nil {
		return []*Block{l.body}
	}
	return nil
}

// BreakIf ends a continuing block: it leaves the loop for the merge block when
// operand 0 is true and starts the next iteration otherwise.
type BreakIf struct{ exitBase }

func (e *BreakIf) Loop() *Loop {
	l, _ := e.ctrl.(*Loop)
	return l
}

func (e *BreakIf) Condition() Value { return e.Operand(0) }
func (e *BreakIf) Args() []Value    { return e.operandsFrom(1) }

func (e *BreakIf) Targets() []*Block {
	if l := e.Loop(); l != nil {
		return []*Block{l.body, l.merge}
	}
	return nil
}

var (
	_ Terminator = (*Return)(nil)
	_ Terminator = (*Unreachable)(nil)
	_ Terminator = (*Discard)(nil)
	_ Exit       = (*ExitIf)(nil)
	_ Exit       = (*ExitSwitch)(nil)
	_ Exit       = (*ExitLoop)(nil)
	_ Exit       = (*Continue)(nil)
	_ Exit       = (*NextIteration)(nil)
	_ Exit       = (*BreakIf)(nil)
)
