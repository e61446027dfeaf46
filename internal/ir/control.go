package ir

import "slices"

// ControlInstruction is a branch that owns sub-blocks.
type ControlInstruction interface {
	Branch
	// Exits lists the exit instructions registered on this construct.
	Exits() []Exit
	AddExit(e Exit)
	RemoveExit(e Exit)
	// Blocks lists the owned sub-blocks in disassembly order. Missing
	// optional blocks are omitted.
	Blocks() []*Block
	isControl()
}

type controlBase struct {
	instBase
	exits []Exit
}

func (c *controlBase) Exits() []Exit { return c.exits }
func (c *controlBase) Args() []Value { return nil }
func (c *controlBase) isBranch()     {}
func (c *controlBase) isControl()    {}

func (c *controlBase) AddExit(e Exit) {
	if !slices.Contains(c.exits, e) {
		c.exits = append(c.exits, e)
	}
}

func (c *controlBase) RemoveExit(e Exit) {
	if i := slices.Index(c.exits, e); i >= 0 {
		c.exits = slices.Delete(c.exits, i, i+1)
	}
}

// If branches to its true or false block on operand 0. The merge block is
// created on demand and stays nil while both branches terminate.
type If struct {
	controlBase
	trueBlk  *Block
	falseBlk *Block
	merge    *Block
}

func (i *If) Condition() Value { return i.Operand(0) }
func (i *If) True() *Block     { return i.trueBlk }
func (i *If) False() *Block    { return i.falseBlk }

// Merge returns the merge block, or nil if none was needed.
func (i *If) Merge() *Block { return i.merge }

// EnsureMerge returns the merge block, creating it if needed.
func (i *If) EnsureMerge() *Block {
	if i.merge == nil {
		i.merge = i.mod.newBlock(true)
		i.merge.parent = i
	}
	return i.merge
}

func (i *If) Targets() []*Block { return []*Block{i.trueBlk, i.falseBlk} }

func (i *If) Blocks() []*Block {
	if i.merge == nil {
		return []*Block{i.trueBlk, i.falseBlk}
	}
	return []*Block{i.trueBlk, i.falseBlk, i.merge}
}

// Loop runs its optional initializer once, then repeats body and continuing
// until an exit leaves for the merge block.
type Loop struct {
	controlBase
	initializer *Block
	body        *Block
	continuing  *Block
	merge       *Block
}

// Initializer returns the initializer block, or nil.
func (l *Loop) Initializer() *Block { return l.initializer }
func (l *Loop) Body() *Block        { return l.body }
func (l *Loop) Continuing() *Block  { return l.continuing }
func (l *Loop) Merge() *Block       { return l.merge }

// Targets is the loop entry: the initializer if present, else the body.
func (l *Loop) Targets() []*Block {
	if l.initializer != nil {
		return []*Block{l.initializer}
	}
	return []*Block{l.body}
}

func (l *Loop) Blocks() []*Block {
	out := make([]*Block, 0, 4)
	if l.initializer != nil {
		out = append(out, l.initializer)
	}
	return append(out, l.body, l.continuing, l.merge)
}

// CaseSelector is one selector of a switch case. Val is nil for default.
type CaseSelector struct {
	Val *Constant
}

func (s CaseSelector) IsDefault() bool { return s.Val == nil }

// Case is one switch case and the block it branches to.
type Case struct {
	Selectors []CaseSelector
	Block     *Block
}

// IsDefault reports whether one of the selectors is default.
func (c *Case) IsDefault() bool {
	for _, s := range c.Selectors {
		if s.IsDefault() {
			return true
		}
	}
	return false
}

// Switch branches on operand 0 to the case whose selectors match.
type Switch struct {
	controlBase
	cases []*Case
	merge *Block
}

func (s *Switch) Condition() Value { return s.Operand(0) }
func (s *Switch) Cases() []*Case   { return s.cases }
func (s *Switch) Merge() *Block    { return s.merge }

func (s *Switch) Targets() []*Block {
	out := make([]*Block, len(s.cases))
	for i, c := range s.cases {
		out[i] = c.Block
	}
	return out
}

func (s *Switch) Blocks() []*Block {
	return append(s.Targets(), s.merge)
}

var (
	_ ControlInstruction = (*If)(nil)
	_ ControlInstruction = (*Loop)(nil)
	_ ControlInstruction = (*Switch)(nil)
)
