package ir

import (
	"slices"

	"shadeir/internal/constant"
	"shadeir/internal/types"
)

// Module is the unit of lowering: a root block of module-scope variables and
// the functions, sharing one instruction arena.
type Module struct {
	Types  *types.Interner
	Consts *constant.Manager

	root        *Block
	functions   []*Function
	entryPoints []*Function
	blocks      []*Block
	arena       arena
	names       nameTable
	constants   map[constant.Value]*Constant
}

// NewModule makes an empty module. A nil interner or manager is created.
func NewModule(in *types.Interner, consts *constant.Manager) *Module {
	if in == nil {
		in = types.NewInterner()
	}
	if consts == nil {
		consts = constant.NewManager(in)
	}
	return &Module{
		Types:     in,
		Consts:    consts,
		names:     newNameTable(),
		constants: make(map[constant.Value]*Constant),
	}
}

// RootBlock returns the module-scope block, creating it on first use.
func (m *Module) RootBlock() *Block {
	if m.root == nil {
		m.root = m.newBlock(false)
	}
	return m.root
}

// HasRootBlock reports whether module-scope declarations exist.
func (m *Module) HasRootBlock() bool { return m.root != nil && !m.root.IsEmpty() }

func (m *Module) Functions() []*Function   { return m.functions }
func (m *Module) EntryPoints() []*Function { return m.entryPoints }

// AddFunction registers fn, and lists it as an entry point if it has a stage.
func (m *Module) AddFunction(fn *Function) {
	fn.mod = m
	m.functions = append(m.functions, fn)
	if fn.IsEntryPoint() {
		m.entryPoints = append(m.entryPoints, fn)
	}
}

// FunctionByName finds a function by debug name.
func (m *Module) FunctionByName(name string) *Function {
	for _, fn := range m.functions {
		if m.NameOf(fn) == name {
			return fn
		}
	}
	return nil
}

// InstructionCount is the number of live instructions.
func (m *Module) InstructionCount() int { return m.arena.live() }

// BlockCount is the number of blocks ever allocated.
func (m *Module) BlockCount() int { return len(m.blocks) }

// Constant returns the IR value wrapping v. Equal scalar constants share a value.
func (m *Module) Constant(v constant.Value) *Constant {
	if c, ok := m.constants[v]; ok {
		return c
	}
	c := &Constant{valueBase: valueBase{typ: v.Type()}, Value: v}
	m.constants[v] = c
	return c
}

func (m *Module) newBlock(multiIn bool) *Block {
	b := &Block{mod: m, multiIn: multiIn}
	m.blocks = append(m.blocks, b)
	return b
}

// register places inst in the arena and wires its back-pointers.
func (m *Module) register(inst Instruction) {
	b := inst.base()
	b.mod = m
	b.self = inst
	b.id = m.arena.alloc(inst)
}

func (m *Module) destroy(inst Instruction) {
	b := inst.base()
	if b.dead {
		fail("destroy", "%s is already destroyed", b.id)
	}
	for _, r := range b.results {
		if r.IsUsed() {
			fail("destroy", "result of %s still has %d uses", b.id, len(r.Usages()))
		}
	}

	switch i := inst.(type) {
	case ControlInstruction:
		blocks := i.Blocks()
		for j := len(blocks) - 1; j >= 0; j-- {
			destroyBlockContents(blocks[j])
		}
		for _, t := range i.Targets() {
			t.RemoveInboundBranch(i)
		}
	case Exit:
		i.SetControl(nil)
	case *Return:
		if i.fn != nil {
			i.fn.removeReturn(i)
		}
	}

	if blk := inst.Block(); blk != nil {
		blk.Remove(inst)
	}
	b.clearOperands()
	b.dead = true
	m.arena.release(b.id)
}

func destroyBlockContents(blk *Block) {
	insts := slices.Collect(blk.Instructions())
	for j := len(insts) - 1; j >= 0; j-- {
		insts[j].Destroy()
	}
}
