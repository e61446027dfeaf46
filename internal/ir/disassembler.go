package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"shadeir/internal/constant"
	"shadeir/internal/shader"
)

// Disassemble renders m as text. An unhandled instruction kind is rendered
// inline as an error marker; use Fprint to get it as an error instead.
func Disassemble(m *Module) string {
	var sb strings.Builder
	_ = Fprint(&sb, m)
	return sb.String()
}

// Fprint writes the text form of m to w.
func Fprint(w io.Writer, m *Module) error {
	if m == nil {
		return nil
	}
	d := &disassembler{
		mod:    m,
		values: make(map[Nameable]string),
		blocks: make(map[*Block]string),
	}
	d.module()
	if _, err := io.WriteString(w, d.sb.String()); err != nil {
		return err
	}
	return d.err
}

type disassembler struct {
	mod    *Module
	sb     strings.Builder
	indent int
	values map[Nameable]string
	blocks map[*Block]string
	nextV  int
	err    error
}

func (d *disassembler) line(format string, args ...any) {
	d.sb.WriteString(strings.Repeat("  ", d.indent))
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteByte('\n')
}

func (d *disassembler) blank() { d.sb.WriteByte('\n') }

func (d *disassembler) blockID(b *Block) string {
	if b == nil {
		return "%<nil>"
	}
	if id, ok := d.blocks[b]; ok {
		return id
	}
	id := "%b" + strconv.Itoa(len(d.blocks)+1)
	d.blocks[b] = id
	return id
}

func (d *disassembler) nameID(x Nameable) string {
	if id, ok := d.values[x]; ok {
		return id
	}
	id := d.mod.NameOf(x)
	if id == "" {
		d.nextV++
		id = strconv.Itoa(d.nextV)
	}
	id = "%" + id
	d.values[x] = id
	return id
}

func (d *disassembler) value(v Value) string {
	switch vv := v.(type) {
	case nil:
		return "undef"
	case *Constant:
		return constant.Format(d.mod.Types, vv.Value)
	default:
		return d.nameID(v)
	}
}

func (d *disassembler) valueList(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = d.value(v)
	}
	return strings.Join(parts, ", ")
}

func (d *disassembler) typed(v Value) string {
	return d.value(v) + ":" + d.mod.Types.Name(v.Type())
}

func (d *disassembler) module() {
	if d.mod.HasRootBlock() {
		d.emitBlock(d.mod.RootBlock(), "root")
		d.blank()
	}
	for i, fn := range d.mod.Functions() {
		if i > 0 {
			d.blank()
		}
		d.function(fn)
	}
}

func attrList(a IOAttributes) string {
	var attrs []string
	if a.Invariant {
		attrs = append(attrs, "@invariant")
	}
	if a.Location != nil {
		attrs = append(attrs, "@location("+strconv.FormatUint(uint64(*a.Location), 10)+")")
	}
	if a.Interpolation != nil {
		attrs = append(attrs, a.Interpolation.String())
	}
	if a.BindingPoint != nil {
		attrs = append(attrs, a.BindingPoint.String())
	}
	if a.Builtin != shader.BuiltinNone {
		attrs = append(attrs, "@"+a.Builtin.String())
	}
	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

func (d *disassembler) function(fn *Function) {
	var hdr strings.Builder
	hdr.WriteString(d.nameID(fn))
	hdr.WriteString(" =")
	if fn.Stage.IsEntryPoint() {
		hdr.WriteString(" @" + fn.Stage.String())
	}
	if wgs := fn.WorkgroupSize; wgs != nil {
		fmt.Fprintf(&hdr, " @workgroup_size(%d, %d, %d)", wgs[0], wgs[1], wgs[2])
	}
	hdr.WriteString(" func(")
	for i, p := range fn.Params() {
		if i > 0 {
			hdr.WriteString(", ")
		}
		hdr.WriteString(d.typed(p))
		hdr.WriteString(attrList(p.Attrs))
	}
	hdr.WriteString("):")
	hdr.WriteString(d.mod.Types.Name(fn.ReturnType))
	hdr.WriteString(attrList(fn.ReturnAttrs))
	hdr.WriteString(" -> ")
	hdr.WriteString(d.blockID(fn.StartBlock()))
	d.line("%s {", hdr.String())
	d.indent++
	if fn.StartBlock() != nil {
		d.emitBlock(fn.StartBlock(), "")
	}
	d.indent--
	d.line("}")
}

func (d *disassembler) emitBlock(b *Block, comment string) {
	head := d.blockID(b) + " = block"
	if params := b.Params(); len(params) > 0 {
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = d.typed(p)
		}
		head += " (" + strings.Join(parts, ", ") + ")"
	}
	head += " {"
	if comment != "" {
		head += "  # " + comment
	}
	d.line("%s", head)
	d.indent++
	for inst := range b.Instructions() {
		d.instruction(inst)
	}
	d.indent--
	d.line("}")
}

// subBlocks prints the owned blocks of a control instruction one level in,
// then the merge block at the current level.
func (d *disassembler) subBlocks(labels []string, blocks []*Block, merge *Block) {
	d.indent++
	for i, b := range blocks {
		if i > 0 {
			d.blank()
		}
		d.line("# %s block", labels[i])
		d.emitBlock(b, "")
	}
	d.indent--
	if merge != nil && !merge.IsEmpty() {
		d.blank()
		d.line("# Merge block")
		d.emitBlock(merge, "")
	}
}

func (d *disassembler) results(inst Instruction) string {
	rs := inst.Results()
	if len(rs) == 0 {
		return ""
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = d.typed(r)
	}
	return strings.Join(parts, ", ") + " = "
}

func (d *disassembler) withArgs(head string, args []Value) string {
	if len(args) == 0 {
		return head
	}
	return head + " " + d.valueList(args)
}

func (d *disassembler) instruction(inst Instruction) {
	res := d.results(inst)
	switch i := inst.(type) {
	case *Var:
		s := "var"
		if init := i.Initializer(); init != nil {
			s += ", " + d.value(init)
		}
		if i.BindingPoint != nil {
			s += " " + i.BindingPoint.String()
		}
		d.line("%s%s", res, s)
	case *Load:
		d.line("%sload %s", res, d.value(i.From()))
	case *Store:
		d.line("store %s, %s", d.value(i.To()), d.value(i.From()))
	case *Binary:
		d.line("%s%s %s, %s", res, i.Kind, d.value(i.LHS()), d.value(i.RHS()))
	case *Unary:
		d.line("%s%s %s", res, i.Kind, d.value(i.Val()))
	case *Bitcast:
		d.line("%sbitcast %s", res, d.value(i.Val()))
	case *Convert:
		d.line("%sconvert %s, %s", res, d.mod.Types.Name(i.FromType), d.value(i.Val()))
	case *Construct:
		d.line("%s%s", res, d.withArgs("construct", i.Args()))
	case *BuiltinCall:
		d.line("%s%s", res, d.withArgs(i.Func.String(), i.Args()))
	case *UserCall:
		head := "call " + d.nameID(i.Target)
		if args := i.Args(); len(args) > 0 {
			head += ", " + d.valueList(args)
		}
		d.line("%s%s", res, head)
	case *Access:
		d.line("%saccess %s", res, d.valueList(i.Operands()))
	case *Return:
		d.line("%s", d.withArgs("ret", i.Args()))
	case *Discard:
		d.line("discard")
	case *Unreachable:
		d.line("unreachable")
	case *ExitIf:
		d.exit("exit_if", i)
	case *ExitSwitch:
		d.exit("exit_switch", i)
	case *ExitLoop:
		d.exit("exit_loop", i)
	case *Continue:
		d.exit("continue", i)
	case *NextIteration:
		d.exit("next_iteration", i)
	case *BreakIf:
		target := "%<nil>"
		if l := i.Loop(); l != nil {
			target = d.blockID(l.Body())
		}
		d.line("%s", d.withArgs("break_if "+d.value(i.Condition())+" "+target, i.Args()))
	case *If:
		d.ifInst(i)
	case *Loop:
		d.loopInst(i)
	case *Switch:
		d.switchInst(i)
	default:
		d.line("<unhandled %T>", inst)
		if d.err == nil {
			d.err = fmt.Errorf("ir: disassemble: unhandled instruction %T", inst)
		}
	}
}

func (d *disassembler) exit(op string, e Exit) {
	target := "%<nil>"
	if ts := e.Targets(); len(ts) > 0 {
		target = d.blockID(ts[0])
	}
	d.line("%s", d.withArgs(op+" "+target, e.Args()))
}

func (d *disassembler) ifInst(i *If) {
	hdr := fmt.Sprintf("if %s [t: %s, f: %s", d.value(i.Condition()), d.blockID(i.True()), d.blockID(i.False()))
	if m := i.Merge(); m != nil && !m.IsEmpty() {
		hdr += ", m: " + d.blockID(m)
	}
	d.line("%s]", hdr)
	d.subBlocks([]string{"True", "False"}, []*Block{i.True(), i.False()}, i.Merge())
}

func (d *disassembler) loopInst(l *Loop) {
	var parts, labels []string
	var blocks []*Block
	if init := l.Initializer(); init != nil {
		parts = append(parts, "i: "+d.blockID(init))
		labels = append(labels, "Initializer")
		blocks = append(blocks, init)
	}
	parts = append(parts, "b: "+d.blockID(l.Body()))
	labels = append(labels, "Body")
	blocks = append(blocks, l.Body())
	if c := l.Continuing(); !c.IsEmpty() {
		parts = append(parts, "c: "+d.blockID(c))
		labels = append(labels, "Continuing")
		blocks = append(blocks, c)
	}
	if m := l.Merge(); !m.IsEmpty() {
		parts = append(parts, "m: "+d.blockID(m))
	}
	d.line("loop [%s]", strings.Join(parts, ", "))
	d.subBlocks(labels, blocks, l.Merge())
}

func (d *disassembler) switchInst(s *Switch) {
	parts := make([]string, 0, len(s.Cases())+1)
	labels := make([]string, 0, len(s.Cases()))
	blocks := make([]*Block, 0, len(s.Cases()))
	for _, c := range s.Cases() {
		sels := make([]string, len(c.Selectors))
		for j, sel := range c.Selectors {
			if sel.IsDefault() {
				sels[j] = "default"
			} else {
				sels[j] = d.value(sel.Val)
			}
		}
		parts = append(parts, fmt.Sprintf("c: (%s, %s)", strings.Join(sels, " "), d.blockID(c.Block)))
		labels = append(labels, "Case")
		blocks = append(blocks, c.Block)
	}
	if m := s.Merge(); !m.IsEmpty() {
		parts = append(parts, "m: "+d.blockID(m))
	}
	d.line("switch %s [%s]", d.value(s.Condition()), strings.Join(parts, ", "))
	d.subBlocks(labels, blocks, s.Merge())
}
