package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"shadeir/internal/constant"
	"shadeir/internal/ir"
	"shadeir/internal/shader"
	"shadeir/internal/types"
	"shadeir/internal/version"
)

// MaxInputSize is the largest encoded module Decode and Unmarshal accept.
const MaxInputSize = 64 << 20

// maxNesting bounds container depth. Each control construct adds two levels
// (instruction and block), so real modules stay far below it.
const maxNesting = 4096

// Decode reads a module written by Encode. The module gets fresh type and
// constant tables.
func Decode(r io.Reader) (*ir.Module, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("binary: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal decodes data.
func Unmarshal(data []byte) (*ir.Module, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("binary: input exceeds %d bytes", MaxInputSize)
	}
	if err := checkLengths(data); err != nil {
		return nil, fmt.Errorf("binary: %w", err)
	}
	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("binary: %w", err)
	}
	return decodeDocument(&doc)
}

// checkLengths rejects array and map headers that claim more entries than
// bytes remain. msgpack sizes a slice from its header before reading any
// element, so a corrupt header would otherwise allocate without bound.
func checkLengths(data []byte) error {
	r := bytes.NewReader(data)
	return checkValue(msgpack.NewDecoder(r), r, 0)
}

func checkValue(dec *msgpack.Decoder, r *bytes.Reader, depth int) error {
	if depth > maxNesting {
		return fmt.Errorf("nesting deeper than %d", maxNesting)
	}
	c, err := dec.PeekCode()
	if err != nil {
		return err
	}
	var n, width int
	switch {
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		n, err = dec.DecodeArrayLen()
		width = 1
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		n, err = dec.DecodeMapLen()
		width = 2
	default:
		return dec.Skip()
	}
	if err != nil {
		return err
	}
	if n > r.Len()/width {
		return fmt.Errorf("container of %d entries with only %d bytes left", n, r.Len())
	}
	for range n * width {
		if err := checkValue(dec, r, depth+1); err != nil {
			return err
		}
	}
	return nil
}

type decoder struct {
	mod      *ir.Module
	b        *ir.Builder
	doc      *document
	typeMap  []types.TypeID
	consts   []constant.Value
	values   []ir.Value
	funcs    []*ir.Function
	controls []ir.ControlInstruction
	fn       *ir.Function
}

func decodeDocument(doc *document) (mod *ir.Module, err error) {
	if doc.Magic != magic {
		return nil, fmt.Errorf("binary: not an IR module (magic %q)", doc.Magic)
	}
	if doc.Version != version.FormatVersion {
		return nil, fmt.Errorf("binary: format version %d, want %d", doc.Version, version.FormatVersion)
	}

	in := types.NewInterner()
	m := ir.NewModule(in, constant.NewManager(in))
	d := &decoder{mod: m, b: ir.NewBuilder(m), doc: doc, typeMap: []types.TypeID{types.NoTypeID}}

	// Malformed graphs trip ir preconditions or index past a table; report
	// those as decode errors.
	defer func() {
		if r := recover(); r != nil {
			var irErr *ir.Error
			var rtErr runtime.Error
			e, ok := r.(error)
			switch {
			case ok && errors.As(e, &irErr):
				mod, err = nil, fmt.Errorf("binary: %w", irErr)
			case ok && errors.As(e, &rtErr):
				mod, err = nil, fmt.Errorf("binary: malformed module: %w", rtErr)
			default:
				panic(r)
			}
		}
	}()

	if err := d.decode(); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *decoder) decode() error {
	if err := d.types(); err != nil {
		return err
	}
	if err := d.constants(); err != nil {
		return err
	}
	if d.doc.Root != nil {
		if err := d.block(d.mod.RootBlock(), d.doc.Root); err != nil {
			return fmt.Errorf("binary: root block: %w", err)
		}
	}
	for i := range d.doc.Functions {
		if err := d.header(&d.doc.Functions[i]); err != nil {
			return err
		}
	}
	for i, fn := range d.funcs {
		rec := &d.doc.Functions[i]
		if rec.Body == nil {
			return fmt.Errorf("binary: function %q has no body", rec.Name)
		}
		d.fn = fn
		if err := d.block(fn.StartBlock(), rec.Body); err != nil {
			return fmt.Errorf("binary: function %q: %w", rec.Name, err)
		}
	}
	d.fn = nil
	return nil
}

func (d *decoder) typ(id uint32) (types.TypeID, error) {
	if int(id) >= len(d.typeMap) {
		return types.NoTypeID, fmt.Errorf("binary: type %d out of range", id)
	}
	return d.typeMap[id], nil
}

func (d *decoder) types() error {
	in := d.mod.Types
	for i, rec := range d.doc.Types {
		elem, err := d.typ(rec.Elem)
		if err != nil {
			return fmt.Errorf("binary: type %d: %w", i+1, err)
		}
		var id types.TypeID
		if types.Kind(rec.Kind) == types.KindStruct {
			if rec.Struct == nil {
				return fmt.Errorf("binary: struct type %d has no description", i+1)
			}
			members := make([]types.StructMember, len(rec.Struct.Members))
			for j, mr := range rec.Struct.Members {
				mt, err := d.typ(mr.Type)
				if err != nil {
					return fmt.Errorf("binary: struct %q member %q: %w", rec.Struct.Name, mr.Name, err)
				}
				members[j] = types.StructMember{Name: mr.Name, Type: mt}
			}
			id = in.RegisterStruct(rec.Struct.Name, members)
		} else {
			id = in.Intern(types.Type{
				Kind:   types.Kind(rec.Kind),
				Elem:   elem,
				Count:  rec.Count,
				Rows:   rec.Rows,
				Space:  shader.AddressSpace(rec.Space),
				Access: shader.Access(rec.Access),
			})
		}
		if id == types.NoTypeID {
			return fmt.Errorf("binary: type %d: invalid kind %s", i+1, types.Kind(rec.Kind))
		}
		d.typeMap = append(d.typeMap, id)
	}
	return nil
}

func (d *decoder) constants() error {
	cm := d.mod.Consts
	for i, rec := range d.doc.Consts {
		typ, err := d.typ(rec.Type)
		if err != nil {
			return fmt.Errorf("binary: constant %d: %w", i+1, err)
		}
		elems := make([]constant.Value, len(rec.Elems))
		for j, el := range rec.Elems {
			if el == 0 || int(el) > len(d.consts) {
				return fmt.Errorf("binary: constant %d: element %d out of range", i+1, el)
			}
			elems[j] = d.consts[el-1]
		}

		var v constant.Value
		switch rec.Kind {
		case constScalar:
			s, err := cm.FromBits(typ, rec.Bits)
			if err != nil {
				return fmt.Errorf("binary: constant %d: %w", i+1, err)
			}
			v = s
		case constSplat:
			if len(elems) != 1 {
				return fmt.Errorf("binary: splat constant %d needs one element", i+1)
			}
			v = cm.Splat(typ, elems[0], int(rec.Count))
		case constComposite:
			v = cm.Composite(typ, elems)
		default:
			return fmt.Errorf("binary: constant %d: unknown kind %d", i+1, rec.Kind)
		}
		d.consts = append(d.consts, v)
	}
	return nil
}

func (d *decoder) constant(id uint32) (*ir.Constant, error) {
	if id == 0 || int(id) > len(d.consts) {
		return nil, fmt.Errorf("constant %d out of range", id)
	}
	return d.mod.Constant(d.consts[id-1]), nil
}

func (d *decoder) value(ref uint32) (ir.Value, error) {
	switch {
	case ref == 0:
		return nil, nil
	case ref&1 == 1:
		return d.constant(ref >> 1)
	}
	id := ref >> 1
	if int(id) > len(d.values) {
		return nil, fmt.Errorf("value %d referenced before its definition", id)
	}
	return d.values[id-1], nil
}

func (d *decoder) operands(rec *instRecord) ([]ir.Value, error) {
	ops := make([]ir.Value, len(rec.Operands))
	for i, ref := range rec.Operands {
		v, err := d.value(ref)
		if err != nil {
			return nil, err
		}
		ops[i] = v
	}
	return ops, nil
}

func (d *decoder) define(v ir.Value, name string) {
	d.values = append(d.values, v)
	if name != "" {
		d.mod.SetName(v, name)
	}
}

func (d *decoder) header(rec *functionRecord) error {
	ret, err := d.typ(rec.ReturnType)
	if err != nil {
		return fmt.Errorf("binary: function %q: %w", rec.Name, err)
	}
	var wgs *shader.WorkgroupSize
	if len(rec.WorkgroupSize) > 0 {
		if len(rec.WorkgroupSize) != 3 {
			return fmt.Errorf("binary: function %q: workgroup size needs 3 dimensions", rec.Name)
		}
		wgs = &shader.WorkgroupSize{rec.WorkgroupSize[0], rec.WorkgroupSize[1], rec.WorkgroupSize[2]}
	}
	fn := d.b.Function(rec.Name, ret, shader.PipelineStage(rec.Stage), wgs)
	fn.ReturnAttrs = decodeAttrs(rec.ReturnAttrs)

	params := make([]*ir.FunctionParam, len(rec.Params))
	for i, pr := range rec.Params {
		pt, err := d.typ(pr.Type)
		if err != nil {
			return fmt.Errorf("binary: function %q param %d: %w", rec.Name, i, err)
		}
		p := d.b.FunctionParam(pr.Name, pt)
		p.Attrs = decodeAttrs(pr.Attrs)
		params[i] = p
		d.values = append(d.values, p)
	}
	fn.SetParams(params)
	d.funcs = append(d.funcs, fn)
	return nil
}

func (d *decoder) block(blk *ir.Block, rec *blockRecord) error {
	for _, pr := range rec.Params {
		pt, err := d.typ(pr.Type)
		if err != nil {
			return err
		}
		d.define(blk.AddParam(pt), pr.Name)
	}
	for i := range rec.Insts {
		if err := d.instruction(blk, &rec.Insts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) control(id uint32) (ir.ControlInstruction, error) {
	if id == 0 || int(id) > len(d.controls) {
		return nil, fmt.Errorf("exit refers to unknown construct %d", id)
	}
	return d.controls[id-1], nil
}

func (d *decoder) resultType(rec *instRecord) (types.TypeID, error) {
	if len(rec.Results) == 0 {
		return d.mod.Types.Builtins().Void, nil
	}
	return d.typ(rec.Results[0].Type)
}

func (d *decoder) instruction(blk *ir.Block, rec *instRecord) error {
	ops, err := d.operands(rec)
	if err != nil {
		return err
	}
	arg := func(i int) ir.Value {
		if i < len(ops) {
			return ops[i]
		}
		return nil
	}
	typ, err := d.resultType(rec)
	if err != nil {
		return err
	}

	var inst ir.Instruction
	switch rec.Op {
	case opVar:
		v := d.b.Var(typ)
		if init := arg(0); init != nil {
			v.SetInitializer(init)
		}
		v.BindingPoint = decodeBinding(rec.Binding)
		inst = v
	case opLoad:
		inst = d.b.Load(arg(0))
	case opStore:
		inst = d.b.Store(arg(0), arg(1))
	case opBinary:
		inst = d.b.Binary(ir.BinaryKind(rec.Kind), typ, arg(0), arg(1))
	case opUnary:
		inst = d.b.Unary(ir.UnaryKind(rec.Kind), typ, arg(0))
	case opBitcast:
		inst = d.b.Bitcast(typ, arg(0))
	case opConvert:
		from, err := d.typ(rec.Type)
		if err != nil {
			return err
		}
		inst = d.b.Convert(typ, from, arg(0))
	case opConstruct:
		inst = d.b.Construct(typ, ops...)
	case opBuiltinCall:
		inst = d.b.BuiltinCall(typ, shader.BuiltinFn(rec.Kind), ops...)
	case opUserCall:
		if rec.Target == 0 || int(rec.Target) > len(d.funcs) {
			return fmt.Errorf("call to unknown function %d", rec.Target)
		}
		inst = d.b.UserCall(d.funcs[rec.Target-1], ops...)
	case opAccess:
		if len(ops) == 0 {
			return fmt.Errorf("access without an object")
		}
		inst = d.b.Access(typ, ops[0], ops[1:]...)
	case opDiscard:
		inst = d.b.Discard()
	case opUnreachable:
		inst = d.b.Unreachable()
	case opReturn:
		if d.fn == nil {
			return fmt.Errorf("return outside of a function")
		}
		inst = d.b.Return(d.fn, arg(0))
	case opIf, opLoop, opSwitch:
		return d.controlInst(blk, rec, arg(0))
	case opExitIf, opExitSwitch, opExitLoop, opContinue, opNextIteration, opBreakIf:
		inst, err = d.exit(rec, ops)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown opcode %d", rec.Op)
	}

	blk.Append(inst)
	results := inst.Results()
	if len(results) != len(rec.Results) {
		return fmt.Errorf("%T has %d results, encoded %d", inst, len(results), len(rec.Results))
	}
	for i, r := range results {
		d.define(r, rec.Results[i].Name)
	}
	return nil
}

func (d *decoder) exit(rec *instRecord, ops []ir.Value) (ir.Instruction, error) {
	c, err := d.control(rec.Control)
	if err != nil {
		return nil, err
	}
	switch x := c.(type) {
	case *ir.If:
		if rec.Op == opExitIf {
			return d.b.ExitIf(x, ops...), nil
		}
	case *ir.Switch:
		if rec.Op == opExitSwitch {
			return d.b.ExitSwitch(x, ops...), nil
		}
	case *ir.Loop:
		switch rec.Op {
		case opExitLoop:
			return d.b.ExitLoop(x, ops...), nil
		case opContinue:
			return d.b.Continue(x, ops...), nil
		case opNextIteration:
			return d.b.NextIteration(x, ops...), nil
		case opBreakIf:
			if len(ops) == 0 {
				return nil, fmt.Errorf("break_if without a condition")
			}
			return d.b.BreakIf(x, ops[0], ops[1:]...), nil
		}
	}
	return nil, fmt.Errorf("exit opcode %d does not match %T", rec.Op, c)
}

// controlInst appends the construct before filling its sub-blocks, so exits
// inside them find it registered.
func (d *decoder) controlInst(blk *ir.Block, rec *instRecord, cond ir.Value) error {
	var (
		ctrl   ir.ControlInstruction
		blocks []*ir.Block
	)
	switch rec.Op {
	case opIf:
		if len(rec.Blocks) != 3 || rec.Blocks[0] == nil || rec.Blocks[1] == nil {
			return fmt.Errorf("if needs true and false blocks")
		}
		i := d.b.If(cond)
		blocks = []*ir.Block{i.True(), i.False(), nil}
		if rec.Blocks[2] != nil {
			blocks[2] = i.EnsureMerge()
		}
		ctrl = i
	case opLoop:
		if len(rec.Blocks) != 4 || rec.Blocks[1] == nil {
			return fmt.Errorf("loop needs a body block")
		}
		var l *ir.Loop
		if rec.Blocks[0] != nil {
			l = d.b.LoopWithInitializer()
		} else {
			l = d.b.Loop()
		}
		blocks = []*ir.Block{l.Initializer(), l.Body(), l.Continuing(), l.Merge()}
		ctrl = l
	case opSwitch:
		if len(rec.Blocks) != 1 {
			return fmt.Errorf("switch needs a merge block")
		}
		s := d.b.Switch(cond)
		blocks = []*ir.Block{s.Merge()}
		ctrl = s
	}

	blk.Append(ctrl)
	d.controls = append(d.controls, ctrl)

	if s, ok := ctrl.(*ir.Switch); ok {
		for _, cr := range rec.Cases {
			sel := make([]ir.CaseSelector, len(cr.Selectors))
			for j, id := range cr.Selectors {
				if id == 0 {
					continue
				}
				c, err := d.constant(id)
				if err != nil {
					return err
				}
				sel[j] = ir.CaseSelector{Val: c}
			}
			if cr.Block == nil {
				return fmt.Errorf("switch case without a block")
			}
			if err := d.block(d.b.Case(s, sel), cr.Block); err != nil {
				return err
			}
		}
	}
	for i, br := range rec.Blocks {
		if br == nil {
			continue
		}
		if err := d.block(blocks[i], br); err != nil {
			return err
		}
	}
	return nil
}
