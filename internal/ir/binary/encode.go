package binary

import (
	"bytes"
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"shadeir/internal/constant"
	"shadeir/internal/ir"
	"shadeir/internal/types"
	"shadeir/internal/version"
)

// Encode writes m to w.
func Encode(w io.Writer, m *ir.Module) error {
	doc, err := newEncoder(m).document()
	if err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(doc)
}

// Marshal returns the encoding of m.
func Marshal(m *ir.Module) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type encoder struct {
	mod      *ir.Module
	doc      document
	values   map[ir.Value]uint32
	consts   map[constant.Value]uint32
	funcs    map[*ir.Function]uint32
	controls map[ir.ControlInstruction]uint32
}

func newEncoder(m *ir.Module) *encoder {
	return &encoder{
		mod:      m,
		values:   make(map[ir.Value]uint32),
		consts:   make(map[constant.Value]uint32),
		funcs:    make(map[*ir.Function]uint32),
		controls: make(map[ir.ControlInstruction]uint32),
	}
}

func (e *encoder) document() (*document, error) {
	e.doc.Magic = magic
	e.doc.Version = version.FormatVersion

	if err := e.types(); err != nil {
		return nil, err
	}
	if e.mod.HasRootBlock() {
		root, err := e.block(e.mod.RootBlock())
		if err != nil {
			return nil, fmt.Errorf("binary: root block: %w", err)
		}
		e.doc.Root = root
	}

	fns := e.mod.Functions()
	e.doc.Functions = make([]functionRecord, len(fns))
	for i, fn := range fns {
		id, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			return nil, fmt.Errorf("binary: function table: %w", err)
		}
		e.funcs[fn] = id
		if err := e.header(&e.doc.Functions[i], fn); err != nil {
			return nil, err
		}
	}
	for i, fn := range fns {
		body, err := e.block(fn.StartBlock())
		if err != nil {
			return nil, fmt.Errorf("binary: function %q: %w", e.mod.NameOf(fn), err)
		}
		e.doc.Functions[i].Body = body
	}
	return &e.doc, nil
}

func (e *encoder) types() error {
	in := e.mod.Types
	for id := types.TypeID(1); int(id) < in.Len(); id++ {
		tt := in.MustLookup(id)
		rec := typeRecord{
			Kind:   uint8(tt.Kind),
			Elem:   uint32(tt.Elem),
			Count:  tt.Count,
			Rows:   tt.Rows,
			Space:  uint8(tt.Space),
			Access: uint8(tt.Access),
		}
		if tt.Kind == types.KindStruct {
			info, ok := in.StructInfo(id)
			if !ok {
				return fmt.Errorf("binary: struct type %d has no description", id)
			}
			st := &structRecord{Name: info.Name, Members: make([]memberRecord, len(info.Members))}
			for i, m := range info.Members {
				st.Members[i] = memberRecord{Name: m.Name, Type: uint32(m.Type)}
			}
			rec.Struct = st
		}
		e.doc.Types = append(e.doc.Types, rec)
	}
	return nil
}

func (e *encoder) header(rec *functionRecord, fn *ir.Function) error {
	rec.Name = e.mod.NameOf(fn)
	rec.Stage = uint8(fn.Stage)
	rec.ReturnType = uint32(fn.ReturnType)
	rec.ReturnAttrs = encodeAttrs(fn.ReturnAttrs)
	if wgs := fn.WorkgroupSize; wgs != nil {
		rec.WorkgroupSize = []uint32{wgs[0], wgs[1], wgs[2]}
	}
	for _, p := range fn.Params() {
		if _, err := e.define(p); err != nil {
			return err
		}
		rec.Params = append(rec.Params, paramRecord{
			Type:  uint32(p.Type()),
			Name:  e.mod.NameOf(p),
			Attrs: encodeAttrs(p.Attrs),
		})
	}
	return nil
}

// define assigns the next value id to v.
func (e *encoder) define(v ir.Value) (valueRecord, error) {
	id, err := safecast.Conv[uint32](len(e.values) + 1)
	if err != nil || id > 1<<31-1 {
		return valueRecord{}, fmt.Errorf("binary: too many values")
	}
	e.values[v] = id
	return valueRecord{Type: uint32(v.Type()), Name: e.mod.NameOf(v)}, nil
}

func (e *encoder) ref(v ir.Value) (uint32, error) {
	if v == nil {
		return 0, nil
	}
	if c, ok := v.(*ir.Constant); ok {
		id, err := e.constant(c.Value)
		if err != nil {
			return 0, err
		}
		return id<<1 | 1, nil
	}
	id, ok := e.values[v]
	if !ok {
		return 0, fmt.Errorf("binary: %T operand used before its definition", v)
	}
	return id << 1, nil
}

func (e *encoder) constant(v constant.Value) (uint32, error) {
	if id, ok := e.consts[v]; ok {
		return id, nil
	}
	rec := constRecord{Type: uint32(v.Type())}
	switch c := v.(type) {
	case *constant.Scalar:
		rec.Kind = constScalar
		rec.Bits = c.Bits()
	case *constant.Splat:
		el, err := e.constant(c.El)
		if err != nil {
			return 0, err
		}
		count, err := safecast.Conv[uint32](c.Count)
		if err != nil {
			return 0, fmt.Errorf("binary: splat count: %w", err)
		}
		rec.Kind, rec.Count, rec.Elems = constSplat, count, []uint32{el}
	case *constant.Composite:
		rec.Kind = constComposite
		for _, x := range c.Elements {
			el, err := e.constant(x)
			if err != nil {
				return 0, err
			}
			rec.Elems = append(rec.Elems, el)
		}
	default:
		return 0, fmt.Errorf("binary: unhandled constant %T", v)
	}
	e.doc.Consts = append(e.doc.Consts, rec)
	id, err := safecast.Conv[uint32](len(e.doc.Consts))
	if err != nil || id > 1<<31-1 {
		return 0, fmt.Errorf("binary: too many constants")
	}
	e.consts[v] = id
	return id, nil
}

func (e *encoder) block(b *ir.Block) (*blockRecord, error) {
	if b == nil {
		return nil, nil
	}
	rec := &blockRecord{}
	for _, p := range b.Params() {
		vr, err := e.define(p)
		if err != nil {
			return nil, err
		}
		rec.Params = append(rec.Params, vr)
	}
	for inst := range b.Instructions() {
		ins, err := e.instruction(inst)
		if err != nil {
			return nil, err
		}
		rec.Insts = append(rec.Insts, ins)
	}
	return rec, nil
}

func (e *encoder) instruction(inst ir.Instruction) (instRecord, error) {
	var rec instRecord
	for _, op := range inst.Operands() {
		ref, err := e.ref(op)
		if err != nil {
			return rec, err
		}
		rec.Operands = append(rec.Operands, ref)
	}
	for _, r := range inst.Results() {
		vr, err := e.define(r)
		if err != nil {
			return rec, err
		}
		rec.Results = append(rec.Results, vr)
	}

	var err error
	switch x := inst.(type) {
	case *ir.Var:
		rec.Op = opVar
		rec.Binding = encodeBinding(x.BindingPoint)
	case *ir.Load:
		rec.Op = opLoad
	case *ir.Store:
		rec.Op = opStore
	case *ir.Binary:
		rec.Op, rec.Kind = opBinary, uint8(x.Kind)
	case *ir.Unary:
		rec.Op, rec.Kind = opUnary, uint8(x.Kind)
	case *ir.Bitcast:
		rec.Op = opBitcast
	case *ir.Convert:
		rec.Op, rec.Type = opConvert, uint32(x.FromType)
	case *ir.Construct:
		rec.Op = opConstruct
	case *ir.BuiltinCall:
		rec.Op, rec.Kind = opBuiltinCall, uint8(x.Func)
	case *ir.UserCall:
		id, ok := e.funcs[x.Target]
		if !ok {
			return rec, fmt.Errorf("binary: call to a function outside the module")
		}
		rec.Op, rec.Target = opUserCall, id
	case *ir.Access:
		rec.Op = opAccess
	case *ir.Discard:
		rec.Op = opDiscard
	case *ir.Unreachable:
		rec.Op = opUnreachable
	case *ir.Return:
		rec.Op = opReturn
	case *ir.If:
		rec.Op = opIf
		err = e.control(&rec, x)
	case *ir.Loop:
		rec.Op = opLoop
		err = e.control(&rec, x)
	case *ir.Switch:
		rec.Op = opSwitch
		if err = e.cases(&rec, x); err == nil {
			err = e.control(&rec, x)
		}
	case *ir.ExitIf:
		err = e.exit(&rec, opExitIf, x)
	case *ir.ExitSwitch:
		err = e.exit(&rec, opExitSwitch, x)
	case *ir.ExitLoop:
		err = e.exit(&rec, opExitLoop, x)
	case *ir.Continue:
		err = e.exit(&rec, opContinue, x)
	case *ir.NextIteration:
		err = e.exit(&rec, opNextIteration, x)
	case *ir.BreakIf:
		err = e.exit(&rec, opBreakIf, x)
	default:
		err = fmt.Errorf("binary: unhandled instruction %T", inst)
	}
	return rec, err
}

// control records the sub-blocks of c. If and Loop keep fixed slots with nil
// for absent blocks; a switch stores its cases separately and only the merge
// here.
func (e *encoder) control(rec *instRecord, c ir.ControlInstruction) error {
	id, err := safecast.Conv[uint32](len(e.controls) + 1)
	if err != nil {
		return fmt.Errorf("binary: control table: %w", err)
	}
	e.controls[c] = id

	var blocks []*ir.Block
	switch x := c.(type) {
	case *ir.If:
		blocks = []*ir.Block{x.True(), x.False(), x.Merge()}
	case *ir.Loop:
		blocks = []*ir.Block{x.Initializer(), x.Body(), x.Continuing(), x.Merge()}
	case *ir.Switch:
		for i, cs := range x.Cases() {
			blk, err := e.block(cs.Block)
			if err != nil {
				return err
			}
			rec.Cases[i].Block = blk
		}
		blocks = []*ir.Block{x.Merge()}
	}
	for _, b := range blocks {
		blk, err := e.block(b)
		if err != nil {
			return err
		}
		rec.Blocks = append(rec.Blocks, blk)
	}
	return nil
}

func (e *encoder) cases(rec *instRecord, s *ir.Switch) error {
	rec.Cases = make([]caseRecord, len(s.Cases()))
	for i, cs := range s.Cases() {
		sel := make([]uint32, len(cs.Selectors))
		for j, s := range cs.Selectors {
			if s.IsDefault() {
				continue
			}
			id, err := e.constant(s.Val.Value)
			if err != nil {
				return err
			}
			sel[j] = id
		}
		rec.Cases[i].Selectors = sel
	}
	return nil
}

func (e *encoder) exit(rec *instRecord, op opcode, x ir.Exit) error {
	rec.Op = op
	id, ok := e.controls[x.Control()]
	if !ok {
		return fmt.Errorf("binary: %T outside of its construct", x)
	}
	rec.Control = id
	return nil
}
