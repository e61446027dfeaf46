// Package binary is the msgpack wire format of IR modules.
//
// A module is written as one document: the type table, the constant table,
// the root block, the function headers and then the function bodies.
// Instructions refer to values by id in definition order, so a decoder can
// rebuild the graph in a single walk.
package binary

import (
	"shadeir/internal/ir"
	"shadeir/internal/shader"
)

const magic = "shadeir"

type opcode uint8

const (
	opVar opcode = iota + 1
	opLoad
	opStore
	opBinary
	opUnary
	opBitcast
	opConvert
	opConstruct
	opBuiltinCall
	opUserCall
	opAccess
	opDiscard
	opUnreachable
	opReturn
	opIf
	opLoop
	opSwitch
	opExitIf
	opExitSwitch
	opExitLoop
	opContinue
	opNextIteration
	opBreakIf
)

type constKind uint8

const (
	constScalar constKind = iota + 1
	constSplat
	constComposite
)

type document struct {
	Magic     string           `msgpack:"magic"`
	Version   uint16           `msgpack:"version"`
	Types     []typeRecord     `msgpack:"types"`
	Consts    []constRecord    `msgpack:"consts,omitempty"`
	Root      *blockRecord     `msgpack:"root,omitempty"`
	Functions []functionRecord `msgpack:"funcs,omitempty"`
}

type typeRecord struct {
	Kind   uint8         `msgpack:"k"`
	Elem   uint32        `msgpack:"e,omitempty"`
	Count  uint32        `msgpack:"n,omitempty"`
	Rows   uint8         `msgpack:"r,omitempty"`
	Space  uint8         `msgpack:"s,omitempty"`
	Access uint8         `msgpack:"a,omitempty"`
	Struct *structRecord `msgpack:"st,omitempty"`
}

type structRecord struct {
	Name    string         `msgpack:"name"`
	Members []memberRecord `msgpack:"members,omitempty"`
}

type memberRecord struct {
	Name string `msgpack:"name"`
	Type uint32 `msgpack:"type"`
}

// constRecord elements refer to earlier records, 1-based.
type constRecord struct {
	Kind  constKind `msgpack:"k"`
	Type  uint32    `msgpack:"t"`
	Bits  uint64    `msgpack:"v,omitempty"`
	Count uint32    `msgpack:"n,omitempty"`
	Elems []uint32  `msgpack:"e,omitempty"`
}

type valueRecord struct {
	Type uint32 `msgpack:"t"`
	Name string `msgpack:"name,omitempty"`
}

type attrRecord struct {
	Builtin   uint8          `msgpack:"builtin,omitempty"`
	Location  *uint32        `msgpack:"loc,omitempty"`
	Interp    *interpRecord  `msgpack:"interp,omitempty"`
	Invariant bool           `msgpack:"inv,omitempty"`
	Binding   *bindingRecord `msgpack:"bp,omitempty"`
}

type interpRecord struct {
	Type     uint8 `msgpack:"t"`
	Sampling uint8 `msgpack:"s,omitempty"`
}

type bindingRecord struct {
	Group   uint32 `msgpack:"g"`
	Binding uint32 `msgpack:"b"`
}

type paramRecord struct {
	Type  uint32      `msgpack:"t"`
	Name  string      `msgpack:"name,omitempty"`
	Attrs *attrRecord `msgpack:"attrs,omitempty"`
}

type functionRecord struct {
	Name          string        `msgpack:"name,omitempty"`
	Stage         uint8         `msgpack:"stage,omitempty"`
	WorkgroupSize []uint32      `msgpack:"wgs,omitempty"`
	ReturnType    uint32        `msgpack:"ret"`
	ReturnAttrs   *attrRecord   `msgpack:"ret_attrs,omitempty"`
	Params        []paramRecord `msgpack:"params,omitempty"`
	Body          *blockRecord  `msgpack:"body"`
}

type blockRecord struct {
	Params []valueRecord `msgpack:"params,omitempty"`
	Insts  []instRecord  `msgpack:"insts,omitempty"`
}

// instRecord is one instruction. Operands are value references: 0 is nil,
// odd values are constants (id<<1|1), even values are defined values (id<<1).
type instRecord struct {
	Op       opcode         `msgpack:"op"`
	Operands []uint32       `msgpack:"ops,omitempty"`
	Results  []valueRecord  `msgpack:"res,omitempty"`
	Kind     uint8          `msgpack:"k,omitempty"`
	Type     uint32         `msgpack:"t,omitempty"`
	Target   uint32         `msgpack:"fn,omitempty"`
	Control  uint32         `msgpack:"ctl,omitempty"`
	Binding  *bindingRecord `msgpack:"bp,omitempty"`
	Blocks   []*blockRecord `msgpack:"blocks,omitempty"`
	Cases    []caseRecord   `msgpack:"cases,omitempty"`
}

// caseRecord selectors are constant ids; 0 is default.
type caseRecord struct {
	Selectors []uint32     `msgpack:"sel"`
	Block     *blockRecord `msgpack:"block"`
}

func encodeAttrs(a ir.IOAttributes) *attrRecord {
	if a.IsEmpty() && a.Interpolation == nil {
		return nil
	}
	rec := &attrRecord{
		Builtin:   uint8(a.Builtin),
		Location:  a.Location,
		Invariant: a.Invariant,
	}
	if a.Interpolation != nil {
		rec.Interp = &interpRecord{Type: uint8(a.Interpolation.Type), Sampling: uint8(a.Interpolation.Sampling)}
	}
	rec.Binding = encodeBinding(a.BindingPoint)
	return rec
}

func decodeAttrs(rec *attrRecord) ir.IOAttributes {
	if rec == nil {
		return ir.IOAttributes{}
	}
	a := ir.IOAttributes{
		Builtin:      shader.BuiltinValue(rec.Builtin),
		Location:     rec.Location,
		Invariant:    rec.Invariant,
		BindingPoint: decodeBinding(rec.Binding),
	}
	if rec.Interp != nil {
		a.Interpolation = &shader.Interpolation{
			Type:     shader.InterpolationType(rec.Interp.Type),
			Sampling: shader.InterpolationSampling(rec.Interp.Sampling),
		}
	}
	return a
}

func encodeBinding(bp *shader.BindingPoint) *bindingRecord {
	if bp == nil {
		return nil
	}
	return &bindingRecord{Group: bp.Group, Binding: bp.Binding}
}

func decodeBinding(rec *bindingRecord) *shader.BindingPoint {
	if rec == nil {
		return nil
	}
	return &shader.BindingPoint{Group: rec.Group, Binding: rec.Binding}
}
