package constant

import (
	"fmt"
	"math"

	"shadeir/internal/types"
)

type scalarKey struct {
	typ  types.TypeID
	bits uint64
}

// Manager creates constant values and deduplicates scalars.
type Manager struct {
	Types   *types.Interner
	scalars map[scalarKey]*Scalar
}

func NewManager(in *types.Interner) *Manager {
	return &Manager{
		Types:   in,
		scalars: make(map[scalarKey]*Scalar, 32),
	}
}

func (m *Manager) scalar(typ types.TypeID, bits uint64) *Scalar {
	key := scalarKey{typ: typ, bits: bits}
	if s, ok := m.scalars[key]; ok {
		return s
	}
	s := &Scalar{typ: typ, kind: m.Types.Kind(typ), bits: bits}
	m.scalars[key] = s
	return s
}

func (m *Manager) Bool(v bool) *Scalar {
	var bits uint64
	if v {
		bits = 1
	}
	return m.scalar(m.Types.Builtins().Bool, bits)
}

func (m *Manager) I32(v int32) *Scalar {
	return m.scalar(m.Types.Builtins().I32, uint64(int64(v))) //nolint:gosec // two's complement payload
}

func (m *Manager) U32(v uint32) *Scalar {
	return m.scalar(m.Types.Builtins().U32, uint64(v))
}

func (m *Manager) F32(v float32) *Scalar {
	return m.scalar(m.Types.Builtins().F32, math.Float64bits(float64(v)))
}

// F16 stores v rounded through float32; half precision rounding is the
// front end's job.
func (m *Manager) F16(v float32) *Scalar {
	return m.scalar(m.Types.Builtins().F16, math.Float64bits(float64(v)))
}

func (m *Manager) AInt(v int64) *Scalar {
	return m.scalar(m.Types.Builtins().AbstractInt, uint64(v)) //nolint:gosec // two's complement payload
}

func (m *Manager) AFloat(v float64) *Scalar {
	return m.scalar(m.Types.Builtins().AbstractFloat, math.Float64bits(v))
}

// FromBits rebuilds a scalar of type typ from its raw payload.
func (m *Manager) FromBits(typ types.TypeID, bits uint64) (*Scalar, error) {
	tt, ok := m.Types.Lookup(typ)
	if !ok || !tt.IsScalar() {
		return nil, fmt.Errorf("constant: type %d is not a scalar", typ)
	}
	return m.scalar(typ, bits), nil
}

// Splat builds a composite of count copies of el.
func (m *Manager) Splat(typ types.TypeID, el Value, count int) *Splat {
	return &Splat{typ: typ, El: el, Count: count}
}

// Composite builds a composite from explicit elements. When every element is
// equal the result collapses to a Splat.
func (m *Manager) Composite(typ types.TypeID, elements []Value) Value {
	if len(elements) > 1 {
		same := true
		for _, el := range elements[1:] {
			if !el.Equal(elements[0]) {
				same = false
				break
			}
		}
		if same {
			return m.Splat(typ, elements[0], len(elements))
		}
	}
	return &Composite{typ: typ, Elements: append([]Value(nil), elements...)}
}

// Zero returns the zero value of a scalar, vector or matrix type.
func (m *Manager) Zero(typ types.TypeID) (Value, error) {
	tt, ok := m.Types.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("constant: invalid type %d", typ)
	}
	if tt.IsScalar() {
		return m.scalar(typ, 0), nil
	}
	switch tt.Kind {
	case types.KindVector, types.KindArray:
		el, err := m.Zero(tt.Elem)
		if err != nil {
			return nil, err
		}
		return m.Splat(typ, el, int(tt.Count)), nil
	case types.KindMatrix:
		col, err := m.Zero(m.Types.Vec(tt.Elem, uint32(tt.Rows)))
		if err != nil {
			return nil, err
		}
		return m.Splat(typ, col, int(tt.Count)), nil
	}
	return nil, fmt.Errorf("constant: no zero value for %s", m.Types.Name(typ))
}
