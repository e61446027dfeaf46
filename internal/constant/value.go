// Package constant models folded constant values. Values are immutable and
// deduplicated by a Manager; the IR refers to them through ir.Constant.
package constant

import (
	"math"

	"shadeir/internal/types"
)

// Value is a folded constant.
type Value interface {
	Type() types.TypeID
	// AllZero reports whether every element is a positive zero.
	AllZero() bool
	// AnyZero reports whether at least one element is a positive zero.
	AnyZero() bool
	Equal(other Value) bool
	isValue()
}

// Scalar is a bool, integer or float constant. Its bits are interpreted by Kind.
type Scalar struct {
	typ  types.TypeID
	kind types.Kind
	bits uint64
}

func (s *Scalar) isValue() {}

func (s *Scalar) Type() types.TypeID { return s.typ }
func (s *Scalar) Kind() types.Kind   { return s.kind }

// Bits returns the raw payload: 0/1 for bool, two's complement for integers,
// IEEE-754 float64 bits for floats.
func (s *Scalar) Bits() uint64 { return s.bits }

func (s *Scalar) Bool() bool { return s.bits != 0 }

func (s *Scalar) Int() int64 { return int64(s.bits) } //nolint:gosec // payload round-trips through uint64

func (s *Scalar) Uint() uint64 { return s.bits }

func (s *Scalar) Float() float64 { return math.Float64frombits(s.bits) }

func (s *Scalar) AllZero() bool { return s.bits == 0 }
func (s *Scalar) AnyZero() bool { return s.bits == 0 }

func (s *Scalar) Equal(other Value) bool {
	o, ok := other.(*Scalar)
	return ok && o.typ == s.typ && o.bits == s.bits
}

// Splat is a composite whose elements all equal El.
type Splat struct {
	typ   types.TypeID
	El    Value
	Count int
}

func (s *Splat) isValue() {}

func (s *Splat) Type() types.TypeID { return s.typ }
func (s *Splat) AllZero() bool      { return s.El.AllZero() }
func (s *Splat) AnyZero() bool      { return s.El.AnyZero() }

func (s *Splat) Equal(other Value) bool {
	switch o := other.(type) {
	case *Splat:
		return o.typ == s.typ && o.Count == s.Count && o.El.Equal(s.El)
	case *Composite:
		return o.Equal(s)
	}
	return false
}

// Composite is a vector, matrix, array or struct constant with explicit elements.
type Composite struct {
	typ      types.TypeID
	Elements []Value
}

func (c *Composite) isValue() {}

func (c *Composite) Type() types.TypeID { return c.typ }

func (c *Composite) AllZero() bool {
	for _, el := range c.Elements {
		if !el.AllZero() {
			return false
		}
	}
	return true
}

func (c *Composite) AnyZero() bool {
	for _, el := range c.Elements {
		if el.AnyZero() {
			return true
		}
	}
	return false
}

func (c *Composite) Equal(other Value) bool {
	if other.Type() != c.typ {
		return false
	}
	switch o := other.(type) {
	case *Composite:
		if len(o.Elements) != len(c.Elements) {
			return false
		}
		for i := range c.Elements {
			if !c.Elements[i].Equal(o.Elements[i]) {
				return false
			}
		}
		return true
	case *Splat:
		if o.Count != len(c.Elements) {
			return false
		}
		for _, el := range c.Elements {
			if !el.Equal(o.El) {
				return false
			}
		}
		return true
	}
	return false
}

// Index returns element i of a composite value, or nil for scalars.
func Index(v Value, i int) Value {
	switch vv := v.(type) {
	case *Splat:
		if i >= 0 && i < vv.Count {
			return vv.El
		}
	case *Composite:
		if i >= 0 && i < len(vv.Elements) {
			return vv.Elements[i]
		}
	}
	return nil
}
