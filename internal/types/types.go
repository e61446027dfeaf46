package types

import (
	"fmt"

	"shadeir/internal/shader"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindI32
	KindU32
	KindF32
	KindF16
	KindAbstractInt
	KindAbstractFloat
	KindVector
	KindMatrix
	KindArray
	KindStruct
	KindPointer
	KindReference
	KindAtomic
	KindSampler
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindF32:
		return "f32"
	case KindF16:
		return "f16"
	case KindAbstractInt:
		return "abstract-int"
	case KindAbstractFloat:
		return "abstract-float"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindPointer:
		return "pointer"
	case KindReference:
		return "reference"
	case KindAtomic:
		return "atomic"
	case KindSampler:
		return "sampler"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// RuntimeSized marks arrays with no fixed element count.
const RuntimeSized uint32 = 0

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32 // vector width, matrix columns or array length
	Rows    uint8  // matrix rows
	Space   shader.AddressSpace
	Access  shader.Access
	Payload uint32 // struct index
}

// IsScalar reports whether t is a scalar kind.
func (t Type) IsScalar() bool {
	switch t.Kind {
	case KindBool, KindI32, KindU32, KindF32, KindF16, KindAbstractInt, KindAbstractFloat:
		return true
	}
	return false
}

func (t Type) IsInteger() bool {
	return t.Kind == KindI32 || t.Kind == KindU32 || t.Kind == KindAbstractInt
}

func (t Type) IsFloat() bool {
	return t.Kind == KindF32 || t.Kind == KindF16 || t.Kind == KindAbstractFloat
}

// IsAbstract reports whether t is an abstract numeric that must be materialized.
func (t Type) IsAbstract() bool {
	return t.Kind == KindAbstractInt || t.Kind == KindAbstractFloat
}

// IsMemoryView reports whether t is a pointer or reference.
func (t Type) IsMemoryView() bool {
	return t.Kind == KindPointer || t.Kind == KindReference
}

func MakeVector(elem TypeID, width uint32) Type {
	return Type{Kind: KindVector, Elem: elem, Count: width}
}

// MakeMatrix describes matCxR<elem>.
func MakeMatrix(elem TypeID, cols uint32, rows uint8) Type {
	return Type{Kind: KindMatrix, Elem: elem, Count: cols, Rows: rows}
}

// MakeArray describes array<elem, count>. Use RuntimeSized for array<elem>.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

func MakePointer(space shader.AddressSpace, elem TypeID, access shader.Access) Type {
	return Type{Kind: KindPointer, Elem: elem, Space: space, Access: access}
}

// MakeReference describes the type of a memory-backed expression before a load.
func MakeReference(space shader.AddressSpace, elem TypeID, access shader.Access) Type {
	return Type{Kind: KindReference, Elem: elem, Space: space, Access: access}
}

func MakeAtomic(elem TypeID) Type {
	return Type{Kind: KindAtomic, Elem: elem}
}
