package types

import (
	"fmt"

	"fortio.org/safecast"

	"shadeir/internal/shader"
)

// Builtins stores TypeIDs for the scalar and void types.
type Builtins struct {
	Invalid       TypeID
	Void          TypeID
	Bool          TypeID
	I32           TypeID
	U32           TypeID
	F32           TypeID
	F16           TypeID
	AbstractInt   TypeID
	AbstractFloat TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
	structs  []StructInfo
}

// NewInterner constructs an interner seeded with built-in scalars.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[Type]TypeID, 64),
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.I32 = in.Intern(Type{Kind: KindI32})
	in.builtins.U32 = in.Intern(Type{Kind: KindU32})
	in.builtins.F32 = in.Intern(Type{Kind: KindF32})
	in.builtins.F16 = in.Intern(Type{Kind: KindF16})
	in.builtins.AbstractInt = in.Intern(Type{Kind: KindAbstractInt})
	in.builtins.AbstractFloat = in.Intern(Type{Kind: KindAbstractFloat})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if t.Kind == KindStruct {
		// Structs are nominal; only RegisterStruct creates them.
		if id, ok := in.index[t]; ok {
			return id
		}
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len returns the number of interned types, including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

// Vec is shorthand for interning vecN<elem>.
func (in *Interner) Vec(elem TypeID, width uint32) TypeID {
	return in.Intern(MakeVector(elem, width))
}

// Ptr is shorthand for interning ptr<space, elem, access>.
func (in *Interner) Ptr(space shader.AddressSpace, elem TypeID, access shader.Access) TypeID {
	return in.Intern(MakePointer(space, elem, access))
}

// Ref is shorthand for interning ref<space, elem, access>.
func (in *Interner) Ref(space shader.AddressSpace, elem TypeID, access shader.Access) TypeID {
	return in.Intern(MakeReference(space, elem, access))
}

// Kind returns the kind of id, or KindInvalid.
func (in *Interner) Kind(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

// Elem returns the element type of vectors, matrices, arrays, pointers,
// references and atomics.
func (in *Interner) Elem(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoTypeID
	}
	return tt.Elem
}

// UnwrapRef returns the store type of a reference, or id itself.
func (in *Interner) UnwrapRef(id TypeID) TypeID {
	if tt, ok := in.Lookup(id); ok && tt.Kind == KindReference {
		return tt.Elem
	}
	return id
}

// DeepestElement returns the scalar at the bottom of a vector or matrix.
func (in *Interner) DeepestElement(id TypeID) TypeID {
	for {
		tt, ok := in.Lookup(id)
		if !ok {
			return NoTypeID
		}
		switch tt.Kind {
		case KindVector, KindMatrix, KindArray, KindAtomic:
			id = tt.Elem
		default:
			return id
		}
	}
}
