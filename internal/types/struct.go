package types

import (
	"fmt"

	"fortio.org/safecast"
)

// StructMember is one field of a struct.
type StructMember struct {
	Name string
	Type TypeID
}

// StructInfo describes a named struct.
type StructInfo struct {
	Name    string
	Members []StructMember
}

// RegisterStruct interns a new nominal struct type. Two calls with the same
// name produce distinct types.
func (in *Interner) RegisterStruct(name string, members []StructMember) TypeID {
	idx, err := safecast.Conv[uint32](len(in.structs))
	if err != nil {
		panic(fmt.Errorf("struct table overflow: %w", err))
	}
	in.structs = append(in.structs, StructInfo{
		Name:    name,
		Members: append([]StructMember(nil), members...),
	})
	return in.internRaw(Type{Kind: KindStruct, Payload: idx})
}

// StructInfo returns the struct description for id.
func (in *Interner) StructInfo(id TypeID) (*StructInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil, false
	}
	return &in.structs[tt.Payload], true
}
