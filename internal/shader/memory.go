package shader

import "fmt"

// AddressSpace is the memory space of a variable or pointer.
type AddressSpace uint8

const (
	SpaceFunction AddressSpace = iota
	SpacePrivate
	SpaceWorkgroup
	SpaceUniform
	SpaceStorage
	SpacePushConstant
	SpaceHandle
)

func (s AddressSpace) String() string {
	switch s {
	case SpaceFunction:
		return "function"
	case SpacePrivate:
		return "private"
	case SpaceWorkgroup:
		return "workgroup"
	case SpaceUniform:
		return "uniform"
	case SpaceStorage:
		return "storage"
	case SpacePushConstant:
		return "push_constant"
	case SpaceHandle:
		return "handle"
	}
	return fmt.Sprintf("AddressSpace(%d)", s)
}

// IsModuleScope reports whether variables in s are declared at module scope.
func (s AddressSpace) IsModuleScope() bool {
	return s != SpaceFunction
}

// Access is the access mode of a pointer or storage variable.
type Access uint8

const (
	AccessReadWrite Access = iota
	AccessRead
	AccessWrite
)

func (a Access) String() string {
	switch a {
	case AccessReadWrite:
		return "read_write"
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	}
	return fmt.Sprintf("Access(%d)", a)
}

// DefaultAccess returns the implicit access mode for variables in space.
func DefaultAccess(space AddressSpace) Access {
	switch space {
	case SpaceUniform, SpaceHandle:
		return AccessRead
	}
	return AccessReadWrite
}
