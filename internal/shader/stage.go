// Package shader holds the shading-language enumerations shared by the AST
// and the IR: pipeline stages, builtin values, interpolation, address spaces,
// access modes and builtin functions.
package shader

import "fmt"

// PipelineStage tags a function as an entry point of a pipeline stage.
type PipelineStage uint8

const (
	StageNone PipelineStage = iota
	StageVertex
	StageFragment
	StageCompute
)

func (s PipelineStage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	}
	return fmt.Sprintf("PipelineStage(%d)", s)
}

// IsEntryPoint reports whether functions of this stage are listed as entry points.
func (s PipelineStage) IsEntryPoint() bool {
	return s != StageNone
}

// WorkgroupSize is the fixed @workgroup_size of a compute entry point.
type WorkgroupSize [3]uint32

// BindingPoint is a resource @group/@binding pair.
type BindingPoint struct {
	Group   uint32
	Binding uint32
}

func (b BindingPoint) String() string {
	return fmt.Sprintf("@binding_point(%d, %d)", b.Group, b.Binding)
}
