package shader

import "fmt"

// BuiltinValue is a pipeline I/O semantic bound with @builtin.
type BuiltinValue uint8

const (
	BuiltinNone BuiltinValue = iota
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinPosition
	BuiltinFrontFacing
	BuiltinFragDepth
	BuiltinLocalInvocationID
	BuiltinLocalInvocationIndex
	BuiltinGlobalInvocationID
	BuiltinWorkgroupID
	BuiltinNumWorkgroups
	BuiltinSampleIndex
	BuiltinSampleMask
)

var builtinValueNames = [...]string{
	BuiltinNone:                 "none",
	BuiltinVertexIndex:          "vertex_index",
	BuiltinInstanceIndex:        "instance_index",
	BuiltinPosition:             "position",
	BuiltinFrontFacing:          "front_facing",
	BuiltinFragDepth:            "frag_depth",
	BuiltinLocalInvocationID:    "local_invocation_id",
	BuiltinLocalInvocationIndex: "local_invocation_index",
	BuiltinGlobalInvocationID:   "global_invocation_id",
	BuiltinWorkgroupID:          "workgroup_id",
	BuiltinNumWorkgroups:        "num_workgroups",
	BuiltinSampleIndex:          "sample_index",
	BuiltinSampleMask:           "sample_mask",
}

func (b BuiltinValue) String() string {
	if int(b) < len(builtinValueNames) {
		return builtinValueNames[b]
	}
	return fmt.Sprintf("BuiltinValue(%d)", b)
}

// ValidForReturn reports whether b may decorate a function return value.
func (b BuiltinValue) ValidForReturn() bool {
	switch b {
	case BuiltinPosition, BuiltinFragDepth, BuiltinSampleMask:
		return true
	}
	return false
}

// InterpolationType is the @interpolate type of a user-defined I/O value.
type InterpolationType uint8

const (
	InterpolationPerspective InterpolationType = iota
	InterpolationLinear
	InterpolationFlat
)

func (t InterpolationType) String() string {
	switch t {
	case InterpolationPerspective:
		return "perspective"
	case InterpolationLinear:
		return "linear"
	case InterpolationFlat:
		return "flat"
	}
	return fmt.Sprintf("InterpolationType(%d)", t)
}

// InterpolationSampling is the optional sampling qualifier of @interpolate.
type InterpolationSampling uint8

const (
	SamplingUndefined InterpolationSampling = iota
	SamplingCenter
	SamplingCentroid
	SamplingSample
)

func (s InterpolationSampling) String() string {
	switch s {
	case SamplingUndefined:
		return ""
	case SamplingCenter:
		return "center"
	case SamplingCentroid:
		return "centroid"
	case SamplingSample:
		return "sample"
	}
	return fmt.Sprintf("InterpolationSampling(%d)", s)
}

// Interpolation pairs a type with its sampling.
type Interpolation struct {
	Type     InterpolationType
	Sampling InterpolationSampling
}

func (i Interpolation) String() string {
	if i.Sampling == SamplingUndefined {
		return fmt.Sprintf("@interpolate(%s)", i.Type)
	}
	return fmt.Sprintf("@interpolate(%s, %s)", i.Type, i.Sampling)
}
