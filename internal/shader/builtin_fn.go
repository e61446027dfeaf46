package shader

import "fmt"

// BuiltinFn identifies a builtin function callable from shader code.
type BuiltinFn uint8

const (
	FnNone BuiltinFn = iota
	FnAbs
	FnAll
	FnAny
	FnArrayLength
	FnCeil
	FnClamp
	FnCos
	FnCross
	FnDistance
	FnDot
	FnExp
	FnFloor
	FnFract
	FnLength
	FnLog
	FnMax
	FnMin
	FnMix
	FnNormalize
	FnPow
	FnSelect
	FnSin
	FnSqrt
	FnStep
	FnTan
	FnStorageBarrier
	FnWorkgroupBarrier
)

var builtinFnNames = [...]string{
	FnNone:             "<none>",
	FnAbs:              "abs",
	FnAll:              "all",
	FnAny:              "any",
	FnArrayLength:      "arrayLength",
	FnCeil:             "ceil",
	FnClamp:            "clamp",
	FnCos:              "cos",
	FnCross:            "cross",
	FnDistance:         "distance",
	FnDot:              "dot",
	FnExp:              "exp",
	FnFloor:            "floor",
	FnFract:            "fract",
	FnLength:           "length",
	FnLog:              "log",
	FnMax:              "max",
	FnMin:              "min",
	FnMix:              "mix",
	FnNormalize:        "normalize",
	FnPow:              "pow",
	FnSelect:           "select",
	FnSin:              "sin",
	FnSqrt:             "sqrt",
	FnStep:             "step",
	FnTan:              "tan",
	FnStorageBarrier:   "storageBarrier",
	FnWorkgroupBarrier: "workgroupBarrier",
}

func (f BuiltinFn) String() string {
	if int(f) < len(builtinFnNames) {
		return builtinFnNames[f]
	}
	return fmt.Sprintf("BuiltinFn(%d)", f)
}

// ParseBuiltinFn looks a builtin up by its source name.
func ParseBuiltinFn(name string) (BuiltinFn, bool) {
	for i, n := range builtinFnNames {
		if i != int(FnNone) && n == name {
			return BuiltinFn(i), true
		}
	}
	return FnNone, false
}
