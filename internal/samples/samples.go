// Package samples holds small resolved programs. The CLI lowers them with the
// example command and the tests use them as round-trip fixtures.
package samples

import (
	"slices"

	"shadeir/internal/ast"
	"shadeir/internal/constant"
	"shadeir/internal/shader"
	"shadeir/internal/types"
)

// Sample is a named program constructor. Build returns a fresh program on
// every call.
type Sample struct {
	Name    string
	Summary string
	Build   func() *ast.Program
}

var all = []Sample{
	{Name: "triangle", Summary: "vertex and fragment entry points with I/O attributes", Build: Triangle},
	{Name: "compute", Summary: "workgroup storage, for loop, switch and a barrier", Build: Compute},
	{Name: "logic", Summary: "short-circuit operators, while and break if", Build: Logic},
	{Name: "constants", Summary: "composite constants, structs and conversions", Build: Constants},
}

// All lists the samples in a stable order.
func All() []Sample { return slices.Clone(all) }

// Lookup finds a sample by name.
func Lookup(name string) (Sample, bool) {
	for _, s := range all {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}

// Names returns the sample names.
func Names() []string {
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.Name
	}
	return out
}

// Triangle places a vertex from a uniform scale and shades it flat.
func Triangle() *ast.Program {
	ab := ast.NewBuilder()
	vec4 := ab.Vec(ab.F32(), 4)

	scale := ab.GlobalVar("scale", shader.SpaceUniform, ab.F32(), nil, &shader.BindingPoint{Group: 0, Binding: 0})

	idx := ab.Param("idx", ab.U32(), ast.BuiltinAttr(shader.BuiltinVertexIndex))
	pos := ab.Var("pos", 0, ab.Construct(vec4, ab.Float(0), ab.Float(0), ab.Float(0), ab.Float(1)))
	ab.Func("vs", []*ast.Param{idx}, vec4, ab.Block(
		ab.Decl(pos),
		ab.If(ab.Binary(ast.OpEqual, ab.Use(idx), ab.Uint(0)),
			ab.Block(ab.Assign(ab.Member(ab.Ref(pos), 0), ab.Unary(ast.OpNegation, ab.Use(scale)))),
			ab.If(ab.Binary(ast.OpEqual, ab.Use(idx), ab.Uint(1)),
				ab.Block(ab.Assign(ab.Member(ab.Ref(pos), 0), ab.Use(scale))),
				ab.Block(ab.Assign(ab.Member(ab.Ref(pos), 1), ab.Use(scale))),
			),
		),
		ab.Return(ab.Use(pos)),
	), ast.Stage(shader.StageVertex), ast.ReturnAttrs(ast.BuiltinAttr(shader.BuiltinPosition)))

	color := ab.Param("color", vec4, ast.LocationAttr(0, &shader.Interpolation{Type: shader.InterpolationFlat}))
	ab.Func("fs", []*ast.Param{color}, vec4, ab.Block(
		ab.If(ab.Lt(ab.Member(ab.Use(color), 3), ab.Float(0.5)), ab.Block(ab.Discard()), nil),
		ab.Return(ab.Use(color)),
	), ast.Stage(shader.StageFragment), ast.ReturnAttrs(ast.LocationAttr(0, nil)))

	return ab.Program()
}

// Compute scatters into a workgroup array and synchronises.
func Compute() *ast.Program {
	ab := ast.NewBuilder()
	arr := ab.Types.Intern(types.MakeArray(ab.U32(), 64))
	tile := ab.GlobalVar("tile", shader.SpaceWorkgroup, arr, nil, nil)

	li := ab.Param("li", ab.U32(), ast.BuiltinAttr(shader.BuiltinLocalInvocationIndex))
	h := ab.Let("h", ab.Binary(ast.OpXor,
		ab.Binary(ast.OpShiftLeft, ab.Use(li), ab.Uint(1)),
		ab.Unary(ast.OpComplement, ab.Use(li))))
	i := ab.Var("i", ab.U32(), ab.Uint(0))

	ab.Func("main", []*ast.Param{li}, 0, ab.Block(
		ab.Decl(h),
		ab.Assign(ab.Index(ab.Ref(tile), ab.Binary(ast.OpMod, ab.Use(h), ab.Uint(64))), ab.Use(h)),
		ab.For(ab.Decl(i), ab.Lt(ab.Ref(i), ab.Uint(4)), ab.Inc(ab.Ref(i)), ab.Block(
			ab.Switch(ab.Use(i),
				ab.Case(ab.Block(ab.CompoundAssign(ab.Index(ab.Ref(tile), ab.Use(li)), ast.OpAdd, ab.Use(i))), ab.Uint(0), ab.Uint(1)),
				ab.Case(ab.Block(ab.Break()), ab.Uint(3)),
				ab.DefaultCase(ab.Block(ab.Continue())),
			),
		)),
		ab.CallStmt(ab.CallBuiltin(shader.FnWorkgroupBarrier, 0)),
	), ast.Stage(shader.StageCompute), ast.WorkgroupSize(64, 1, 1))

	return ab.Program()
}

// Logic counts values in a range with a helper predicate.
func Logic() *ast.Program {
	ab := ast.NewBuilder()

	x := ab.Param("x", ab.I32())
	lo := ab.Param("lo", ab.I32())
	hi := ab.Param("hi", ab.I32())
	inRange := ab.Func("in_range", []*ast.Param{x, lo, hi}, ab.Bool(), ab.Block(
		ab.Return(ab.Or(
			ab.And(ab.Binary(ast.OpLessThanEqual, ab.Use(lo), ab.Use(x)), ab.Lt(ab.Use(x), ab.Use(hi))),
			ab.Binary(ast.OpEqual, ab.Use(x), ab.Int(0)),
		)),
	))

	n := ab.Param("n", ab.I32())
	total := ab.Var("total", ab.I32(), ab.Int(0))
	k := ab.Var("k", ab.I32(), ab.Int(0))
	ab.Func("count", []*ast.Param{n}, ab.I32(), ab.Block(
		ab.Decl(total),
		ab.Decl(k),
		ab.While(ab.Lt(ab.Ref(k), ab.Use(n)), ab.Block(
			ab.If(ab.Call(inRange, ab.Use(k), ab.Int(2), ab.Int(8)),
				ab.Block(ab.CompoundAssign(ab.Ref(total), ast.OpAdd, ab.Use(k))), nil),
			ab.Inc(ab.Ref(k)),
		)),
		ab.Loop(
			ab.Block(ab.CompoundAssign(ab.Ref(total), ast.OpSub, ab.Int(1))),
			ab.Block(ab.BreakIf(ab.Lt(ab.Ref(total), ab.Int(10)))),
		),
		ab.Return(ab.Use(total)),
	))

	return ab.Program()
}

// Constants shades with folded vectors and a uniform struct.
func Constants() *ast.Program {
	ab := ast.NewBuilder()
	vec3 := ab.Vec(ab.F32(), 3)
	light := ab.Struct("Light",
		types.StructMember{Name: "dir", Type: vec3},
		types.StructMember{Name: "power", Type: ab.F32()},
	)
	lightVar := ab.GlobalVar("light", shader.SpaceUniform, light.Type, nil, &shader.BindingPoint{Group: 0, Binding: 1})

	c := ab.Consts
	tint := ab.GlobalConst("tint", ab.Lit(c.Composite(vec3, []constant.Value{c.F32(1), c.F32(0.5), c.F32(0.25)})))
	ambient := ab.GlobalConst("ambient", ab.Lit(c.Splat(vec3, c.F32(0.125), 3)))
	ab.GlobalConstAssert(ab.True())

	v := ab.Param("v", vec3)
	ab.Func("shade", []*ast.Param{v}, vec3, ab.Block(
		ab.Return(ab.Add(
			ab.Binary(ast.OpMul, ab.Binary(ast.OpMul, ab.Use(v), ab.Use(tint)), ab.Member(ab.Ref(lightVar), 1)),
			ab.Use(ambient),
		)),
	))

	w := ab.Param("w", vec3)
	bits := ab.Let("bits", ab.Bitcast(ab.U32(), ab.CallBuiltin(shader.FnLength, ab.F32(), ab.Use(w))))
	ab.Func("quantize", []*ast.Param{w}, ab.I32(), ab.Block(
		ab.Decl(bits),
		ab.Return(ab.Convert(ab.I32(), ab.Binary(ast.OpShiftRight, ab.Use(bits), ab.Uint(16)))),
	))

	return ab.Program()
}
