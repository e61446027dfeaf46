package lower_test

import (
	"strings"
	"testing"

	"shadeir/internal/ast"
	"shadeir/internal/ir"
	"shadeir/internal/shader"
	"shadeir/internal/testkit"
	"shadeir/internal/types"
)

func assertContains(t *testing.T, m *ir.Module, frags ...string) {
	t.Helper()
	got := ir.Disassemble(m)
	for _, frag := range frags {
		if !strings.Contains(got, frag) {
			t.Errorf("missing %q in\n%s", frag, got)
		}
	}
}

func TestLower_ShortCircuit(t *testing.T) {
	tests := []struct {
		name     string
		op       ast.BinaryOp
		evalTrue bool
	}{
		{name: "and", op: ast.OpLogicalAnd, evalTrue: true},
		{name: "or", op: ast.OpLogicalOr, evalTrue: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := ast.NewBuilder()
			a := ab.Param("a", ab.Bool())
			b := ab.Param("b", ab.Bool())
			r := ab.Let("r", ab.Binary(tt.op, ab.Use(a), ab.Use(b)))
			ab.Func("f", []*ast.Param{a, b}, ab.Bool(), ab.Block(ab.Decl(r), ab.Return(ab.Use(r))))
			m := build(t, ab)

			fn := m.FunctionByName("f")
			pa, pb := fn.Params()[0], fn.Params()[1]
			ifi := testkit.FindSingle[*ir.If](t, m)
			if ifi.Condition() != ir.Value(pa) {
				t.Fatalf("if should branch on the left operand")
			}
			params := ifi.Merge().Params()
			if len(params) != 1 || params[0].Type() != m.Types.Builtins().Bool {
				t.Fatalf("merge should take one bool param, got %d", len(params))
			}

			evaluate, skip := ifi.True(), ifi.False()
			if !tt.evalTrue {
				evaluate, skip = skip, evaluate
			}
			ev, ok := evaluate.Branch().(*ir.ExitIf)
			if !ok || len(ev.Args()) != 1 || ev.Args()[0] != ir.Value(pb) {
				t.Fatalf("evaluating side should pass the right operand")
			}
			sk, ok := skip.Branch().(*ir.ExitIf)
			if !ok || len(sk.Args()) != 1 || sk.Args()[0] != ir.Value(pa) {
				t.Fatalf("skipping side should pass the left operand")
			}

			ret, ok := ifi.Merge().Branch().(*ir.Return)
			if !ok || ret.Value() != ir.Value(params[0]) {
				t.Fatalf("function should return the merge param")
			}
		})
	}
}

func TestLower_NestedShortCircuit(t *testing.T) {
	ab := ast.NewBuilder()
	a := ab.Param("a", ab.Bool())
	b := ab.Param("b", ab.Bool())
	c := ab.Param("c", ab.Bool())
	ab.Func("f", []*ast.Param{a, b, c}, ab.Bool(), ab.Block(
		ab.Return(ab.Or(ab.Use(a), ab.And(ab.Use(b), ab.Use(c)))),
	))
	m := build(t, ab)

	ifs := testkit.FindAll[*ir.If](m)
	if len(ifs) != 2 {
		t.Fatalf("found %d ifs, want 2", len(ifs))
	}
	outer, inner := ifs[0], ifs[1]
	if inner.Block() != outer.False() {
		t.Fatalf("right operand of || should be evaluated in the false block")
	}
	exit, ok := inner.Merge().Branch().(*ir.ExitIf)
	if !ok || exit.If() != outer || exit.Args()[0] != ir.Value(inner.Merge().Params()[0]) {
		t.Fatalf("inner result should flow to the outer merge")
	}
}

func TestLower_LetNamesValue(t *testing.T) {
	ab := ast.NewBuilder()
	a := ab.Param("a", ab.I32())
	y := ab.Let("y", ab.Add(ab.Use(a), ab.Int(1)))
	z := ab.Let("z", ab.Use(a))
	ab.Func("f", []*ast.Param{a}, ab.I32(), ab.Block(
		ab.Decl(y),
		ab.Decl(z),
		ab.Decl(ab.Const("k", ab.Int(7))),
		ab.Return(ab.Add(ab.Use(y), ab.Use(z))),
	))
	m := build(t, ab)

	assertContains(t, m,
		"%y:i32 = add %a, 1i",
		"= add %y, %a",
	)
	if len(testkit.FindAll[*ir.Var](m)) != 0 {
		t.Fatalf("let and const should not allocate storage")
	}
}

func TestLower_ConstUse(t *testing.T) {
	ab := ast.NewBuilder()
	k := ab.GlobalConst("k", ab.Int(7))
	ab.Func("f", nil, ab.I32(), ab.Block(ab.Return(ab.Use(k))))
	m := build(t, ab)

	ret := testkit.FindSingle[*ir.Return](t, m)
	c, ok := ret.Value().(*ir.Constant)
	if !ok || c != m.Constant(m.Consts.I32(7)) {
		t.Fatalf("const use should lower to the folded constant, got %T", ret.Value())
	}
	if m.HasRootBlock() {
		t.Fatalf("module const should not reach the root block")
	}
}

func TestLower_AssignmentFamily(t *testing.T) {
	ab := ast.NewBuilder()
	x := ab.Var("x", ab.U32(), ab.Uint(1))
	ab.Func("f", nil, 0, ab.Block(
		ab.Decl(x),
		ab.CompoundAssign(ab.Ref(x), ast.OpMul, ab.Uint(3)),
		ab.Dec(ab.Ref(x)),
		ab.Phony(ab.Use(x)),
	))
	m := build(t, ab)

	assertContains(t, m,
		"%x:ptr<function, u32, read_write> = var, 1u",
		"= mul %1, 3u",
		"store %x, %2",
		"= sub %3, 1u",
		"store %x, %4",
		"%5:u32 = load %x",
	)
	if got := len(testkit.FindAll[*ir.Store](m)); got != 2 {
		t.Fatalf("stores = %d, want 2", got)
	}
}

func TestLower_Calls(t *testing.T) {
	ab := ast.NewBuilder()
	v := ab.Param("v", ab.F32())
	helper := ab.Func("helper", []*ast.Param{v}, ab.F32(), ab.Block(
		ab.Return(ab.CallBuiltin(shader.FnAbs, ab.F32(), ab.Use(v))),
	))
	sink := ab.Func("sink", nil, 0, nil)

	vec4 := ab.Vec(ab.F32(), 4)
	c := ab.Let("c", ab.Call(helper, ab.Float(2)))
	v4 := ab.Let("v4", ab.Construct(vec4, ab.Use(c), ab.Use(c), ab.Use(c), ab.Float(1)))
	i := ab.Let("i", ab.Convert(ab.I32(), ab.Use(c)))
	bits := ab.Let("bits", ab.Bitcast(ab.U32(), ab.Use(i)))
	ab.Func("main", nil, 0, ab.Block(
		ab.Decl(c), ab.Decl(v4), ab.Decl(i), ab.Decl(bits),
		ab.Phony(ab.Use(v4)),
		ab.CallStmt(ab.Call(sink)),
		ab.CallStmt(ab.CallBuiltin(shader.FnWorkgroupBarrier, 0)),
	))
	m := build(t, ab)

	assertContains(t, m,
		"= abs %v",
		"%c:f32 = call %helper, 2f",
		"%v4:vec4<f32> = construct %c, %c, %c, 1f",
		"%i:i32 = convert f32, %c",
		"%bits:u32 = bitcast %i",
		"    call %sink\n",
		"    workgroupBarrier\n",
	)
	call := testkit.FindAll[*ir.UserCall](m)
	if len(call) != 2 || call[0].Target != m.FunctionByName("helper") {
		t.Fatalf("user calls not resolved")
	}
	if call[1].Result() != nil {
		t.Fatalf("void call should have no result")
	}
}

func TestLower_Access(t *testing.T) {
	ab := ast.NewBuilder()
	i32 := ab.I32()
	arrTy := ab.Types.Intern(types.MakeArray(i32, 4))
	vecArrTy := ab.Types.Intern(types.MakeArray(ab.Vec(ab.F32(), 4), 2))
	arr := ab.GlobalVar("arr", shader.SpacePrivate, arrTy, nil, nil)
	varr := ab.GlobalVar("varr", shader.SpacePrivate, vecArrTy, nil, nil)
	e := ab.Let("e", ab.Index(ab.Ref(arr), ab.Int(2)))
	ab.Func("f", nil, 0, ab.Block(
		ab.Assign(ab.Index(ab.Ref(arr), ab.Int(1)), ab.Int(5)),
		ab.Decl(e),
		ab.Assign(ab.Member(ab.Index(ab.Ref(varr), ab.Int(1)), 2), ab.Float(1)),
	))
	m := build(t, ab)

	assertContains(t, m,
		"%arr:ptr<private, array<i32, 4>, read_write> = var",
		":ptr<private, i32, read_write> = access %arr, 1i",
		":ptr<private, i32, read_write> = access %arr, 2i",
		"%e:i32 = load %",
		":ptr<private, f32, read_write> = access %varr, 1i, 2u",
	)
	if got := len(testkit.FindAll[*ir.Access](m)); got != 3 {
		t.Fatalf("accesses = %d, want 3 after folding", got)
	}
}

func TestLower_UnaryAndPointers(t *testing.T) {
	ab := ast.NewBuilder()
	x := ab.Var("x", ab.I32(), ab.Int(2))
	p := ab.Let("p", ab.Unary(ast.OpAddressOf, ab.Ref(x)))
	ab.Func("f", nil, ab.I32(), ab.Block(
		ab.Decl(x),
		ab.Decl(p),
		ab.Return(ab.Unary(ast.OpNegation, ab.Unary(ast.OpIndirection, ab.Use(p)))),
	))
	m := build(t, ab)

	assertContains(t, m,
		"%1:i32 = load %x",
		"%2:i32 = negation %1",
		"ret %2",
	)
}

func TestLower_EntryPoints(t *testing.T) {
	ab := ast.NewBuilder()
	vec4 := ab.Vec(ab.F32(), 4)
	idx := ab.Param("idx", ab.U32(), ast.BuiltinAttr(shader.BuiltinVertexIndex))
	ab.Func("vs", []*ast.Param{idx}, vec4, ab.Block(
		ab.Return(ab.Construct(vec4, ab.Float(0), ab.Float(0), ab.Float(0), ab.Float(1))),
	), ast.Stage(shader.StageVertex), ast.ReturnAttrs(ast.BuiltinAttr(shader.BuiltinPosition)))

	color := ab.Param("color", vec4, ast.LocationAttr(0, &shader.Interpolation{Type: shader.InterpolationFlat}))
	ab.Func("fs", []*ast.Param{color}, vec4, ab.Block(ab.Return(ab.Use(color))),
		ast.Stage(shader.StageFragment), ast.ReturnAttrs(ast.LocationAttr(0, nil)))
	ab.Func("cs", nil, 0, nil, ast.Stage(shader.StageCompute), ast.WorkgroupSize(8, 8, 1))
	ab.Func("helper", nil, 0, nil)

	m := build(t, ab)
	if got := len(m.EntryPoints()); got != 3 {
		t.Fatalf("entry points = %d, want 3", got)
	}
	assertContains(t, m,
		"%vs = @vertex func(%idx:u32 [@vertex_index]):vec4<f32> [@position] -> %b1 {",
		"%fs = @fragment func(%color:vec4<f32> [@location(0), @interpolate(flat)]):vec4<f32> [@location(0)] -> %b2 {",
		"%cs = @compute @workgroup_size(8, 8, 1) func():void -> %b3 {",
		"%helper = func():void -> %b4 {",
	)
}

func TestLower_ModuleVars(t *testing.T) {
	ab := ast.NewBuilder()
	bp := &shader.BindingPoint{Group: 1, Binding: 3}
	u := ab.GlobalVar("u", shader.SpaceUniform, ab.F32(), nil, bp)
	g := ab.GlobalVar("g", shader.SpacePrivate, ab.I32(), ab.Int(4), nil)
	ab.Func("f", nil, ab.F32(), ab.Block(
		ab.Assign(ab.Ref(g), ab.Int(5)),
		ab.Return(ab.Use(u)),
	))
	m := build(t, ab)

	if !m.HasRootBlock() || m.RootBlock().Len() != 2 {
		t.Fatalf("root block should hold both vars")
	}
	assertContains(t, m,
		"%b1 = block {  # root",
		"%u:ptr<uniform, f32, read> = var @binding_point(1, 3)",
		"%g:ptr<private, i32, read_write> = var, 4i",
		"store %g, 5i",
		"load %u",
	)
}

func TestLower_SkipsTypeDecls(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Struct("S", types.StructMember{Name: "a", Type: ab.I32()})
	ab.Alias("A", ab.F32())
	ab.GlobalConstAssert(ab.True())
	ab.Func("f", nil, 0, ab.Block(ab.ConstAssert(ab.True())))
	m := build(t, ab)

	if len(m.Functions()) != 1 || m.HasRootBlock() {
		t.Fatalf("type declarations should produce no IR")
	}
}
