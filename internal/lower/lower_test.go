package lower_test

import (
	"context"
	"strings"
	"testing"

	"shadeir/internal/ast"
	"shadeir/internal/ir"
	"shadeir/internal/lower"
	"shadeir/internal/testkit"
)

func build(t *testing.T, ab *ast.Builder) *ir.Module {
	t.Helper()
	res := lower.BuildWithOptions(context.Background(), ab.Program(), lower.Options{Validate: true})
	if !res.OK() {
		t.Fatalf("lowering failed: %v", res.Err())
	}
	testkit.MustValidate(t, res.Module)
	return res.Module
}

func inbound(b *ir.Block) int { return len(b.InboundBranches()) }

func TestLower_IfElse(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(ab.If(ab.True(), ab.Block(), ab.Block())))
	m := build(t, ab)

	ifi := testkit.FindSingle[*ir.If](t, m)
	if inbound(ifi.True()) != 1 || inbound(ifi.False()) != 1 {
		t.Fatalf("true/false inbound = %d/%d, want 1/1", inbound(ifi.True()), inbound(ifi.False()))
	}
	if ifi.Merge() == nil || inbound(ifi.Merge()) != 2 {
		t.Fatalf("merge should have 2 inbound branches")
	}

	want := `%f = func():void -> %b1 {
  %b1 = block {
    if true [t: %b2, f: %b3, m: %b4]
      # True block
      %b2 = block {
        exit_if %b4
      }

      # False block
      %b3 = block {
        exit_if %b4
      }

    # Merge block
    %b4 = block {
      ret
    }
  }
}
`
	if got := ir.Disassemble(m); got != want {
		t.Fatalf("disassembly mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestLower_IfReturnWithoutElse(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(ab.If(ab.True(), ab.Block(ab.Return(nil)), nil)))
	m := build(t, ab)

	ifi := testkit.FindSingle[*ir.If](t, m)
	if _, ok := ifi.True().Branch().(*ir.Return); !ok {
		t.Fatalf("true block should return, got %T", ifi.True().Branch())
	}
	if _, ok := ifi.False().Branch().(*ir.ExitIf); !ok {
		t.Fatalf("false block should exit to the merge, got %T", ifi.False().Branch())
	}
	if ifi.Merge() == nil || inbound(ifi.Merge()) != 1 {
		t.Fatalf("merge should have 1 inbound branch")
	}
	if got := m.FunctionByName("f").ReturnCount(); got != 2 {
		t.Fatalf("ReturnCount = %d, want 2", got)
	}
}

func TestLower_IfBothReturn(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(
		ab.If(ab.True(), ab.Block(ab.Return(nil)), ab.Block(ab.Return(nil))),
		ab.Decl(ab.Var("dead", ab.I32(), ab.Int(1))),
	))
	m := build(t, ab)

	ifi := testkit.FindSingle[*ir.If](t, m)
	if ifi.Merge() != nil {
		t.Fatalf("if with two returning branches should have no merge")
	}
	if vars := testkit.FindAll[*ir.Var](m); len(vars) != 0 {
		t.Fatalf("unreachable declaration was lowered")
	}
	fn := m.FunctionByName("f")
	if fn.StartBlock().Len() != 1 || fn.ReturnCount() != 2 {
		t.Fatalf("start len = %d, returns = %d", fn.StartBlock().Len(), fn.ReturnCount())
	}
}

func TestLower_LoopBreak(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(ab.Loop(ab.Block(ab.Break()), nil)))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	if got := inbound(loop.Body()); got != 1 {
		t.Fatalf("body inbound = %d, want 1", got)
	}
	if got := inbound(loop.Continuing()); got != 0 {
		t.Fatalf("continuing inbound = %d, want 0", got)
	}
	if got := inbound(loop.Merge()); got != 1 {
		t.Fatalf("merge inbound = %d, want 1", got)
	}
	if _, ok := loop.Body().Branch().(*ir.ExitLoop); !ok {
		t.Fatalf("body should end in exit_loop, got %T", loop.Body().Branch())
	}
	if !loop.Continuing().IsEmpty() {
		t.Fatalf("unreached continuing block was filled")
	}
}

func TestLower_LoopBreakIf(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(ab.Loop(ab.Block(), ab.Block(ab.BreakIf(ab.True())))))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	if _, ok := loop.Body().Branch().(*ir.Continue); !ok {
		t.Fatalf("body should branch to continuing, got %T", loop.Body().Branch())
	}
	bi, ok := loop.Continuing().Branch().(*ir.BreakIf)
	if !ok {
		t.Fatalf("continuing should end in break_if, got %T", loop.Continuing().Branch())
	}
	targets := bi.Targets()
	if len(targets) != 2 || targets[0] != loop.Body() || targets[1] != loop.Merge() {
		t.Fatalf("break_if targets = %v", targets)
	}
	if inbound(loop.Body()) != 2 || inbound(loop.Merge()) != 1 {
		t.Fatalf("body/merge inbound = %d/%d, want 2/1", inbound(loop.Body()), inbound(loop.Merge()))
	}
}

func TestLower_InfiniteLoopHasNoReturn(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(ab.Loop(ab.Block(), nil), ab.Return(nil)))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	if loop.Merge().IsConnected() {
		t.Fatalf("merge of a loop without exits is connected")
	}
	if _, ok := loop.Continuing().Branch().(*ir.NextIteration); !ok {
		t.Fatalf("continuing should loop back, got %T", loop.Continuing().Branch())
	}
	if got := m.FunctionByName("f").ReturnCount(); got != 0 {
		t.Fatalf("ReturnCount = %d, want 0", got)
	}
}

func TestLower_LoopContinue(t *testing.T) {
	ab := ast.NewBuilder()
	i := ab.Var("i", ab.I32(), ab.Int(0))
	ab.Func("f", nil, 0, ab.Block(
		ab.Decl(i),
		ab.Loop(
			ab.Block(ab.If(ab.Lt(ab.Ref(i), ab.Int(4)), ab.Block(ab.Continue()), nil), ab.Break()),
			ab.Block(ab.Inc(ab.Ref(i))),
		),
	))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	if got := inbound(loop.Continuing()); got != 1 {
		t.Fatalf("continuing inbound = %d, want 1", got)
	}
	if got := loop.Continuing().Len(); got != 4 {
		t.Fatalf("continuing holds %d instructions, want load, add, store, next_iteration", got)
	}
	if !strings.Contains(ir.Disassemble(m), "continue %b") {
		t.Fatalf("missing continue in\n%s", ir.Disassemble(m))
	}
}

func TestLower_While(t *testing.T) {
	ab := ast.NewBuilder()
	i := ab.Var("i", ab.I32(), ab.Int(0))
	ab.Func("f", nil, 0, ab.Block(
		ab.Decl(i),
		ab.While(ab.Lt(ab.Ref(i), ab.Int(10)), ab.Block(ab.Inc(ab.Ref(i)))),
	))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	if loop.Initializer() != nil {
		t.Fatalf("while loop has an initializer")
	}
	cond, ok := loop.Body().Branch().(*ir.If)
	if !ok {
		t.Fatalf("body should end in the condition if, got %T", loop.Body().Branch())
	}
	if _, ok := cond.True().Branch().(*ir.ExitIf); !ok {
		t.Fatalf("true branch should continue the body")
	}
	if el, ok := cond.False().Branch().(*ir.ExitLoop); !ok || el.Loop() != loop {
		t.Fatalf("false branch should leave the loop")
	}
	if _, ok := cond.Merge().Branch().(*ir.Continue); !ok {
		t.Fatalf("body statements should end in continue, got %T", cond.Merge().Branch())
	}
	if loop.Continuing().Len() != 1 {
		t.Fatalf("continuing should hold only next_iteration")
	}
	if inbound(loop.Body()) != 2 {
		t.Fatalf("body inbound = %d, want 2", inbound(loop.Body()))
	}
}

func TestLower_For(t *testing.T) {
	ab := ast.NewBuilder()
	i := ab.Var("i", ab.I32(), ab.Int(0))
	ab.Func("f", nil, 0, ab.Block(
		ab.For(ab.Decl(i), ab.Lt(ab.Ref(i), ab.Int(4)), ab.Inc(ab.Ref(i)), ab.Block()),
	))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	init := loop.Initializer()
	if init == nil {
		t.Fatalf("for loop with init statement should have an initializer")
	}
	if _, ok := init.Front().(*ir.Var); !ok {
		t.Fatalf("initializer should declare i, got %T", init.Front())
	}
	if _, ok := init.Branch().(*ir.NextIteration); !ok {
		t.Fatalf("initializer should end in next_iteration")
	}
	if inbound(init) != 1 || inbound(loop.Body()) != 2 {
		t.Fatalf("initializer/body inbound = %d/%d, want 1/2", inbound(init), inbound(loop.Body()))
	}
	if got := loop.Continuing().Len(); got != 4 {
		t.Fatalf("continuing holds %d instructions, want 4", got)
	}
	if _, ok := loop.Body().Branch().(*ir.If); !ok {
		t.Fatalf("body should start with the condition if")
	}
}

func TestLower_ForWithoutInit(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(ab.For(nil, nil, nil, ab.Block(ab.Break()))))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	if loop.Initializer() != nil {
		t.Fatalf("unexpected initializer")
	}
	if _, ok := loop.Body().Branch().(*ir.ExitLoop); !ok {
		t.Fatalf("body should break, got %T", loop.Body().Branch())
	}
}

func TestLower_Switch(t *testing.T) {
	ab := ast.NewBuilder()
	s := ab.Param("s", ab.I32())
	ab.Func("f", []*ast.Param{s}, 0, ab.Block(
		ab.Switch(ab.Use(s),
			ab.Case(ab.Block(ab.Break()), ab.Int(0), ab.Int(1)),
			ab.DefaultCase(ab.Block(ab.Return(nil))),
		),
	))
	m := build(t, ab)

	sw := testkit.FindSingle[*ir.Switch](t, m)
	cases := sw.Cases()
	if len(cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(cases))
	}
	if len(cases[0].Selectors) != 2 || cases[0].IsDefault() || !cases[1].IsDefault() {
		t.Fatalf("selectors lowered wrong")
	}
	if _, ok := cases[0].Block.Branch().(*ir.ExitSwitch); !ok {
		t.Fatalf("break in a case should exit the switch")
	}
	if inbound(sw.Merge()) != 1 {
		t.Fatalf("merge inbound = %d, want 1", inbound(sw.Merge()))
	}
	if got := m.FunctionByName("f").ReturnCount(); got != 2 {
		t.Fatalf("ReturnCount = %d, want 2", got)
	}
	if !strings.Contains(ir.Disassemble(m), "switch %s [c: (0i 1i, %b2), c: (default, %b3), m: %b4]") {
		t.Fatalf("unexpected switch header in\n%s", ir.Disassemble(m))
	}
}

func TestLower_SwitchInLoop(t *testing.T) {
	ab := ast.NewBuilder()
	s := ab.Param("s", ab.I32())
	ab.Func("f", []*ast.Param{s}, 0, ab.Block(
		ab.Loop(ab.Block(
			ab.Switch(ab.Use(s),
				ab.Case(ab.Block(ab.Continue()), ab.Int(0)),
				ab.DefaultCase(ab.Block(ab.Break())),
			),
			ab.Break(),
		), nil),
	))
	m := build(t, ab)

	loop := testkit.FindSingle[*ir.Loop](t, m)
	sw := testkit.FindSingle[*ir.Switch](t, m)
	cont, ok := sw.Cases()[0].Block.Branch().(*ir.Continue)
	if !ok || cont.Loop() != loop {
		t.Fatalf("continue inside a switch should target the loop")
	}
	if es, ok := sw.Cases()[1].Block.Branch().(*ir.ExitSwitch); !ok || es.Switch() != sw {
		t.Fatalf("break inside a switch should leave the switch")
	}
	if _, ok := sw.Merge().Branch().(*ir.ExitLoop); !ok {
		t.Fatalf("break after the switch should leave the loop")
	}
}

func TestLower_ElseIf(t *testing.T) {
	ab := ast.NewBuilder()
	a := ab.Param("a", ab.Bool())
	ab.Func("f", []*ast.Param{a}, 0, ab.Block(
		ab.If(ab.Use(a), ab.Block(ab.Return(nil)),
			ab.If(ab.False(), ab.Block(), ab.Block(ab.Discard()))),
	))
	m := build(t, ab)

	ifs := testkit.FindAll[*ir.If](m)
	if len(ifs) != 2 {
		t.Fatalf("found %d ifs, want 2", len(ifs))
	}
	outer, inner := ifs[0], ifs[1]
	if inner.Block() != outer.False() {
		t.Fatalf("else-if should be lowered into the false block")
	}
	if _, ok := inner.False().Branch().(*ir.Discard); !ok {
		t.Fatalf("discard should terminate the block")
	}
	if inbound(outer.Merge()) != 1 {
		t.Fatalf("outer merge inbound = %d, want 1", inbound(outer.Merge()))
	}
}

func TestLower_Shadowing(t *testing.T) {
	ab := ast.NewBuilder()
	outer := ab.Var("x", ab.I32(), ab.Int(1))
	inner := ab.Var("x", ab.I32(), ab.Int(2))
	ab.Func("f", nil, 0, ab.Block(
		ab.Decl(outer),
		ab.Block(ab.Decl(inner), ab.Assign(ab.Ref(inner), ab.Int(3))),
		ab.Assign(ab.Ref(outer), ab.Int(4)),
	))
	m := build(t, ab)

	got := ir.Disassemble(m)
	for _, frag := range []string{
		"%x:ptr<function, i32, read_write> = var, 1i",
		"%x_1:ptr<function, i32, read_write> = var, 2i",
		"store %x_1, 3i",
		"store %x, 4i",
	} {
		if !strings.Contains(got, frag) {
			t.Errorf("missing %q in\n%s", frag, got)
		}
	}
}

func TestLower_DeadCodeAfterReturn(t *testing.T) {
	ab := ast.NewBuilder()
	x := ab.Var("x", ab.I32(), nil)
	ab.Func("f", nil, 0, ab.Block(
		ab.Decl(x),
		ab.Return(nil),
		ab.Assign(ab.Ref(x), ab.Int(1)),
		ab.Loop(ab.Block(), nil),
	))
	m := build(t, ab)

	fn := m.FunctionByName("f")
	if fn.StartBlock().Len() != 2 {
		t.Fatalf("start block holds %d instructions, want var and ret", fn.StartBlock().Len())
	}
	if len(testkit.FindAll[*ir.Store](m)) != 0 || len(testkit.FindAll[*ir.Loop](m)) != 0 {
		t.Fatalf("statements after return were lowered")
	}
}
