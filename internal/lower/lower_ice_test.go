package lower_test

import (
	"context"
	"strings"
	"testing"

	"shadeir/internal/ast"
	"shadeir/internal/diag"
	"shadeir/internal/lower"
	"shadeir/internal/shader"
	"shadeir/internal/trace"
)

// Wrappers hide the concrete node type from the lowering type switches.
type wrappedStmt struct{ *ast.BreakStmt }

type wrappedDecl struct{ *ast.AliasDecl }

type wrappedExpr struct{ *ast.BinaryExpr }

func TestBuild_InternalErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(ab *ast.Builder)
		code  diag.Code
	}{
		{
			name: "break outside loop",
			setup: func(ab *ast.Builder) {
				ab.Func("f", nil, 0, ab.Block(ab.Break()))
			},
			code: diag.IRNoEnclosingControl,
		},
		{
			name: "continue in switch only",
			setup: func(ab *ast.Builder) {
				ab.Func("f", nil, 0, ab.Block(
					ab.Switch(ab.Int(0), ab.DefaultCase(ab.Block(ab.Continue()))),
				))
			},
			code: diag.IRNoEnclosingControl,
		},
		{
			name: "break if outside loop",
			setup: func(ab *ast.Builder) {
				ab.Func("f", nil, 0, ab.Block(ab.BreakIf(ab.True())))
			},
			code: diag.IRNoEnclosingControl,
		},
		{
			name: "break if in switch only",
			setup: func(ab *ast.Builder) {
				ab.Func("f", nil, 0, ab.Block(
					ab.Switch(ab.Int(0), ab.DefaultCase(ab.Block(ab.BreakIf(ab.True())))),
				))
			},
			code: diag.IRNoEnclosingControl,
		},
		{
			name: "unhandled statement",
			setup: func(ab *ast.Builder) {
				ab.Func("f", nil, 0, ab.Block(
					ab.Loop(ab.Block(wrappedStmt{ab.Break()}), nil),
				))
			},
			code: diag.IRUnknownStmt,
		},
		{
			name: "unhandled declaration",
			setup: func(ab *ast.Builder) {
				ab.Declare(wrappedDecl{ab.Alias("A", ab.I32())})
			},
			code: diag.IRUnknownDecl,
		},
		{
			name: "unhandled expression",
			setup: func(ab *ast.Builder) {
				x := ab.Param("x", ab.I32())
				ab.Func("f", []*ast.Param{x}, 0, ab.Block(
					ab.Phony(wrappedExpr{ab.Add(ab.Use(x), ab.Int(1))}),
				))
			},
			code: diag.IRUnknownExpr,
		},
		{
			name: "nil if statement",
			setup: func(ab *ast.Builder) {
				ab.Func("f", nil, 0, ab.Block((*ast.IfStmt)(nil)))
			},
			code: diag.IRInternal,
		},
		{
			name: "override",
			setup: func(ab *ast.Builder) {
				ab.Override("scale", ab.F32(), ab.Float(1))
			},
			code: diag.IROverride,
		},
		{
			name: "call before lowering",
			setup: func(ab *ast.Builder) {
				g := &ast.Function{Name: "g", ReturnType: ab.Void()}
				ab.Func("f", nil, 0, ab.Block(ab.CallStmt(ab.Call(g))))
			},
			code: diag.IRUnresolvedIdent,
		},
		{
			name: "logical compound assignment",
			setup: func(ab *ast.Builder) {
				b := ab.Var("b", ab.Bool(), ab.True())
				ab.Func("f", nil, 0, ab.Block(
					ab.Decl(b),
					ab.CompoundAssign(ab.Ref(b), ast.OpLogicalAnd, ab.False()),
				))
			},
			code: diag.IRBadOperator,
		},
		{
			name: "increment of float",
			setup: func(ab *ast.Builder) {
				x := ab.Var("x", ab.F32(), ab.Float(0))
				ab.Func("f", nil, 0, ab.Block(ab.Decl(x), ab.Inc(ab.Ref(x))))
			},
			code: diag.IRBadOperator,
		},
		{
			name: "workgroup size on fragment",
			setup: func(ab *ast.Builder) {
				ab.Func("fs", nil, 0, nil, ast.Stage(shader.StageFragment), ast.WorkgroupSize(1, 1, 1))
			},
			code: diag.IRInvalidStage,
		},
		{
			name: "input builtin on return",
			setup: func(ab *ast.Builder) {
				ab.Func("vs", nil, ab.U32(), ab.Block(ab.Return(ab.Uint(0))),
					ast.Stage(shader.StageVertex),
					ast.ReturnAttrs(ast.BuiltinAttr(shader.BuiltinVertexIndex)))
			},
			code: diag.IRUnknownAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := ast.NewBuilder()
			tt.setup(ab)
			res := lower.Build(context.Background(), ab.Program())
			if res.OK() {
				t.Fatalf("expected lowering to fail")
			}
			if res.Module != nil {
				t.Fatalf("failed lowering must not return a module")
			}
			if !res.Bag.HasICE() {
				t.Fatalf("expected an internal error, got %v", res.Err())
			}
			items := res.Bag.Items()
			if len(items) != 1 || items[0].Code != tt.code {
				t.Fatalf("diagnostics = %v, want one %s", items, tt.code.ID())
			}
		})
	}
}

func TestBuild_NilProgram(t *testing.T) {
	res := lower.Build(context.Background(), nil)
	if res.OK() || res.Err() == nil {
		t.Fatalf("nil program should fail")
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := lower.Build(ctx, ab.Program())
	if res.Module != nil {
		t.Fatalf("cancelled build returned a module")
	}
	err := res.Err()
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Fatalf("err = %v, want cancellation", err)
	}
}

func TestICE_Diagnostic(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, ab.Block(ab.Break()))
	err := lower.Build(context.Background(), ab.Program()).Err()
	if err == nil || !strings.Contains(err.Error(), diag.IRNoEnclosingControl.ID()) {
		t.Fatalf("err = %v, want code %s", err, diag.IRNoEnclosingControl.ID())
	}
}

func TestBuild_Trace(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("main", nil, 0, ab.Block(
		ab.If(ab.True(), ab.Block(), nil),
		ab.Loop(ab.Block(ab.Break()), nil),
	))

	ring := trace.NewRingTracer(64, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	if res := lower.Build(ctx, ab.Program()); !res.OK() {
		t.Fatalf("lowering failed: %v", res.Err())
	}

	var passEnd *trace.Event
	var fnBegin, ifPoint, loopPoint bool
	events := ring.Snapshot()
	for i := range events {
		ev := &events[i]
		switch {
		case ev.Scope == trace.ScopePass && ev.Name == "lower" && ev.Kind == trace.KindSpanEnd:
			passEnd = ev
		case ev.Scope == trace.ScopeFunction && ev.Name == "main" && ev.Kind == trace.KindSpanBegin:
			fnBegin = true
		case ev.Kind == trace.KindPoint && ev.Name == "if":
			ifPoint = true
		case ev.Kind == trace.KindPoint && ev.Name == "loop":
			loopPoint = true
		}
	}
	if passEnd == nil {
		t.Fatalf("missing end of the lower pass span")
	}
	if passEnd.Extra["functions"] != "1" {
		t.Errorf("functions extra = %q, want 1", passEnd.Extra["functions"])
	}
	if !fnBegin || !ifPoint || !loopPoint {
		t.Errorf("function span %v, if point %v, loop point %v", fnBegin, ifPoint, loopPoint)
	}
}

func TestBuild_TraceLevelFiltersConstructs(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("main", nil, 0, ab.Block(ab.If(ab.True(), ab.Block(), nil)))

	ring := trace.NewRingTracer(64, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	lower.Build(ctx, ab.Program())

	for _, ev := range ring.Snapshot() {
		if ev.Scope > trace.ScopePass {
			t.Fatalf("phase level emitted %s event %q", ev.Scope, ev.Name)
		}
	}
}
