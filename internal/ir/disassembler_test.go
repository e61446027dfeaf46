package ir_test

import (
	"strings"
	"testing"

	"shadeir/internal/ir"
	"shadeir/internal/shader"
	"shadeir/internal/types"
)

func TestDisassemble_Function(t *testing.T) {
	m, b := newModule()
	ty := m.Types.Builtins()
	fn := b.Function("f", ty.I32, shader.StageNone, nil)
	a := b.FunctionParam("a", ty.I32)
	fn.SetParams([]*ir.FunctionParam{a})
	sum := b.Binary(ir.BinaryAdd, ty.I32, a, b.I32(1))
	fn.StartBlock().Append(sum)
	fn.StartBlock().Append(b.Return(fn, sum.Result()))

	want := `%f = func(%a:i32):i32 -> %b1 {
  %b1 = block {
    %1:i32 = add %a, 1i
    ret %1
  }
}
`
	if got := ir.Disassemble(m); got != want {
		t.Fatalf("disassembly mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestDisassemble_If(t *testing.T) {
	m, b := newModule()
	fn := b.Function("main", m.Types.Builtins().Void, shader.StageFragment, nil)
	i := b.If(b.Bool(true))
	fn.StartBlock().Append(i)
	i.True().Append(b.Return(fn, nil))
	i.False().Append(b.ExitIf(i))
	i.Merge().Append(b.Return(fn, nil))

	want := `%main = @fragment func():void -> %b1 {
  %b1 = block {
    if true [t: %b2, f: %b3, m: %b4]
      # True block
      %b2 = block {
        ret
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

func TestDisassemble_RootAndAttributes(t *testing.T) {
	m, b := newModule()
	ty := m.Types.Builtins()
	v := b.Var(m.Types.Ptr(shader.SpacePrivate, ty.F32, shader.AccessReadWrite))
	v.BindingPoint = &shader.BindingPoint{Group: 0, Binding: 2}
	m.SetName(v.Result(), "g")
	m.RootBlock().Append(v)

	vec4 := m.Types.Vec(ty.F32, 4)
	fn := b.Function("vs", vec4, shader.StageVertex, nil)
	fn.ReturnAttrs = ir.IOAttributes{Builtin: shader.BuiltinPosition, Invariant: true}
	idx := b.FunctionParam("idx", ty.U32)
	idx.Attrs.Builtin = shader.BuiltinVertexIndex
	fn.SetParams([]*ir.FunctionParam{idx})
	ld := b.Load(v.Result())
	c := b.Construct(vec4, ld.Result(), ld.Result(), ld.Result(), b.F32(1))
	fn.StartBlock().Append(ld)
	fn.StartBlock().Append(c)
	fn.StartBlock().Append(b.Return(fn, c.Result()))

	got := ir.Disassemble(m)
	for _, frag := range []string{
		"%b1 = block {  # root\n",
		"%g:ptr<private, f32, read_write> = var @binding_point(0, 2)",
		"%vs = @vertex func(%idx:u32 [@vertex_index]):vec4<f32> [@invariant, @position] -> %b2 {",
		"%1:f32 = load %g",
		"%2:vec4<f32> = construct %1, %1, %1, 1f",
		"ret %2",
	} {
		if !strings.Contains(got, frag) {
			t.Errorf("missing %q in\n%s", frag, got)
		}
	}
}

func TestDisassemble_LoopAndSwitch(t *testing.T) {
	m, b := newModule()
	ty := m.Types.Builtins()
	fn := b.Function("f", ty.Void, shader.StageNone, nil)
	l := b.Loop()
	fn.StartBlock().Append(l)
	s := b.Switch(b.I32(3))
	l.Body().Append(s)
	c0 := b.Case(s, []ir.CaseSelector{{Val: b.I32(0)}, {Val: b.I32(1)}})
	cd := b.Case(s, []ir.CaseSelector{{}})
	c0.Append(b.ExitLoop(l))
	cd.Append(b.ExitSwitch(s))
	s.Merge().Append(b.Continue(l))
	l.Continuing().Append(b.BreakIf(l, b.Bool(false)))
	l.Merge().Append(b.Return(fn, nil))

	got := ir.Disassemble(m)
	for _, frag := range []string{
		"loop [b: %b2, c: %b3, m: %b4]",
		"# Body block",
		"switch 3i [c: (0i 1i, %b5), c: (default, %b6), m: %b7]",
		"exit_loop %b4",
		"exit_switch %b7",
		"continue %b3",
		"break_if false %b2",
		"# Continuing block",
		"# Case block",
	} {
		if !strings.Contains(got, frag) {
			t.Errorf("missing %q in\n%s", frag, got)
		}
	}
}

func TestFprint_EmptyModule(t *testing.T) {
	var sb strings.Builder
	if err := ir.Fprint(&sb, ir.NewModule(types.NewInterner(), nil)); err != nil {
		t.Fatalf("empty module: %v", err)
	}
	if sb.Len() != 0 {
		t.Fatalf("empty module printed %q", sb.String())
	}
}
