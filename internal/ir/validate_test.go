package ir_test

import (
	"strings"
	"testing"

	"shadeir/internal/diag"
	"shadeir/internal/ir"
	"shadeir/internal/shader"
)

func TestValidate_WellFormed(t *testing.T) {
	m, b := newModule()
	ty := m.Types.Builtins()
	g := b.Var(m.Types.Ptr(shader.SpacePrivate, ty.I32, shader.AccessReadWrite))
	m.RootBlock().Append(g)

	fn := b.Function("f", ty.Void, shader.StageNone, nil)
	i := b.If(b.Bool(true))
	fn.StartBlock().Append(i)
	i.True().Append(b.Store(g.Result(), b.I32(1)))
	i.True().Append(b.ExitIf(i))
	i.False().Append(b.ExitIf(i))
	i.Merge().Append(b.Return(fn, nil))

	if err := ir.Validate(m); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name  string
		build func(m *ir.Module, b *ir.Builder)
		code  diag.Code
	}{
		{
			name: "root non-var",
			build: func(m *ir.Module, b *ir.Builder) {
				i32 := m.Types.Builtins().I32
				m.RootBlock().Append(b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2)))
			},
			code: diag.IRValidateRootVar,
		},
		{
			name: "root var not pointer",
			build: func(m *ir.Module, b *ir.Builder) {
				m.RootBlock().Append(b.Var(m.Types.Builtins().I32))
			},
			code: diag.IRValidateRootVar,
		},
		{
			name: "no start block",
			build: func(m *ir.Module, b *ir.Builder) {
				fn := b.Function("f", m.Types.Builtins().Void, shader.StageNone, nil)
				fn.SetStartBlock(nil)
			},
			code: diag.IRValidateNoStart,
		},
		{
			name: "missing branch",
			build: func(m *ir.Module, b *ir.Builder) {
				i32 := m.Types.Builtins().I32
				fn := b.Function("f", m.Types.Builtins().Void, shader.StageNone, nil)
				fn.StartBlock().Append(b.Binary(ir.BinaryAdd, i32, b.I32(1), b.I32(2)))
			},
			code: diag.IRValidateNoBranch,
		},
		{
			name: "branch mid block",
			build: func(m *ir.Module, b *ir.Builder) {
				fn := b.Function("f", m.Types.Builtins().Void, shader.StageNone, nil)
				fn.StartBlock().Append(b.Return(fn, nil))
				fn.StartBlock().Append(b.Return(fn, nil))
			},
			code: diag.IRValidateMidBranch,
		},
		{
			name: "switch without default",
			build: func(m *ir.Module, b *ir.Builder) {
				fn := b.Function("f", m.Types.Builtins().Void, shader.StageNone, nil)
				s := b.Switch(b.I32(0))
				fn.StartBlock().Append(s)
				b.Case(s, []ir.CaseSelector{{Val: b.I32(0)}}).Append(b.ExitSwitch(s))
				s.Merge().Append(b.Return(fn, nil))
			},
			code: diag.IRValidateSwitch,
		},
		{
			name: "orphaned exit",
			build: func(m *ir.Module, b *ir.Builder) {
				fn := b.Function("f", m.Types.Builtins().Void, shader.StageNone, nil)
				l := b.Loop()
				fn.StartBlock().Append(l)
				e := b.ExitLoop(l)
				l.Body().Append(e)
				l.Merge().Append(b.Return(fn, nil))
				e.SetControl(nil)
			},
			code: diag.IRValidateExit,
		},
		{
			name: "entry point list out of sync",
			build: func(m *ir.Module, b *ir.Builder) {
				fn := b.Function("f", m.Types.Builtins().Void, shader.StageNone, nil)
				fn.StartBlock().Append(b.Return(fn, nil))
				fn.Stage = shader.StageCompute
			},
			code: diag.IRValidateEntryPoints,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, b := newModule()
			tt.build(m, b)

			err := ir.Validate(m)
			if err == nil {
				t.Fatalf("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.code.ID()) {
				t.Fatalf("error %q does not carry %s", err, tt.code.ID())
			}

			bag := diag.NewBag(16)
			if ir.ValidateBag(m, bag) {
				t.Fatalf("ValidateBag reported success")
			}
			found := false
			for _, d := range bag.Items() {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Fatalf("bag lacks %s: %v", tt.code.ID(), bag.Items())
			}
		})
	}
}
