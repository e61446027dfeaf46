package lower

import (
	"strconv"

	"shadeir/internal/ast"
	"shadeir/internal/diag"
	"shadeir/internal/ir"
	"shadeir/internal/shader"
	"shadeir/internal/trace"
)

func (l *lowerer) lowerFunction(f *ast.Function) error {
	switch f.Stage {
	case shader.StageNone, shader.StageVertex, shader.StageFragment, shader.StageCompute:
	default:
		return newICE(diag.IRInvalidStage, f.Span(), "function %q has invalid stage %s", f.Name, f.Stage)
	}
	if f.WorkgroupSize != nil && f.Stage != shader.StageCompute {
		return newICE(diag.IRInvalidStage, f.Span(), "@workgroup_size on %s function %q", f.Stage, f.Name)
	}
	if b := f.ReturnAttrs.Builtin; b != shader.BuiltinNone && !b.ValidForReturn() {
		return newICE(diag.IRUnknownAttribute, f.Span(), "@builtin(%s) is not valid on a return value", b)
	}

	span := trace.Begin(l.tracer, trace.ScopeFunction, f.Name, l.parent)
	defer span.End("")

	fn := l.b.Function(f.Name, l.irType(f.ReturnType), f.Stage, f.WorkgroupSize)
	fn.ReturnAttrs = ioAttributes(f.ReturnAttrs)
	l.functions[f] = fn

	l.fn, l.fnSpan = fn, span.ID()
	l.current = fn.StartBlock()
	l.controls = l.controls[:0]
	defer func() {
		l.fn, l.fnSpan, l.current = nil, 0, nil
	}()

	l.scopes.push()
	defer l.scopes.pop()

	params := make([]*ir.FunctionParam, len(f.Params))
	for i, p := range f.Params {
		param := l.b.FunctionParam(p.Name, l.irType(p.Type))
		param.Attrs = ioAttributes(p.Attrs)
		params[i] = param
		l.scopes.set(p.Name, param)
	}
	fn.SetParams(params)

	if err := l.lowerStmts(f.Body.Stmts); err != nil {
		return err
	}
	if l.needBranch() {
		l.setBranch(l.b.Return(fn, nil))
	}
	span.WithExtra("returns", strconv.Itoa(fn.ReturnCount()))
	return nil
}

func ioAttributes(a ast.IOAttributes) ir.IOAttributes {
	return ir.IOAttributes{
		Builtin:       a.Builtin,
		Location:      a.Location,
		Interpolation: a.Interpolation,
		Invariant:     a.Invariant,
	}
}
