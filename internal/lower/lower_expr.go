package lower

import (
	"shadeir/internal/ast"
	"shadeir/internal/diag"
	"shadeir/internal/ir"
	"shadeir/internal/source"
)

// lowerValue lowers e, which must produce a value.
func (l *lowerer) lowerValue(e ast.Expr) (ir.Value, error) {
	if e == nil {
		return nil, newICE(diag.IRUnknownExpr, source.NoSpan, "missing expression")
	}
	v, err := l.lowerExpr(e)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, newICE(diag.IRUnknownExpr, e.Span(), "%T produces no value", e)
	}
	return v, nil
}

// lowerExpr lowers e. Void calls yield a nil value.
func (l *lowerer) lowerExpr(e ast.Expr) (ir.Value, error) {
	if cv := e.ConstValue(); cv != nil {
		return l.b.Constant(cv), nil
	}

	switch x := e.(type) {
	case *ast.Literal:
		return nil, newICE(diag.IRUnknownExpr, x.Span(), "literal without a value")
	case *ast.Ident:
		v, ok := l.scopes.get(x.Name)
		if !ok {
			return nil, newICE(diag.IRUnresolvedIdent, x.Span(), "%q has no lowered value", x.Name)
		}
		return v, nil
	case *ast.Load:
		ptr, err := l.lowerValue(x.Ref)
		if err != nil {
			return nil, err
		}
		load := l.b.Load(ptr)
		l.emit(load)
		return load.Result(), nil
	case *ast.BinaryExpr:
		if x.Op.IsShortCircuit() {
			return l.lowerShortCircuit(x)
		}
		return l.lowerBinary(x)
	case *ast.UnaryExpr:
		return l.lowerUnary(x)
	case *ast.BitcastExpr:
		val, err := l.lowerValue(x.X)
		if err != nil {
			return nil, err
		}
		inst := l.b.Bitcast(l.irType(x.Type()), val)
		l.emit(inst)
		return inst.Result(), nil
	case *ast.IndexExpr:
		obj, err := l.lowerValue(x.Object)
		if err != nil {
			return nil, err
		}
		idx, err := l.lowerValue(x.Index)
		if err != nil {
			return nil, err
		}
		return l.access(x, obj, idx), nil
	case *ast.MemberExpr:
		obj, err := l.lowerValue(x.Object)
		if err != nil {
			return nil, err
		}
		return l.access(x, obj, l.b.U32(x.Member)), nil
	case *ast.CallExpr:
		return l.lowerCall(x)
	default:
		return nil, newICE(diag.IRUnknownExpr, e.Span(), "unhandled expression %T", e)
	}
}

// access indexes obj. Chains of accesses fold into one instruction when the
// inner access is unnamed, unused and the last instruction emitted.
func (l *lowerer) access(e ast.Expr, obj, idx ir.Value) ir.Value {
	typ := l.irType(e.Type())
	if r, ok := obj.(*ir.InstructionResult); ok && !r.IsUsed() && l.mod.NameOf(r) == "" {
		if inner, ok := r.Source().(*ir.Access); ok && inner.Block() == l.current && l.current.Back() == inner {
			operands := append([]ir.Value{}, inner.Operands()...)
			inner.Destroy()
			inst := l.b.Access(typ, operands[0], append(operands[1:], idx)...)
			l.emit(inst)
			return inst.Result()
		}
	}
	inst := l.b.Access(typ, obj, idx)
	l.emit(inst)
	return inst.Result()
}

func binaryKind(op ast.BinaryOp) (ir.BinaryKind, bool) {
	switch op {
	case ast.OpAdd:
		return ir.BinaryAdd, true
	case ast.OpSub:
		return ir.BinarySub, true
	case ast.OpMul:
		return ir.BinaryMul, true
	case ast.OpDiv:
		return ir.BinaryDiv, true
	case ast.OpMod:
		return ir.BinaryMod, true
	case ast.OpAnd:
		return ir.BinaryAnd, true
	case ast.OpOr:
		return ir.BinaryOr, true
	case ast.OpXor:
		return ir.BinaryXor, true
	case ast.OpEqual:
		return ir.BinaryEqual, true
	case ast.OpNotEqual:
		return ir.BinaryNotEqual, true
	case ast.OpLessThan:
		return ir.BinaryLessThan, true
	case ast.OpGreaterThan:
		return ir.BinaryGreaterThan, true
	case ast.OpLessThanEqual:
		return ir.BinaryLessThanEqual, true
	case ast.OpGreaterThanEqual:
		return ir.BinaryGreaterThanEqual, true
	case ast.OpShiftLeft:
		return ir.BinaryShiftLeft, true
	case ast.OpShiftRight:
		return ir.BinaryShiftRight, true
	}
	return 0, false
}

func (l *lowerer) lowerBinary(x *ast.BinaryExpr) (ir.Value, error) {
	kind, ok := binaryKind(x.Op)
	if !ok {
		return nil, newICE(diag.IRBadOperator, x.Span(), "unhandled binary operator %s", x.Op)
	}
	lhs, err := l.lowerValue(x.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := l.lowerValue(x.RHS)
	if err != nil {
		return nil, err
	}
	inst := l.b.Binary(kind, l.irType(x.Type()), lhs, rhs)
	l.emit(inst)
	return inst.Result(), nil
}

// lowerShortCircuit lowers `a && b` and `a || b` as an if whose merge block
// takes the result as a bool parameter. The side that skips b passes a.
func (l *lowerer) lowerShortCircuit(x *ast.BinaryExpr) (ir.Value, error) {
	lhs, err := l.lowerValue(x.LHS)
	if err != nil {
		return nil, err
	}
	ifi := l.b.If(lhs)
	l.setBranch(ifi)
	merge := ifi.EnsureMerge()
	result := merge.AddParam(l.irType(x.Type()))

	evaluate, skip := ifi.True(), ifi.False()
	if x.Op == ast.OpLogicalOr {
		evaluate, skip = skip, evaluate
	}

	l.current = evaluate
	rhs, err := l.lowerValue(x.RHS)
	if err != nil {
		return nil, err
	}
	l.setBranch(l.b.ExitIf(ifi, rhs))

	skip.Append(l.b.ExitIf(ifi, lhs))
	l.current = merge
	return result, nil
}

func (l *lowerer) lowerUnary(x *ast.UnaryExpr) (ir.Value, error) {
	val, err := l.lowerValue(x.X)
	if err != nil {
		return nil, err
	}
	var kind ir.UnaryKind
	switch x.Op {
	case ast.OpAddressOf, ast.OpIndirection:
		// References and pointers share one IR value.
		return val, nil
	case ast.OpComplement:
		kind = ir.UnaryComplement
	case ast.OpNegation:
		kind = ir.UnaryNegation
	case ast.OpNot:
		kind = ir.UnaryNot
	default:
		return nil, newICE(diag.IRBadOperator, x.Span(), "unhandled unary operator %s", x.Op)
	}
	inst := l.b.Unary(kind, l.irType(x.Type()), val)
	l.emit(inst)
	return inst.Result(), nil
}

// lowerCall lowers a call. The result is nil when the callee returns void.
func (l *lowerer) lowerCall(x *ast.CallExpr) (ir.Value, error) {
	args := make([]ir.Value, len(x.Args))
	for i, a := range x.Args {
		v, err := l.lowerValue(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	var inst ir.Instruction
	switch t := x.Target.(type) {
	case ast.BuiltinTarget:
		inst = l.b.BuiltinCall(l.irType(x.Type()), t.Fn, args...)
	case ast.ConstructorTarget:
		inst = l.b.Construct(l.irType(t.Type), args...)
	case ast.ConversionTarget:
		if len(args) != 1 {
			return nil, newICE(diag.IRUnknownExpr, x.Span(), "conversion takes 1 argument, got %d", len(args))
		}
		inst = l.b.Convert(l.irType(t.Type), args[0].Type(), args[0])
	case ast.FunctionTarget:
		fn, ok := l.functions[t.Func]
		if !ok {
			return nil, newICE(diag.IRUnresolvedIdent, x.Span(), "call to %q before its declaration was lowered", t.Func.Name)
		}
		inst = l.b.UserCall(fn, args...)
	default:
		return nil, newICE(diag.IRUnknownExpr, x.Span(), "unhandled call target %T", x.Target)
	}
	l.emit(inst)
	if r := inst.Result(); r != nil {
		return r, nil
	}
	return nil, nil
}
