package lower

import (
	"shadeir/internal/ast"
	"shadeir/internal/diag"
	"shadeir/internal/ir"
	"shadeir/internal/types"
)

// lowerStmts lowers stmts in order and stops at the first unreachable one.
func (l *lowerer) lowerStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if !l.needBranch() {
			return nil
		}
		if err := l.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// lowerBlock lowers a braced block in its own scope.
func (l *lowerer) lowerBlock(b *ast.BlockStmt) error {
	if b == nil {
		return nil
	}
	l.scopes.push()
	defer l.scopes.pop()
	return l.lowerStmts(b.Stmts)
}

// bodyStmts returns the statements of a loop body, which may be absent.
func bodyStmts(b *ast.BlockStmt) []ast.Stmt {
	if b == nil {
		return nil
	}
	return b.Stmts
}

func (l *lowerer) lowerStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		return l.lowerBlock(s)
	case *ast.IfStmt:
		return l.lowerIf(s)
	case *ast.LoopStmt:
		return l.lowerLoop(s)
	case *ast.ForStmt:
		return l.lowerFor(s)
	case *ast.WhileStmt:
		return l.lowerWhile(s)
	case *ast.SwitchStmt:
		return l.lowerSwitch(s)
	case *ast.ReturnStmt:
		return l.lowerReturn(s)
	case *ast.BreakStmt:
		return l.lowerBreak(s)
	case *ast.ContinueStmt:
		return l.lowerContinue(s)
	case *ast.BreakIfStmt:
		return l.lowerBreakIf(s)
	case *ast.DiscardStmt:
		l.setBranch(l.b.Discard())
		return nil
	case *ast.VarDeclStmt:
		return l.lowerVarDecl(s)
	case *ast.AssignStmt:
		return l.lowerAssign(s)
	case *ast.CompoundAssignStmt:
		return l.lowerCompoundAssign(s)
	case *ast.IncDecStmt:
		return l.lowerIncDec(s)
	case *ast.CallStmt:
		_, err := l.lowerCall(s.Call)
		return err
	case *ast.ConstAssert:
		return nil
	default:
		return newICE(diag.IRUnknownStmt, stmt.Span(), "unhandled statement %T", stmt)
	}
}

func (l *lowerer) lowerIf(s *ast.IfStmt) error {
	cond, err := l.lowerValue(s.Cond)
	if err != nil {
		return err
	}
	ifi := l.b.If(cond)
	l.setBranch(ifi)
	l.tracePoint("if", s.Span())
	l.nodes[s] = ifi

	err = l.withControl(ifi, func() error {
		l.current = ifi.True()
		if err := l.lowerBlock(s.Body); err != nil {
			return err
		}
		if l.needBranch() {
			l.setBranch(l.b.ExitIf(ifi))
		}

		l.current = ifi.False()
		if s.Else != nil {
			if err := l.lowerStmt(s.Else); err != nil {
				return err
			}
		}
		if l.needBranch() {
			l.setBranch(l.b.ExitIf(ifi))
		}
		return nil
	})
	if err != nil {
		return err
	}

	// With both branches terminated there is no merge and the code after
	// the if is unreachable.
	l.current = connectedOrNil(ifi.Merge())
	return nil
}

func (l *lowerer) lowerLoop(s *ast.LoopStmt) error {
	loop := l.b.Loop()
	l.setBranch(loop)
	l.tracePoint("loop", s.Span())
	l.nodes[s] = loop

	err := l.withControl(loop, func() error {
		// Declarations of the body stay visible in the continuing block.
		l.scopes.push()
		defer l.scopes.pop()

		l.current = loop.Body()
		if err := l.lowerStmts(bodyStmts(s.Body)); err != nil {
			return err
		}
		if l.needBranch() {
			l.setBranch(l.b.Continue(loop))
		}

		if l.current = connectedOrNil(loop.Continuing()); l.current != nil {
			if s.Continuing != nil {
				if err := l.lowerBlock(s.Continuing); err != nil {
					return err
				}
			}
			if l.needBranch() {
				l.setBranch(l.b.NextIteration(loop))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.current = connectedOrNil(loop.Merge())
	return nil
}

// lowerLoopCondition starts the loop body with
// `if cond { exit_if } else { exit_loop }` and continues in the if's merge.
func (l *lowerer) lowerLoopCondition(loop *ir.Loop, cond ast.Expr) error {
	c, err := l.lowerValue(cond)
	if err != nil {
		return err
	}
	ifi := l.b.If(c)
	l.setBranch(ifi)
	ifi.True().Append(l.b.ExitIf(ifi))
	ifi.False().Append(l.b.ExitLoop(loop))
	l.current = ifi.Merge()
	return nil
}

func (l *lowerer) lowerWhile(s *ast.WhileStmt) error {
	loop := l.b.Loop()
	l.setBranch(loop)
	l.tracePoint("while", s.Span())
	l.nodes[s] = loop

	err := l.withControl(loop, func() error {
		l.scopes.push()
		defer l.scopes.pop()

		l.current = loop.Body()
		if err := l.lowerLoopCondition(loop, s.Cond); err != nil {
			return err
		}
		if err := l.lowerStmts(bodyStmts(s.Body)); err != nil {
			return err
		}
		if l.needBranch() {
			l.setBranch(l.b.Continue(loop))
		}

		if l.current = connectedOrNil(loop.Continuing()); l.current != nil {
			l.setBranch(l.b.NextIteration(loop))
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.current = connectedOrNil(loop.Merge())
	return nil
}

func (l *lowerer) lowerFor(s *ast.ForStmt) error {
	var loop *ir.Loop
	if s.Init != nil {
		loop = l.b.LoopWithInitializer()
	} else {
		loop = l.b.Loop()
	}
	l.setBranch(loop)
	l.tracePoint("for", s.Span())
	l.nodes[s] = loop

	// The initializer's declarations are visible to the whole loop.
	l.scopes.push()
	defer l.scopes.pop()

	err := l.withControl(loop, func() error {
		if s.Init != nil {
			l.current = loop.Initializer()
			if err := l.lowerStmt(s.Init); err != nil {
				return err
			}
			if l.needBranch() {
				l.setBranch(l.b.NextIteration(loop))
			}
		}

		l.current = loop.Body()
		if s.Cond != nil {
			if err := l.lowerLoopCondition(loop, s.Cond); err != nil {
				return err
			}
		}
		if err := l.lowerBlock(s.Body); err != nil {
			return err
		}
		if l.needBranch() {
			l.setBranch(l.b.Continue(loop))
		}

		if l.current = connectedOrNil(loop.Continuing()); l.current != nil {
			if s.Cont != nil {
				if err := l.lowerStmt(s.Cont); err != nil {
					return err
				}
			}
			if l.needBranch() {
				l.setBranch(l.b.NextIteration(loop))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.current = connectedOrNil(loop.Merge())
	return nil
}

func (l *lowerer) lowerSwitch(s *ast.SwitchStmt) error {
	cond, err := l.lowerValue(s.Cond)
	if err != nil {
		return err
	}
	sw := l.b.Switch(cond)
	l.setBranch(sw)
	l.tracePoint("switch", s.Span())
	l.nodes[s] = sw

	err = l.withControl(sw, func() error {
		for _, clause := range s.Cases {
			sels := make([]ir.CaseSelector, len(clause.Selectors))
			for i, sel := range clause.Selectors {
				if sel.IsDefault() {
					continue
				}
				cv := sel.Expr.ConstValue()
				if cv == nil {
					return newICE(diag.IRUnknownExpr, sel.Expr.Span(), "case selector is not constant")
				}
				sels[i] = ir.CaseSelector{Val: l.b.Constant(cv)}
			}

			l.current = l.b.Case(sw, sels)
			if err := l.lowerBlock(clause.Body); err != nil {
				return err
			}
			if l.needBranch() {
				l.setBranch(l.b.ExitSwitch(sw))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.current = connectedOrNil(sw.Merge())
	return nil
}

func (l *lowerer) lowerReturn(s *ast.ReturnStmt) error {
	if l.fn == nil {
		return newICE(diag.IRNoFunction, s.Span(), "return outside of a function")
	}
	var val ir.Value
	if s.Value != nil {
		v, err := l.lowerValue(s.Value)
		if err != nil {
			return err
		}
		val = v
	}
	l.setBranch(l.b.Return(l.fn, val))
	return nil
}

func (l *lowerer) lowerBreak(s *ast.BreakStmt) error {
	switch c := l.findEnclosingControl(false).(type) {
	case *ir.Loop:
		l.setBranch(l.b.ExitLoop(c))
	case *ir.Switch:
		l.setBranch(l.b.ExitSwitch(c))
	default:
		return newICE(diag.IRNoEnclosingControl, s.Span(), "break outside of a loop or switch")
	}
	return nil
}

func (l *lowerer) lowerContinue(s *ast.ContinueStmt) error {
	loop, ok := l.findEnclosingControl(true).(*ir.Loop)
	if !ok {
		return newICE(diag.IRNoEnclosingControl, s.Span(), "continue outside of a loop")
	}
	l.setBranch(l.b.Continue(loop))
	return nil
}

func (l *lowerer) lowerBreakIf(s *ast.BreakIfStmt) error {
	loop, ok := l.findEnclosingControl(true).(*ir.Loop)
	if !ok {
		return newICE(diag.IRNoEnclosingControl, s.Span(), "break if outside of a loop")
	}
	cond, err := l.lowerValue(s.Cond)
	if err != nil {
		return err
	}
	br := l.b.BreakIf(loop, cond)
	l.setBranch(br)
	l.nodes[s] = br
	return nil
}

func (l *lowerer) lowerVarDecl(s *ast.VarDeclStmt) error {
	v := s.Var
	switch v.Kind {
	case ast.VarVar:
		return l.lowerVar(v)
	case ast.VarLet:
		val, err := l.lowerValue(v.Init)
		if err != nil {
			return err
		}
		if r, ok := val.(*ir.InstructionResult); ok && l.mod.NameOf(r) == "" {
			l.mod.SetName(r, v.Name)
		}
		l.scopes.set(v.Name, val)
		return nil
	case ast.VarConst:
		return nil
	case ast.VarOverride:
		return newICE(diag.IROverride, v.Span(), "override %q inside a function", v.Name)
	default:
		return newICE(diag.IRUnknownVar, v.Span(), "unhandled variable kind %s", v.Kind)
	}
}

// lowerVar declares a var in the current block and binds its pointer.
func (l *lowerer) lowerVar(v *ast.Variable) error {
	var init ir.Value
	if v.Init != nil {
		val, err := l.lowerValue(v.Init)
		if err != nil {
			return err
		}
		init = val
	}
	inst := l.b.Var(l.in.Ptr(v.Space, v.StoreType, v.Access))
	if init != nil {
		inst.SetInitializer(init)
	}
	inst.BindingPoint = v.Binding
	l.emit(inst)
	l.mod.SetName(inst.Result(), v.Name)
	l.scopes.set(v.Name, inst.Result())
	return nil
}

func (l *lowerer) lowerAssign(s *ast.AssignStmt) error {
	if s.LHS == nil {
		_, err := l.lowerExpr(s.RHS)
		return err
	}
	to, err := l.lowerValue(s.LHS)
	if err != nil {
		return err
	}
	from, err := l.lowerValue(s.RHS)
	if err != nil {
		return err
	}
	l.emit(l.b.Store(to, from))
	return nil
}

func (l *lowerer) lowerCompoundAssign(s *ast.CompoundAssignStmt) error {
	kind, ok := binaryKind(s.Op)
	if !ok {
		return newICE(diag.IRBadOperator, s.Span(), "%s= is not a compound assignment", s.Op)
	}
	ptr, err := l.lowerValue(s.LHS)
	if err != nil {
		return err
	}
	rhs, err := l.lowerValue(s.RHS)
	if err != nil {
		return err
	}
	l.readModifyWrite(ptr, kind, rhs)
	return nil
}

func (l *lowerer) lowerIncDec(s *ast.IncDecStmt) error {
	ptr, err := l.lowerValue(s.LHS)
	if err != nil {
		return err
	}
	var one ir.Value
	switch elem := l.in.Elem(ptr.Type()); l.in.Kind(elem) {
	case types.KindI32:
		one = l.b.I32(1)
	case types.KindU32:
		one = l.b.U32(1)
	default:
		return newICE(diag.IRBadOperator, s.Span(), "increment of non-integer %s", l.in.Name(elem))
	}
	kind := ir.BinarySub
	if s.Increment {
		kind = ir.BinaryAdd
	}
	l.readModifyWrite(ptr, kind, one)
	return nil
}

// readModifyWrite emits `*ptr = *ptr kind rhs`.
func (l *lowerer) readModifyWrite(ptr ir.Value, kind ir.BinaryKind, rhs ir.Value) {
	load := l.b.Load(ptr)
	l.emit(load)
	bin := l.b.Binary(kind, load.Result().Type(), load.Result(), rhs)
	l.emit(bin)
	l.emit(l.b.Store(ptr, bin.Result()))
}
