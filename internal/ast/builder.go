package ast

import (
	"shadeir/internal/constant"
	"shadeir/internal/shader"
	"shadeir/internal/source"
	"shadeir/internal/types"
)

// Builder constructs resolved programs. Every node gets a distinct one-byte
// span in File so diagnostics can point at it.
type Builder struct {
	Types  *types.Interner
	Consts *constant.Manager
	File   source.FileID

	pos   uint32
	decls []Decl
}

func NewBuilder() *Builder {
	in := types.NewInterner()
	return &Builder{
		Types:  in,
		Consts: constant.NewManager(in),
	}
}

// Program returns the program built so far.
func (b *Builder) Program() *Program {
	return &Program{
		Types:  b.Types,
		Consts: b.Consts,
		decls:  append([]Decl(nil), b.decls...),
	}
}

func (b *Builder) next() nodeBase {
	b.pos++
	return nodeBase{span: source.Span{File: b.File, Start: b.pos, End: b.pos + 1}}
}

func (b *Builder) expr(typ types.TypeID, val constant.Value) exprBase {
	return exprBase{nodeBase: b.next(), typ: typ, val: val}
}

// Types ---------------------------------------------------------------------

func (b *Builder) Bool() types.TypeID { return b.Types.Builtins().Bool }
func (b *Builder) I32() types.TypeID  { return b.Types.Builtins().I32 }
func (b *Builder) U32() types.TypeID  { return b.Types.Builtins().U32 }
func (b *Builder) F32() types.TypeID  { return b.Types.Builtins().F32 }
func (b *Builder) F16() types.TypeID  { return b.Types.Builtins().F16 }
func (b *Builder) Void() types.TypeID { return b.Types.Builtins().Void }

func (b *Builder) Vec(elem types.TypeID, n uint32) types.TypeID { return b.Types.Vec(elem, n) }

// Declarations --------------------------------------------------------------

// FuncOption configures a function declaration.
type FuncOption func(*Function)

func Stage(s shader.PipelineStage) FuncOption {
	return func(f *Function) { f.Stage = s }
}

func WorkgroupSize(x, y, z uint32) FuncOption {
	return func(f *Function) { f.WorkgroupSize = &shader.WorkgroupSize{x, y, z} }
}

func ReturnAttrs(a IOAttributes) FuncOption {
	return func(f *Function) { f.ReturnAttrs = a }
}

// Func declares a function. A zero ret means void.
func (b *Builder) Func(name string, params []*Param, ret types.TypeID, body *BlockStmt, opts ...FuncOption) *Function {
	if ret == types.NoTypeID {
		ret = b.Void()
	}
	if body == nil {
		body = b.Block()
	}
	fn := &Function{
		nodeBase:   b.next(),
		Name:       name,
		Params:     params,
		ReturnType: ret,
		Body:       body,
	}
	for _, opt := range opts {
		opt(fn)
	}
	b.decls = append(b.decls, fn)
	return fn
}

func (b *Builder) Param(name string, typ types.TypeID, attrs ...IOAttributes) *Param {
	p := &Param{nodeBase: b.next(), Name: name, Type: typ}
	if len(attrs) > 0 {
		p.Attrs = attrs[0]
	}
	return p
}

// BuiltinAttr decorates a value with @builtin(v).
func BuiltinAttr(v shader.BuiltinValue) IOAttributes {
	return IOAttributes{Builtin: v}
}

// LocationAttr decorates a value with @location(n) and an optional @interpolate.
func LocationAttr(n uint32, interp *shader.Interpolation) IOAttributes {
	return IOAttributes{Location: &n, Interpolation: interp}
}

// Var makes a function-scope var. A zero typ takes the initializer's type.
func (b *Builder) Var(name string, typ types.TypeID, init Expr) *Variable {
	init = b.rvalue(init)
	if typ == types.NoTypeID && init != nil {
		typ = init.Type()
	}
	return &Variable{
		nodeBase:  b.next(),
		Kind:      VarVar,
		Name:      name,
		StoreType: typ,
		Space:     shader.SpaceFunction,
		Access:    shader.AccessReadWrite,
		Init:      init,
	}
}

// GlobalVar declares a module-scope var.
func (b *Builder) GlobalVar(name string, space shader.AddressSpace, typ types.TypeID, init Expr, binding *shader.BindingPoint) *Variable {
	v := &Variable{
		nodeBase:  b.next(),
		Kind:      VarVar,
		Name:      name,
		StoreType: typ,
		Space:     space,
		Access:    shader.DefaultAccess(space),
		Init:      b.rvalue(init),
		Binding:   binding,
	}
	b.decls = append(b.decls, v)
	return v
}

func (b *Builder) Let(name string, init Expr) *Variable {
	init = b.rvalue(init)
	return &Variable{nodeBase: b.next(), Kind: VarLet, Name: name, StoreType: init.Type(), Init: init}
}

func (b *Builder) Const(name string, init Expr) *Variable {
	return &Variable{nodeBase: b.next(), Kind: VarConst, Name: name, StoreType: init.Type(), Init: init}
}

// GlobalConst declares a module-scope const.
func (b *Builder) GlobalConst(name string, init Expr) *Variable {
	v := b.Const(name, init)
	b.decls = append(b.decls, v)
	return v
}

// Override declares a module-scope override.
func (b *Builder) Override(name string, typ types.TypeID, init Expr) *Variable {
	v := &Variable{nodeBase: b.next(), Kind: VarOverride, Name: name, StoreType: typ, Init: b.rvalue(init)}
	b.decls = append(b.decls, v)
	return v
}

func (b *Builder) Alias(name string, typ types.TypeID) *AliasDecl {
	a := &AliasDecl{nodeBase: b.next(), Name: name, Type: typ}
	b.decls = append(b.decls, a)
	return a
}

// Struct registers a struct type and declares it.
func (b *Builder) Struct(name string, members ...types.StructMember) *StructDecl {
	s := &StructDecl{nodeBase: b.next(), Type: b.Types.RegisterStruct(name, members)}
	b.decls = append(b.decls, s)
	return s
}

// ConstAssert makes a const_assert usable as a statement or, via
// GlobalConstAssert, as a declaration.
func (b *Builder) ConstAssert(cond Expr) *ConstAssert {
	return &ConstAssert{nodeBase: b.next(), Cond: cond}
}

func (b *Builder) GlobalConstAssert(cond Expr) *ConstAssert {
	ca := b.ConstAssert(cond)
	b.decls = append(b.decls, ca)
	return ca
}

// Declare appends a declaration built outside the builder.
func (b *Builder) Declare(d Decl) {
	b.decls = append(b.decls, d)
}

// Expressions ---------------------------------------------------------------

func (b *Builder) Lit(v constant.Value) *Literal {
	return &Literal{exprBase: b.expr(v.Type(), v)}
}

func (b *Builder) True() *Literal         { return b.Lit(b.Consts.Bool(true)) }
func (b *Builder) False() *Literal        { return b.Lit(b.Consts.Bool(false)) }
func (b *Builder) Int(v int32) *Literal   { return b.Lit(b.Consts.I32(v)) }
func (b *Builder) Uint(v uint32) *Literal { return b.Lit(b.Consts.U32(v)) }
func (b *Builder) Float(v float32) *Literal {
	return b.Lit(b.Consts.F32(v))
}
func (b *Builder) Half(v float32) *Literal   { return b.Lit(b.Consts.F16(v)) }
func (b *Builder) AInt(v int64) *Literal     { return b.Lit(b.Consts.AInt(v)) }
func (b *Builder) AFloat(v float64) *Literal { return b.Lit(b.Consts.AFloat(v)) }

// Ref names d as a memory reference. Only vars are memory-backed; for other
// declarations Ref behaves like Use.
func (b *Builder) Ref(d Declared) Expr {
	v, ok := d.(*Variable)
	if !ok || v.Kind != VarVar {
		return b.Use(d)
	}
	ref := b.Types.Ref(v.Space, v.StoreType, v.Access)
	return &Ident{exprBase: b.expr(ref, nil), Name: v.Name, Target: v}
}

// Use names d as a value, loading vars.
func (b *Builder) Use(d Declared) Expr {
	switch dd := d.(type) {
	case *Param:
		return &Ident{exprBase: b.expr(dd.Type, nil), Name: dd.Name, Target: dd}
	case *Variable:
		switch dd.Kind {
		case VarVar:
			return b.rvalue(b.Ref(dd))
		case VarConst:
			return &Ident{exprBase: b.expr(dd.StoreType, dd.Init.ConstValue()), Name: dd.Name, Target: dd}
		default:
			return &Ident{exprBase: b.expr(dd.StoreType, nil), Name: dd.Name, Target: dd}
		}
	}
	return nil
}

// rvalue wraps reference-typed expressions in a Load.
func (b *Builder) rvalue(e Expr) Expr {
	if e == nil {
		return nil
	}
	tt, ok := b.Types.Lookup(e.Type())
	if !ok || tt.Kind != types.KindReference {
		return e
	}
	return &Load{exprBase: b.expr(tt.Elem, nil), Ref: e}
}

func (b *Builder) rvalues(es []Expr) []Expr {
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = b.rvalue(e)
	}
	return out
}

func (b *Builder) Binary(op BinaryOp, lhs, rhs Expr) *BinaryExpr {
	lhs, rhs = b.rvalue(lhs), b.rvalue(rhs)
	typ := lhs.Type()
	switch {
	case op.IsShortCircuit():
		typ = b.Bool()
	case op.IsComparison():
		typ = b.Bool()
		if tt, _ := b.Types.Lookup(lhs.Type()); tt.Kind == types.KindVector {
			typ = b.Vec(b.Bool(), tt.Count)
		}
	}
	return &BinaryExpr{exprBase: b.expr(typ, nil), Op: op, LHS: lhs, RHS: rhs}
}

func (b *Builder) And(lhs, rhs Expr) *BinaryExpr { return b.Binary(OpLogicalAnd, lhs, rhs) }
func (b *Builder) Or(lhs, rhs Expr) *BinaryExpr  { return b.Binary(OpLogicalOr, lhs, rhs) }
func (b *Builder) Add(lhs, rhs Expr) *BinaryExpr { return b.Binary(OpAdd, lhs, rhs) }
func (b *Builder) Lt(lhs, rhs Expr) *BinaryExpr  { return b.Binary(OpLessThan, lhs, rhs) }

func (b *Builder) Unary(op UnaryOp, x Expr) *UnaryExpr {
	typ := x.Type()
	switch op {
	case OpAddressOf:
		if tt, ok := b.Types.Lookup(typ); ok && tt.Kind == types.KindReference {
			typ = b.Types.Ptr(tt.Space, tt.Elem, tt.Access)
		}
	case OpIndirection:
		x = b.rvalue(x)
		if tt, ok := b.Types.Lookup(x.Type()); ok && tt.Kind == types.KindPointer {
			typ = b.Types.Ref(tt.Space, tt.Elem, tt.Access)
		}
	default:
		x = b.rvalue(x)
		typ = x.Type()
	}
	return &UnaryExpr{exprBase: b.expr(typ, nil), Op: op, X: x}
}

func (b *Builder) Bitcast(typ types.TypeID, x Expr) *BitcastExpr {
	return &BitcastExpr{exprBase: b.expr(typ, nil), X: b.rvalue(x)}
}

// elementOf returns the type of one element of a vector, matrix or array.
func (b *Builder) elementOf(typ types.TypeID) types.TypeID {
	tt, ok := b.Types.Lookup(typ)
	if !ok {
		return types.NoTypeID
	}
	if tt.Kind == types.KindMatrix {
		return b.Vec(tt.Elem, uint32(tt.Rows))
	}
	return tt.Elem
}

func (b *Builder) Index(obj, idx Expr) *IndexExpr {
	idx = b.rvalue(idx)
	typ := b.accessResult(obj, func(t types.TypeID) types.TypeID { return b.elementOf(t) })
	return &IndexExpr{exprBase: b.expr(typ, nil), Object: obj, Index: idx}
}

func (b *Builder) Member(obj Expr, member uint32) *MemberExpr {
	typ := b.accessResult(obj, func(t types.TypeID) types.TypeID {
		if info, ok := b.Types.StructInfo(t); ok {
			if int(member) < len(info.Members) {
				return info.Members[member].Type
			}
			return types.NoTypeID
		}
		return b.elementOf(t)
	})
	return &MemberExpr{exprBase: b.expr(typ, nil), Object: obj, Member: member}
}

// accessResult keeps the reference-ness of obj on the selected element.
func (b *Builder) accessResult(obj Expr, elem func(types.TypeID) types.TypeID) types.TypeID {
	tt, ok := b.Types.Lookup(obj.Type())
	if ok && tt.Kind == types.KindReference {
		return b.Types.Ref(tt.Space, elem(tt.Elem), tt.Access)
	}
	return elem(obj.Type())
}

// Call calls a user function.
func (b *Builder) Call(fn *Function, args ...Expr) *CallExpr {
	return &CallExpr{exprBase: b.expr(fn.ReturnType, nil), Target: FunctionTarget{Func: fn}, Args: b.rvalues(args)}
}

// CallBuiltin calls a builtin returning ret (zero for void).
func (b *Builder) CallBuiltin(fn shader.BuiltinFn, ret types.TypeID, args ...Expr) *CallExpr {
	if ret == types.NoTypeID {
		ret = b.Void()
	}
	return &CallExpr{exprBase: b.expr(ret, nil), Target: BuiltinTarget{Fn: fn}, Args: b.rvalues(args)}
}

func (b *Builder) Construct(typ types.TypeID, args ...Expr) *CallExpr {
	return &CallExpr{exprBase: b.expr(typ, nil), Target: ConstructorTarget{Type: typ}, Args: b.rvalues(args)}
}

func (b *Builder) Convert(typ types.TypeID, x Expr) *CallExpr {
	return &CallExpr{exprBase: b.expr(typ, nil), Target: ConversionTarget{Type: typ}, Args: []Expr{b.rvalue(x)}}
}

// Statements ----------------------------------------------------------------

func (b *Builder) Block(stmts ...Stmt) *BlockStmt {
	return &BlockStmt{nodeBase: b.next(), Stmts: stmts}
}

// If builds `if cond body else els`; els may be nil.
func (b *Builder) If(cond Expr, body *BlockStmt, els Stmt) *IfStmt {
	return &IfStmt{nodeBase: b.next(), Cond: b.rvalue(cond), Body: body, Else: els}
}

// Loop builds `loop { body continuing { cont } }`; cont may be nil.
func (b *Builder) Loop(body, cont *BlockStmt) *LoopStmt {
	return &LoopStmt{nodeBase: b.next(), Body: body, Continuing: cont}
}

func (b *Builder) For(init Stmt, cond Expr, cont Stmt, body *BlockStmt) *ForStmt {
	return &ForStmt{nodeBase: b.next(), Init: init, Cond: b.rvalue(cond), Cont: cont, Body: body}
}

func (b *Builder) While(cond Expr, body *BlockStmt) *WhileStmt {
	return &WhileStmt{nodeBase: b.next(), Cond: b.rvalue(cond), Body: body}
}

func (b *Builder) Switch(cond Expr, cases ...*CaseClause) *SwitchStmt {
	return &SwitchStmt{nodeBase: b.next(), Cond: b.rvalue(cond), Cases: cases}
}

// Case builds a case clause. A nil selector expression is `default`.
func (b *Builder) Case(body *BlockStmt, selectors ...Expr) *CaseClause {
	sels := make([]CaseSelector, len(selectors))
	for i, s := range selectors {
		sels[i] = CaseSelector{Expr: s}
	}
	return &CaseClause{nodeBase: b.next(), Selectors: sels, Body: body}
}

// DefaultCase builds `default: body`.
func (b *Builder) DefaultCase(body *BlockStmt) *CaseClause {
	return b.Case(body, nil)
}

func (b *Builder) Return(value Expr) *ReturnStmt {
	return &ReturnStmt{nodeBase: b.next(), Value: b.rvalue(value)}
}

func (b *Builder) Break() *BreakStmt       { return &BreakStmt{nodeBase: b.next()} }
func (b *Builder) Continue() *ContinueStmt { return &ContinueStmt{nodeBase: b.next()} }
func (b *Builder) Discard() *DiscardStmt   { return &DiscardStmt{nodeBase: b.next()} }

func (b *Builder) BreakIf(cond Expr) *BreakIfStmt {
	return &BreakIfStmt{nodeBase: b.next(), Cond: b.rvalue(cond)}
}

func (b *Builder) Decl(v *Variable) *VarDeclStmt {
	return &VarDeclStmt{nodeBase: b.next(), Var: v}
}

// Assign builds `lhs = rhs`. lhs must be a reference expression.
func (b *Builder) Assign(lhs, rhs Expr) *AssignStmt {
	return &AssignStmt{nodeBase: b.next(), LHS: lhs, RHS: b.rvalue(rhs)}
}

// Phony builds `_ = rhs`.
func (b *Builder) Phony(rhs Expr) *AssignStmt {
	return &AssignStmt{nodeBase: b.next(), RHS: b.rvalue(rhs)}
}

func (b *Builder) CompoundAssign(lhs Expr, op BinaryOp, rhs Expr) *CompoundAssignStmt {
	return &CompoundAssignStmt{nodeBase: b.next(), LHS: lhs, Op: op, RHS: b.rvalue(rhs)}
}

func (b *Builder) Inc(lhs Expr) *IncDecStmt {
	return &IncDecStmt{nodeBase: b.next(), LHS: lhs, Increment: true}
}

func (b *Builder) Dec(lhs Expr) *IncDecStmt {
	return &IncDecStmt{nodeBase: b.next(), LHS: lhs}
}

func (b *Builder) CallStmt(call *CallExpr) *CallStmt {
	return &CallStmt{nodeBase: b.next(), Call: call}
}
