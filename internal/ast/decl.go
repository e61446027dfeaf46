package ast

import (
	"shadeir/internal/constant"
	"shadeir/internal/shader"
	"shadeir/internal/types"
)

// Function is a function declaration.
type Function struct {
	nodeBase
	Name          string
	Params        []*Param
	ReturnType    types.TypeID
	ReturnAttrs   IOAttributes
	Stage         shader.PipelineStage
	WorkgroupSize *shader.WorkgroupSize
	Body          *BlockStmt
}

func (*Function) isDecl() {}

// IsEntryPoint reports whether the function carries a pipeline stage.
func (f *Function) IsEntryPoint() bool { return f.Stage.IsEntryPoint() }

// Param is a function parameter.
type Param struct {
	nodeBase
	Name  string
	Type  types.TypeID
	Attrs IOAttributes
}

func (p *Param) DeclName() string { return p.Name }

// VarKind distinguishes the variable-like declarations.
type VarKind uint8

const (
	VarVar VarKind = iota
	VarLet
	VarConst
	VarOverride
)

func (k VarKind) String() string {
	switch k {
	case VarVar:
		return "var"
	case VarLet:
		return "let"
	case VarConst:
		return "const"
	case VarOverride:
		return "override"
	}
	return "?"
}

// Variable is a var, let, const or override. It is a Decl at module scope and
// appears inside VarDeclStmt in function bodies.
type Variable struct {
	nodeBase
	Kind VarKind
	Name string
	// StoreType is the type of the stored value (not the reference).
	StoreType types.TypeID
	Space     shader.AddressSpace
	Access    shader.Access
	Init      Expr
	Binding   *shader.BindingPoint
}

func (*Variable) isDecl()            {}
func (v *Variable) DeclName() string { return v.Name }

// StructDecl declares a struct type. It produces no IR.
type StructDecl struct {
	nodeBase
	Type types.TypeID
}

func (*StructDecl) isDecl() {}

// AliasDecl declares a type alias. It produces no IR.
type AliasDecl struct {
	nodeBase
	Name string
	Type types.TypeID
}

func (*AliasDecl) isDecl() {}

// ConstAssert is a compile-time assertion. It is valid both at module scope
// and as a statement, and produces no IR.
type ConstAssert struct {
	nodeBase
	Cond Expr
}

func (*ConstAssert) isDecl() {}
func (*ConstAssert) isStmt() {}

// Program is a resolved program.
type Program struct {
	Types  *types.Interner
	Consts *constant.Manager
	decls  []Decl
}

// DependencyOrderedDecls returns the top-level declarations, each after
// everything it references.
func (p *Program) DependencyOrderedDecls() []Decl {
	return p.decls
}
