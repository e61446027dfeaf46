package ast

// BlockStmt is a braced statement list.
type BlockStmt struct {
	nodeBase
	Stmts []Stmt
}

// IfStmt is `if Cond Body else Else`. Else is nil, *IfStmt or *BlockStmt.
type IfStmt struct {
	nodeBase
	Cond Expr
	Body *BlockStmt
	Else Stmt
}

// LoopStmt is `loop { Body continuing { Continuing } }`. Continuing may be nil.
// A break-if, if any, is the last statement of Continuing.
type LoopStmt struct {
	nodeBase
	Body       *BlockStmt
	Continuing *BlockStmt
}

// ForStmt is `for (Init; Cond; Cont) Body`. Init, Cond and Cont may be nil.
type ForStmt struct {
	nodeBase
	Init Stmt
	Cond Expr
	Cont Stmt
	Body *BlockStmt
}

// WhileStmt is `while Cond Body`.
type WhileStmt struct {
	nodeBase
	Cond Expr
	Body *BlockStmt
}

// CaseSelector is one selector of a case clause. Expr is nil for `default`.
type CaseSelector struct {
	Expr Expr
}

// IsDefault reports whether the selector is the default marker.
func (s CaseSelector) IsDefault() bool { return s.Expr == nil }

// CaseClause is one `case a, b, default: { ... }` clause.
type CaseClause struct {
	nodeBase
	Selectors []CaseSelector
	Body      *BlockStmt
}

// SwitchStmt is `switch Cond { Cases }`.
type SwitchStmt struct {
	nodeBase
	Cond  Expr
	Cases []*CaseClause
}

// ReturnStmt returns from the function. Value is nil for void returns.
type ReturnStmt struct {
	nodeBase
	Value Expr
}

type BreakStmt struct{ nodeBase }

type ContinueStmt struct{ nodeBase }

// BreakIfStmt is `break if Cond`, valid only as the last statement of a
// continuing block.
type BreakIfStmt struct {
	nodeBase
	Cond Expr
}

// DiscardStmt is a fragment-shader `discard`.
type DiscardStmt struct{ nodeBase }

// VarDeclStmt declares a function-scope var, let or const.
type VarDeclStmt struct {
	nodeBase
	Var *Variable
}

// AssignStmt is `LHS = RHS`. LHS is nil for the phony assignment `_ = RHS`.
type AssignStmt struct {
	nodeBase
	LHS Expr
	RHS Expr
}

// CompoundAssignStmt is `LHS Op= RHS`.
type CompoundAssignStmt struct {
	nodeBase
	LHS Expr
	Op  BinaryOp
	RHS Expr
}

// IncDecStmt is `LHS++` or `LHS--`.
type IncDecStmt struct {
	nodeBase
	LHS       Expr
	Increment bool
}

// CallStmt is a call evaluated for its side effects.
type CallStmt struct {
	nodeBase
	Call *CallExpr
}

func (*BlockStmt) isStmt()          {}
func (*IfStmt) isStmt()             {}
func (*LoopStmt) isStmt()           {}
func (*ForStmt) isStmt()            {}
func (*WhileStmt) isStmt()          {}
func (*SwitchStmt) isStmt()         {}
func (*ReturnStmt) isStmt()         {}
func (*BreakStmt) isStmt()          {}
func (*ContinueStmt) isStmt()       {}
func (*BreakIfStmt) isStmt()        {}
func (*DiscardStmt) isStmt()        {}
func (*VarDeclStmt) isStmt()        {}
func (*AssignStmt) isStmt()         {}
func (*CompoundAssignStmt) isStmt() {}
func (*IncDecStmt) isStmt()         {}
func (*CallStmt) isStmt()           {}
