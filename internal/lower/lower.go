package lower

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"shadeir/internal/ast"
	"shadeir/internal/diag"
	"shadeir/internal/ir"
	"shadeir/internal/source"
	"shadeir/internal/trace"
	"shadeir/internal/types"
)

// Options tunes Build.
type Options struct {
	// Validate runs ir.ValidateBag on the lowered module.
	Validate bool
	// MaxDiagnostics caps the result bag; zero means unlimited.
	MaxDiagnostics int
}

// Result is the outcome of Build. Module is nil when lowering failed.
type Result struct {
	Module *ir.Module
	Bag    *diag.Bag

	nodes map[ast.Node]ir.Instruction
}

// InstructionFor returns the instruction lowered from n: the control
// instruction of an if, loop, for, while or switch statement, or the
// terminator of a break if. It is nil for statements that produced no such
// instruction, dead code included.
func (r Result) InstructionFor(n ast.Node) ir.Instruction {
	return r.nodes[n]
}

// OK reports whether lowering produced a module without errors.
func (r Result) OK() bool {
	return r.Module != nil && (r.Bag == nil || !r.Bag.HasErrors())
}

// Err joins the error diagnostics, or returns nil.
func (r Result) Err() error {
	if r.Bag == nil {
		return nil
	}
	return r.Bag.Err()
}

// Build lowers prog with default options.
func Build(ctx context.Context, prog *ast.Program) Result {
	return BuildWithOptions(ctx, prog, Options{})
}

// BuildWithOptions lowers prog into a new module. Internal consistency
// errors abort the whole program; no partial module is returned.
func BuildWithOptions(ctx context.Context, prog *ast.Program, opts Options) (res Result) {
	res.Bag = diag.NewBag(opts.MaxDiagnostics)
	if prog == nil {
		res.Bag.Add(diag.NewError(diag.IRInternal, source.NoSpan, "nil program"))
		return res
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "lower", trace.CurrentSpan(ctx))

	l := newLowerer(ctx, prog, tracer, span.ID())
	defer func() {
		if r := recover(); r != nil {
			res.Module = nil
			res.Bag.Add(recoverDiagnostic(r))
			span.End("ice")
		}
	}()

	if err := l.lowerProgram(); err != nil {
		res.Bag.Add(errorDiagnostic(err))
		span.End("ice")
		return res
	}
	if opts.Validate && !ir.ValidateBag(l.mod, res.Bag) {
		span.End("invalid")
		return res
	}

	span.WithExtra("functions", strconv.Itoa(len(l.mod.Functions()))).
		WithExtra("instructions", strconv.Itoa(l.mod.InstructionCount())).
		End("")
	res.Module = l.mod
	res.nodes = l.nodes
	return res
}

func errorDiagnostic(err error) diag.Diagnostic {
	var ice *ICE
	if errors.As(err, &ice) {
		return ice.Diagnostic()
	}
	return diag.NewError(diag.IRInternal, source.NoSpan, err.Error())
}

// recoverDiagnostic converts a panic from ir or the lowerer. Runtime errors
// come from malformed input trees and are reported as internal errors too;
// any other panic value keeps unwinding.
func recoverDiagnostic(r any) diag.Diagnostic {
	err, ok := r.(error)
	if !ok {
		panic(r)
	}
	var ice *ICE
	var irErr *ir.Error
	var rtErr runtime.Error
	switch {
	case errors.As(err, &ice):
		return ice.Diagnostic()
	case errors.As(err, &irErr):
		return diag.NewError(diag.IRInternal, source.NoSpan, irErr.Error())
	case errors.As(err, &rtErr):
		return diag.NewError(diag.IRInternal, source.NoSpan, "lowering crashed: "+rtErr.Error())
	}
	panic(r)
}

// lowerer holds the state of one Build call.
type lowerer struct {
	ctx    context.Context
	tracer trace.Tracer
	parent uint64

	prog *ast.Program
	mod  *ir.Module
	b    *ir.Builder
	in   *types.Interner

	// current is the block receiving instructions; nil once it branched.
	current  *ir.Block
	fn       *ir.Function
	fnSpan   uint64
	controls []ir.ControlInstruction
	scopes   scopeStack

	functions map[*ast.Function]*ir.Function
	// nodes maps statements to the instructions they became.
	nodes map[ast.Node]ir.Instruction
}

func newLowerer(ctx context.Context, prog *ast.Program, tracer trace.Tracer, parent uint64) *lowerer {
	mod := ir.NewModule(prog.Types, prog.Consts)
	return &lowerer{
		ctx:       ctx,
		tracer:    tracer,
		parent:    parent,
		prog:      prog,
		mod:       mod,
		b:         ir.NewBuilder(mod),
		in:        prog.Types,
		functions: make(map[*ast.Function]*ir.Function),
		nodes:     make(map[ast.Node]ir.Instruction),
	}
}

func (l *lowerer) lowerProgram() error {
	l.scopes.push()
	defer l.scopes.pop()

	for _, decl := range l.prog.DependencyOrderedDecls() {
		if err := l.ctx.Err(); err != nil {
			return fmt.Errorf("lowering cancelled: %w", err)
		}
		if err := l.lowerDecl(decl); err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) lowerDecl(decl ast.Decl) error {
	switch d := decl.(type) {
	case *ast.StructDecl, *ast.AliasDecl, *ast.ConstAssert:
		return nil
	case *ast.Variable:
		return l.lowerModuleVar(d)
	case *ast.Function:
		return l.lowerFunction(d)
	default:
		return newICE(diag.IRUnknownDecl, decl.Span(), "unhandled declaration %T", decl)
	}
}

func (l *lowerer) lowerModuleVar(v *ast.Variable) error {
	switch v.Kind {
	case ast.VarConst:
		return nil
	case ast.VarOverride:
		return newICE(diag.IROverride, v.Span(), "override %q must be substituted before lowering", v.Name)
	case ast.VarVar:
	default:
		return newICE(diag.IRUnknownVar, v.Span(), "%s %q is not valid at module scope", v.Kind, v.Name)
	}

	l.current = l.mod.RootBlock()
	defer func() { l.current = nil }()
	return l.lowerVar(v)
}

// irType maps AST types to IR types. References become pointers.
func (l *lowerer) irType(id types.TypeID) types.TypeID {
	tt, ok := l.in.Lookup(id)
	if !ok || tt.Kind != types.KindReference {
		return id
	}
	return l.in.Ptr(tt.Space, tt.Elem, tt.Access)
}

// emit appends inst to the current block.
func (l *lowerer) emit(inst ir.Instruction) {
	if l.current == nil {
		panic(newICE(diag.IRInternal, source.NoSpan, "%T emitted into unreachable code", inst))
	}
	l.current.Append(inst)
}

// needBranch reports whether the current block is still open.
func (l *lowerer) needBranch() bool { return l.current != nil }

// setBranch closes the current block with br.
func (l *lowerer) setBranch(br ir.Branch) {
	l.emit(br)
	l.current = nil
}

// withControl lowers the sub-blocks of ctrl with ctrl on the control stack.
func (l *lowerer) withControl(ctrl ir.ControlInstruction, fn func() error) error {
	l.controls = append(l.controls, ctrl)
	defer func() { l.controls = l.controls[:len(l.controls)-1] }()
	return fn()
}

// findEnclosingControl returns the innermost loop, or loop or switch unless
// excludeSwitch is set.
func (l *lowerer) findEnclosingControl(excludeSwitch bool) ir.ControlInstruction {
	for i := len(l.controls) - 1; i >= 0; i-- {
		switch c := l.controls[i].(type) {
		case *ir.Loop:
			return c
		case *ir.Switch:
			if !excludeSwitch {
				return c
			}
		}
	}
	return nil
}

// connectedOrNil returns b when some branch reaches it.
func connectedOrNil(b *ir.Block) *ir.Block {
	if b != nil && b.IsConnected() {
		return b
	}
	return nil
}

func (l *lowerer) tracePoint(name string, span source.Span) {
	trace.Point(l.tracer, trace.ScopeConstruct, name, span.String(), l.fnSpan)
}
