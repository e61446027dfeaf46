package ir

import (
	"slices"

	"shadeir/internal/shader"
	"shadeir/internal/types"
)

// Function is a function of the module.
type Function struct {
	mod           *Module
	start         *Block
	Stage         shader.PipelineStage
	WorkgroupSize *shader.WorkgroupSize
	ReturnType    types.TypeID
	ReturnAttrs   IOAttributes
	params        []*FunctionParam
	returns       []*Return
}

func (f *Function) nameable() {}

// StartBlock returns the entry block.
func (f *Function) StartBlock() *Block { return f.start }

// SetStartBlock replaces the entry block.
func (f *Function) SetStartBlock(b *Block) { f.start = b }

func (f *Function) Params() []*FunctionParam { return f.params }

// SetParams replaces the parameter list.
func (f *Function) SetParams(params []*FunctionParam) {
	for _, p := range params {
		p.fn = f
	}
	f.params = params
}

// Returns lists the Return instructions leaving the function.
func (f *Function) Returns() []*Return { return f.returns }

// ReturnCount is the number of branches reaching the end of the function.
func (f *Function) ReturnCount() int { return len(f.returns) }

func (f *Function) addReturn(r *Return) { f.returns = append(f.returns, r) }

func (f *Function) removeReturn(r *Return) {
	if i := slices.Index(f.returns, r); i >= 0 {
		f.returns = slices.Delete(f.returns, i, i+1)
	}
}

// IsEntryPoint reports whether the function has a pipeline stage.
func (f *Function) IsEntryPoint() bool { return f.Stage.IsEntryPoint() }
