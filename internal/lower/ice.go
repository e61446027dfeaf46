package lower

import (
	"fmt"

	"shadeir/internal/diag"
	"shadeir/internal/source"
)

// ICE is an internal consistency error: the input violated an assumption of
// lowering, which means an earlier stage is broken.
type ICE struct {
	Code diag.Code
	Msg  string
	Span source.Span
}

func (e *ICE) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
}

// Diagnostic converts the error for reporting.
func (e *ICE) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

func newICE(code diag.Code, span source.Span, format string, args ...any) *ICE {
	return &ICE{Code: code, Msg: fmt.Sprintf(format, args...), Span: span}
}
