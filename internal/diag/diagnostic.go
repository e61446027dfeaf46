package diag

import (
	"fmt"

	"shadeir/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// IsICE reports whether the diagnostic describes a compiler bug rather than
// a problem in the shader source.
func (d Diagnostic) IsICE() bool {
	return d.Code.IsICE()
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s %s: %s", d.Primary, d.Severity, d.Code.ID(), d.Message)
}
