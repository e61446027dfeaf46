package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lowering failures. These are compiler bugs, never user errors.
	IRInfo               Code = 9000
	IRUnknownDecl        Code = 9001
	IRUnknownStmt        Code = 9002
	IRUnknownExpr        Code = 9003
	IRUnknownVar         Code = 9004
	IRNoEnclosingControl Code = 9005
	IRInvalidStage       Code = 9006
	IROverride           Code = 9007
	IRUnresolvedIdent    Code = 9008
	IRNoFunction         Code = 9009
	IRBadOperator        Code = 9010
	IRUnknownAttribute   Code = 9011
	IRInternal           Code = 9099

	// Validator findings.
	IRValidateRootVar     Code = 9100
	IRValidateNoStart     Code = 9101
	IRValidateNoBranch    Code = 9102
	IRValidateMidBranch   Code = 9103
	IRValidateBlockLink   Code = 9104
	IRValidateOperand     Code = 9105
	IRValidateExit        Code = 9106
	IRValidateParams      Code = 9107
	IRValidateSwitch      Code = 9108
	IRValidateUsage       Code = 9109
	IRValidateEntryPoints Code = 9110
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		IRInfo:                "IR information",
		IRUnknownDecl:         "Unknown declaration kind",
		IRUnknownStmt:         "Unknown statement kind",
		IRUnknownExpr:         "Unknown expression kind",
		IRUnknownVar:          "Unknown variable kind",
		IRNoEnclosingControl:  "No enclosing loop or switch",
		IRInvalidStage:        "Invalid pipeline stage",
		IROverride:            "Override declaration reached lowering",
		IRUnresolvedIdent:     "Identifier has no lowered value",
		IRNoFunction:          "Statement outside of a function",
		IRBadOperator:         "Invalid operator",
		IRUnknownAttribute:    "Unknown attribute",
		IRInternal:            "Internal compiler error",
		IRValidateRootVar:     "Root block holds a non-variable",
		IRValidateNoStart:     "Function has no start block",
		IRValidateNoBranch:    "Block does not end in a branch",
		IRValidateMidBranch:   "Branch in the middle of a block",
		IRValidateBlockLink:   "Broken block linkage",
		IRValidateOperand:     "Invalid operand",
		IRValidateExit:        "Exit not registered on its construct",
		IRValidateParams:      "Block parameters on a single-entry block",
		IRValidateSwitch:      "Malformed switch",
		IRValidateUsage:       "Use list out of sync",
		IRValidateEntryPoints: "Entry point list out of sync",
	}
)

// IsICE reports whether c belongs to the internal-consistency range.
func (c Code) IsICE() bool {
	return c >= IRUnknownDecl && c < 10000
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 9000 && ic < 9100:
		return fmt.Sprintf("ICE%04d", ic)
	case ic >= 9100 && ic < 10000:
		return fmt.Sprintf("VAL%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
