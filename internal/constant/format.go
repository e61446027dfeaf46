package constant

import (
	"strconv"
	"strings"

	"shadeir/internal/types"
)

// Format renders v with the literal suffixes used by the disassembler:
// 1i, 2u, 1.5f, 1h, true, and unsuffixed abstract numbers.
func Format(in *types.Interner, v Value) string {
	var sb strings.Builder
	writeValue(&sb, in, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, in *types.Interner, v Value) {
	switch vv := v.(type) {
	case *Scalar:
		sb.WriteString(formatScalar(vv))
	case *Splat:
		sb.WriteString(in.Name(vv.typ))
		sb.WriteByte('(')
		writeValue(sb, in, vv.El)
		sb.WriteByte(')')
	case *Composite:
		sb.WriteString(in.Name(vv.typ))
		sb.WriteByte('(')
		for i, el := range vv.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, in, el)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("<unknown constant>")
	}
}

func formatScalar(s *Scalar) string {
	switch s.kind {
	case types.KindBool:
		return strconv.FormatBool(s.Bool())
	case types.KindI32:
		return strconv.FormatInt(s.Int(), 10) + "i"
	case types.KindU32:
		return strconv.FormatUint(s.Uint(), 10) + "u"
	case types.KindAbstractInt:
		return strconv.FormatInt(s.Int(), 10)
	case types.KindF32:
		return strconv.FormatFloat(s.Float(), 'g', -1, 32) + "f"
	case types.KindF16:
		return strconv.FormatFloat(s.Float(), 'g', -1, 32) + "h"
	case types.KindAbstractFloat:
		return strconv.FormatFloat(s.Float(), 'g', -1, 64)
	}
	return "<invalid scalar>"
}
