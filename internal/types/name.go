package types

import (
	"fmt"
	"strings"
)

// Name renders id the way shader source spells it, e.g. vec3<f32> or
// ptr<function, i32, read_write>.
func (in *Interner) Name(id TypeID) string {
	var sb strings.Builder
	in.writeName(&sb, id)
	return sb.String()
}

func (in *Interner) writeName(sb *strings.Builder, id TypeID) {
	tt, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("<invalid>")
		return
	}
	switch tt.Kind {
	case KindVoid, KindBool, KindI32, KindU32, KindF32, KindF16, KindAbstractInt, KindAbstractFloat:
		sb.WriteString(tt.Kind.String())
	case KindVector:
		fmt.Fprintf(sb, "vec%d<", tt.Count)
		in.writeName(sb, tt.Elem)
		sb.WriteByte('>')
	case KindMatrix:
		fmt.Fprintf(sb, "mat%dx%d<", tt.Count, tt.Rows)
		in.writeName(sb, tt.Elem)
		sb.WriteByte('>')
	case KindArray:
		sb.WriteString("array<")
		in.writeName(sb, tt.Elem)
		if tt.Count != RuntimeSized {
			fmt.Fprintf(sb, ", %d", tt.Count)
		}
		sb.WriteByte('>')
	case KindStruct:
		if info, ok := in.StructInfo(id); ok {
			sb.WriteString(info.Name)
		} else {
			sb.WriteString("<struct>")
		}
	case KindPointer, KindReference:
		if tt.Kind == KindPointer {
			sb.WriteString("ptr<")
		} else {
			sb.WriteString("ref<")
		}
		sb.WriteString(tt.Space.String())
		sb.WriteString(", ")
		in.writeName(sb, tt.Elem)
		sb.WriteString(", ")
		sb.WriteString(tt.Access.String())
		sb.WriteByte('>')
	case KindAtomic:
		sb.WriteString("atomic<")
		in.writeName(sb, tt.Elem)
		sb.WriteByte('>')
	case KindSampler:
		sb.WriteString("sampler")
	default:
		sb.WriteString(tt.Kind.String())
	}
}
