package binary_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"shadeir/internal/ast"
	"shadeir/internal/ir"
	"shadeir/internal/ir/binary"
	"shadeir/internal/lower"
	"shadeir/internal/samples"
	"shadeir/internal/shader"
	"shadeir/internal/testkit"
)

func lowerSample(t *testing.T, s samples.Sample) *ir.Module {
	t.Helper()
	res := lower.Build(context.Background(), s.Build())
	if !res.OK() {
		t.Fatalf("lowering %s failed: %v", s.Name, res.Err())
	}
	return res.Module
}

func TestRoundTrip_Samples(t *testing.T) {
	for _, s := range samples.All() {
		t.Run(s.Name, func(t *testing.T) {
			m := lowerSample(t, s)
			data, err := binary.Marshal(m)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := binary.Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			want := ir.Disassemble(m)
			if dis := ir.Disassemble(got); dis != want {
				t.Fatalf("round trip changed the module\n--- got ---\n%s--- want ---\n%s", dis, want)
			}
			testkit.MustValidate(t, got)
			if err := testkit.CheckGraphInvariants(got); err != nil {
				t.Fatalf("graph invariants: %v", err)
			}
			if got.InstructionCount() != m.InstructionCount() {
				t.Fatalf("InstructionCount = %d, want %d", got.InstructionCount(), m.InstructionCount())
			}
		})
	}
}

func TestRoundTrip_PreservesBookkeeping(t *testing.T) {
	s, _ := samples.Lookup("logic")
	m := lowerSample(t, s)

	var buf bytes.Buffer
	if err := binary.Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := binary.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for _, name := range []string{"in_range", "count"} {
		a, b := m.FunctionByName(name), got.FunctionByName(name)
		if b == nil {
			t.Fatalf("function %q missing after decode", name)
		}
		if a.ReturnCount() != b.ReturnCount() {
			t.Errorf("%s: ReturnCount = %d, want %d", name, b.ReturnCount(), a.ReturnCount())
		}
		if len(a.Params()) != len(b.Params()) {
			t.Errorf("%s: params = %d, want %d", name, len(b.Params()), len(a.Params()))
		}
	}

	ifs := testkit.FindAll[*ir.If](got)
	for _, i := range ifs {
		if merge := i.Merge(); merge != nil && len(merge.Params()) > 0 && len(merge.InboundBranches()) != 2 {
			t.Errorf("short-circuit merge has %d inbound branches, want 2", len(merge.InboundBranches()))
		}
	}
	call := testkit.FindSingle[*ir.UserCall](t, got)
	if got.NameOf(call.Target) != "in_range" {
		t.Errorf("call target = %q, want in_range", got.NameOf(call.Target))
	}
}

func TestRoundTrip_HandBuilt(t *testing.T) {
	m := ir.NewModule(nil, nil)
	b := ir.NewBuilder(m)
	u32 := m.Types.Builtins().U32

	v := b.Var(m.Types.Ptr(shader.SpaceStorage, u32, shader.AccessReadWrite))
	v.BindingPoint = &shader.BindingPoint{Group: 2, Binding: 5}
	m.RootBlock().Append(v)
	m.SetName(v.Result(), "buf")

	fn := b.Function("f", m.Types.Builtins().Void, shader.StageNone, nil)
	start := fn.StartBlock()
	loop := b.Loop()
	start.Append(loop)
	loop.Body().Append(b.Store(v.Result(), b.U32(7)))
	loop.Body().Append(b.Unreachable())
	loop.Merge().Append(b.Return(fn, nil))

	data, err := binary.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := binary.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ir.Disassemble(got) != ir.Disassemble(m) {
		t.Fatalf("round trip changed the module\n%s", ir.Disassemble(got))
	}
	gv := testkit.FindSingle[*ir.Var](t, got)
	if gv.BindingPoint == nil || *gv.BindingPoint != (shader.BindingPoint{Group: 2, Binding: 5}) {
		t.Fatalf("binding point = %v", gv.BindingPoint)
	}
}

func TestDecode_Errors(t *testing.T) {
	encode := func(doc map[string]any) []byte {
		data, err := msgpack.Marshal(doc)
		if err != nil {
			t.Fatalf("msgpack: %v", err)
		}
		return data
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"garbage", []byte{0xc1, 0x00}, "binary:"},
		{"magic", encode(map[string]any{"magic": "spirv", "version": 1}), "not an IR module"},
		{"version", encode(map[string]any{"magic": "shadeir", "version": 999}), "format version"},
		{"type range", encode(map[string]any{
			"magic": "shadeir", "version": 1,
			"types": []map[string]any{{"k": 9, "e": 40, "n": 4}},
		}), "out of range"},
		{"missing body", encode(map[string]any{
			"magic": "shadeir", "version": 1,
			"funcs": []map[string]any{{"name": "f", "ret": 0}},
		}), "no body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := binary.Unmarshal(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDecode_RejectsOversizedContainers(t *testing.T) {
	var doc []byte
	for _, part := range []any{"magic", "shadeir", "version", 1, "types"} {
		b, err := msgpack.Marshal(part)
		if err != nil {
			t.Fatalf("msgpack: %v", err)
		}
		doc = append(doc, b...)
	}
	header := append([]byte{0x83}, doc...)

	tests := []struct {
		name string
		data []byte
	}{
		{"array32", append(bytes.Clone(header), 0xdd, 0xff, 0xff, 0xff, 0xff)},
		{"array16", append(bytes.Clone(header), 0xdc, 0xff, 0xff, 0x90)},
		{"map32", append(bytes.Clone(header), 0xdf, 0x7f, 0xff, 0xff, 0xff, 0xa1, 'k')},
		{"top level", []byte{0xdd, 0xff, 0xff, 0xff, 0xf0, 0xc0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := binary.Unmarshal(tt.data)
			if err == nil || !strings.Contains(err.Error(), "bytes left") {
				t.Fatalf("err = %v, want length rejection", err)
			}
		})
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestDecode_InputSizeLimit(t *testing.T) {
	if _, err := binary.Decode(zeroReader{}); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want size limit error", err)
	}
}

// Every single-byte corruption of a real module must decode or fail cleanly.
func TestDecode_CorruptedBytes(t *testing.T) {
	s, _ := samples.Lookup("compute")
	data, err := binary.Marshal(lowerSample(t, s))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := range data {
		for _, b := range []byte{data[i] ^ 0xff, 0xdd, 0xdf, 0xc6} {
			bad := bytes.Clone(data)
			bad[i] = b
			if mod, err := binary.Unmarshal(bad); err == nil && mod == nil {
				t.Fatalf("offset %d = %#x: nil module without error", i, b)
			}
		}
	}
}

func TestDecode_ForwardReference(t *testing.T) {
	ab := ast.NewBuilder()
	ab.Func("f", nil, 0, nil)
	m := lower.Build(context.Background(), ab.Program()).Module

	data, err := binary.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]any
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		t.Fatalf("msgpack: %v", err)
	}
	// ret %42
	doc["funcs"] = []map[string]any{{
		"name": "f", "ret": 1,
		"body": map[string]any{"insts": []map[string]any{{"op": 14, "ops": []uint32{84}}}},
	}}
	bad, err := msgpack.Marshal(doc)
	if err != nil {
		t.Fatalf("msgpack: %v", err)
	}
	if _, err := binary.Unmarshal(bad); err == nil || !strings.Contains(err.Error(), "before its definition") {
		t.Fatalf("err = %v, want forward reference error", err)
	}
}
