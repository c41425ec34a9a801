package transform

import (
	"testing"

	"github.com/ajroetker/go-ctree/codegen"
	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

func TestTrampoline(t *testing.T) {
	tests := []struct {
		name  string
		entry *ir.FuncDecl
		want  string
	}{
		{
			name: "scalar result",
			entry: &ir.FuncDecl{
				Name:   "choose",
				Return: ctype.Int64,
				Params: []*ir.SymbolRef{
					ir.TypedSym("p", ctype.Float64),
					ir.TypedSym("a", ctype.Int64),
					ir.TypedSym("b", ctype.Int64),
				},
				Body: []ir.Node{&ir.Return{Value: ir.Sym("a")}},
			},
			want: `void choose_trampoline(void** args, void* ret) {
    *(long*)ret = choose(*(double*)args[0], *(long*)args[1], *(long*)args[2]);
}`,
		},
		{
			name: "void with arrays",
			entry: &ir.FuncDecl{
				Name:   "apply",
				Return: ctype.Void,
				Params: []*ir.SymbolRef{
					ir.TypedSym("x", ctype.ArrayOf(ctype.Float32, 8)),
					ir.TypedSym("k", ctype.Float32),
					ir.TypedSym("out", ctype.ArrayOf(ctype.Float32, 8)),
				},
				Body: []ir.Node{},
			},
			want: `void apply_trampoline(void** args, void* ret) {
    apply((float*)args[0], *(float*)args[1], (float*)args[2]);
}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Trampoline(tt.entry)
			if err != nil {
				t.Fatal(err)
			}
			if got := render(t, tr); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestTrampolineErrors(t *testing.T) {
	if _, err := Trampoline(&ir.FuncDecl{Name: "fwd", Return: ctype.Void}); err == nil {
		t.Error("forward declaration accepted as entry point")
	}
	untyped := &ir.FuncDecl{Name: "f", Return: ctype.Void, Params: []*ir.SymbolRef{ir.Sym("x")}, Body: []ir.Node{}}
	if _, err := Trampoline(untyped); err == nil {
		t.Error("untyped parameter accepted")
	}
}

func TestAssemble(t *testing.T) {
	fn := specialize(t, `
import "math"

func hyp(a, b float64) float64 { return math.Sqrt(a*a + b*b) }`, ctype.Float64, ctype.Float64)
	res := convert(t, `
import "math"

func hyp(a, b float64) float64 { return math.Sqrt(a*a + b*b) }`)
	tr, err := Trampoline(fn)
	if err != nil {
		t.Fatal(err)
	}
	proj := Assemble("hyp", res.Includes, fn, tr)
	if proj.FindFunc("hyp_trampoline") == nil {
		t.Fatal("trampoline missing from project")
	}
	files, err := codegen.GenerateProject(proj)
	if err != nil {
		t.Fatal(err)
	}
	want := `#include <math.h>

double hyp(double a, double b) {
    return sqrt(a * a + b * b);
}

void hyp_trampoline(void** args, void* ret) {
    *(double*)ret = hyp(*(double*)args[0], *(double*)args[1]);
}
`
	if len(files) != 1 || files[0].Name != "hyp.c" {
		t.Fatalf("files = %+v", files)
	}
	if files[0].Source != want {
		t.Errorf("got:\n%s\nwant:\n%s", files[0].Source, want)
	}
}
